package kernel

import "errors"

var (
	ErrBadMagic  = errors.New("invalid SPIR-V magic")
	ErrTruncated = errors.New("SPIR-V binary is not a whole number of words")
	ErrEmpty     = errors.New("SPIR-V binary is empty")
)
