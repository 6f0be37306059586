// Package kernel loads the precompiled compute kernel that every candidate
// specializes.
package kernel

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
	"os"

	"golang.org/x/sys/unix"
)

// Magic is the first word of every SPIR-V module.
const Magic uint32 = 0x07230203

const headerWords = 5

type Binary struct {
	Path    string
	Data    []byte
	words   []uint32
	mmapped bool
}

// Load maps a SPIR-V file read-only and validates its header.
// If mmap is unavailable, it falls back to a plain read.
// The returned binary must be closed to release any mapping.
func Load(path string) (*Binary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%s: %w", path, ErrTruncated)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		b, parseErr := parse(path, data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return b, nil
	}

	data = make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return parse(path, data, false)
}

// FromBytes validates an in-memory module.
func FromBytes(data []byte) (*Binary, error) {
	return parse("", data, false)
}

func parse(path string, data []byte, mmapped bool) (*Binary, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	if len(data)%4 != 0 || len(data) < headerWords*4 {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrTruncated, len(data))
	}

	order := binary.ByteOrder(binary.LittleEndian)
	switch m := binary.LittleEndian.Uint32(data); m {
	case Magic:
	case bits.ReverseBytes32(Magic):
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%s: %w 0x%08x", path, ErrBadMagic, m)
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return &Binary{Path: path, Data: data, words: words, mmapped: mmapped}, nil
}

// Words returns the module in host word order.
func (b *Binary) Words() []uint32 { return b.words }

// Version returns the SPIR-V major and minor version from the header.
func (b *Binary) Version() (major, minor int) {
	v := b.words[1]
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff)
}

// Close releases any mmap backing.
func (b *Binary) Close() error {
	if b == nil || b.Data == nil {
		return nil
	}
	var err error
	if b.mmapped {
		err = unix.Munmap(b.Data)
	}
	b.Data = nil
	b.mmapped = false
	return err
}
