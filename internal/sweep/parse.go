package sweep

import (
	"strconv"
	"strings"
)

// ParseLanes decodes a lane list such as "16x8,16x4". Items missing either
// side are dropped. An input with no valid item returns nil.
func ParseLanes(s string) []Lane {
	var out []Lane
	for _, p := range parsePairs(s) {
		out = append(out, Lane{X: p[0], Y: p[1]})
	}
	return out
}

// ParseTiles decodes an output tile list such as "128x64,96x64".
func ParseTiles(s string) []Tile {
	var out []Tile
	for _, p := range parsePairs(s) {
		out = append(out, Tile{M: p[0], N: p[1]})
	}
	return out
}

// ParseDims decodes a dimension list such as "64,80,96". Any run of
// non-digit characters separates values.
func ParseDims(s string) []uint32 {
	var out []uint32
	for _, f := range strings.FieldsFunc(s, notDigit) {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			continue
		}
		out = append(out, uint32(v))
	}
	return out
}

// ParseToggle decodes a boolean switch. Numeric values are true when
// non-zero; "true"/"yes"/"on" are accepted as well.
func ParseToggle(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "yes", "on":
		return true
	}
	v, err := strconv.Atoi(s)
	return err == nil && v != 0
}

// FormatLanes renders lanes in the same form ParseLanes accepts.
func FormatLanes(lanes []Lane) string {
	parts := make([]string, len(lanes))
	for i, l := range lanes {
		parts[i] = l.String()
	}
	return strings.Join(parts, ",")
}

func parsePairs(s string) [][2]uint32 {
	var out [][2]uint32
	for _, item := range strings.FieldsFunc(s, func(r rune) bool {
		return notDigit(r) && r != 'x' && r != 'X'
	}) {
		a, b, ok := strings.Cut(strings.ToLower(item), "x")
		if !ok {
			continue
		}
		x, errA := strconv.ParseUint(a, 10, 32)
		y, errB := strconv.ParseUint(b, 10, 32)
		if errA != nil || errB != nil || x == 0 || y == 0 {
			continue
		}
		out = append(out, [2]uint32{uint32(x), uint32(y)})
	}
	return out
}

func notDigit(r rune) bool {
	return r < '0' || r > '9'
}
