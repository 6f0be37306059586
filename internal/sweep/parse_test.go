package sweep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLanes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []Lane
	}{
		{"16x8,16x4", []Lane{{16, 8}, {16, 4}}},
		{"16X8 32x2", []Lane{{16, 8}, {32, 2}}},
		{"16x8;;x4;8x", []Lane{{16, 8}}},
		{"", nil},
		{"garbage", nil},
		{"0x8", nil},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, ParseLanes(tc.in)); diff != "" {
			t.Errorf("ParseLanes(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestParseTiles(t *testing.T) {
	t.Parallel()

	got := ParseTiles("128x64, 96x64")
	want := []Tile{{128, 64}, {96, 64}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ParseTiles mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []uint32
	}{
		{"64,80,96", []uint32{64, 80, 96}},
		{" 64 ; 80 ", []uint32{64, 80}},
		{"", nil},
		{"abc", nil},
	}
	for _, tc := range tests {
		if diff := cmp.Diff(tc.want, ParseDims(tc.in)); diff != "" {
			t.Errorf("ParseDims(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestParseToggle(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"1":     true,
		"0":     false,
		"2":     true,
		"true":  true,
		"On":    true,
		"false": false,
		"":      false,
		"nope":  false,
	}
	for in, want := range tests {
		if got := ParseToggle(in); got != want {
			t.Errorf("ParseToggle(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFormatLanesRoundTrip(t *testing.T) {
	t.Parallel()

	lanes := []Lane{{16, 8}, {16, 1}}
	if got := FormatLanes(lanes); got != "16x8,16x1" {
		t.Fatalf("FormatLanes = %q", got)
	}
	if diff := cmp.Diff(lanes, ParseLanes(FormatLanes(lanes))); diff != "" {
		t.Fatalf("round trip mismatch:\n%s", diff)
	}
}
