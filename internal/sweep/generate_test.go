package sweep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var testLimits = DeviceLimits{
	MaxInvocations:  1024,
	MaxSharedMemory: 32768,
	MaxGroupSizeX:   1024,
	MaxGroupSizeY:   1024,
	SubgroupSize:    32,
}

func TestGenerateClassicDefaults(t *testing.T) {
	t.Parallel()

	g := Generate(testLimits, DefaultConfig())

	want := []Candidate{
		{TM: 32, TN: 64, TK: 32, LaneX: 16, LaneY: 4, SharedMem: true},
		{TM: 32, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true},
		{TM: 64, TN: 32, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true},
		{TM: 64, TN: 48, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true},
		{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true},
		{TM: 64, TN: 80, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true},
		{TM: 64, TN: 128, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true},
	}
	if diff := cmp.Diff(want, g.Candidates); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Lane{{16, 8}, {16, 4}}, g.Lanes); diff != "" {
		t.Fatalf("lanes mismatch (-want +got):\n%s", diff)
	}
	if g.MaxRN != 8 || g.MaxRM != 8 {
		t.Fatalf("expected default micro-tile caps 8x8, got %dx%d", g.MaxRN, g.MaxRM)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	for _, p := range []Preset{PresetClassic, PresetClassicLegacy, PresetExtended16k, PresetExtended16kCapped, "bogus"} {
		cfg := DefaultConfig()
		cfg.Preset = p
		cfg.EnableNoShared = true
		a := Generate(testLimits, cfg)
		b := Generate(testLimits, cfg)
		if diff := cmp.Diff(a.Candidates, b.Candidates); diff != "" {
			t.Fatalf("preset %s not deterministic:\n%s", p, diff)
		}
	}
}

func TestGenerateInvariants(t *testing.T) {
	t.Parallel()

	limitsSet := []DeviceLimits{
		testLimits,
		{MaxInvocations: 256, MaxSharedMemory: 16384, MaxGroupSizeX: 256, MaxGroupSizeY: 256, SubgroupSize: 32},
		{MaxInvocations: 1024, MaxSharedMemory: 49152, MaxGroupSizeX: 1024, MaxGroupSizeY: 64, SubgroupSize: 64},
		{MaxInvocations: 128, MaxSharedMemory: 65536, MaxGroupSizeX: 16, MaxGroupSizeY: 8, SubgroupSize: 16},
	}
	configs := []Config{
		DefaultConfig(),
		{Preset: PresetExtended16k, Ms: []uint32{64, 80}, Ns: []uint32{32}, EnableShared: true, EnableNoShared: true},
		{Preset: PresetExtended16kCapped, Ms: []uint32{64}, Ns: []uint32{64}, EnableShared: true, MaxRN: 4, MaxRM: 16},
		{Preset: PresetClassicLegacy, Ms: []uint32{16, 32, 64}, Ns: []uint32{16, 32}, EnableShared: true,
			Lanes: []Lane{{8, 8}, {32, 32}, {64, 1}}, ExtraTiles: []Tile{{256, 256}, {16, 16}}},
	}

	for _, limits := range limitsSet {
		for _, cfg := range configs {
			g := Generate(limits, cfg)
			seen := make(map[Candidate]bool, len(g.Candidates))
			for i, c := range g.Candidates {
				if seen[c] {
					t.Fatalf("duplicate candidate %v", c)
				}
				seen[c] = true

				if c.TK != limits.SubgroupSize {
					t.Fatalf("TK %d does not match subgroup %d", c.TK, limits.SubgroupSize)
				}
				if c.LaneX*c.LaneY > limits.MaxInvocations {
					t.Fatalf("%v exceeds invocation cap %d", c, limits.MaxInvocations)
				}
				if c.LaneX > limits.MaxGroupSizeX || c.LaneY > limits.MaxGroupSizeY {
					t.Fatalf("%v exceeds workgroup size caps", c)
				}
				if ceilDiv(c.TN, c.LaneX) > uint64(g.MaxRN) || ceilDiv(c.TM, c.LaneY) > uint64(g.MaxRM) {
					t.Fatalf("%v exceeds micro-tile caps %dx%d", c, g.MaxRN, g.MaxRM)
				}
				if c.SharedMem && 4*uint64(c.TK)*uint64(c.TM+c.TN) > uint64(limits.MaxSharedMemory) {
					t.Fatalf("%v exceeds shared memory %d", c, limits.MaxSharedMemory)
				}
				if i > 0 && !g.Candidates[i-1].Less(c) {
					t.Fatalf("candidates out of order at %d: %v then %v", i, g.Candidates[i-1], c)
				}
			}
		}
	}
}

func TestGenerateSharedBeforeNoShared(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.EnableNoShared = true
	g := Generate(testLimits, cfg)

	n := len(g.Candidates)
	if n < 2 {
		t.Fatalf("expected candidates, got %d", n)
	}
	tail := g.Candidates[n-2:]
	want := []Candidate{
		{TM: 32, TN: 32, TK: 32, LaneX: 16, LaneY: 4},
		{TM: 32, TN: 32, TK: 32, LaneX: 16, LaneY: 8},
	}
	if diff := cmp.Diff(want, tail); diff != "" {
		t.Fatalf("baseline candidates mismatch (-want +got):\n%s", diff)
	}
	for _, c := range g.Candidates[:n-2] {
		if !c.SharedMem {
			t.Fatalf("non-shared candidate %v sorted before shared ones", c)
		}
	}
}

func TestGenerateDedupesExtraTiles(t *testing.T) {
	t.Parallel()

	base := Generate(testLimits, DefaultConfig())

	cfg := DefaultConfig()
	cfg.ExtraTiles = []Tile{{64, 64}, {64, 64}, {32, 64}}
	g := Generate(testLimits, cfg)

	if diff := cmp.Diff(base.Candidates, g.Candidates); diff != "" {
		t.Fatalf("extra tiles already in the grid changed it:\n%s", diff)
	}
}

func TestGenerateUnknownPresetFallsBack(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Preset = "no-such-preset"
	g := Generate(testLimits, cfg)

	if diff := cmp.Diff([]Lane{{16, 8}, {16, 4}, {16, 1}}, g.Lanes); diff != "" {
		t.Fatalf("expected widest lane list (-want +got):\n%s", diff)
	}
	if g.Empty() {
		t.Fatalf("expected dense family to be swept for unknown preset")
	}
}

func TestGenerateExtendedWidensDims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		preset Preset
		wantNs []uint32
	}{
		{PresetExtended16k, []uint32{32, 48, 64, 80, 96, 112, 128}},
		{PresetExtended16kCapped, []uint32{32, 48, 64, 80}},
	}
	for _, tc := range tests {
		t.Run(string(tc.preset), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Preset = tc.preset
			g := Generate(testLimits, cfg)

			wantMs := []uint32{64, 80, 96, 112, 128, 144, 160, 176, 192}
			if diff := cmp.Diff(wantMs, g.Ms); diff != "" {
				t.Fatalf("Ms mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantNs, g.Ns); diff != "" {
				t.Fatalf("Ns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGenerateDoesNotMutateConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Preset = PresetExtended16k
	_ = Generate(testLimits, cfg)

	if diff := cmp.Diff([]uint32{64, 80, 96, 112}, cfg.Ms); diff != "" {
		t.Fatalf("config Ms mutated:\n%s", diff)
	}
}

func TestGenerateEmptyDims(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Preset = PresetClassicLegacy
	cfg.Ms = nil
	g := Generate(testLimits, cfg)

	if !g.Empty() {
		t.Fatalf("expected empty grid, got %d candidates", len(g.Candidates))
	}
	if g.Candidates == nil {
		t.Fatalf("empty grid should be an empty slice, not nil")
	}
}

func TestGenerateSharedBudget(t *testing.T) {
	t.Parallel()

	limits := testLimits
	limits.MaxSharedMemory = 16384
	cfg := Config{
		Preset:       PresetClassicLegacy,
		Ms:           []uint32{64, 96},
		Ns:           []uint32{32, 64},
		EnableShared: true,
		Lanes:        []Lane{{16, 16}},
	}
	g := Generate(limits, cfg)

	// 4*32*(TM+TN) <= 16384 keeps only TM+TN <= 128.
	want := []Candidate{
		{TM: 64, TN: 32, TK: 32, LaneX: 16, LaneY: 16, SharedMem: true},
		{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 16, SharedMem: true},
		{TM: 96, TN: 32, TK: 32, LaneX: 16, LaneY: 16, SharedMem: true},
	}
	if diff := cmp.Diff(want, g.Candidates); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
}

func TestAdmit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		c    Candidate
		want bool
	}{
		{"fits", Candidate{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true}, true},
		{"too many invocations", Candidate{TM: 64, TN: 64, TK: 32, LaneX: 64, LaneY: 32}, false},
		{"x too wide", Candidate{TM: 64, TN: 2048, TK: 32, LaneX: 2048, LaneY: 1}, false},
		{"rn cap", Candidate{TM: 64, TN: 144, TK: 32, LaneX: 16, LaneY: 8}, false},
		{"rm cap", Candidate{TM: 72, TN: 64, TK: 32, LaneX: 16, LaneY: 8}, false},
		{"shared over budget", Candidate{TM: 136, TN: 128, TK: 32, LaneX: 32, LaneY: 32, SharedMem: true}, false},
		{"no shared ignores budget", Candidate{TM: 136, TN: 128, TK: 32, LaneX: 32, LaneY: 32}, true},
		{"zero lane", Candidate{TM: 64, TN: 64, TK: 32, LaneX: 0, LaneY: 8}, false},
	}
	for _, tc := range tests {
		if got := Admit(testLimits, tc.c, 8, 8); got != tc.want {
			t.Errorf("%s: Admit(%v) = %v, want %v", tc.name, tc.c, got, tc.want)
		}
	}
}

func TestGenerateHugeTilesDoNotWrap(t *testing.T) {
	t.Parallel()

	limits := DeviceLimits{
		MaxInvocations:  1024,
		MaxSharedMemory: 32768,
		MaxGroupSizeX:   1024,
		MaxGroupSizeY:   1024,
	}
	const huge = ^uint32(0)
	cfg := Config{
		Preset:       PresetClassicLegacy,
		Lanes:        []Lane{{16, 8}},
		EnableShared: true,
		ExtraTiles:   []Tile{{huge, huge}, {huge, 64}, {64, huge}},
	}
	if got := Generate(limits, cfg).Candidates; len(got) != 0 {
		t.Fatalf("admitted oversized tiles: %v", got)
	}
	if ceilDiv(huge, 16) != 1<<28 {
		t.Fatalf("ceilDiv(MaxUint32, 16) = %d", ceilDiv(huge, 16))
	}
	if Admit(limits, Candidate{TM: huge, TN: huge, LaneX: 16, LaneY: 8, SharedMem: true}, 8, 8) {
		t.Fatalf("Admit accepted a MaxUint32 tile")
	}
}
