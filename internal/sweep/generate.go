package sweep

import (
	"slices"

	"github.com/samber/lo"
)

const (
	defaultMicroTile = 8

	// Baseline tile used by the non-shared-memory family.
	baselineTM = 32
	baselineTN = 32
)

var (
	widestLanes = []Lane{{16, 8}, {16, 4}, {16, 1}}

	presetLanes = map[Preset][]Lane{
		PresetClassic:           {{16, 8}, {16, 4}},
		PresetClassicLegacy:     {{16, 8}, {16, 4}, {16, 1}},
		PresetExtended16k:       {{16, 8}, {16, 4}, {16, 1}},
		PresetExtended16kCapped: {{16, 8}, {16, 16}},
	}

	// Hand-picked large tiles that consistently rank near the top.
	classicCurated = []Tile{
		{96, 64}, {112, 64}, {128, 64}, {144, 64}, {160, 64}, {176, 64}, {192, 64},
		{128, 48},
		{64, 128},
		{32, 64},
	}

	extendedMs       = []uint32{128, 144, 160, 176, 192}
	extendedNs       = []uint32{32, 48, 64, 80, 96, 112, 128}
	extendedCappedNs = []uint32{32, 48, 64, 80}
)

// Generate expands cfg into the ordered, deduplicated list of candidates the
// device can run. It never fails; an empty grid is a valid result.
func Generate(limits DeviceLimits, cfg Config) Grid {
	g := Grid{
		Preset: cfg.Preset,
		Lanes:  resolveLanes(cfg.Preset, cfg.Lanes),
		Ms:     slices.Clone(cfg.Ms),
		Ns:     slices.Clone(cfg.Ns),
		MaxRN:  cfg.MaxRN,
		MaxRM:  cfg.MaxRM,
	}
	if g.MaxRN <= 0 {
		g.MaxRN = defaultMicroTile
	}
	if g.MaxRM <= 0 {
		g.MaxRM = defaultMicroTile
	}

	if cfg.Preset.extended() {
		ns := extendedNs
		if cfg.Preset == PresetExtended16kCapped {
			ns = extendedCappedNs
		}
		g.Ms = sortedUnique(append(g.Ms, extendedMs...))
		g.Ns = sortedUnique(append(g.Ns, ns...))
	}

	// An unrecognised preset is not rejected. It keeps the dense and
	// baseline families below and sweeps the widest lane list. Earlier
	// releases of the tuner swept neither family for it.
	a := admitter{limits: limits, lanes: g.Lanes, tk: limits.SubgroupSize, maxRN: g.MaxRN, maxRM: g.MaxRM}

	if cfg.EnableShared {
		for _, tm := range g.Ms {
			for _, tn := range g.Ns {
				a.add(Tile{tm, tn}, true)
			}
		}
	}
	if cfg.EnableNoShared {
		a.add(Tile{baselineTM, baselineTN}, false)
	}
	if cfg.Preset == PresetClassic {
		for _, t := range classicCurated {
			a.add(t, true)
		}
	}
	for _, t := range cfg.ExtraTiles {
		a.add(t, true)
	}

	slices.SortFunc(a.out, func(x, y Candidate) int {
		switch {
		case x.Less(y):
			return -1
		case y.Less(x):
			return 1
		default:
			return 0
		}
	})
	g.Candidates = slices.Compact(a.out)
	if g.Candidates == nil {
		g.Candidates = []Candidate{}
	}
	return g
}

func resolveLanes(p Preset, lanes []Lane) []Lane {
	if len(lanes) > 0 {
		return slices.Clone(lanes)
	}
	if def, ok := presetLanes[p]; ok {
		return slices.Clone(def)
	}
	return slices.Clone(widestLanes)
}

func sortedUnique(v []uint32) []uint32 {
	out := lo.Uniq(v)
	slices.Sort(out)
	return out
}

type admitter struct {
	limits DeviceLimits
	lanes  []Lane
	tk     uint32
	maxRN  int
	maxRM  int
	out    []Candidate
}

// add appends every lane shape of tile t that passes the hardware filter.
func (a *admitter) add(t Tile, shared bool) {
	if t.M == 0 || t.N == 0 {
		return
	}
	if shared && sharedBytes(t.M, t.N, a.tk) > uint64(a.limits.MaxSharedMemory) {
		return
	}
	for _, l := range a.lanes {
		c := Candidate{TM: t.M, TN: t.N, TK: a.tk, LaneX: l.X, LaneY: l.Y, SharedMem: shared}
		if Admit(a.limits, c, a.maxRN, a.maxRM) {
			a.out = append(a.out, c)
		}
	}
}

// Admit reports whether c satisfies the device limits and the per-lane
// micro-tile caps.
func Admit(limits DeviceLimits, c Candidate, maxRN, maxRM int) bool {
	if c.LaneX == 0 || c.LaneY == 0 {
		return false
	}
	if uint64(c.LaneX)*uint64(c.LaneY) > uint64(limits.MaxInvocations) {
		return false
	}
	if c.LaneX > limits.MaxGroupSizeX || c.LaneY > limits.MaxGroupSizeY {
		return false
	}
	if maxRN > 0 && ceilDiv(c.TN, c.LaneX) > uint64(maxRN) {
		return false
	}
	if maxRM > 0 && ceilDiv(c.TM, c.LaneY) > uint64(maxRM) {
		return false
	}
	if c.SharedMem && c.SharedBytes() > uint64(limits.MaxSharedMemory) {
		return false
	}
	return true
}

// ceilDiv works in 64 bits so tile sizes near MaxUint32 cannot wrap.
func ceilDiv(a, b uint32) uint64 {
	return (uint64(a) + uint64(b) - 1) / uint64(b)
}
