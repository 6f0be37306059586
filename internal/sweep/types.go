package sweep

import "fmt"

// DeviceLimits are the compute limits reported by the device at startup.
type DeviceLimits struct {
	MaxInvocations  uint32
	MaxSharedMemory uint32
	MaxGroupSizeX   uint32
	MaxGroupSizeY   uint32
	SubgroupSize    uint32
}

// Lane is a 2-D workgroup launch shape.
type Lane struct {
	X uint32
	Y uint32
}

func (l Lane) String() string {
	return fmt.Sprintf("%dx%d", l.X, l.Y)
}

// Tile is an output tile in result elements (M rows by N columns).
type Tile struct {
	M uint32
	N uint32
}

func (t Tile) String() string {
	return fmt.Sprintf("%dx%d", t.M, t.N)
}

// Candidate is one point of the search space. Two candidates with equal
// fields are the same candidate.
type Candidate struct {
	TM        uint32 `json:"tm" yaml:"tm"`
	TN        uint32 `json:"tn" yaml:"tn"`
	TK        uint32 `json:"tk" yaml:"tk"`
	LaneX     uint32 `json:"lsx" yaml:"lsx"`
	LaneY     uint32 `json:"lsy" yaml:"lsy"`
	SharedMem bool   `json:"smem" yaml:"smem"`
}

// SharedBytes is the shared-memory footprint of the staged A and B slabs.
func (c Candidate) SharedBytes() uint64 {
	return sharedBytes(c.TM, c.TN, c.TK)
}

// SharedElems is the number of float elements staged per workgroup.
func (c Candidate) SharedElems() uint32 {
	return c.TM*c.TK + c.TK*c.TN
}

// Less orders shared-memory candidates first, then ascending by
// (TM, TN, TK, LaneX, LaneY).
func (c Candidate) Less(o Candidate) bool {
	if c.SharedMem != o.SharedMem {
		return c.SharedMem
	}
	if c.TM != o.TM {
		return c.TM < o.TM
	}
	if c.TN != o.TN {
		return c.TN < o.TN
	}
	if c.TK != o.TK {
		return c.TK < o.TK
	}
	if c.LaneX != o.LaneX {
		return c.LaneX < o.LaneX
	}
	return c.LaneY < o.LaneY
}

func (c Candidate) String() string {
	return fmt.Sprintf("TM=%d TN=%d TK=%d lsz=(%d,%d) smem=%d",
		c.TM, c.TN, c.TK, c.LaneX, c.LaneY, boolToUint(c.SharedMem))
}

func sharedBytes(tm, tn, tk uint32) uint64 {
	return 4 * uint64(tk) * (uint64(tm) + uint64(tn))
}

func boolToUint(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Preset selects the default lane shapes and candidate families.
type Preset string

const (
	PresetClassic           Preset = "classic"
	PresetClassicLegacy     Preset = "classic_legacy"
	PresetExtended16k       Preset = "extended16k"
	PresetExtended16kCapped Preset = "extended16k_capped"
)

// Known reports whether p names one of the built-in presets.
func (p Preset) Known() bool {
	switch p {
	case PresetClassic, PresetClassicLegacy, PresetExtended16k, PresetExtended16kCapped:
		return true
	default:
		return false
	}
}

func (p Preset) extended() bool {
	return p == PresetExtended16k || p == PresetExtended16kCapped
}

// Config describes which part of the candidate space to sweep.
// Zero-valued caps mean "use the default".
type Config struct {
	Preset         Preset
	Lanes          []Lane
	Ms             []uint32
	Ns             []uint32
	EnableShared   bool
	EnableNoShared bool
	MaxRN          int
	MaxRM          int
	ExtraTiles     []Tile
}

// DefaultConfig returns the classic preset with the default tile lists.
func DefaultConfig() Config {
	return Config{
		Preset:       PresetClassic,
		Ms:           []uint32{64, 80, 96, 112},
		Ns:           []uint32{32, 48, 64, 80},
		EnableShared: true,
	}
}

// Grid is the resolved sweep: the effective inputs alongside the candidates.
type Grid struct {
	Preset     Preset
	Lanes      []Lane
	Ms         []uint32
	Ns         []uint32
	MaxRN      int
	MaxRM      int
	Candidates []Candidate
}

// Empty reports whether no candidate survived admission.
func (g Grid) Empty() bool {
	return len(g.Candidates) == 0
}
