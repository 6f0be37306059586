package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vkautotune/internal/backend"
	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

// settings is the fully layered configuration of one invocation.
type settings struct {
	Sweep   sweep.Config
	Run     bench.RunConfig
	Kernel  string
	Backend string
	Device  string
	Quiet   bool
}

// resolveSweep layers defaults, config file, flags and environment for the
// sweep options and converts them to a sweep.Config.
func resolveSweep(c *cli.Command, cfg Config, o sweepOptions, lookup lookupFunc) (sweep.Config, error) {
	applySweepConfig(c, cfg, &o)
	resolveLists(c, cfg, &o, lookup)
	if err := applySweepEnv(lookup, &o); err != nil {
		return sweep.Config{}, err
	}
	return o.config(), nil
}

// listOption is one list-valued sweep option and its sources.
type listOption struct {
	flag   string
	env    string
	dst    *string
	def    string
	cfg    string
	decode func(string) bool
}

// resolveLists layers the list-valued sweep options. A layer replaces the
// previous one only when it decodes to at least one item, so an empty or
// malformed value keeps what was there before.
func resolveLists(c *cli.Command, cfg Config, o *sweepOptions, lookup lookupFunc) {
	def := sweep.DefaultConfig()
	hasDims := func(s string) bool { return len(sweep.ParseDims(s)) > 0 }
	opts := []listOption{
		{
			flag: "lsz", env: envLanes, dst: &o.lanes, cfg: cfg.Lanes,
			decode: func(s string) bool { return len(sweep.ParseLanes(s)) > 0 },
		},
		{flag: "ms", env: envMs, dst: &o.ms, def: formatDims(def.Ms), cfg: formatDims(cfg.Ms), decode: hasDims},
		{flag: "ns", env: envNs, dst: &o.ns, def: formatDims(def.Ns), cfg: formatDims(cfg.Ns), decode: hasDims},
		{
			flag: "add-tiles", env: envAddTiles, dst: &o.addTiles, cfg: cfg.AddTiles,
			decode: func(s string) bool { return len(sweep.ParseTiles(s)) > 0 },
		},
	}
	for _, l := range opts {
		v := l.def
		overlay := func(s string) {
			if l.decode(s) {
				v = s
			}
		}
		overlay(l.cfg)
		if c.IsSet(l.flag) {
			overlay(*l.dst)
		}
		if s, ok := lookup(l.env); ok {
			overlay(s)
		}
		*l.dst = v
	}
}

// resolveSettings does the same for a full tune invocation.
func resolveSettings(c *cli.Command, cfg Config, so sweepOptions, ro runOptions, lookup lookupFunc) (settings, error) {
	sc, err := resolveSweep(c, cfg, so, lookup)
	if err != nil {
		return settings{}, err
	}
	applyRunConfig(c, cfg, &ro)
	if err := applyRunEnv(lookup, &ro); err != nil {
		return settings{}, err
	}
	rc, err := ro.config()
	if err != nil {
		return settings{}, err
	}
	name, err := backend.Resolve(ro.backend)
	if err != nil {
		return settings{}, err
	}
	return settings{
		Sweep:   sc,
		Run:     rc,
		Kernel:  ro.kernel,
		Backend: name,
		Device:  ro.device,
		Quiet:   ro.quiet,
	}, nil
}

func (o sweepOptions) config() sweep.Config {
	return sweep.Config{
		Preset:         sweep.Preset(strings.TrimSpace(o.preset)),
		Lanes:          sweep.ParseLanes(o.lanes),
		Ms:             sweep.ParseDims(o.ms),
		Ns:             sweep.ParseDims(o.ns),
		EnableShared:   o.enableSmem,
		EnableNoShared: o.enableNoSmem,
		MaxRN:          int(o.maxRN),
		MaxRM:          int(o.maxRM),
		ExtraTiles:     sweep.ParseTiles(o.addTiles),
	}
}

func (o runOptions) config() (bench.RunConfig, error) {
	var errs []error
	dim := func(name string, v int64) uint32 {
		if v < 0 || v > math.MaxUint32 {
			errs = append(errs, fmt.Errorf("%s out of range: %d", name, v))
			return 0
		}
		return uint32(v)
	}
	rc := bench.RunConfig{
		M:              dim("m", o.m),
		N:              dim("n", o.n),
		K:              dim("k", o.k),
		Warmup:         dim("warmup", o.warmup),
		Repetitions:    dim("reps", o.repetitions),
		Timeout:        o.timeout,
		SharedFraction: o.smemFrac,
		ResultPath:     strings.TrimSpace(o.results),
		ResultFormat:   o.resultFormat,
	}
	if err := errors.Join(errs...); err != nil {
		return bench.RunConfig{}, err
	}
	if err := rc.Validate(); err != nil {
		return bench.RunConfig{}, err
	}
	return rc, nil
}

func formatDims(v []uint32) string {
	parts := make([]string, len(v))
	for i, d := range v {
		parts[i] = strconv.FormatUint(uint64(d), 10)
	}
	return strings.Join(parts, ",")
}
