package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samcharles93/vkautotune/internal/sweep"
)

// Environment overrides. They win over the config file and flags.
const (
	envPreset       = "AT_PRESET"
	envLanes        = "AT_LSZ"
	envMs           = "AT_MS"
	envNs           = "AT_NS"
	envEnableSmem   = "AT_ENABLE_SMEM"
	envEnableNoSmem = "AT_ENABLE_NOSMEM"
	envMaxRN        = "AT_MAX_RN"
	envMaxRM        = "AT_MAX_RM"
	envAddTiles     = "AT_ADD_TILES"

	envM         = "AT_M"
	envN         = "AT_N"
	envK         = "AT_K"
	envWarm      = "AT_WARM"
	envRep       = "AT_REP"
	envTimeoutMS = "AT_TIMEOUT_MS"
	envSmemFrac  = "AT_SMEM_FRAC"
	envCSV       = "AT_CSV"
	envSPV       = "AT_SPV"
	envBackend   = "AT_BACKEND"
	envDevice    = "AT_DEVICE"
)

type lookupFunc func(string) (string, bool)

// applySweepEnv overlays scalar sweep environment variables onto o.
func applySweepEnv(lookup lookupFunc, o *sweepOptions) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	str(envPreset, &o.preset)

	if v, ok := lookup(envEnableSmem); ok {
		o.enableSmem = sweep.ParseToggle(v)
	}
	if v, ok := lookup(envEnableNoSmem); ok {
		o.enableNoSmem = sweep.ParseToggle(v)
	}
	if err := envInt(lookup, envMaxRN, &o.maxRN); err != nil {
		return err
	}
	return envInt(lookup, envMaxRM, &o.maxRM)
}

// applyRunEnv overlays run environment variables onto o.
func applyRunEnv(lookup lookupFunc, o *runOptions) error {
	for _, f := range []struct {
		name string
		dst  *int64
	}{
		{envM, &o.m},
		{envN, &o.n},
		{envK, &o.k},
		{envWarm, &o.warmup},
		{envRep, &o.repetitions},
	} {
		if err := envInt(lookup, f.name, f.dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(envTimeoutMS); ok {
		ms, err := strconv.ParseUint(strings.TrimSpace(v), 10, 63)
		if err != nil {
			return fmt.Errorf("%s: %w", envTimeoutMS, err)
		}
		o.timeout = time.Duration(ms) * time.Millisecond
	}
	if v, ok := lookup(envSmemFrac); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", envSmemFrac, err)
		}
		o.smemFrac = f
	}
	if v, ok := lookup(envCSV); ok {
		o.results = v
	}
	if v, ok := lookup(envSPV); ok {
		o.kernel = v
	}
	if v, ok := lookup(envBackend); ok {
		o.backend = v
	}
	if v, ok := lookup(envDevice); ok {
		o.device = v
	}
	return nil
}

func envInt(lookup lookupFunc, name string, dst *int64) error {
	v, ok := lookup(name)
	if !ok {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}
