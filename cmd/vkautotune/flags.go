package main

import (
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool
)

// sweepOptions holds the candidate-space flags shared by tune and grid.
type sweepOptions struct {
	preset       string
	lanes        string
	ms           string
	ns           string
	enableSmem   bool
	enableNoSmem bool
	maxRN        int64
	maxRM        int64
	addTiles     string
}

// runOptions holds the measurement flags used by tune.
type runOptions struct {
	m, n, k      int64
	warmup       int64
	repetitions  int64
	timeout      time.Duration
	smemFrac     float64
	results      string
	resultFormat string
	kernel       string
	backend      string
	device       string
	quiet        bool
}

const defaultKernelPath = "shaders/gemm.spv"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default: user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func sweepFlags(o *sweepOptions) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "preset",
			Usage:       "candidate preset (classic, classic_legacy, extended16k, extended16k_capped)",
			Value:       "classic",
			Destination: &o.preset,
		},
		&cli.StringFlag{
			Name:        "lsz",
			Aliases:     []string{"lanes"},
			Usage:       "workgroup lane shapes, e.g. 16x8,16x4 (default: per preset)",
			Destination: &o.lanes,
		},
		&cli.StringFlag{
			Name:        "ms",
			Usage:       "output tile heights for the shared-memory family",
			Value:       formatDims(sweep.DefaultConfig().Ms),
			Destination: &o.ms,
		},
		&cli.StringFlag{
			Name:        "ns",
			Usage:       "output tile widths for the shared-memory family",
			Value:       formatDims(sweep.DefaultConfig().Ns),
			Destination: &o.ns,
		},
		&cli.BoolFlag{
			Name:        "enable-smem",
			Usage:       "sweep the shared-memory tile family",
			Value:       true,
			Destination: &o.enableSmem,
		},
		&cli.BoolFlag{
			Name:        "enable-nosmem",
			Usage:       "add the non-shared-memory baseline tile",
			Destination: &o.enableNoSmem,
		},
		&cli.Int64Flag{
			Name:        "max-rn",
			Usage:       "max output columns owned by one lane",
			Value:       8,
			Destination: &o.maxRN,
		},
		&cli.Int64Flag{
			Name:        "max-rm",
			Usage:       "max output rows owned by one lane",
			Value:       8,
			Destination: &o.maxRM,
		},
		&cli.StringFlag{
			Name:        "add-tiles",
			Usage:       "extra shared-memory tiles, e.g. 128x64,96x96",
			Destination: &o.addTiles,
		},
	}
}

func runFlags(o *runOptions) []cli.Flag {
	def := bench.DefaultRunConfig()
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "m",
			Usage:       "rows of A and C",
			Value:       int64(def.M),
			Destination: &o.m,
		},
		&cli.Int64Flag{
			Name:        "n",
			Usage:       "columns of B and C",
			Value:       int64(def.N),
			Destination: &o.n,
		},
		&cli.Int64Flag{
			Name:        "k",
			Usage:       "inner dimension",
			Value:       int64(def.K),
			Destination: &o.k,
		},
		&cli.Int64Flag{
			Name:        "warmup",
			Aliases:     []string{"warm"},
			Usage:       "untimed dispatches before the timing window",
			Value:       int64(def.Warmup),
			Destination: &o.warmup,
		},
		&cli.Int64Flag{
			Name:        "reps",
			Aliases:     []string{"rep"},
			Usage:       "timed dispatches per candidate",
			Value:       int64(def.Repetitions),
			Destination: &o.repetitions,
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "per-candidate completion timeout",
			Value:       def.Timeout,
			Destination: &o.timeout,
		},
		&cli.FloatFlag{
			Name:        "smem-frac",
			Usage:       "fraction of device shared memory candidates may use (0.5-1.0)",
			Value:       def.SharedFraction,
			Destination: &o.smemFrac,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"csv", "o"},
			Usage:       "result log path (.csv or .jsonl); empty disables the log",
			Destination: &o.results,
		},
		&cli.StringFlag{
			Name:        "result-format",
			Usage:       "result log format (csv, jsonl); default from the file extension",
			Destination: &o.resultFormat,
		},
		&cli.StringFlag{
			Name:        "spv",
			Aliases:     []string{"kernel"},
			Usage:       "compiled GEMM kernel",
			Value:       defaultKernelPath,
			Destination: &o.kernel,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "compute backend (auto, cpu, vulkan)",
			Value:       "auto",
			Destination: &o.backend,
		},
		&cli.StringFlag{
			Name:        "device",
			Usage:       "substring of the device name to select",
			Destination: &o.device,
		},
		&cli.BoolFlag{
			Name:        "quiet",
			Aliases:     []string{"q"},
			Usage:       "suppress per-candidate progress lines",
			Destination: &o.quiet,
		},
	}
}
