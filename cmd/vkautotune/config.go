package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the config file (~/.config/vkautotune/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Sweep
	Preset       string   `yaml:"preset"`
	Lanes        string   `yaml:"lanes"`
	Ms           []uint32 `yaml:"ms"`
	Ns           []uint32 `yaml:"ns"`
	EnableSmem   *bool    `yaml:"enable_smem"`
	EnableNoSmem *bool    `yaml:"enable_nosmem"`
	MaxRN        *int64   `yaml:"max_rn"`
	MaxRM        *int64   `yaml:"max_rm"`
	AddTiles     string   `yaml:"add_tiles"`

	// Run
	M              *int64         `yaml:"m"`
	N              *int64         `yaml:"n"`
	K              *int64         `yaml:"k"`
	Warmup         *int64         `yaml:"warmup"`
	Repetitions    *int64         `yaml:"repetitions"`
	Timeout        *time.Duration `yaml:"timeout"`
	SharedFraction *float64       `yaml:"smem_frac"`
	Results        string         `yaml:"results"`
	ResultFormat   string         `yaml:"result_format"`
	Kernel         string         `yaml:"kernel"`

	// Backend
	Backend string `yaml:"backend"`
	Device  string `yaml:"device"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "vkautotune", "config.yaml")
}

// LoadConfig reads the config file. A missing default file yields a zero
// Config; a missing explicit path or malformed YAML is an error.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = configPath()
	}
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) Config {
	cfg, _ := ctx.Value(configKey{}).(Config)
	return cfg
}

// applyLogConfig applies config file defaults to the root logging flags.
func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applySweepConfig applies config file defaults to scalar sweep flags that
// were not set explicitly. List options are layered by resolveLists.
func applySweepConfig(c *cli.Command, cfg Config, o *sweepOptions) {
	if cfg.Preset != "" && !c.IsSet("preset") {
		o.preset = cfg.Preset
	}
	if cfg.EnableSmem != nil && !c.IsSet("enable-smem") {
		o.enableSmem = *cfg.EnableSmem
	}
	if cfg.EnableNoSmem != nil && !c.IsSet("enable-nosmem") {
		o.enableNoSmem = *cfg.EnableNoSmem
	}
	if cfg.MaxRN != nil && !c.IsSet("max-rn") {
		o.maxRN = *cfg.MaxRN
	}
	if cfg.MaxRM != nil && !c.IsSet("max-rm") {
		o.maxRM = *cfg.MaxRM
	}
}

// applyRunConfig applies config file defaults to run flags that were not
// set explicitly.
func applyRunConfig(c *cli.Command, cfg Config, o *runOptions) {
	setInt := func(flag string, v *int64, dst *int64) {
		if v != nil && !c.IsSet(flag) {
			*dst = *v
		}
	}
	setInt("m", cfg.M, &o.m)
	setInt("n", cfg.N, &o.n)
	setInt("k", cfg.K, &o.k)
	setInt("warmup", cfg.Warmup, &o.warmup)
	setInt("reps", cfg.Repetitions, &o.repetitions)

	if cfg.Timeout != nil && !c.IsSet("timeout") {
		o.timeout = *cfg.Timeout
	}
	if cfg.SharedFraction != nil && !c.IsSet("smem-frac") {
		o.smemFrac = *cfg.SharedFraction
	}
	if cfg.Results != "" && !c.IsSet("out") {
		o.results = cfg.Results
	}
	if cfg.ResultFormat != "" && !c.IsSet("result-format") {
		o.resultFormat = cfg.ResultFormat
	}
	if cfg.Kernel != "" && !c.IsSet("spv") {
		o.kernel = cfg.Kernel
	}
	if cfg.Backend != "" && !c.IsSet("backend") {
		o.backend = cfg.Backend
	}
	if cfg.Device != "" && !c.IsSet("device") {
		o.device = cfg.Device
	}
}

// applyServeConfig applies config file defaults to serve flags.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
