package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vkautotune/internal/backend"
	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/device"
	"github.com/samcharles93/vkautotune/internal/kernel"
	"github.com/samcharles93/vkautotune/internal/logger"
	"github.com/samcharles93/vkautotune/internal/results"
	"github.com/samcharles93/vkautotune/internal/sweep"
	"github.com/samcharles93/vkautotune/internal/version"
)

func tuneCmd() *cli.Command {
	var (
		so sweepOptions
		ro runOptions
	)

	return &cli.Command{
		Name:  "tune",
		Usage: "Benchmark every admitted candidate and log the results",
		Flags: append(sweepFlags(&so), runFlags(&ro)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			s, err := resolveSettings(cmd, configFromContext(ctx), so, ro, os.LookupEnv)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			log.Info("vkautotune", version.Resolve().Attrs()...)

			dev, err := openDevice(ctx, s)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() {
				if err := dev.Close(); err != nil {
					log.Warn("device close failed", "error", err)
				}
			}()

			info := dev.Info()
			logDevice(log, dev.Name(), info)

			grid := sweep.Generate(info.Limits, s.Sweep)
			log.Info("candidate grid",
				"preset", string(grid.Preset),
				"lanes", sweep.FormatLanes(grid.Lanes),
				"max_rn", grid.MaxRN,
				"max_rm", grid.MaxRM,
				"candidates", len(grid.Candidates),
			)

			sink, err := openSinks(cmd, s, len(grid.Candidates))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() {
				if err := sink.Close(); err != nil {
					log.Warn("result log close failed", "error", err)
				}
			}()

			if grid.Empty() {
				log.Warn("no candidate fits this device; nothing to benchmark")
				return nil
			}

			runner := &bench.Runner{
				Device: dev,
				Config: s.Run,
				Sink:   sink,
				RunID:  uuid.NewString(),
			}
			log.Info("sweep starting",
				"run_id", runner.RunID,
				"m", s.Run.M, "n", s.Run.N, "k", s.Run.K,
				"warmup", s.Run.Warmup, "reps", s.Run.Repetitions,
				"timeout", s.Run.Timeout,
				"smem_frac", s.Run.Fraction(),
			)
			records, runErr := runner.Run(ctx, grid.Candidates)

			summary := bench.Summarize(records)
			log.Info("sweep finished", "summary", summary.String())
			if summary.HasOK {
				b := summary.Best
				log.Info("best candidate",
					"tm", b.Candidate.TM, "tn", b.Candidate.TN, "tk", b.Candidate.TK,
					"lsx", b.Candidate.LaneX, "lsy", b.Candidate.LaneY,
					"smem", b.Candidate.SharedMem,
					"usec", b.UsecPerIter, "gflops", b.GFLOPS,
				)
			}

			if runErr != nil {
				if errors.Is(runErr, context.Canceled) {
					return cli.Exit("interrupted", 130)
				}
				return cli.Exit(fmt.Sprintf("error: %v", runErr), 1)
			}
			return nil
		},
	}
}

// openDevice loads the kernel when the backend needs one and opens the
// device with operand buffers sized for the run.
func openDevice(ctx context.Context, s settings) (device.Device, error) {
	log := logger.FromContext(ctx)

	var words []uint32
	if backend.NeedsKernel(s.Backend) {
		bin, err := kernel.Load(s.Kernel)
		if err != nil {
			return nil, fmt.Errorf("load kernel: %w", err)
		}
		defer func() { _ = bin.Close() }()
		major, minor := bin.Version()
		log.Debug("kernel loaded", "path", s.Kernel, "words", len(bin.Words()), "spirv", fmt.Sprintf("%d.%d", major, minor))
		words = bin.Words()
	}

	dev, err := backend.Open(s.Backend, device.Options{
		M:          s.Run.M,
		N:          s.Run.N,
		K:          s.Run.K,
		Kernel:     words,
		DeviceName: s.Device,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", s.Backend, err)
	}
	return dev, nil
}

func logDevice(log logger.Logger, backendName string, info device.Info) {
	log.Info("device",
		"backend", backendName,
		"name", info.Name,
		"api", info.APIVersion,
		"driver", info.DriverVersion,
		"max_invocations", info.Limits.MaxInvocations,
		"max_shared", info.Limits.MaxSharedMemory,
		"max_size_x", info.Limits.MaxGroupSizeX,
		"max_size_y", info.Limits.MaxGroupSizeY,
		"subgroup", info.Limits.SubgroupSize,
		"timestamp_period_ns", info.TimestampPeriod,
	)
}

// openSinks combines the console progress writer and the result log.
func openSinks(cmd *cli.Command, s settings, total int) (results.Writer, error) {
	var ws []results.Writer
	if !s.Quiet {
		ws = append(ws, results.NewConsole(cmd.Root().Writer, total))
	}
	if s.Run.ResultPath != "" {
		w, err := results.Create(s.Run.ResultPath, s.Run.ResultFormat)
		if err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return results.Multi(ws...), nil
}
