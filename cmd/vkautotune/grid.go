package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vkautotune/internal/backend/cpu"
	"github.com/samcharles93/vkautotune/internal/logger"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

func gridCmd() *cli.Command {
	var (
		so       sweepOptions
		ro       runOptions
		probe    bool
		asJSON   bool
		limitArg struct {
			invocations, shared, sizeX, sizeY, subgroup int64
		}
	)

	flags := sweepFlags(&so)
	flags = append(flags,
		&cli.BoolFlag{
			Name:        "probe",
			Usage:       "read limits from the selected backend instead of the limit flags",
			Destination: &probe,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print the grid as JSON",
			Destination: &asJSON,
		},
		&cli.Int64Flag{
			Name:        "max-invocations",
			Usage:       "max workgroup invocations",
			Value:       int64(cpu.Limits.MaxInvocations),
			Destination: &limitArg.invocations,
		},
		&cli.Int64Flag{
			Name:        "max-shared",
			Usage:       "max shared memory per workgroup in bytes",
			Value:       int64(cpu.Limits.MaxSharedMemory),
			Destination: &limitArg.shared,
		},
		&cli.Int64Flag{
			Name:        "max-size-x",
			Usage:       "max workgroup size along x",
			Value:       int64(cpu.Limits.MaxGroupSizeX),
			Destination: &limitArg.sizeX,
		},
		&cli.Int64Flag{
			Name:        "max-size-y",
			Usage:       "max workgroup size along y",
			Value:       int64(cpu.Limits.MaxGroupSizeY),
			Destination: &limitArg.sizeY,
		},
		&cli.Int64Flag{
			Name:        "subgroup",
			Usage:       "subgroup width, used as TK",
			Value:       int64(cpu.Limits.SubgroupSize),
			Destination: &limitArg.subgroup,
		},
	)
	flags = append(flags, runFlags(&ro)...)

	return &cli.Command{
		Name:  "grid",
		Usage: "Print the candidate grid without benchmarking",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			cfg := configFromContext(ctx)

			var limits sweep.DeviceLimits
			sc, err := resolveSweep(cmd, cfg, so, os.LookupEnv)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			if probe {
				s, err := resolveSettings(cmd, cfg, so, ro, os.LookupEnv)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				dev, err := openDevice(ctx, s)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				logDevice(log, dev.Name(), dev.Info())
				limits = dev.Info().Limits
				if err := dev.Close(); err != nil {
					log.Warn("device close failed", "error", err)
				}
			} else {
				limits, err = limitsFromFlags(limitArg.invocations, limitArg.shared, limitArg.sizeX, limitArg.sizeY, limitArg.subgroup)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
			}

			grid := sweep.Generate(limits, sc)
			if grid.Empty() {
				log.Warn("no candidate fits these limits")
			}
			w := cmd.Root().Writer
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(grid)
			}
			return printGrid(w, limits, grid)
		},
	}
}

func limitsFromFlags(vals ...int64) (sweep.DeviceLimits, error) {
	var out [5]uint32
	for i, v := range vals {
		if v <= 0 || v > 1<<31 {
			return sweep.DeviceLimits{}, fmt.Errorf("device limit out of range: %d", v)
		}
		out[i] = uint32(v)
	}
	return sweep.DeviceLimits{
		MaxInvocations:  out[0],
		MaxSharedMemory: out[1],
		MaxGroupSizeX:   out[2],
		MaxGroupSizeY:   out[3],
		SubgroupSize:    out[4],
	}, nil
}

func printGrid(w io.Writer, limits sweep.DeviceLimits, grid sweep.Grid) error {
	_, _ = fmt.Fprintf(w, "preset=%s lanes=%s max_rn=%d max_rm=%d subgroup=%d max_shared=%d candidates=%d\n",
		grid.Preset, sweep.FormatLanes(grid.Lanes), grid.MaxRN, grid.MaxRM,
		limits.SubgroupSize, limits.MaxSharedMemory, len(grid.Candidates))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tTM\tTN\tTK\tLSZ\tSMEM\tSHARED_BYTES")
	for i, c := range grid.Candidates {
		shared := "-"
		if c.SharedMem {
			shared = fmt.Sprint(c.SharedBytes())
		}
		_, _ = fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%dx%d\t%t\t%s\n",
			i+1, c.TM, c.TN, c.TK, c.LaneX, c.LaneY, c.SharedMem, shared)
	}
	return tw.Flush()
}
