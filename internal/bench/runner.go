package bench

import (
	"context"
	"fmt"

	"github.com/samcharles93/vkautotune/internal/device"
	"github.com/samcharles93/vkautotune/internal/logger"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

// Sink receives each record as soon as it is produced.
type Sink interface {
	Write(ResultRecord) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ResultRecord) error

func (f SinkFunc) Write(r ResultRecord) error { return f(r) }

// Runner benchmarks a grid strictly one candidate at a time.
type Runner struct {
	Device device.Device
	Config RunConfig
	Sink   Sink
	RunID  string
}

// Run produces exactly one record per candidate reached. Candidate failures
// are recorded and the sweep continues; a sink error or cancellation of ctx
// stops it.
func (r *Runner) Run(ctx context.Context, grid []sweep.Candidate) ([]ResultRecord, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	records := make([]ResultRecord, 0, len(grid))
	for i, c := range grid {
		if err := ctx.Err(); err != nil {
			log.Warn("sweep interrupted", "completed", i, "total", len(grid))
			return records, err
		}

		rec := Benchmark(ctx, r.Device, c, r.Config)
		rec.RunID = r.RunID
		rec.Index = i + 1
		records = append(records, rec)

		attrs := []any{
			"index", rec.Index,
			"tm", c.TM, "tn", c.TN, "tk", c.TK,
			"lsx", c.LaneX, "lsy", c.LaneY,
			"smem", c.SharedMem,
			"status", string(rec.Status),
		}
		if rec.Measured() {
			log.Debug("candidate measured", append(attrs, "usec", rec.UsecPerIter, "gflops", rec.GFLOPS)...)
		} else {
			log.Debug("candidate rejected", append(attrs, "reason", rec.Err)...)
		}

		if r.Sink != nil {
			if err := r.Sink.Write(rec); err != nil {
				return records, fmt.Errorf("write result %d: %w", rec.Index, err)
			}
		}
	}
	return records, nil
}
