// Package bench measures candidates on a device and drives a sweep.
package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/samcharles93/vkautotune/internal/device"
	"github.com/samcharles93/vkautotune/internal/logger"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

// GFLOPS converts a per-iteration time into throughput for an MxNxK GEMM.
func GFLOPS(m, n, k uint32, usecPerIter float64) float64 {
	if usecPerIter <= 0 {
		return 0
	}
	flops := 2.0 * float64(m) * float64(n) * float64(k)
	return flops / (usecPerIter * 1e3)
}

// DispatchFor builds the launch for c over the configured problem.
func DispatchFor(c sweep.Candidate, cfg RunConfig) device.Dispatch {
	return device.Dispatch{
		GroupsX:     ceilDiv(cfg.N, c.TN),
		GroupsY:     ceilDiv(cfg.M, c.TM),
		Warmup:      cfg.Warmup,
		Repetitions: cfg.Repetitions,
		Push: device.Push{
			M: cfg.M, N: cfg.N, K: cfg.K,
			LDA: cfg.K, LDB: cfg.N, LDC: cfg.N,
		},
	}
}

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Benchmark runs one candidate and classifies the outcome. It never fails:
// every problem is reported through the record's Status and Err. The
// pipeline and submission are released on every path.
func Benchmark(ctx context.Context, dev device.Device, c sweep.Candidate, cfg RunConfig) ResultRecord {
	log := logger.FromContext(ctx)
	rec := ResultRecord{
		Candidate:   c,
		M:           cfg.M,
		N:           cfg.N,
		K:           cfg.K,
		Warmup:      cfg.Warmup,
		Repetitions: cfg.Repetitions,
	}

	info := dev.Info()
	if c.SharedMem {
		if need, budget := c.SharedBytes(), cfg.SharedBudget(info.Limits); need > budget {
			rec.Status = StatusSkipSmem
			rec.Err = fmt.Sprintf("needs %dB > budget %dB", need, budget)
			return rec
		}
	}

	pipe, err := dev.Build(device.SpecializationFor(c))
	if err != nil {
		return rec.fail(StatusCompileFail, err)
	}
	defer func() {
		if err := pipe.Destroy(); err != nil {
			log.Warn("pipeline destroy failed", "candidate", c.String(), "error", err)
		}
	}()

	sub, err := dev.Submit(pipe, DispatchFor(c, cfg))
	if err != nil {
		return rec.fail(StatusWaitFail, fmt.Errorf("submit: %w", err))
	}
	defer func() {
		if err := sub.Release(); err != nil {
			log.Warn("submission release failed", "candidate", c.String(), "error", err)
		}
	}()

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := sub.Wait(waitCtx); err != nil {
		if isTimeout(ctx, err) {
			return rec.fail(StatusTimeout, err)
		}
		return rec.fail(StatusWaitFail, err)
	}

	start, end, err := sub.Timestamps()
	if err != nil {
		return rec.fail(StatusWaitFail, fmt.Errorf("read timestamps: %w", err))
	}
	if end < start {
		return rec.fail(StatusWaitFail, fmt.Errorf("end timestamp %d precedes start %d", end, start))
	}

	elapsedNS := float64(end-start) * info.TimestampPeriod
	rec.UsecPerIter = elapsedNS / 1000.0 / float64(cfg.Repetitions)
	rec.GFLOPS = GFLOPS(cfg.M, cfg.N, cfg.K, rec.UsecPerIter)
	rec.Status = StatusOK
	return rec
}

// isTimeout reports whether err is the per-candidate deadline rather than
// cancellation of the whole sweep.
func isTimeout(parent context.Context, err error) bool {
	if errors.Is(err, device.ErrTimeout) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}

func (r ResultRecord) fail(s Status, err error) ResultRecord {
	r.Status = s
	r.Err = err.Error()
	return r
}
