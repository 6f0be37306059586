package bench

import (
	"errors"
	"fmt"
	"time"

	"github.com/samcharles93/vkautotune/internal/sweep"
)

const (
	minSharedFraction = 0.5
	maxSharedFraction = 1.0
)

// RunConfig fixes the problem and the measurement protocol for a sweep.
type RunConfig struct {
	M, N, K        uint32
	Warmup         uint32
	Repetitions    uint32
	Timeout        time.Duration
	SharedFraction float64
	ResultPath     string
	ResultFormat   string
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		M:              1024,
		N:              1024,
		K:              1024,
		Warmup:         5,
		Repetitions:    30,
		Timeout:        600 * time.Second,
		SharedFraction: 1.0,
	}
}

// Fraction returns the shared-memory safety fraction clamped to [0.5, 1].
func (c RunConfig) Fraction() float64 {
	return min(max(c.SharedFraction, minSharedFraction), maxSharedFraction)
}

// SharedBudget is the run-time shared-memory budget in bytes. It may be
// stricter than the limit used at generation time.
func (c RunConfig) SharedBudget(limits sweep.DeviceLimits) uint64 {
	return uint64(float64(limits.MaxSharedMemory) * c.Fraction())
}

func (c RunConfig) Validate() error {
	var errs []error
	if c.M == 0 || c.N == 0 || c.K == 0 {
		errs = append(errs, fmt.Errorf("problem size must be non-zero (M=%d N=%d K=%d)", c.M, c.N, c.K))
	}
	if c.Repetitions == 0 {
		errs = append(errs, errors.New("repetitions must be at least 1"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}
