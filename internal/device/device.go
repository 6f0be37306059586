// Package device defines the compute-device contract the benchmark harness
// drives: device setup options, kernel specialization, the recorded
// dispatch stream and the handles returned for each candidate.
package device

import (
	"context"
	"errors"

	"github.com/samcharles93/vkautotune/internal/sweep"
)

var (
	// ErrTimeout is returned by Submission.Wait when the device did not
	// signal completion before the deadline.
	ErrTimeout = errors.New("device: wait timed out")
	// ErrUnavailable is returned when a backend is not compiled in or no
	// suitable device exists.
	ErrUnavailable = errors.New("device: unavailable")
)

// Info describes the opened device. Limits and TimestampPeriod are
// fixed for the lifetime of the device.
type Info struct {
	Name            string
	APIVersion      string
	DriverVersion   uint32
	Limits          sweep.DeviceLimits
	TimestampPeriod float64 // nanoseconds per timestamp tick
}

// Options configure device setup. The three operand buffers are sized from
// M, N and K, filled once, and shared by every candidate.
type Options struct {
	M, N, K uint32
	// Kernel is the compiled compute kernel. Backends that execute natively
	// on the host ignore it.
	Kernel []uint32
	// DeviceName restricts device selection to names containing it.
	DeviceName string
}

// Specialization holds the compile-time constants of one kernel instance.
type Specialization struct {
	LaneX, LaneY uint32
	TM, TN, TK   uint32
	SharedMem    bool
	SharedElems  uint32
}

// SpecializationFor derives the kernel constants of c.
func SpecializationFor(c sweep.Candidate) Specialization {
	return Specialization{
		LaneX:       c.LaneX,
		LaneY:       c.LaneY,
		TM:          c.TM,
		TN:          c.TN,
		TK:          c.TK,
		SharedMem:   c.SharedMem,
		SharedElems: c.SharedElems(),
	}
}

// Constants returns the values in constant-id order:
// 0 LSX, 1 LSY, 2 TM, 3 TN, 4 TK, 5 USE_SMEM, 6 SH_ELEMS.
func (s Specialization) Constants() [7]uint32 {
	var smem uint32
	if s.SharedMem {
		smem = 1
	}
	return [7]uint32{s.LaneX, s.LaneY, s.TM, s.TN, s.TK, smem, s.SharedElems}
}

// Push are the runtime parameters of the GEMM: problem size and row strides.
type Push struct {
	M, N, K       uint32
	LDA, LDB, LDC uint32
}

// Dispatch is the recorded command stream of one measurement: timestamp
// reset, Warmup untimed dispatches, start marker, Repetitions timed
// dispatches, end marker.
type Dispatch struct {
	GroupsX, GroupsY uint32
	Warmup           uint32
	Repetitions      uint32
	Push             Push
}

// Pipeline is an executable kernel instance.
type Pipeline interface {
	Destroy() error
}

// Submission is recorded work in flight on the device queue.
type Submission interface {
	// Wait blocks until the work completes or ctx is done. A missed
	// deadline yields an error wrapping ErrTimeout.
	Wait(ctx context.Context) error
	// Timestamps returns the raw start and end markers after a successful Wait.
	Timestamps() (start, end uint64, err error)
	// Release frees the command and synchronization objects. It must not
	// free anything the device may still touch.
	Release() error
}

// Device is an opened compute device with operand buffers bound.
type Device interface {
	Name() string
	Info() Info
	Build(spec Specialization) (Pipeline, error)
	Submit(p Pipeline, d Dispatch) (Submission, error)
	Close() error
}
