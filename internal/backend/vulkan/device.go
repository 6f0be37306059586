//go:build vulkan

// Package vulkan drives a real GPU through the Vulkan C API. One compute
// queue, three host-visible storage buffers and a two-slot timestamp query
// pool are created at open time and reused by every candidate.
package vulkan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samcharles93/vkautotune/internal/device"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

const (
	// pollSlice bounds a single fence wait so cancellation is observed.
	pollSlice = 100 * time.Millisecond
	// releaseGrace is how long Release waits for unfinished work before
	// parking it.
	releaseGrace = 2 * time.Second
)

var errClosed = errors.New("vulkan: device closed")

type Device struct {
	mu   sync.Mutex
	ctx  ctxHandle
	info device.Info
}

// Open creates the instance, picks a compute-capable device, allocates and
// fills the operand buffers and creates the shader module.
func Open(opts device.Options) (*Device, error) {
	if len(opts.Kernel) == 0 {
		return nil, fmt.Errorf("vulkan: kernel binary required")
	}
	if opts.M == 0 || opts.N == 0 || opts.K == 0 {
		return nil, fmt.Errorf("vulkan: problem size must be non-zero (M=%d N=%d K=%d)", opts.M, opts.N, opts.K)
	}

	ctx, err := createContext(opts.DeviceName)
	if err != nil {
		if errors.Is(err, &ResultError{Code: -9}) {
			return nil, fmt.Errorf("%w: no compute-capable vulkan device", device.ErrUnavailable)
		}
		return nil, err
	}

	const f32 = 4
	if err := allocBuffers(ctx,
		uint64(opts.M)*uint64(opts.K)*f32,
		uint64(opts.K)*uint64(opts.N)*f32,
		uint64(opts.M)*uint64(opts.N)*f32,
	); err != nil {
		destroyContext(ctx)
		return nil, err
	}
	if err := loadModule(ctx, opts.Kernel); err != nil {
		destroyContext(ctx)
		return nil, err
	}

	p := queryProps(ctx)
	period := p.timestampPeriod
	if period == 0 {
		period = 1
	}
	return &Device{
		ctx: ctx,
		info: device.Info{
			Name:          p.name,
			APIVersion:    fmt.Sprintf("%d.%d", p.apiVersion>>22&0x7f, p.apiVersion>>12&0x3ff),
			DriverVersion: p.driverVersion,
			Limits: sweep.DeviceLimits{
				MaxInvocations:  p.limits[0],
				MaxSharedMemory: p.limits[1],
				MaxGroupSizeX:   p.limits[2],
				MaxGroupSizeY:   p.limits[3],
				SubgroupSize:    p.limits[4],
			},
			TimestampPeriod: period,
		},
	}, nil
}

func (d *Device) Name() string { return "vulkan" }

func (d *Device) Info() device.Info { return d.info }

type pipeline struct {
	dev  *Device
	pipe pipeHandle
	once sync.Once
}

func (p *pipeline) Destroy() error {
	p.once.Do(func() {
		p.dev.mu.Lock()
		defer p.dev.mu.Unlock()
		if p.dev.ctx != nil {
			destroyPipeline(p.dev.ctx, p.pipe)
		}
	})
	return nil
}

// Build creates a compute pipeline with the candidate's specialization
// constants. Driver-side compile failures surface here.
func (d *Device) Build(spec device.Specialization) (device.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return nil, errClosed
	}
	pipe, err := buildPipeline(d.ctx, spec.Constants())
	if err != nil {
		return nil, err
	}
	return &pipeline{dev: d, pipe: pipe}, nil
}

// Submit records and submits the dispatch stream with a fresh fence.
func (d *Device) Submit(p device.Pipeline, disp device.Dispatch) (device.Submission, error) {
	pipe, ok := p.(*pipeline)
	if !ok || pipe.dev != d {
		return nil, errors.New("vulkan: pipeline was not built by this device")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return nil, errClosed
	}
	push := [6]uint32{disp.Push.M, disp.Push.N, disp.Push.K, disp.Push.LDA, disp.Push.LDB, disp.Push.LDC}
	sub, err := submit(d.ctx, pipe.pipe, disp.GroupsX, disp.GroupsY, disp.Warmup, disp.Repetitions, push)
	if err != nil {
		return nil, err
	}
	return &submission{dev: d, sub: sub}, nil
}

// Close waits for the device to go idle and destroys every object.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return nil
	}
	destroyContext(d.ctx)
	d.ctx = nil
	return nil
}

type submission struct {
	dev      *Device
	sub      subHandle
	signaled bool
	once     sync.Once
	err      error
}

// Wait polls the fence in bounded slices until it signals, the context
// deadline passes, or the context is cancelled.
func (s *submission) Wait(ctx context.Context) error {
	for {
		slice := pollSlice
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return fmt.Errorf("%w: fence not signaled before deadline", device.ErrTimeout)
			}
			slice = min(slice, remaining)
		}

		s.dev.mu.Lock()
		if s.dev.ctx == nil {
			s.dev.mu.Unlock()
			return errClosed
		}
		done, err := waitFence(s.dev.ctx, s.sub, uint64(slice.Nanoseconds()))
		s.dev.mu.Unlock()
		if err != nil {
			return err
		}
		if done {
			s.signaled = true
			return nil
		}
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("%w: %v", device.ErrTimeout, err)
			}
			return err
		}
	}
}

func (s *submission) Timestamps() (uint64, uint64, error) {
	if !s.signaled {
		return 0, 0, errors.New("vulkan: timestamps read before fence signaled")
	}
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	if s.dev.ctx == nil {
		return 0, 0, errClosed
	}
	return readTimestamps(s.dev.ctx)
}

// Release frees the command buffer and fence. Work that is still running
// after releaseGrace is parked on the device and freed once its fence
// signals or the device closes, so a stalled dispatch cannot block the
// next candidate. That case is reported as ErrTimeout.
func (s *submission) Release() error {
	s.once.Do(func() {
		s.dev.mu.Lock()
		defer s.dev.mu.Unlock()
		if s.dev.ctx != nil {
			s.err = releaseSubmission(s.dev.ctx, s.sub, releaseGrace)
		}
	})
	return s.err
}
