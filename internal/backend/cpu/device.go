// Package cpu emulates a compute device on the host. Kernels run as a tiled
// GEMM over a goroutine pool so that candidates can be exercised, timed and
// classified without a GPU.
package cpu

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/samcharles93/vkautotune/internal/device"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

// Limits reported by the emulated device.
var Limits = sweep.DeviceLimits{
	MaxInvocations:  1024,
	MaxSharedMemory: 32768,
	MaxGroupSizeX:   1024,
	MaxGroupSizeY:   1024,
	SubgroupSize:    32,
}

const maxBufferElems = 1 << 30

var (
	ErrCompile     = errors.New("cpu: kernel rejected")
	errReleased    = errors.New("cpu: submission released")
	errForeignPipe = errors.New("cpu: pipeline was not built by this device")
)

// Device is the emulated device. It is not safe for concurrent submits.
type Device struct {
	info    device.Info
	a, b, c []float32
	pool    *groupPool
	epoch   time.Time
	closed  atomic.Bool
}

// Open allocates the operand buffers and fills the inputs with 1.0.
func Open(opts device.Options) (*Device, error) {
	if opts.M == 0 || opts.N == 0 || opts.K == 0 {
		return nil, fmt.Errorf("cpu: problem size must be non-zero (M=%d N=%d K=%d)", opts.M, opts.N, opts.K)
	}
	sizeA, err := bufferElems(opts.M, opts.K)
	if err != nil {
		return nil, err
	}
	sizeB, err := bufferElems(opts.K, opts.N)
	if err != nil {
		return nil, err
	}
	sizeC, err := bufferElems(opts.M, opts.N)
	if err != nil {
		return nil, err
	}

	d := &Device{
		info: device.Info{
			Name:            fmt.Sprintf("cpu (%s/%s, %d workers)", runtime.GOOS, runtime.GOARCH, defaultWorkers()),
			APIVersion:      "emulated",
			Limits:          Limits,
			TimestampPeriod: 1,
		},
		a:     make([]float32, sizeA),
		b:     make([]float32, sizeB),
		c:     make([]float32, sizeC),
		pool:  newGroupPool(defaultWorkers(), int(Limits.MaxSharedMemory/4)),
		epoch: time.Now(),
	}
	fill(d.a, 1)
	fill(d.b, 1)
	return d, nil
}

func bufferElems(rows, cols uint32) (int, error) {
	n := uint64(rows) * uint64(cols)
	if n > maxBufferElems {
		return 0, fmt.Errorf("cpu: buffer of %dx%d floats exceeds %d elements", rows, cols, maxBufferElems)
	}
	return int(n), nil
}

func fill(v []float32, x float32) {
	for i := range v {
		v[i] = x
	}
}

func (d *Device) Name() string { return "cpu" }

func (d *Device) Info() device.Info { return d.info }

type pipeline struct {
	dev       *Device
	spec      device.Specialization
	destroyed atomic.Bool
}

func (p *pipeline) Destroy() error {
	p.destroyed.Store(true)
	return nil
}

// Build validates the specialization the way a shader compiler would reject
// a kernel that cannot be instantiated on this device.
func (d *Device) Build(spec device.Specialization) (device.Pipeline, error) {
	lim := d.info.Limits
	switch {
	case spec.LaneX == 0 || spec.LaneY == 0:
		return nil, fmt.Errorf("%w: empty workgroup %dx%d", ErrCompile, spec.LaneX, spec.LaneY)
	case spec.TM == 0 || spec.TN == 0 || spec.TK == 0:
		return nil, fmt.Errorf("%w: empty tile %dx%dx%d", ErrCompile, spec.TM, spec.TN, spec.TK)
	case uint64(spec.LaneX)*uint64(spec.LaneY) > uint64(lim.MaxInvocations):
		return nil, fmt.Errorf("%w: %d invocations exceed %d", ErrCompile, spec.LaneX*spec.LaneY, lim.MaxInvocations)
	case spec.LaneX > lim.MaxGroupSizeX || spec.LaneY > lim.MaxGroupSizeY:
		return nil, fmt.Errorf("%w: workgroup %dx%d exceeds %dx%d", ErrCompile, spec.LaneX, spec.LaneY, lim.MaxGroupSizeX, lim.MaxGroupSizeY)
	}
	if spec.SharedMem {
		if spec.SharedElems != spec.TM*spec.TK+spec.TK*spec.TN {
			return nil, fmt.Errorf("%w: shared element count %d does not match tile", ErrCompile, spec.SharedElems)
		}
		if uint64(spec.SharedElems)*4 > uint64(lim.MaxSharedMemory) {
			return nil, fmt.Errorf("%w: %d bytes of shared memory exceed %d", ErrCompile, spec.SharedElems*4, lim.MaxSharedMemory)
		}
	}
	return &pipeline{dev: d, spec: spec}, nil
}

// Submit starts the recorded dispatch stream on a goroutine and returns
// immediately.
func (d *Device) Submit(p device.Pipeline, disp device.Dispatch) (device.Submission, error) {
	if d.closed.Load() {
		return nil, errors.New("cpu: device closed")
	}
	pipe, ok := p.(*pipeline)
	if !ok || pipe.dev != d {
		return nil, errForeignPipe
	}
	if pipe.destroyed.Load() {
		return nil, errors.New("cpu: pipeline destroyed")
	}
	if disp.Push.M == 0 || disp.Push.N == 0 || disp.Push.K == 0 {
		return nil, errors.New("cpu: empty problem")
	}
	if uint64(disp.Push.M)*uint64(disp.Push.LDC) > uint64(len(d.c)) ||
		uint64(disp.Push.M)*uint64(disp.Push.LDA) > uint64(len(d.a)) ||
		uint64(disp.Push.K)*uint64(disp.Push.LDB) > uint64(len(d.b)) {
		return nil, errors.New("cpu: push constants exceed bound buffers")
	}

	k := &kernel{
		spec:    pipe.spec,
		groupsX: int(disp.GroupsX),
		groupsY: int(disp.GroupsY),
		push:    disp.Push,
		a:       d.a,
		b:       d.b,
		c:       d.c,
	}
	s := &submission{done: make(chan struct{})}
	go s.run(d, k, disp)
	return s, nil
}

// Close stops the worker pool. Submissions must be released first.
func (d *Device) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.pool.close()
	return nil
}

func (d *Device) tick() uint64 {
	return uint64(time.Since(d.epoch).Nanoseconds())
}

type submission struct {
	done       chan struct{}
	abort      atomic.Bool
	err        error
	start, end uint64
}

func (s *submission) run(d *Device, k *kernel, disp device.Dispatch) {
	defer close(s.done)

	s.start, s.end = 0, 0
	for range disp.Warmup {
		if err := s.dispatch(d, k); err != nil {
			s.err = err
			return
		}
	}
	s.start = d.tick()
	for range disp.Repetitions {
		if err := s.dispatch(d, k); err != nil {
			s.err = err
			return
		}
	}
	s.end = d.tick()
}

func (s *submission) dispatch(d *Device, k *kernel) error {
	if s.abort.Load() {
		return errReleased
	}
	return d.pool.dispatch(k, &s.abort)
}

func (s *submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", device.ErrTimeout, ctx.Err())
		}
		return ctx.Err()
	}
}

func (s *submission) Timestamps() (uint64, uint64, error) {
	select {
	case <-s.done:
	default:
		return 0, 0, errors.New("cpu: timestamps read before completion")
	}
	if s.err != nil {
		return 0, 0, s.err
	}
	return s.start, s.end, nil
}

// Release aborts any remaining workgroups and joins the submission so the
// buffers are idle before the next candidate starts.
func (s *submission) Release() error {
	s.abort.Store(true)
	<-s.done
	return nil
}
