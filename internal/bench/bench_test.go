package bench

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/samcharles93/vkautotune/internal/device"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

var testLimits = sweep.DeviceLimits{
	MaxInvocations:  1024,
	MaxSharedMemory: 32768,
	MaxGroupSizeX:   1024,
	MaxGroupSizeY:   1024,
	SubgroupSize:    32,
}

// fakeDevice reports a fixed elapsed tick count for every submission.
type fakeDevice struct {
	elapsed   uint64
	failBuild func(device.Specialization) bool
	hang      func(device.Specialization) bool
	waitErr   error
	submitErr error
	// parkErr is returned by Release for hung submissions.
	parkErr error

	mu        sync.Mutex
	built     int
	destroyed int
	submitted int
	released  int
	dispatch  []device.Dispatch
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Info() device.Info {
	return device.Info{Name: "fake", Limits: testLimits, TimestampPeriod: 1}
}

func (d *fakeDevice) Build(spec device.Specialization) (device.Pipeline, error) {
	if d.failBuild != nil && d.failBuild(spec) {
		return nil, errors.New("fake: rejected")
	}
	d.mu.Lock()
	d.built++
	d.mu.Unlock()
	return &fakePipeline{dev: d, spec: spec}, nil
}

func (d *fakeDevice) Submit(p device.Pipeline, disp device.Dispatch) (device.Submission, error) {
	if d.submitErr != nil {
		return nil, d.submitErr
	}
	fp := p.(*fakePipeline)
	d.mu.Lock()
	d.submitted++
	d.dispatch = append(d.dispatch, disp)
	d.mu.Unlock()
	return &fakeSubmission{dev: d, hang: d.hang != nil && d.hang(fp.spec)}, nil
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) counts() (built, destroyed, submitted, released int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.built, d.destroyed, d.submitted, d.released
}

type fakePipeline struct {
	dev  *fakeDevice
	spec device.Specialization
}

func (p *fakePipeline) Destroy() error {
	p.dev.mu.Lock()
	p.dev.destroyed++
	p.dev.mu.Unlock()
	return nil
}

type fakeSubmission struct {
	dev  *fakeDevice
	hang bool
}

func (s *fakeSubmission) Wait(ctx context.Context) error {
	if s.hang {
		<-ctx.Done()
		return errors.Join(device.ErrTimeout, ctx.Err())
	}
	return s.dev.waitErr
}

func (s *fakeSubmission) Timestamps() (uint64, uint64, error) {
	return 1000, 1000 + s.dev.elapsed, nil
}

func (s *fakeSubmission) Release() error {
	s.dev.mu.Lock()
	s.dev.released++
	s.dev.mu.Unlock()
	if s.hang {
		return s.dev.parkErr
	}
	return nil
}

func smallConfig() RunConfig {
	cfg := DefaultRunConfig()
	cfg.Timeout = time.Second
	return cfg
}

func TestGFLOPS(t *testing.T) {
	t.Parallel()

	got := GFLOPS(1024, 1024, 1024, 500)
	if math.Abs(got-4294.967296) > 1e-9 {
		t.Fatalf("GFLOPS = %v, want 4294.967296", got)
	}
	if got := GFLOPS(1024, 1024, 1024, 0); got != 0 {
		t.Fatalf("GFLOPS with zero time = %v, want 0", got)
	}
}

func TestFractionClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want float64
	}{
		{0, 0.5},
		{0.25, 0.5},
		{0.75, 0.75},
		{1, 1},
		{3, 1},
	}
	for _, tt := range tests {
		cfg := RunConfig{SharedFraction: tt.in}
		if got := cfg.Fraction(); got != tt.want {
			t.Errorf("Fraction(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBenchmarkMeasuresThroughput(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	dev := &fakeDevice{elapsed: 500 * 1000 * uint64(cfg.Repetitions)}
	c := sweep.Candidate{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true}

	rec := Benchmark(context.Background(), dev, c, cfg)
	if rec.Status != StatusOK {
		t.Fatalf("status = %s (%s), want OK", rec.Status, rec.Err)
	}
	if math.Abs(rec.UsecPerIter-500) > 1e-9 {
		t.Fatalf("usec/iter = %v, want 500", rec.UsecPerIter)
	}
	if math.Abs(rec.GFLOPS-4294.967296) > 1e-9 {
		t.Fatalf("gflops = %v, want 4294.967296", rec.GFLOPS)
	}

	want := device.Dispatch{
		GroupsX: 16, GroupsY: 16, Warmup: 5, Repetitions: 30,
		Push: device.Push{M: 1024, N: 1024, K: 1024, LDA: 1024, LDB: 1024, LDC: 1024},
	}
	if diff := cmp.Diff([]device.Dispatch{want}, dev.dispatch); diff != "" {
		t.Fatalf("dispatch mismatch (-want +got):\n%s", diff)
	}
	if built, destroyed, submitted, released := dev.counts(); built != 1 || destroyed != 1 || submitted != 1 || released != 1 {
		t.Fatalf("resources built=%d destroyed=%d submitted=%d released=%d", built, destroyed, submitted, released)
	}
}

func TestDispatchForRoundsUp(t *testing.T) {
	t.Parallel()

	cfg := RunConfig{M: 1000, N: 130, K: 7}
	got := DispatchFor(sweep.Candidate{TM: 96, TN: 64}, cfg)
	if got.GroupsX != 3 || got.GroupsY != 11 {
		t.Fatalf("groups = %dx%d, want 3x11", got.GroupsX, got.GroupsY)
	}
	if got.Push.LDA != 7 || got.Push.LDB != 130 || got.Push.LDC != 130 {
		t.Fatalf("strides = %+v", got.Push)
	}
}

func TestBenchmarkSkipsOverBudget(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	cfg.SharedFraction = 0.5
	dev := &fakeDevice{elapsed: 1}
	c := sweep.Candidate{TM: 128, TN: 128, TK: 32, LaneX: 16, LaneY: 16, SharedMem: true}

	rec := Benchmark(context.Background(), dev, c, cfg)
	if rec.Status != StatusSkipSmem {
		t.Fatalf("status = %s, want %s", rec.Status, StatusSkipSmem)
	}
	if rec.UsecPerIter != 0 || rec.GFLOPS != 0 {
		t.Fatalf("skipped record carries measurements: %+v", rec)
	}
	if built, _, submitted, _ := dev.counts(); built != 0 || submitted != 0 {
		t.Fatalf("device touched: built=%d submitted=%d", built, submitted)
	}

	c.SharedMem = false
	if rec := Benchmark(context.Background(), dev, c, cfg); rec.Status != StatusOK {
		t.Fatalf("non-shared candidate status = %s, want OK", rec.Status)
	}
}

func TestBenchmarkCompileFail(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{elapsed: 1, failBuild: func(device.Specialization) bool { return true }}
	rec := Benchmark(context.Background(), dev, sweep.Candidate{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8}, smallConfig())
	if rec.Status != StatusCompileFail {
		t.Fatalf("status = %s, want %s", rec.Status, StatusCompileFail)
	}
	if !strings.Contains(rec.Err, "rejected") {
		t.Fatalf("error text = %q", rec.Err)
	}
	if _, destroyed, submitted, _ := dev.counts(); destroyed != 0 || submitted != 0 {
		t.Fatalf("destroyed=%d submitted=%d after failed build", destroyed, submitted)
	}
}

func TestBenchmarkWaitFail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		dev  *fakeDevice
	}{
		{name: "wait error", dev: &fakeDevice{elapsed: 1, waitErr: errors.New("device lost")}},
		{name: "submit error", dev: &fakeDevice{elapsed: 1, submitErr: errors.New("queue full")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := Benchmark(context.Background(), tt.dev, sweep.Candidate{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8}, smallConfig())
			if rec.Status != StatusWaitFail {
				t.Fatalf("status = %s, want %s", rec.Status, StatusWaitFail)
			}
			built, destroyed, submitted, released := tt.dev.counts()
			if built != destroyed || submitted != released {
				t.Fatalf("leak: built=%d destroyed=%d submitted=%d released=%d", built, destroyed, submitted, released)
			}
		})
	}
}

func TestRunnerTimeoutIsolation(t *testing.T) {
	t.Parallel()

	hung := sweep.Candidate{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true}
	grid := []sweep.Candidate{
		{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8, SharedMem: true},
		hung,
		{TM: 128, TN: 128, TK: 32, LaneX: 16, LaneY: 16, SharedMem: true},
		{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8},
	}
	dev := &fakeDevice{
		elapsed: 1000,
		hang: func(s device.Specialization) bool {
			return s.TM == hung.TM && s.TN == hung.TN && s.SharedMem
		},
	}
	cfg := smallConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.SharedFraction = 0.5

	var sunk []ResultRecord
	r := &Runner{
		Device: dev,
		Config: cfg,
		RunID:  "run-1",
		Sink:   SinkFunc(func(rec ResultRecord) error { sunk = append(sunk, rec); return nil }),
	}
	records, err := r.Run(context.Background(), grid)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records) != len(grid) {
		t.Fatalf("got %d records, want %d", len(records), len(grid))
	}

	want := []Status{StatusOK, StatusTimeout, StatusSkipSmem, StatusOK}
	for i, rec := range records {
		if rec.Status != want[i] {
			t.Errorf("record %d status = %s, want %s", i, rec.Status, want[i])
		}
		if rec.Index != i+1 || rec.RunID != "run-1" || rec.Candidate != grid[i] {
			t.Errorf("record %d = %+v", i, rec)
		}
	}
	if diff := cmp.Diff(records, sunk); diff != "" {
		t.Fatalf("sink mismatch (-records +sunk):\n%s", diff)
	}

	built, destroyed, submitted, released := dev.counts()
	if built != 3 || destroyed != 3 || submitted != 3 || released != 3 {
		t.Fatalf("resources built=%d destroyed=%d submitted=%d released=%d", built, destroyed, submitted, released)
	}
}

func TestRunnerContinuesAfterParkedSubmission(t *testing.T) {
	t.Parallel()

	hung := sweep.Candidate{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true}
	grid := []sweep.Candidate{
		hung,
		{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8, SharedMem: true},
	}
	dev := &fakeDevice{
		elapsed: 1000,
		hang:    func(s device.Specialization) bool { return s.TM == hung.TM },
		parkErr: errors.Join(device.ErrTimeout, errors.New("submission still running, parked")),
	}
	cfg := smallConfig()
	cfg.Timeout = 20 * time.Millisecond

	r := &Runner{Device: dev, Config: cfg, RunID: "run-park"}
	done := make(chan struct{})
	var (
		records []ResultRecord
		err     error
	)
	go func() {
		defer close(done)
		records, err = r.Run(context.Background(), grid)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("sweep blocked behind a hung submission")
	}
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(records) != 2 || records[0].Status != StatusTimeout || records[1].Status != StatusOK {
		t.Fatalf("records = %+v", records)
	}
	if _, destroyed, _, released := dev.counts(); destroyed != 2 || released != 2 {
		t.Fatalf("destroyed=%d released=%d, want 2/2", destroyed, released)
	}
}

func TestRunnerStopsOnSinkError(t *testing.T) {
	t.Parallel()

	grid := []sweep.Candidate{
		{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8},
		{TM: 64, TN: 32, TK: 32, LaneX: 8, LaneY: 8},
	}
	sinkErr := errors.New("disk full")
	r := &Runner{
		Device: &fakeDevice{elapsed: 1},
		Config: smallConfig(),
		Sink:   SinkFunc(func(ResultRecord) error { return sinkErr }),
	}
	records, err := r.Run(context.Background(), grid)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("Run error = %v, want %v", err, sinkErr)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestRunnerStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	grid := []sweep.Candidate{
		{TM: 32, TN: 32, TK: 32, LaneX: 8, LaneY: 8},
		{TM: 64, TN: 32, TK: 32, LaneX: 8, LaneY: 8},
		{TM: 96, TN: 32, TK: 32, LaneX: 8, LaneY: 8},
	}
	r := &Runner{
		Device: &fakeDevice{elapsed: 1},
		Config: smallConfig(),
		Sink: SinkFunc(func(ResultRecord) error {
			cancel()
			return nil
		}),
	}
	records, err := r.Run(ctx, grid)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestRunnerRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := smallConfig()
	cfg.Repetitions = 0
	r := &Runner{Device: &fakeDevice{}, Config: cfg}
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []ResultRecord{
		{Status: StatusOK, GFLOPS: 10},
		{Status: StatusTimeout},
		{Status: StatusOK, GFLOPS: 30, Index: 3},
		{Status: StatusOK, GFLOPS: 30, Index: 4},
		{Status: StatusCompileFail},
	}
	s := Summarize(records)
	if !s.HasOK || s.Best.Index != 3 {
		t.Fatalf("best = %+v, want index 3", s.Best)
	}
	want := map[Status]int{StatusOK: 3, StatusTimeout: 1, StatusCompileFail: 1}
	if diff := cmp.Diff(want, s.Counts); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if got := s.String(); got != "5 candidates, OK=3, COMPILE_FAIL=1, TIMEOUT=1" {
		t.Fatalf("String() = %q", got)
	}

	if empty := Summarize(nil); empty.HasOK || empty.Total != 0 {
		t.Fatalf("empty summary = %+v", empty)
	}
}
