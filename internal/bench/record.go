package bench

import "github.com/samcharles93/vkautotune/internal/sweep"

// Status is the outcome of benchmarking one candidate.
type Status string

const (
	StatusOK          Status = "OK"
	StatusSkipSmem    Status = "SKIP_SMEM_BUDGET"
	StatusCompileFail Status = "COMPILE_FAIL"
	StatusTimeout     Status = "TIMEOUT"
	StatusWaitFail    Status = "WAIT_FAIL"
)

// Statuses lists every outcome in report order.
var Statuses = []Status{StatusOK, StatusSkipSmem, StatusCompileFail, StatusTimeout, StatusWaitFail}

func (s Status) Valid() bool {
	switch s {
	case StatusOK, StatusSkipSmem, StatusCompileFail, StatusTimeout, StatusWaitFail:
		return true
	}
	return false
}

// ResultRecord is one line of the result log. UsecPerIter and GFLOPS are
// zero unless Status is OK.
type ResultRecord struct {
	RunID       string          `json:"run_id,omitempty"`
	Index       int             `json:"index"`
	Candidate   sweep.Candidate `json:"candidate"`
	M           uint32          `json:"m"`
	N           uint32          `json:"n"`
	K           uint32          `json:"k"`
	Warmup      uint32          `json:"warmup"`
	Repetitions uint32          `json:"repetitions"`
	Status      Status          `json:"status"`
	UsecPerIter float64         `json:"usec_per_iter"`
	GFLOPS      float64         `json:"gflops"`
	Err         string          `json:"error,omitempty"`
}

func (r ResultRecord) Measured() bool { return r.Status == StatusOK }
