package results

import (
	"fmt"
	"io"

	"github.com/samcharles93/vkautotune/internal/bench"
)

// Console prints one progress line per record.
type Console struct {
	w     io.Writer
	total int
}

func NewConsole(w io.Writer, total int) *Console {
	return &Console{w: w, total: total}
}

func (c *Console) Write(r bench.ResultRecord) error {
	var outcome string
	switch r.Status {
	case bench.StatusOK:
		outcome = fmt.Sprintf("[OK] usec=%.3f GFLOP/s=%.6f", r.UsecPerIter, r.GFLOPS)
	case bench.StatusSkipSmem:
		outcome = "[SKIP] " + r.Err
	default:
		outcome = "[" + string(r.Status) + "]"
		if r.Err != "" {
			outcome += " " + r.Err
		}
	}
	_, err := fmt.Fprintf(c.w, "[%d/%d] %s -> %s\n", r.Index, c.total, r.Candidate, outcome)
	return err
}

func (c *Console) Close() error { return nil }
