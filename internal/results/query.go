package results

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/samcharles93/vkautotune/internal/bench"
)

// Best returns the n fastest OK records, highest GFLOP/s first. Ties keep
// log order. n <= 0 returns every OK record.
func Best(records []bench.ResultRecord, n int) []bench.ResultRecord {
	ok := lo.Filter(records, func(r bench.ResultRecord, _ int) bool {
		return r.Status == bench.StatusOK
	})
	slices.SortStableFunc(ok, func(a, b bench.ResultRecord) int {
		return cmp.Compare(b.GFLOPS, a.GFLOPS)
	})
	if n > 0 && len(ok) > n {
		ok = ok[:n]
	}
	return ok
}

// WithStatus keeps records with one of the given statuses. No statuses
// keeps everything.
func WithStatus(records []bench.ResultRecord, statuses ...bench.Status) []bench.ResultRecord {
	if len(statuses) == 0 {
		return slices.Clone(records)
	}
	return lo.Filter(records, func(r bench.ResultRecord, _ int) bool {
		return slices.Contains(statuses, r.Status)
	})
}

// CountByStatus tallies records per outcome.
func CountByStatus(records []bench.ResultRecord) map[bench.Status]int {
	return lo.CountValuesBy(records, func(r bench.ResultRecord) bench.Status {
		return r.Status
	})
}
