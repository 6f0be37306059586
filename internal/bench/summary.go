package bench

import (
	"fmt"
	"strings"
)

type Summary struct {
	Total  int
	Counts map[Status]int
	Best   ResultRecord
	HasOK  bool
}

// Summarize counts outcomes and picks the fastest OK record. Ties keep the
// earliest record.
func Summarize(records []ResultRecord) Summary {
	s := Summary{Total: len(records), Counts: make(map[Status]int, len(Statuses))}
	for _, r := range records {
		s.Counts[r.Status]++
		if r.Status != StatusOK {
			continue
		}
		if !s.HasOK || r.GFLOPS > s.Best.GFLOPS {
			s.Best = r
			s.HasOK = true
		}
	}
	return s
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d candidates", s.Total)
	for _, st := range Statuses {
		if n := s.Counts[st]; n > 0 {
			fmt.Fprintf(&b, ", %s=%d", st, n)
		}
	}
	return b.String()
}
