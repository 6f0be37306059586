package api

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/vkautotune/internal/bench"
)

// Run is one loaded result log.
type Run struct {
	ID       string
	Source   string
	LoadedAt time.Time
	Records  []bench.ResultRecord
}

type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// Add registers records under a fresh run id. Records that already carry
// a run id keep it in their own field.
func (s *RunStore) Add(source string, records []bench.ResultRecord, now time.Time) Run {
	run := &Run{
		ID:       uuid.NewString(),
		Source:   source,
		LoadedAt: now,
		Records:  slices.Clone(records),
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	return *run
}

func (s *RunStore) Get(id string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return Run{}, false
	}
	return *run, true
}

// List returns runs in load order.
func (s *RunStore) List() []Run {
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, *r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Run) int {
		if c := a.LoadedAt.Compare(b.LoadedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
