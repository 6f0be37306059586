// Package api serves loaded sweep results over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/results"
)

const defaultBest = 5

type Server struct {
	store *RunStore
}

func NewServer(store *RunStore) *Server {
	return &Server{store: store}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/runs", s.handleListRuns)
	e.GET("/v1/runs/:id", s.handleGetRun)
	e.GET("/v1/runs/:id/results", s.handleResults)
	e.GET("/v1/runs/:id/best", s.handleBest)
}

// RunSummary describes a run without its records.
type RunSummary struct {
	ID       string               `json:"id"`
	Source   string               `json:"source"`
	LoadedAt time.Time            `json:"loaded_at"`
	Total    int                  `json:"total"`
	Counts   map[bench.Status]int `json:"counts"`
	Best     *bench.ResultRecord  `json:"best,omitempty"`
}

type RecordList struct {
	Object string               `json:"object"`
	RunID  string               `json:"run_id"`
	Data   []bench.ResultRecord `json:"data"`
}

func summarize(run Run) RunSummary {
	sum := bench.Summarize(run.Records)
	out := RunSummary{
		ID:       run.ID,
		Source:   run.Source,
		LoadedAt: run.LoadedAt,
		Total:    sum.Total,
		Counts:   sum.Counts,
	}
	if sum.HasOK {
		best := sum.Best
		out.Best = &best
	}
	return out
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(c *echo.Context) error {
	runs := s.store.List()
	data := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		data = append(data, summarize(r))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"object": "list",
		"data":   data,
	})
}

func (s *Server) handleGetRun(c *echo.Context) error {
	run, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "run not found")
	}
	return c.JSON(http.StatusOK, summarize(run))
}

func (s *Server) handleResults(c *echo.Context) error {
	run, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "run not found")
	}
	statuses, err := parseStatuses(c.QueryParam("status"))
	if err != nil {
		return requestError(c, err, "status")
	}
	return c.JSON(http.StatusOK, RecordList{
		Object: "list",
		RunID:  run.ID,
		Data:   results.WithStatus(run.Records, statuses...),
	})
}

func (s *Server) handleBest(c *echo.Context) error {
	run, ok := s.store.Get(c.Param("id"))
	if !ok {
		return writeNotFound(c, "run not found")
	}
	n, err := parseLimit(c.QueryParam("n"), defaultBest)
	if err != nil {
		return requestError(c, err, "n")
	}
	return c.JSON(http.StatusOK, RecordList{
		Object: "list",
		RunID:  run.ID,
		Data:   results.Best(run.Records, n),
	})
}
