package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

func testRecords() []bench.ResultRecord {
	c := sweep.Candidate{TM: 64, TN: 64, TK: 32, LaneX: 16, LaneY: 8, SharedMem: true}
	return []bench.ResultRecord{
		{Index: 1, Candidate: c, Status: bench.StatusOK, GFLOPS: 10, UsecPerIter: 100},
		{Index: 2, Candidate: c, Status: bench.StatusTimeout},
		{Index: 3, Candidate: c, Status: bench.StatusOK, GFLOPS: 20, UsecPerIter: 50},
		{Index: 4, Candidate: c, Status: bench.StatusCompileFail},
	}
}

func newTestEcho(t *testing.T) (*echo.Echo, Run) {
	t.Helper()
	store := NewRunStore()
	run := store.Add("results.csv", testRecords(), time.Unix(1700000000, 0))
	e := echo.New()
	NewServer(store).Register(e)
	return e, run
}

func doGet(t *testing.T, e *echo.Echo, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e, _ := newTestEcho(t)
	rec := doGet(t, e, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
}

func TestListAndGetRun(t *testing.T) {
	t.Parallel()

	e, run := newTestEcho(t)
	rec := doGet(t, e, "/v1/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status: got %d body=%s", rec.Code, rec.Body.String())
	}
	list := decode[struct {
		Data []RunSummary `json:"data"`
	}](t, rec)
	if len(list.Data) != 1 || list.Data[0].ID != run.ID {
		t.Fatalf("unexpected runs: %+v", list.Data)
	}

	rec = doGet(t, e, "/v1/runs/"+run.ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got %d", rec.Code)
	}
	sum := decode[RunSummary](t, rec)
	if sum.Total != 4 || sum.Counts[bench.StatusOK] != 2 || sum.Best == nil || sum.Best.Index != 3 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestResultsFilter(t *testing.T) {
	t.Parallel()

	e, run := newTestEcho(t)
	tests := []struct {
		query string
		want  []int
	}{
		{query: "", want: []int{1, 2, 3, 4}},
		{query: "?status=OK", want: []int{1, 3}},
		{query: "?status=timeout,compile_fail", want: []int{2, 4}},
	}
	for _, tt := range tests {
		rec := doGet(t, e, "/v1/runs/"+run.ID+"/results"+tt.query)
		if rec.Code != http.StatusOK {
			t.Fatalf("%q status: got %d", tt.query, rec.Code)
		}
		list := decode[RecordList](t, rec)
		var got []int
		for _, r := range list.Data {
			got = append(got, r.Index)
		}
		if len(got) != len(tt.want) {
			t.Fatalf("%q: got %v, want %v", tt.query, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("%q: got %v, want %v", tt.query, got, tt.want)
			}
		}
	}
}

func TestBest(t *testing.T) {
	t.Parallel()

	e, run := newTestEcho(t)
	rec := doGet(t, e, "/v1/runs/"+run.ID+"/best?n=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	list := decode[RecordList](t, rec)
	if len(list.Data) != 1 || list.Data[0].Index != 3 {
		t.Fatalf("unexpected best: %+v", list.Data)
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	e, run := newTestEcho(t)
	tests := []struct {
		path string
		code int
	}{
		{path: "/v1/runs/missing", code: http.StatusNotFound},
		{path: "/v1/runs/missing/results", code: http.StatusNotFound},
		{path: "/v1/runs/" + run.ID + "/results?status=MAYBE", code: http.StatusBadRequest},
		{path: "/v1/runs/" + run.ID + "/best?n=-1", code: http.StatusBadRequest},
		{path: "/v1/runs/" + run.ID + "/best?n=abc", code: http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := doGet(t, e, tt.path)
		if rec.Code != tt.code {
			t.Fatalf("%s: got %d want %d body=%s", tt.path, rec.Code, tt.code, rec.Body.String())
		}
	}
}

func TestStoreListOrder(t *testing.T) {
	t.Parallel()

	s := NewRunStore()
	later := s.Add("b.csv", nil, time.Unix(200, 0))
	earlier := s.Add("a.csv", nil, time.Unix(100, 0))
	runs := s.List()
	if len(runs) != 2 || runs[0].ID != earlier.ID || runs[1].ID != later.ID {
		t.Fatalf("unexpected order: %+v", runs)
	}
}
