package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/samcharles93/vkautotune/internal/bench"
	"github.com/samcharles93/vkautotune/internal/sweep"
)

// Header is the first line of every CSV result log.
var Header = []string{"TM", "TN", "TK", "lszx", "lszy", "smem", "M", "N", "K", "WARM", "REP", "status", "usec_per_iter", "gflops"}

type csvWriter struct {
	dst io.Writer
	w   *csv.Writer
}

func newCSVWriter(dst io.Writer) (*csvWriter, error) {
	cw := &csvWriter{dst: dst, w: csv.NewWriter(dst)}
	if err := cw.w.Write(Header); err != nil {
		return nil, err
	}
	cw.w.Flush()
	return cw, cw.w.Error()
}

func (c *csvWriter) Write(r bench.ResultRecord) error {
	if err := c.w.Write(csvRow(r)); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return errors.Join(c.w.Error(), closeIfCloser(c.dst))
}

func csvRow(r bench.ResultRecord) []string {
	u := func(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
	smem := "0"
	if r.Candidate.SharedMem {
		smem = "1"
	}
	usec, gflops := "0.0", "0.0"
	if r.Measured() {
		usec = strconv.FormatFloat(r.UsecPerIter, 'f', 6, 64)
		gflops = strconv.FormatFloat(r.GFLOPS, 'f', 6, 64)
	}
	c := r.Candidate
	return []string{
		u(c.TM), u(c.TN), u(c.TK), u(c.LaneX), u(c.LaneY), smem,
		u(r.M), u(r.N), u(r.K), u(r.Warmup), u(r.Repetitions),
		string(r.Status), usec, gflops,
	}
}

func decodeCSV(r io.Reader) ([]bench.ResultRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)
	cr.ReuseRecord = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("csv header column %d is %q, want %q", i+1, head[i], name)
		}
	}

	var out []bench.ResultRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		rec, err := parseRow(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return out, fmt.Errorf("csv line %d: %w", line, err)
		}
		rec.Index = len(out) + 1
		out = append(out, rec)
	}
}

func parseRow(row []string) (bench.ResultRecord, error) {
	var nums [11]uint32
	for i := range nums {
		v, err := strconv.ParseUint(row[i], 10, 32)
		if err != nil {
			return bench.ResultRecord{}, fmt.Errorf("column %s: %w", Header[i], err)
		}
		nums[i] = uint32(v)
	}
	status := bench.Status(row[11])
	if !status.Valid() {
		return bench.ResultRecord{}, fmt.Errorf("unknown status %q", row[11])
	}
	usec, err := strconv.ParseFloat(row[12], 64)
	if err != nil {
		return bench.ResultRecord{}, fmt.Errorf("column usec_per_iter: %w", err)
	}
	gflops, err := strconv.ParseFloat(row[13], 64)
	if err != nil {
		return bench.ResultRecord{}, fmt.Errorf("column gflops: %w", err)
	}
	return bench.ResultRecord{
		Candidate: sweep.Candidate{
			TM: nums[0], TN: nums[1], TK: nums[2],
			LaneX: nums[3], LaneY: nums[4], SharedMem: nums[5] != 0,
		},
		M: nums[6], N: nums[7], K: nums[8],
		Warmup: nums[9], Repetitions: nums[10],
		Status:      status,
		UsecPerIter: usec,
		GFLOPS:      gflops,
	}, nil
}
