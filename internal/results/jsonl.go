package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/vkautotune/internal/bench"
)

type jsonlWriter struct {
	dst io.Writer
	enc *json.Encoder
}

func newJSONLWriter(dst io.Writer) *jsonlWriter {
	return &jsonlWriter{dst: dst, enc: json.NewEncoder(dst)}
}

// Write emits one JSON object per line.
func (j *jsonlWriter) Write(r bench.ResultRecord) error {
	return j.enc.Encode(r)
}

func (j *jsonlWriter) Close() error {
	return closeIfCloser(j.dst)
}

const maxLine = 1 << 20

func decodeJSONL(r io.Reader) ([]bench.ResultRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var out []bench.ResultRecord
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var rec bench.ResultRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			return out, fmt.Errorf("jsonl line %d: %w", line, err)
		}
		if !rec.Status.Valid() {
			return out, fmt.Errorf("jsonl line %d: unknown status %q", line, rec.Status)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return out, err
	}
	return out, nil
}
