// Package results persists sweep records and reads them back for reporting.
package results

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/vkautotune/internal/bench"
)

// Format is a result log encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

var ErrUnknownFormat = errors.New("unknown result format")

// Writer is a result sink. Records are durable once Write returns.
type Writer interface {
	Write(bench.ResultRecord) error
	Close() error
}

// ParseFormat accepts csv, jsonl or json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "jsonl", "json", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
	}
}

// FormatFor resolves the format for path. An explicit name wins over the
// file extension; anything unrecognised falls back to CSV.
func FormatFor(path, explicit string) (Format, error) {
	if explicit != "" {
		return ParseFormat(explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json", ".ndjson":
		return FormatJSONL, nil
	default:
		return FormatCSV, nil
	}
}

// Create truncates path and returns a writer in the resolved format. The
// CSV header is written immediately so an empty sweep still leaves a valid
// log behind.
func Create(path, format string) (Writer, error) {
	f, err := FormatFor(path, format)
	if err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create result log: %w", err)
	}
	w, err := NewWriter(file, f)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

// NewWriter wraps w. If w is an io.Closer it is closed with the writer.
func NewWriter(w io.Writer, f Format) (Writer, error) {
	switch f {
	case FormatCSV:
		return newCSVWriter(w)
	case FormatJSONL:
		return newJSONLWriter(w), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

// Read loads a result log, detecting the format from the extension.
func Read(path string) ([]bench.ResultRecord, error) {
	f, err := FormatFor(path, "")
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return Decode(file, f)
}

// Decode parses records from r.
func Decode(r io.Reader, f Format) ([]bench.ResultRecord, error) {
	switch f {
	case FormatCSV:
		return decodeCSV(r)
	case FormatJSONL:
		return decodeJSONL(r)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

func closeIfCloser(w io.Writer) error {
	if c, ok := w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type multi struct {
	ws []Writer
}

// Multi fans each record out to every writer in order.
func Multi(ws ...Writer) Writer {
	return &multi{ws: ws}
}

func (m *multi) Write(r bench.ResultRecord) error {
	for _, w := range m.ws {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func (m *multi) Close() error {
	var errs []error
	for _, w := range m.ws {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}
