package report

import (
	"encoding/csv"
	"os"
	"sync"

	"github.com/pkg/errors"
)

// Sink receives appended rows.
type Sink interface {
	Append(row Row) error
}

// CSVSink appends rows to one delimited file. The header line is written
// when the file is first created. Every append opens, writes, flushes, and
// closes the file, so a crash mid-batch leaves all prior rows intact and
// readable. The mutex serializes appends when a future multi-worker driver
// shares a sink; rows from different goroutines can interleave but never
// corrupt each other.
type CSVSink struct {
	path  string
	comma rune
	mu    sync.Mutex
}

// NewCSVSink creates a sink for the given path and delimiter. The
// delimiter choice is per file and stays consistent for its lifetime.
func NewCSVSink(path string, comma rune) *CSVSink {
	return &CSVSink{path: path, comma: comma}
}

// Path returns the output file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Append writes one row, emitting the header first if the file is new.
func (s *CSVSink) Append(row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	first := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "opening %s", s.path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = s.comma
	if first {
		if err := w.Write(row.Header()); err != nil {
			return errors.Wrapf(err, "writing header to %s", s.path)
		}
	}
	if err := w.Write(row.Record()); err != nil {
		return errors.Wrapf(err, "writing row to %s", s.path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrapf(err, "flushing %s", s.path)
	}
	return nil
}
