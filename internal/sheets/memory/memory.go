// Package memory is an in-memory export sink for tests and local runs.
package memory

import (
	"context"
	"sync"

	ports "paydesk/internal/sheets"
)

// AppendedExport is one captured AppendExport call.
type AppendedExport struct {
	BatchID int64
	Header  []string
	Rows    [][]string
}

type Sink struct {
	mu      sync.Mutex
	exports []AppendedExport
}

var _ ports.ExportSink = (*Sink)(nil)

func New() *Sink {
	return &Sink{}
}

func (s *Sink) AppendExport(ctx context.Context, batchID int64, header []string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, AppendedExport{BatchID: batchID, Header: header, Rows: rows})
	return nil
}

// Exports returns a copy of everything appended so far.
func (s *Sink) Exports() []AppendedExport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AppendedExport, len(s.exports))
	copy(out, s.exports)
	return out
}
