// Package sheets defines the outbound port for pushing finished payroll
// exports to a spreadsheet-like destination.
package sheets

import "context"

// ExportSink receives one batch's rendered export rows. Implementations
// must tolerate being called again for the same batch (re-exports append a
// fresh block rather than editing in place).
type ExportSink interface {
	AppendExport(ctx context.Context, batchID int64, header []string, rows [][]string) error
}
