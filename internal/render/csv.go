// Package render serializes built payroll exports into interchange formats.
// It is a pure formatting layer: every value arrives already aggregated,
// rounded, and ordered.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"paydesk/internal/core"
	"paydesk/internal/payroll"
)

// WriteCSV writes the export as the fixed header followed by one line per
// employee. An export without rows still gets its header.
func WriteCSV(w io.Writer, e payroll.Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(payroll.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range e.Rows {
		if err := cw.Write(row.Fields()); err != nil {
			return fmt.Errorf("write row for %s: %w", row.EmployeeCode, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// summaryHeader is the column order of the pass-through monetary summary.
var summaryHeader = []string{
	"employee_code", "employee_name",
	"regular_hours", "overtime_hours",
	"regular_amount", "overtime_amount", "gross_pay",
}

// WriteSummaryCSV renders the pre-computed monetary batch summary. Hours
// keep two decimals; amounts render as euros from their stored cents.
func WriteSummaryCSV(w io.Writer, s core.BatchSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	for _, row := range s.Rows {
		record := []string{
			row.EmployeeCode,
			row.EmployeeName,
			strconv.FormatFloat(row.RegularHours, 'f', 2, 64),
			strconv.FormatFloat(row.OvertimeHours, 'f', 2, 64),
			strconv.FormatFloat(core.Money{Cents: row.RegularAmountCents}.Euros(), 'f', 2, 64),
			strconv.FormatFloat(core.Money{Cents: row.OvertimeAmountCents}.Euros(), 'f', 2, 64),
			strconv.FormatFloat(core.Money{Cents: row.GrossPayCents}.Euros(), 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write summary row for %s: %w", row.EmployeeCode, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
