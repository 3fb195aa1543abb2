package render

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"paydesk/internal/core"
	"paydesk/internal/payroll"
)

func sampleExport() payroll.Export {
	snaps := []core.ShiftSnapshot{
		{
			EmployeeID: 100, EmployeeCode: "E100", FirstName: "Mara", LastName: "Conti",
			Paid: 690, Normal: 450, Overtime: 240,
			Breakdown: core.ResolveBreakdown(nil, 720, 30),
		},
	}
	return payroll.BuildExport(core.PayrollBatch{ID: 1}, payroll.Aggregate(snaps), payroll.Identity)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleExport()); err != nil {
		t.Fatalf("write: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1 row", len(records))
	}
	if records[0][0] != "employee_code" || len(records[0]) != 15 {
		t.Fatalf("bad header: %v", records[0])
	}
	row := records[1]
	if row[0] != "E100" || row[1] != "Mara Conti" {
		t.Fatalf("identity cells: %v", row[:2])
	}
	if row[2] != "12:00" || row[5] != "11:30" {
		t.Fatalf("minute cells: worked=%s paid=%s", row[2], row[5])
	}
}

func TestWriteCSVEmptyExportIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	e := payroll.BuildExport(core.PayrollBatch{ID: 2}, payroll.NewBatchTotals(), payroll.Identity)
	if err := WriteCSV(&buf, e); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
}

func TestWriteSummaryCSV(t *testing.T) {
	s := core.BatchSummary{
		BatchID: 9,
		Rows: []core.SummaryRow{
			{
				EmployeeCode: "E100", EmployeeName: "Mara Conti",
				RegularHours: 40, OvertimeHours: 2.5,
				RegularAmountCents: 60000, OvertimeAmountCents: 5625, GrossPayCents: 65625,
			},
		},
	}
	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	row := records[1]
	if row[2] != "40.00" || row[3] != "2.50" {
		t.Fatalf("hours cells: %v", row)
	}
	if row[4] != "600.00" || row[6] != "656.25" {
		t.Fatalf("amount cells: %v", row)
	}
}
