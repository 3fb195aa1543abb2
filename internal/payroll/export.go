package payroll

import (
	"sort"

	"paydesk/internal/core"
)

// exportHeader is the fixed column order of the payroll export. Raw columns
// are emitted verbatim alongside the rounded ones for audit.
var exportHeader = []string{
	"employee_code", "employee_name",
	"worked_raw_hhmm", "break_deducted_raw_hhmm", "break_added_raw_hhmm",
	"paid_raw_hhmm", "base_raw_hhmm", "overtime_raw_hhmm", "bank_holiday_raw_hhmm", "weekend_raw_hhmm",
	"paid_rounded_hhmm", "base_rounded_hhmm", "overtime_rounded_hhmm", "bank_holiday_rounded_hhmm", "weekend_rounded_hhmm",
}

// Header returns the fixed export header row.
func Header() []string {
	h := make([]string, len(exportHeader))
	copy(h, exportHeader)
	return h
}

// Row is one employee's export line with minute fields already rendered as
// HH:MM clock strings.
type Row struct {
	EmployeeCode string
	EmployeeName string

	WorkedRaw        string
	BreakDeductedRaw string
	BreakAddedRaw    string
	PaidRaw          string
	BaseRaw          string
	OvertimeRaw      string
	BankHolidayRaw   string
	WeekendRaw       string

	PaidRounded        string
	BaseRounded        string
	OvertimeRounded    string
	BankHolidayRounded string
	WeekendRounded     string

	// BaseClamped is a diagnostic flag, not an export column; it does not
	// change any computed value.
	BaseClamped bool
}

// Fields returns the row's cells in header order.
func (r Row) Fields() []string {
	return []string{
		r.EmployeeCode, r.EmployeeName,
		r.WorkedRaw, r.BreakDeductedRaw, r.BreakAddedRaw,
		r.PaidRaw, r.BaseRaw, r.OvertimeRaw, r.BankHolidayRaw, r.WeekendRaw,
		r.PaidRounded, r.BaseRounded, r.OvertimeRounded, r.BankHolidayRounded, r.WeekendRounded,
	}
}

// Export is the ordered payroll export of one batch. An empty batch yields
// an export with no rows, which still renders as a header-only table.
type Export struct {
	Batch core.PayrollBatch
	Rows  []Row
}

// ClampCount returns how many rows hit the derived-base clamp.
func (e Export) ClampCount() int {
	n := 0
	for _, r := range e.Rows {
		if r.BaseClamped {
			n++
		}
	}
	return n
}

// BuildExport rounds every employee's totals with the policy and orders the
// rows ascending by employee code using bytewise string comparison (codes
// like "E9" sort after "E10" on purpose). The sort is stable over
// first-encounter order.
func BuildExport(batch core.PayrollBatch, totals *BatchTotals, policy Policy) Export {
	rows := make([]Row, 0, totals.Len())
	for _, t := range totals.InOrder() {
		rounded := Round(t, policy)
		rows = append(rows, Row{
			EmployeeCode: t.Code,
			EmployeeName: t.Name,

			WorkedRaw:        t.Worked.HHMM(),
			BreakDeductedRaw: t.BreakDeducted.HHMM(),
			BreakAddedRaw:    t.BreakAdded.HHMM(),
			PaidRaw:          t.Paid.HHMM(),
			BaseRaw:          t.Normal.HHMM(),
			OvertimeRaw:      t.Overtime.HHMM(),
			BankHolidayRaw:   t.BankHoliday.HHMM(),
			WeekendRaw:       t.Weekend.HHMM(),

			PaidRounded:        rounded.Paid.HHMM(),
			BaseRounded:        rounded.Normal.HHMM(),
			OvertimeRounded:    rounded.Overtime.HHMM(),
			BankHolidayRounded: rounded.BankHoliday.HHMM(),
			WeekendRounded:     rounded.Weekend.HHMM(),

			BaseClamped: rounded.BaseClamped,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].EmployeeCode < rows[j].EmployeeCode
	})
	return Export{Batch: batch, Rows: rows}
}
