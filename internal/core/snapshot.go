// Package core holds the payroll domain types shared across paydesk:
// minute counts, snapshot records, per-batch accumulators, and the
// pre-computed monetary batch summary.
package core

import (
	"strings"
	"time"
)

// PayrollBatch identifies one payroll run over a period. Batches are
// created by the upstream payroll engine and are immutable here.
type PayrollBatch struct {
	ID          int64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ShiftSnapshot is one employee's one shift's pay figures within a batch.
// All minute fields are non-negative and already computed upstream; paydesk
// aggregates and re-expresses them but never re-derives pay rules.
type ShiftSnapshot struct {
	ShiftID      int64
	EmployeeID   int64
	EmployeeCode string
	FirstName    string
	LastName     string

	Worked      Minutes
	Break       Minutes // legacy flat break deduction
	Paid        Minutes
	Normal      Minutes
	Weekend     Minutes
	BankHoliday Minutes
	Overtime    Minutes

	// Breakdown is resolved once when the snapshot is loaded; when
	// detailed it is authoritative for worked/break figures.
	Breakdown Breakdown
}

// DisplayName joins first and last name, tolerating either being empty.
func (s ShiftSnapshot) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// EmployeeBatchTotals accumulates one employee's minutes across every
// snapshot of a batch. It is mutated only during the aggregation pass and
// treated as read-only once rounding begins; nothing persists it.
type EmployeeBatchTotals struct {
	EmployeeID int64
	Code       string
	Name       string

	Worked        Minutes
	BreakDeducted Minutes
	BreakAdded    Minutes
	Paid          Minutes
	Normal        Minutes
	Weekend       Minutes
	BankHoliday   Minutes
	Overtime      Minutes

	Shifts int
}
