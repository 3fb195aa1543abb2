// Package payroll implements the snapshot aggregation, rounding, and export
// core: it folds heterogeneous per-shift snapshots into per-employee batch
// totals, applies a minute-rounding policy per pay bucket, and orders the
// result into a deterministic tabular export.
//
// The package holds no state beyond one batch's processing pass and does no
// I/O; snapshot retrieval and export persistence belong to the callers.
package payroll

import "paydesk/internal/core"

// BatchTotals holds the per-employee accumulators of one aggregation pass,
// plus the order employees were first seen. The encounter order is what
// keeps the exporter's sort stable for (theoretically impossible) duplicate
// employee codes.
type BatchTotals struct {
	byEmployee map[int64]*core.EmployeeBatchTotals
	order      []int64
}

// NewBatchTotals returns an empty accumulator set. Each concurrent batch
// pass must use its own; the package does no cross-batch synchronization.
func NewBatchTotals() *BatchTotals {
	return &BatchTotals{byEmployee: make(map[int64]*core.EmployeeBatchTotals)}
}

// Add folds one snapshot into its employee's accumulator, creating the
// accumulator on first sight seeded with the employee's code and display
// name. Accumulation is commutative, so input order never changes totals.
func (t *BatchTotals) Add(s core.ShiftSnapshot) {
	e, ok := t.byEmployee[s.EmployeeID]
	if !ok {
		e = &core.EmployeeBatchTotals{
			EmployeeID: s.EmployeeID,
			Code:       s.EmployeeCode,
			Name:       s.DisplayName(),
		}
		t.byEmployee[s.EmployeeID] = e
		t.order = append(t.order, s.EmployeeID)
	}

	worked, deducted, added := s.Breakdown.Contribution()
	e.Worked += worked
	e.BreakDeducted += deducted
	e.BreakAdded += added

	e.Paid += s.Paid
	e.Normal += s.Normal
	e.Weekend += s.Weekend
	e.BankHoliday += s.BankHoliday
	e.Overtime += s.Overtime
	e.Shifts++
}

// Aggregate folds every snapshot of a batch into per-employee totals.
func Aggregate(snapshots []core.ShiftSnapshot) *BatchTotals {
	t := NewBatchTotals()
	for _, s := range snapshots {
		t.Add(s)
	}
	return t
}

// Len returns the number of distinct employees seen.
func (t *BatchTotals) Len() int {
	return len(t.order)
}

// Get returns one employee's totals.
func (t *BatchTotals) Get(employeeID int64) (*core.EmployeeBatchTotals, bool) {
	e, ok := t.byEmployee[employeeID]
	return e, ok
}

// InOrder returns the totals in first-encounter order.
func (t *BatchTotals) InOrder() []*core.EmployeeBatchTotals {
	out := make([]*core.EmployeeBatchTotals, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byEmployee[id])
	}
	return out
}
