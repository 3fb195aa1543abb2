package payroll

import (
	"testing"

	"paydesk/internal/core"
)

func snapA() core.ShiftSnapshot {
	// Detailed breakdown is authoritative; the flat fields are stale on
	// purpose so a double-count would be visible in totals.
	return core.ShiftSnapshot{
		ShiftID:      1,
		EmployeeID:   100,
		EmployeeCode: "E100",
		FirstName:    "Mara",
		LastName:     "Conti",
		Worked:       999,
		Break:        99,
		Paid:         450,
		Normal:       450,
		Breakdown: core.ResolveBreakdown(
			[]byte(`[{"worked_minutes":480,"break_deducted_minutes":30,"break_added_minutes":0}]`), 999, 99),
	}
}

func snapB() core.ShiftSnapshot {
	return core.ShiftSnapshot{
		ShiftID:      2,
		EmployeeID:   100,
		EmployeeCode: "E100",
		FirstName:    "Mara",
		LastName:     "Conti",
		Worked:       240,
		Break:        0,
		Paid:         240,
		Overtime:     240,
		Breakdown:    core.ResolveBreakdown(nil, 240, 0),
	}
}

func TestAggregateTwoSnapshotsOneEmployee(t *testing.T) {
	totals := Aggregate([]core.ShiftSnapshot{snapA(), snapB()})

	e, ok := totals.Get(100)
	if !ok {
		t.Fatalf("employee 100 missing")
	}
	if e.Code != "E100" || e.Name != "Mara Conti" {
		t.Fatalf("identity = %q/%q", e.Code, e.Name)
	}
	if e.Worked != 720 || e.BreakDeducted != 30 || e.BreakAdded != 0 {
		t.Fatalf("worked/break = %d/%d/%d, want 720/30/0", e.Worked, e.BreakDeducted, e.BreakAdded)
	}
	if e.Paid != 690 || e.Normal != 450 || e.Overtime != 240 {
		t.Fatalf("paid/normal/overtime = %d/%d/%d, want 690/450/240", e.Paid, e.Normal, e.Overtime)
	}
	if e.Shifts != 2 {
		t.Fatalf("shifts = %d, want 2", e.Shifts)
	}
	if e.Worked.HHMM() != "12:00" || e.BreakDeducted.HHMM() != "00:30" || e.Paid.HHMM() != "11:30" {
		t.Fatalf("hhmm rendering off: %s %s %s", e.Worked.HHMM(), e.BreakDeducted.HHMM(), e.Paid.HHMM())
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	forward := Aggregate([]core.ShiftSnapshot{snapA(), snapB()})
	reverse := Aggregate([]core.ShiftSnapshot{snapB(), snapA()})

	f, _ := forward.Get(100)
	r, _ := reverse.Get(100)
	if *f != *r {
		t.Fatalf("order changed totals: %+v vs %+v", f, r)
	}
}

func TestAggregatePaidAdditivity(t *testing.T) {
	snaps := []core.ShiftSnapshot{snapA(), snapB(), snapA(), snapB(), snapB()}
	var want core.Minutes
	for _, s := range snaps {
		want += s.Paid
	}
	totals := Aggregate(snaps)
	e, _ := totals.Get(100)
	if e.Paid != want {
		t.Fatalf("paid = %d, want %d", e.Paid, want)
	}
	if e.Shifts != len(snaps) {
		t.Fatalf("shifts = %d, want %d", e.Shifts, len(snaps))
	}
}

func TestAggregateSeparatesEmployees(t *testing.T) {
	other := snapB()
	other.EmployeeID = 200
	other.EmployeeCode = "E200"
	other.FirstName = "Luca"
	other.LastName = ""

	totals := Aggregate([]core.ShiftSnapshot{snapA(), other})
	if totals.Len() != 2 {
		t.Fatalf("employees = %d, want 2", totals.Len())
	}
	e, _ := totals.Get(200)
	if e.Name != "Luca" {
		t.Fatalf("single-part name should not carry a trailing space, got %q", e.Name)
	}
	if e.Paid != 240 || e.Overtime != 240 {
		t.Fatalf("cross-employee leak: %+v", e)
	}

	order := totals.InOrder()
	if order[0].EmployeeID != 100 || order[1].EmployeeID != 200 {
		t.Fatalf("encounter order lost")
	}
}
