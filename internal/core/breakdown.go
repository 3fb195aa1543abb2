package core

import "encoding/json"

// BreakdownKind tags which of the two historical snapshot shapes a
// breakdown carries.
type BreakdownKind int

const (
	// BreakdownLegacy means only the snapshot's flat worked/break fields
	// are usable. Older batches predate per-day records entirely.
	BreakdownLegacy BreakdownKind = iota
	// BreakdownDetailed means the per-day records are authoritative and
	// the flat fields must be ignored.
	BreakdownDetailed
)

// DayRecord is one day's worked/break figures inside a detailed breakdown.
// Fields missing from the serialized form default to zero.
type DayRecord struct {
	Worked        Minutes `json:"worked_minutes"`
	BreakDeducted Minutes `json:"break_deducted_minutes"`
	BreakAdded    Minutes `json:"break_added_minutes"`
}

// Breakdown is the resolved worked/break representation of one snapshot.
// Exactly one of the two shapes applies; they are never combined, which is
// what prevents double counting across old and new record formats.
type Breakdown struct {
	Kind BreakdownKind
	Days []DayRecord // detailed shape only

	// Legacy shape only. Break added back is not representable in the
	// flat form and is implicitly zero.
	Worked        Minutes
	BreakDeducted Minutes
}

// ResolveBreakdown decides the snapshot's shape once, at load time. A raw
// per-day payload that is absent, empty, or not a well-formed day-record
// sequence degrades to the legacy flat fields without raising an error:
// old batches contain plenty of malformed payloads and must still export.
func ResolveBreakdown(raw []byte, flatWorked, flatBreak Minutes) Breakdown {
	legacy := Breakdown{Kind: BreakdownLegacy, Worked: flatWorked, BreakDeducted: flatBreak}
	if len(raw) == 0 {
		return legacy
	}
	var days []DayRecord
	if err := json.Unmarshal(raw, &days); err != nil {
		return legacy
	}
	if len(days) == 0 {
		return legacy
	}
	return Breakdown{Kind: BreakdownDetailed, Days: days}
}

// Contribution sums the breakdown into the three break-aware buckets the
// aggregator folds per employee.
func (b Breakdown) Contribution() (worked, breakDeducted, breakAdded Minutes) {
	if b.Kind == BreakdownDetailed {
		for _, d := range b.Days {
			worked += d.Worked
			breakDeducted += d.BreakDeducted
			breakAdded += d.BreakAdded
		}
		return worked, breakDeducted, breakAdded
	}
	return b.Worked, b.BreakDeducted, 0
}
