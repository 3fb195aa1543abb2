package payroll

import (
	"fmt"

	"paydesk/internal/core"
)

// Policy maps a raw minute count to a rounded minute count. A policy must
// be pure and deterministic; the engine only ever calls it, never inspects
// it, and always receives it as an explicit argument so concurrent batches
// can round differently.
type Policy func(core.Minutes) core.Minutes

// Identity leaves raw minutes untouched.
func Identity(m core.Minutes) core.Minutes { return m }

// RoundingMode selects how a step policy resolves values between steps.
type RoundingMode string

const (
	// RoundNearest rounds to the closest step multiple, ties upward.
	RoundNearest RoundingMode = "nearest"
	// RoundUp always rounds to the next step multiple.
	RoundUp RoundingMode = "up"
	// RoundDown always truncates to the previous step multiple.
	RoundDown RoundingMode = "down"
)

// StepPolicy builds a policy that rounds to multiples of step minutes.
// A step of 0 or 1 yields the identity. Nearest-mode ties round up.
func StepPolicy(step core.Minutes, mode RoundingMode) (Policy, error) {
	if step < 0 {
		return nil, fmt.Errorf("invalid rounding step %d: must be non-negative", step)
	}
	if step <= 1 {
		return Identity, nil
	}
	switch mode {
	case RoundNearest:
		return func(m core.Minutes) core.Minutes {
			return (m + step/2) / step * step
		}, nil
	case RoundUp:
		return func(m core.Minutes) core.Minutes {
			return (m + step - 1) / step * step
		}, nil
	case RoundDown:
		return func(m core.Minutes) core.Minutes {
			return m / step * step
		}, nil
	default:
		return nil, fmt.Errorf("unknown rounding mode %q", mode)
	}
}

// RoundedTotals holds one employee's bucket totals after rounding. Normal
// is always derived from the other rounded buckets, never rounded on its
// own raw value.
type RoundedTotals struct {
	Paid        core.Minutes
	Normal      core.Minutes
	Weekend     core.Minutes
	BankHoliday core.Minutes
	Overtime    core.Minutes

	// BaseClamped records that the derived normal bucket was pushed below
	// zero by independent per-bucket rounding and clamped. Frequent clamps
	// signal a policy/bucket-granularity mismatch worth investigating, but
	// a clamp itself is expected behavior, not an error.
	BaseClamped bool
}

// Round applies the policy once to one employee's raw totals. Paid,
// overtime, bank holiday, and weekend each round independently on their own
// raw values; normal is roundedPaid minus the other three, floored at zero.
func Round(t *core.EmployeeBatchTotals, policy Policy) RoundedTotals {
	r := RoundedTotals{
		Paid:        policy(t.Paid),
		Overtime:    policy(t.Overtime),
		BankHoliday: policy(t.BankHoliday),
		Weekend:     policy(t.Weekend),
	}
	base := r.Paid - r.Overtime - r.BankHoliday - r.Weekend
	if base < 0 {
		base = 0
		r.BaseClamped = true
	}
	r.Normal = base
	return r
}
