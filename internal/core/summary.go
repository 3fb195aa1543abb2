package core

import "encoding/json"

// Money is a monetary amount in cents. Cents are used for arithmetic and
// storage; euros only ever appear at the rendering edge.
type Money struct {
	Cents int64
}

// Euros returns the amount as a float64 for display purposes only.
func (m Money) Euros() float64 {
	return float64(m.Cents) / 100.0
}

// SummaryRow is one employee's line in the pre-computed monetary batch
// summary. Amounts and hours come serialized from the upstream payroll
// engine; paydesk renders them verbatim.
type SummaryRow struct {
	EmployeeCode        string  `json:"employee_code"`
	EmployeeName        string  `json:"employee_name"`
	RegularHours        float64 `json:"regular_hours"`
	OvertimeHours       float64 `json:"overtime_hours"`
	RegularAmountCents  int64   `json:"regular_amount_cents"`
	OvertimeAmountCents int64   `json:"overtime_amount_cents"`
	GrossPayCents       int64   `json:"gross_pay_cents"`
}

// BatchSummary is the alternate, pass-through export shape: a monetary
// summary serialized at batch close, independent of the snapshot
// aggregation path.
type BatchSummary struct {
	BatchID int64
	Rows    []SummaryRow
}

// ParseSummaryRows deserializes the stored summary payload. Unlike the
// per-snapshot breakdown there is no fallback shape: a summary either
// parses or the export fails.
func ParseSummaryRows(raw []byte) ([]SummaryRow, error) {
	var rows []SummaryRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
