package core

import "fmt"

// Minutes is a payroll duration expressed in whole minutes. All upstream
// figures arrive pre-computed in minutes; this package never deals in
// fractional time.
type Minutes int64

// HHMM renders the minute count as a zero-padded clock string. Negative
// values clamp to zero before formatting, and hours are not capped at 24,
// so a 25-hour total renders as "25:00".
func (m Minutes) HHMM() string {
	if m < 0 {
		m = 0
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
