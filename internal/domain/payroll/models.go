package payroll

import "time"

// WorkedHourRecord is one person's worked hours for one day on one project.
// Produced by closing a clock session or by manual entry; read-only to the
// classifier.
type WorkedHourRecord struct {
	ID            string     `json:"id"`
	PersonID      string     `json:"personId"`
	PersonName    string     `json:"personName,omitempty"`
	ProjectID     string     `json:"projectId"`
	ProjectName   string     `json:"projectName,omitempty"`
	WorkDate      time.Time  `json:"workDate"`
	Hours         float64    `json:"hours"`
	IsHoliday     bool       `json:"isHoliday"`
	RegularHours  *float64   `json:"regularHours,omitempty"`
	OvertimeHours *float64   `json:"overtimeHours,omitempty"`
	HourlyRate    *float64   `json:"hourlyRate,omitempty"`
	SessionID     *string    `json:"sessionId,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// Settings are the company-wide payroll multipliers and thresholds. A single
// row, read-only to this engine.
type Settings struct {
	OvertimeMultiplier      float64 `json:"overtime_multiplier"`
	HolidayMultiplier       float64 `json:"holiday_multiplier"`
	WeeklyOvertimeThreshold float64 `json:"weekly_overtime_threshold"`
}

// DefaultSettings applied when no settings row exists.
func DefaultSettings() Settings {
	return Settings{
		OvertimeMultiplier:      1.5,
		HolidayMultiplier:       2.0,
		WeeklyOvertimeThreshold: 40,
	}
}

// PersonTotals is the classified outcome for one person over one aggregation
// window. Derived on every read, never persisted.
type PersonTotals struct {
	PersonID      string  `json:"personId"`
	PersonName    string  `json:"personName,omitempty"`
	TotalHours    float64 `json:"totalHours"`
	HolidayHours  float64 `json:"holidayHours"`
	RegularHours  float64 `json:"regularHours"`
	OvertimeHours float64 `json:"overtimeHours"`
	TotalCost     float64 `json:"totalCost"`
}

// WeekClassification carries the authoritative weekly totals plus the delta
// against the sum of per-entry display costs. A non-zero variance is flagged
// for review, never silently reconciled.
type WeekClassification struct {
	Totals        PersonTotals `json:"totals"`
	EntryCost     float64      `json:"entryCost"`
	EntryVariance float64      `json:"entryVariance"`
}

// PeriodLock marks a (project, week) as closed out. Locked periods reject
// record edits; the closeout itself is an external process.
type PeriodLock struct {
	ProjectID string    `json:"projectId"`
	WeekStart time.Time `json:"weekStart"`
	LockedAt  time.Time `json:"lockedAt"`
	LockedBy  string    `json:"lockedBy"`
}
