package schedule

import "time"

const DefaultGraceMinutes = 10

// Lateness is the outcome of comparing a clock-in attempt to the scheduled
// start. The guard only reports; blocking is the caller's decision.
type Lateness struct {
	Late        bool
	MinutesLate int
}

// CheckLateness compares now against the scheduled start time. A clock-in is
// on time when it falls within graceMinutes before or after the scheduled
// start; MinutesLate is zero for early arrivals.
func CheckLateness(now, scheduledStart time.Time, graceMinutes int) Lateness {
	if graceMinutes < 0 {
		graceMinutes = 0
	}

	delta := now.Sub(scheduledStart)
	minutesLate := int(delta.Minutes())
	if minutesLate < 0 {
		minutesLate = 0
	}

	grace := time.Duration(graceMinutes) * time.Minute
	late := delta > grace || delta < -grace
	return Lateness{Late: late, MinutesLate: minutesLate}
}

// FormatScheduledTime renders a scheduled start as HH:MM:SS for block
// messages; the caller is expected to localize for display.
func FormatScheduledTime(scheduledStart time.Time) string {
	return scheduledStart.Format("15:04:05")
}
