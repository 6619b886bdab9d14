package timeclock

import "time"

// Elapsed computes the on-the-clock duration for display: time since
// clock-in minus accumulated lunch, clamped at zero. Callers own the
// ticking; this stays a pure function of explicit inputs.
func Elapsed(now, clockInAt time.Time, lunchMinutes float64) time.Duration {
	elapsed := now.Sub(clockInAt) - time.Duration(lunchMinutes*float64(time.Minute))
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
