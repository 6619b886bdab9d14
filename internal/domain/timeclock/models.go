package timeclock

import (
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
)

// SessionState is the explicit lifecycle state of an attendance session,
// computed once from the persisted timestamps and carried through
// transitions.
type SessionState string

const (
	StateNotClocked SessionState = "not_clocked"
	StateWorking    SessionState = "working"
	StateOnLunch    SessionState = "on_lunch"
)

// ClockSession is one continuous clock-in-to-clock-out attendance record for
// a person on a project. Sessions are never deleted, only closed.
type ClockSession struct {
	ID        string `json:"id"`
	PersonID  string `json:"personId"`
	ProjectID string `json:"projectId"`

	ClockInAt            time.Time  `json:"clockInAt"`
	ClockOutAt           *time.Time `json:"clockOutAt"`
	LunchStartAt         *time.Time `json:"lunchStartAt"`
	LunchEndAt           *time.Time `json:"lunchEndAt"`
	LunchDurationMinutes float64    `json:"lunchDurationMinutes"`

	ClockInFix  geo.Fix `json:"clockInLocation"`
	ClockOutFix geo.Fix `json:"clockOutLocation"`

	CreatedAt time.Time `json:"createdAt"`
}

// State derives the lifecycle state from the persisted timestamps.
func (s ClockSession) State() SessionState {
	if s.ClockOutAt != nil {
		return StateNotClocked
	}
	if s.LunchStartAt != nil && s.LunchEndAt == nil {
		return StateOnLunch
	}
	return StateWorking
}

// IsOnLunch is retained for the persisted historical record; the state
// machine itself branches on State.
func (s ClockSession) IsOnLunch() bool {
	return s.State() == StateOnLunch
}

// LunchTaken reports whether lunch was started at any point this session.
// Lunch may occur at most once per session.
func (s ClockSession) LunchTaken() bool {
	return s.LunchStartAt != nil
}

// WorkedHours computes the session's payable hours: clocked span minus
// accumulated lunch, clamped at zero.
func (s ClockSession) WorkedHours(clockOutAt time.Time) float64 {
	hours := clockOutAt.Sub(s.ClockInAt).Hours() - s.LunchDurationMinutes/60
	if hours < 0 {
		return 0
	}
	return hours
}

// ProjectPolicy is the per-project configuration consulted on transitions.
type ProjectPolicy struct {
	ProjectID        string
	TimeClockEnabled bool
	Site             geo.Site
	ScheduledStart   *time.Time
}

// GeofenceWarning is the advisory surfaced when a clock-out fix falls
// outside the site boundary. It never blocks the transition.
type GeofenceWarning struct {
	DistanceMiles float64 `json:"distanceMiles"`
	RadiusMiles   float64 `json:"radiusMiles"`
}

// ClockOutResult pairs the closed session with the worked-hour record it
// emitted and any advisory geofence warning.
type ClockOutResult struct {
	Session  ClockSession     `json:"session"`
	RecordID string           `json:"recordId"`
	Hours    float64          `json:"hours"`
	Warning  *GeofenceWarning `json:"geofenceWarning,omitempty"`
}
