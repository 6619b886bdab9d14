package timeclock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrAlreadyClockedIn       = errors.New("person already has an open session")
	ErrNoOpenSession          = errors.New("no open session")
	ErrLunchAlreadyTaken      = errors.New("lunch already taken this session")
	ErrNotOnLunch             = errors.New("session is not on lunch")
	ErrClockBlocked           = errors.New("clock-ins are blocked for this person")
	ErrTimeClockDisabled      = errors.New("project does not allow time clock")
	ErrLocationRequiredDenied = errors.New("location is required and could not be captured")
	ErrSessionNotFound        = errors.New("clock session not found")
)

// LateBlockError is raised when a clock-in falls outside the schedule grace
// window. It carries the structured fields callers need to render the block
// without a second round trip; Error keeps the legacy colon-delimited wire
// form.
type LateBlockError struct {
	MinutesLate   int
	ScheduledTime string
}

func (e *LateBlockError) Error() string {
	return fmt.Sprintf("LATE_CLOCK_IN_BLOCKED:%d:%s", e.MinutesLate, e.ScheduledTime)
}

// ParseLateBlock recovers the structured fields from the legacy string form.
// Callers receiving any other error string treat it as opaque.
func ParseLateBlock(message string) (*LateBlockError, bool) {
	parts := strings.SplitN(message, ":", 2)
	if len(parts) != 2 || parts[0] != "LATE_CLOCK_IN_BLOCKED" {
		return nil, false
	}
	rest := strings.SplitN(parts[1], ":", 2)
	if len(rest) != 2 {
		return nil, false
	}
	minutes, err := strconv.Atoi(rest[0])
	if err != nil {
		return nil, false
	}
	return &LateBlockError{MinutesLate: minutes, ScheduledTime: rest[1]}, true
}

// GeofenceViolationError is raised when a clock-in fix falls outside an
// enforced site boundary. The person must physically move to retry.
type GeofenceViolationError struct {
	DistanceMiles float64
	RadiusMiles   float64
}

func (e *GeofenceViolationError) Error() string {
	return fmt.Sprintf("GEOFENCE_VIOLATION:%.2f", e.DistanceMiles)
}
