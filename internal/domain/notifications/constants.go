package notifications

const (
	TypeLateClockInBlocked = "late_clock_in_blocked"
	TypeGeofenceDrift      = "geofence_drift"
	TypePeriodLocked       = "period_locked"
	TypeEntryStatusChanged = "entry_status_changed"
)
