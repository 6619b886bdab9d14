package payroll

import "errors"

var (
	ErrRecordNotFound = errors.New("worked hour record not found")
	ErrPeriodLocked   = errors.New("period has been closed out and rejects edits")
	ErrInvalidHours   = errors.New("hours must be between 0 and 24")
	ErrUnknownView    = errors.New("unknown aggregation view")
)
