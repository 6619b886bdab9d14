package timeclock

import (
	"context"
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/payroll"
)

type StoreAPI interface {
	// CreateOpenSession inserts atomically, conditional on no open session
	// existing for the person anywhere. Returns ErrAlreadyClockedIn when the
	// condition fails; this check, not the caller's, is the source of truth.
	CreateOpenSession(ctx context.Context, session ClockSession) (ClockSession, error)

	GetSession(ctx context.Context, sessionID string) (ClockSession, error)
	OpenSessionForPerson(ctx context.Context, personID string) (*ClockSession, error)
	ListOpenSessions(ctx context.Context) ([]ClockSession, error)

	// MarkLunchStart and MarkLunchEnd are conditional updates; zero rows
	// affected signals a lost race and the caller rederives the failure
	// from current state.
	MarkLunchStart(ctx context.Context, sessionID string, at time.Time) (bool, error)
	MarkLunchEnd(ctx context.Context, sessionID string, at time.Time, addMinutes float64) (bool, error)

	// CloseSession closes the session and inserts its worked-hour record in
	// one transaction, returning the closed session and the new record id.
	CloseSession(ctx context.Context, sessionID string, at time.Time, fix geo.Fix, record payroll.WorkedHourRecord) (ClockSession, string, error)

	ProjectPolicy(ctx context.Context, projectID string) (ProjectPolicy, error)
	PersonRate(ctx context.Context, personID string) (float64, error)

	ClockBlockedUntil(ctx context.Context, personID string) (*time.Time, error)
	SetClockBlockedUntil(ctx context.Context, personID string, until time.Time) error

	// RecordLastFix and LastFix track the most recent location a device
	// reported for a person; the drift monitor samples from here.
	RecordLastFix(ctx context.Context, personID string, fix geo.Fix) error
	LastFix(ctx context.Context, personID string) (geo.Fix, error)
}

// StoreSampler adapts the store's last-reported fixes to the monitor.
type StoreSampler struct {
	Store StoreAPI
}

func (s StoreSampler) Sample(ctx context.Context, personID string) (geo.Fix, error) {
	return s.Store.LastFix(ctx, personID)
}
