package timeclock

import (
	"context"
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/payroll"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/schedule"
)

// Notifier delivers advisory events to supervisors. Failures are the
// notifier's problem; transitions never roll back over a notification.
type Notifier interface {
	NotifyLateBlock(ctx context.Context, personID, projectID string, minutesLate int, scheduledTime string)
	NotifyDrift(ctx context.Context, personID, projectID string, distanceMiles float64)
}

type Service struct {
	store        StoreAPI
	acquirer     geo.Acquirer
	notifier     Notifier
	graceMinutes int
	now          func() time.Time
}

func NewService(store StoreAPI, acquirer geo.Acquirer, notifier Notifier, graceMinutes int) *Service {
	if graceMinutes <= 0 {
		graceMinutes = schedule.DefaultGraceMinutes
	}
	return &Service{
		store:        store,
		acquirer:     acquirer,
		notifier:     notifier,
		graceMinutes: graceMinutes,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ClockIn opens a session for the person on the project. All guards run
// before any write, so a refused clock-in leaves no artifact.
func (s *Service) ClockIn(ctx context.Context, personID, projectID string, device geo.Fix) (ClockSession, error) {
	now := s.now()

	policy, err := s.store.ProjectPolicy(ctx, projectID)
	if err != nil {
		return ClockSession{}, err
	}
	if !policy.TimeClockEnabled {
		return ClockSession{}, ErrTimeClockDisabled
	}

	blockedUntil, err := s.store.ClockBlockedUntil(ctx, personID)
	if err != nil {
		return ClockSession{}, err
	}
	if blockedUntil != nil && now.Before(*blockedUntil) {
		return ClockSession{}, ErrClockBlocked
	}

	// Advisory pre-check; the conditional insert below is the source of
	// truth when two devices race.
	open, err := s.store.OpenSessionForPerson(ctx, personID)
	if err != nil {
		return ClockSession{}, err
	}
	if open != nil {
		return ClockSession{}, ErrAlreadyClockedIn
	}

	if policy.ScheduledStart != nil {
		lateness := schedule.CheckLateness(now, *policy.ScheduledStart, s.graceMinutes)
		if lateness.Late {
			blockErr := &LateBlockError{
				MinutesLate:   lateness.MinutesLate,
				ScheduledTime: schedule.FormatScheduledTime(*policy.ScheduledStart),
			}
			if s.notifier != nil {
				s.notifier.NotifyLateBlock(ctx, personID, projectID, blockErr.MinutesLate, blockErr.ScheduledTime)
			}
			return ClockSession{}, blockErr
		}
	}

	fix, err := s.resolveFix(ctx, device, policy.Site)
	if err != nil {
		return ClockSession{}, err
	}

	if policy.Site.Enforcement() == geo.EnforcementEnforced {
		if within, dist := policy.Site.CheckFix(fix); !within {
			return ClockSession{}, &GeofenceViolationError{DistanceMiles: dist, RadiusMiles: policy.Site.Radius()}
		}
	}

	session := ClockSession{
		PersonID:   personID,
		ProjectID:  projectID,
		ClockInAt:  now,
		ClockInFix: fix,
	}
	return s.store.CreateOpenSession(ctx, session)
}

// StartLunch begins the session's single lunch break.
func (s *Service) StartLunch(ctx context.Context, sessionID string) (ClockSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return ClockSession{}, err
	}
	if session.State() == StateNotClocked {
		return ClockSession{}, ErrNoOpenSession
	}
	if session.LunchTaken() {
		return ClockSession{}, ErrLunchAlreadyTaken
	}

	ok, err := s.store.MarkLunchStart(ctx, sessionID, s.now())
	if err != nil {
		return ClockSession{}, err
	}
	if !ok {
		// Lost a race; rederive the failure from current state.
		return ClockSession{}, ErrLunchAlreadyTaken
	}
	return s.store.GetSession(ctx, sessionID)
}

// EndLunch closes the lunch break and accrues its duration. Retrying an
// already-applied end yields ErrNotOnLunch rather than double-counting.
func (s *Service) EndLunch(ctx context.Context, sessionID string) (ClockSession, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return ClockSession{}, err
	}
	if session.State() != StateOnLunch {
		return ClockSession{}, ErrNotOnLunch
	}

	now := s.now()
	minutes := now.Sub(*session.LunchStartAt).Minutes()
	if minutes < 0 {
		minutes = 0
	}

	ok, err := s.store.MarkLunchEnd(ctx, sessionID, now, minutes)
	if err != nil {
		return ClockSession{}, err
	}
	if !ok {
		return ClockSession{}, ErrNotOnLunch
	}
	return s.store.GetSession(ctx, sessionID)
}

// ClockOut closes the session and emits its worked-hour record. The
// geofence is informational only here: an out-of-bounds fix produces a
// warning, never a block. An open lunch is ended at the clock-out instant.
func (s *Service) ClockOut(ctx context.Context, sessionID string, device geo.Fix) (ClockOutResult, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return ClockOutResult{}, err
	}
	if session.State() == StateNotClocked {
		return ClockOutResult{}, ErrNoOpenSession
	}

	policy, err := s.store.ProjectPolicy(ctx, session.ProjectID)
	if err != nil {
		return ClockOutResult{}, err
	}

	fix, err := s.resolveFix(ctx, device, policy.Site)
	if err != nil {
		return ClockOutResult{}, err
	}

	now := s.now()
	lunchMinutes := session.LunchDurationMinutes
	if session.State() == StateOnLunch {
		extra := now.Sub(*session.LunchStartAt).Minutes()
		if extra < 0 {
			extra = 0
		}
		if ok, err := s.store.MarkLunchEnd(ctx, sessionID, now, extra); err != nil {
			return ClockOutResult{}, err
		} else if ok {
			lunchMinutes += extra
		}
	}

	hours := now.Sub(session.ClockInAt).Hours() - lunchMinutes/60
	if hours < 0 {
		hours = 0
	}

	var warning *GeofenceWarning
	if policy.Site.Enforcement() == geo.EnforcementEnforced && fix.HasCoordinates() {
		if within, dist := policy.Site.CheckFix(fix); !within {
			warning = &GeofenceWarning{DistanceMiles: dist, RadiusMiles: policy.Site.Radius()}
		}
	}

	record := payroll.WorkedHourRecord{
		PersonID:  session.PersonID,
		ProjectID: session.ProjectID,
		WorkDate:  time.Date(session.ClockInAt.Year(), session.ClockInAt.Month(), session.ClockInAt.Day(), 0, 0, 0, 0, time.UTC),
		Hours:     hours,
		SessionID: &session.ID,
		Status:    payroll.RecordStatusPending,
	}
	if rate, err := s.store.PersonRate(ctx, session.PersonID); err == nil && rate > 0 {
		record.HourlyRate = &rate
	}

	closed, recordID, err := s.store.CloseSession(ctx, sessionID, now, fix, record)
	if err != nil {
		return ClockOutResult{}, err
	}

	return ClockOutResult{Session: closed, RecordID: recordID, Hours: hours, Warning: warning}, nil
}

// Status returns the person's open session, if any, with its derived state.
func (s *Service) Status(ctx context.Context, personID string) (*ClockSession, error) {
	return s.store.OpenSessionForPerson(ctx, personID)
}

// OpenSessions lists every session still on the clock, for the supervisor
// live board.
func (s *Service) OpenSessions(ctx context.Context) ([]ClockSession, error) {
	return s.store.ListOpenSessions(ctx)
}

// ReportLocation stores a device's latest fix for the drift monitor.
// Fixes without coordinates are ignored.
func (s *Service) ReportLocation(ctx context.Context, personID string, fix geo.Fix) error {
	if !fix.HasCoordinates() {
		return nil
	}
	return s.store.RecordLastFix(ctx, personID, fix)
}

// BlockClockIns sets the refusal window used by the auto-clock-out
// collaborator on the late path.
func (s *Service) BlockClockIns(ctx context.Context, personID string, until time.Time) error {
	return s.store.SetClockBlockedUntil(ctx, personID, until)
}

// resolveFix picks the fix persisted with a transition. Device coordinates
// win; projects that require location refuse denied or failed captures
// (timeout is treated identically to denial); otherwise the bounded IP
// fallback is attempted and its failure tolerated.
func (s *Service) resolveFix(ctx context.Context, device geo.Fix, site geo.Site) (geo.Fix, error) {
	if device.HasCoordinates() {
		return device, nil
	}

	if site.RequireClockLocation {
		return geo.Fix{}, ErrLocationRequiredDenied
	}

	if s.acquirer != nil {
		if fix, err := s.acquirer.Acquire(ctx); err == nil {
			return fix, nil
		}
	}
	return device, nil
}
