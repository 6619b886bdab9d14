package timeclock

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/payroll"
)

type fakeStore struct {
	sessions map[string]*ClockSession
	nextID   int

	policies map[string]ProjectPolicy
	rates    map[string]float64
	blocked  map[string]time.Time
	lastFix  map[string]geo.Fix

	records []payroll.WorkedHourRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: map[string]*ClockSession{},
		policies: map[string]ProjectPolicy{},
		rates:    map[string]float64{},
		blocked:  map[string]time.Time{},
		lastFix:  map[string]geo.Fix{},
	}
}

func (f *fakeStore) CreateOpenSession(ctx context.Context, session ClockSession) (ClockSession, error) {
	for _, existing := range f.sessions {
		if existing.PersonID == session.PersonID && existing.ClockOutAt == nil {
			return ClockSession{}, ErrAlreadyClockedIn
		}
	}
	f.nextID++
	session.ID = fmt.Sprintf("sess-%d", f.nextID)
	session.CreatedAt = session.ClockInAt
	f.sessions[session.ID] = &session
	return session, nil
}

func (f *fakeStore) GetSession(ctx context.Context, sessionID string) (ClockSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return ClockSession{}, ErrSessionNotFound
	}
	return *session, nil
}

func (f *fakeStore) OpenSessionForPerson(ctx context.Context, personID string) (*ClockSession, error) {
	for _, session := range f.sessions {
		if session.PersonID == personID && session.ClockOutAt == nil {
			copied := *session
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListOpenSessions(ctx context.Context) ([]ClockSession, error) {
	var open []ClockSession
	for _, session := range f.sessions {
		if session.ClockOutAt == nil {
			open = append(open, *session)
		}
	}
	return open, nil
}

func (f *fakeStore) MarkLunchStart(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	session, ok := f.sessions[sessionID]
	if !ok || session.ClockOutAt != nil || session.LunchStartAt != nil {
		return false, nil
	}
	session.LunchStartAt = &at
	return true, nil
}

func (f *fakeStore) MarkLunchEnd(ctx context.Context, sessionID string, at time.Time, addMinutes float64) (bool, error) {
	session, ok := f.sessions[sessionID]
	if !ok || session.ClockOutAt != nil || session.LunchStartAt == nil || session.LunchEndAt != nil {
		return false, nil
	}
	session.LunchEndAt = &at
	session.LunchDurationMinutes += addMinutes
	return true, nil
}

func (f *fakeStore) CloseSession(ctx context.Context, sessionID string, at time.Time, fix geo.Fix, record payroll.WorkedHourRecord) (ClockSession, string, error) {
	session, ok := f.sessions[sessionID]
	if !ok || session.ClockOutAt != nil {
		return ClockSession{}, "", ErrNoOpenSession
	}
	session.ClockOutAt = &at
	session.ClockOutFix = fix
	f.records = append(f.records, record)
	return *session, fmt.Sprintf("rec-%d", len(f.records)), nil
}

func (f *fakeStore) ProjectPolicy(ctx context.Context, projectID string) (ProjectPolicy, error) {
	policy, ok := f.policies[projectID]
	if !ok {
		return ProjectPolicy{ProjectID: projectID, TimeClockEnabled: true}, nil
	}
	return policy, nil
}

func (f *fakeStore) PersonRate(ctx context.Context, personID string) (float64, error) {
	return f.rates[personID], nil
}

func (f *fakeStore) ClockBlockedUntil(ctx context.Context, personID string) (*time.Time, error) {
	if until, ok := f.blocked[personID]; ok {
		return &until, nil
	}
	return nil, nil
}

func (f *fakeStore) SetClockBlockedUntil(ctx context.Context, personID string, until time.Time) error {
	f.blocked[personID] = until
	return nil
}

func (f *fakeStore) RecordLastFix(ctx context.Context, personID string, fix geo.Fix) error {
	f.lastFix[personID] = fix
	return nil
}

func (f *fakeStore) LastFix(ctx context.Context, personID string) (geo.Fix, error) {
	return f.lastFix[personID], nil
}

type fakeNotifier struct {
	lateBlocks int
	drifts     int
	lastDist   float64
}

func (f *fakeNotifier) NotifyLateBlock(ctx context.Context, personID, projectID string, minutesLate int, scheduledTime string) {
	f.lateBlocks++
}

func (f *fakeNotifier) NotifyDrift(ctx context.Context, personID, projectID string, distanceMiles float64) {
	f.drifts++
	f.lastDist = distanceMiles
}

func testService(store *fakeStore, at time.Time) *Service {
	service := NewService(store, nil, nil, 10)
	service.now = func() time.Time { return at }
	return service
}

func TestClockInExclusivity(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, now)
	ctx := context.Background()

	if _, err := service.ClockIn(ctx, "p1", "job1", geo.Fix{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same person on a different project must be refused.
	if _, err := service.ClockIn(ctx, "p1", "job2", geo.Fix{}); err != ErrAlreadyClockedIn {
		t.Fatalf("expected ErrAlreadyClockedIn, got %v", err)
	}

	// A different person is unaffected.
	if _, err := service.ClockIn(ctx, "p2", "job1", geo.Fix{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClockInStoreEnforcesExclusivityUnderRace(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()

	// Two sessions racing past the advisory check still collapse to one via
	// the conditional insert.
	if _, err := store.CreateOpenSession(ctx, ClockSession{PersonID: "p1", ProjectID: "job1", ClockInAt: now}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.CreateOpenSession(ctx, ClockSession{PersonID: "p1", ProjectID: "job2", ClockInAt: now}); err != ErrAlreadyClockedIn {
		t.Fatalf("expected ErrAlreadyClockedIn from store, got %v", err)
	}
}

func TestClockInLateBlock(t *testing.T) {
	store := newFakeStore()
	scheduled := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	store.policies["job1"] = ProjectPolicy{ProjectID: "job1", TimeClockEnabled: true, ScheduledStart: &scheduled}
	notifier := &fakeNotifier{}

	service := NewService(store, nil, notifier, 10)
	service.now = func() time.Time { return scheduled.Add(11 * time.Minute) }

	_, err := service.ClockIn(context.Background(), "p1", "job1", geo.Fix{})
	var blockErr *LateBlockError
	if !errors.As(err, &blockErr) {
		t.Fatalf("expected LateBlockError, got %v", err)
	}
	if blockErr.MinutesLate != 11 {
		t.Fatalf("expected 11 minutes late, got %d", blockErr.MinutesLate)
	}
	if blockErr.ScheduledTime != "08:00:00" {
		t.Fatalf("expected scheduled time 08:00:00, got %s", blockErr.ScheduledTime)
	}
	if blockErr.Error() != "LATE_CLOCK_IN_BLOCKED:11:08:00:00" {
		t.Fatalf("unexpected wire form: %s", blockErr.Error())
	}
	if notifier.lateBlocks != 1 {
		t.Fatalf("expected supervisor notification, got %d", notifier.lateBlocks)
	}

	// At the grace boundary the clock-in goes through.
	service.now = func() time.Time { return scheduled.Add(10 * time.Minute) }
	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.Fix{}); err != nil {
		t.Fatalf("expected clock-in at grace boundary to succeed, got %v", err)
	}
}

func TestParseLateBlock(t *testing.T) {
	parsed, ok := ParseLateBlock("LATE_CLOCK_IN_BLOCKED:11:08:00:00")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if parsed.MinutesLate != 11 || parsed.ScheduledTime != "08:00:00" {
		t.Fatalf("unexpected parse result: %+v", parsed)
	}

	if _, ok := ParseLateBlock("GEOFENCE_VIOLATION:0.34"); ok {
		t.Fatal("expected other errors to stay opaque")
	}
}

func TestClockInGeofenceViolation(t *testing.T) {
	store := newFakeStore()
	siteLat, siteLng := 30.0, -97.0
	store.policies["job1"] = ProjectPolicy{
		ProjectID:        "job1",
		TimeClockEnabled: true,
		Site:             geo.Site{RequireClockLocation: true, Lat: &siteLat, Lng: &siteLng},
	}
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, now)

	_, err := service.ClockIn(context.Background(), "p1", "job1", geo.DeviceFix(30.0050, -97.0000, nil, now))
	var violation *GeofenceViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected GeofenceViolationError, got %v", err)
	}
	if violation.DistanceMiles < 0.3 || violation.DistanceMiles > 0.4 {
		t.Fatalf("expected reported distance near 0.34 miles, got %v", violation.DistanceMiles)
	}

	// On-site fix clocks in.
	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.DeviceFix(30.0001, -97.0001, nil, now)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClockInLocationRequiredDenied(t *testing.T) {
	store := newFakeStore()
	store.policies["job1"] = ProjectPolicy{
		ProjectID:        "job1",
		TimeClockEnabled: true,
		Site:             geo.Site{RequireClockLocation: true},
	}
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, now)

	// Denial and timeout are treated identically for required-location
	// projects.
	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.FailedFix("permission denied", now)); err != ErrLocationRequiredDenied {
		t.Fatalf("expected ErrLocationRequiredDenied, got %v", err)
	}
	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.FailedFix("timeout", now)); err != ErrLocationRequiredDenied {
		t.Fatalf("expected ErrLocationRequiredDenied for timeout, got %v", err)
	}
}

func TestClockInBlockedWindow(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	store.blocked["p1"] = now.Add(time.Hour)
	service := testService(store, now)

	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.Fix{}); err != ErrClockBlocked {
		t.Fatalf("expected ErrClockBlocked, got %v", err)
	}

	// An expired window no longer refuses.
	store.blocked["p1"] = now.Add(-time.Minute)
	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.Fix{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClockInTimeClockDisabled(t *testing.T) {
	store := newFakeStore()
	store.policies["job1"] = ProjectPolicy{ProjectID: "job1", TimeClockEnabled: false}
	service := testService(store, time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC))

	if _, err := service.ClockIn(context.Background(), "p1", "job1", geo.Fix{}); err != ErrTimeClockDisabled {
		t.Fatalf("expected ErrTimeClockDisabled, got %v", err)
	}
}

func TestLunchLifecycleAndIdempotence(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, start)
	ctx := context.Background()

	session, err := service.ClockIn(ctx, "p1", "job1", geo.Fix{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service.now = func() time.Time { return start.Add(4 * time.Hour) }
	onLunch, err := service.StartLunch(ctx, session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if onLunch.State() != StateOnLunch {
		t.Fatalf("expected on-lunch state, got %s", onLunch.State())
	}

	if _, err := service.StartLunch(ctx, session.ID); err != ErrLunchAlreadyTaken {
		t.Fatalf("expected ErrLunchAlreadyTaken, got %v", err)
	}

	service.now = func() time.Time { return start.Add(4*time.Hour + 30*time.Minute) }
	back, err := service.EndLunch(ctx, session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.LunchDurationMinutes != 30 {
		t.Fatalf("expected 30 lunch minutes accrued, got %v", back.LunchDurationMinutes)
	}
	if back.State() != StateWorking {
		t.Fatalf("expected working state after lunch, got %s", back.State())
	}

	// Retrying an applied lunch-end is rejected, never double-counted.
	if _, err := service.EndLunch(ctx, session.ID); err != ErrNotOnLunch {
		t.Fatalf("expected ErrNotOnLunch on retry, got %v", err)
	}
	refetched, _ := store.GetSession(ctx, session.ID)
	if refetched.LunchDurationMinutes != 30 {
		t.Fatalf("expected single accrual, got %v", refetched.LunchDurationMinutes)
	}

	// Lunch occurs at most once per session.
	if _, err := service.StartLunch(ctx, session.ID); err != ErrLunchAlreadyTaken {
		t.Fatalf("expected ErrLunchAlreadyTaken after lunch ended, got %v", err)
	}
}

func TestStartLunchWithoutSession(t *testing.T) {
	service := testService(newFakeStore(), time.Now())
	if _, err := service.StartLunch(context.Background(), "missing"); err != ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestClockOutRoundTrip(t *testing.T) {
	store := newFakeStore()
	store.rates["p1"] = 20
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, start)
	ctx := context.Background()

	session, err := service.ClockIn(ctx, "p1", "job1", geo.Fix{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service.now = func() time.Time { return start.Add(4 * time.Hour) }
	if _, err := service.StartLunch(ctx, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service.now = func() time.Time { return start.Add(4*time.Hour + 30*time.Minute) }
	if _, err := service.EndLunch(ctx, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service.now = func() time.Time { return start.Add(8 * time.Hour) }
	result, err := service.ClockOut(ctx, session.ID, geo.Fix{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Hours != 7.5 {
		t.Fatalf("expected 7.5 worked hours, got %v", result.Hours)
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one worked-hour record, got %d", len(store.records))
	}
	record := store.records[0]
	if record.Hours != 7.5 {
		t.Fatalf("expected record hours 7.5, got %v", record.Hours)
	}
	if record.HourlyRate == nil || *record.HourlyRate != 20 {
		t.Fatal("expected rate snapshot on record")
	}
	if result.Session.State() != StateNotClocked {
		t.Fatalf("expected closed session state, got %s", result.Session.State())
	}

	// Closed sessions refuse a second clock-out.
	if _, err := service.ClockOut(ctx, session.ID, geo.Fix{}); err != ErrNoOpenSession {
		t.Fatalf("expected ErrNoOpenSession, got %v", err)
	}
}

func TestClockOutEndsOpenLunch(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, start)
	ctx := context.Background()

	session, err := service.ClockIn(ctx, "p1", "job1", geo.Fix{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	service.now = func() time.Time { return start.Add(4 * time.Hour) }
	if _, err := service.StartLunch(ctx, session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Clocking out mid-lunch accrues the open lunch to the close instant.
	service.now = func() time.Time { return start.Add(4*time.Hour + 15*time.Minute) }
	result, err := service.ClockOut(ctx, session.ID, geo.Fix{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Hours != 4 {
		t.Fatalf("expected 4 worked hours, got %v", result.Hours)
	}
}

func TestClockOutGeofenceWarningNonBlocking(t *testing.T) {
	store := newFakeStore()
	siteLat, siteLng := 30.0, -97.0
	store.policies["job1"] = ProjectPolicy{
		ProjectID:        "job1",
		TimeClockEnabled: true,
		Site:             geo.Site{RequireClockLocation: true, Lat: &siteLat, Lng: &siteLng},
	}
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	service := testService(store, start)
	ctx := context.Background()

	session, err := service.ClockIn(ctx, "p1", "job1", geo.DeviceFix(30.0001, -97.0001, nil, start))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	service.now = func() time.Time { return start.Add(8 * time.Hour) }
	result, err := service.ClockOut(ctx, session.ID, geo.DeviceFix(30.0050, -97.0000, nil, start.Add(8*time.Hour)))
	if err != nil {
		t.Fatalf("expected off-site clock-out to proceed, got %v", err)
	}
	if result.Warning == nil {
		t.Fatal("expected geofence warning on off-site clock-out")
	}
}

func TestElapsedClamped(t *testing.T) {
	clockIn := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

	elapsed := Elapsed(clockIn.Add(2*time.Hour), clockIn, 30)
	if elapsed != 90*time.Minute {
		t.Fatalf("expected 90 minutes elapsed, got %v", elapsed)
	}

	if elapsed := Elapsed(clockIn, clockIn, 30); elapsed != 0 {
		t.Fatalf("expected clamped zero, got %v", elapsed)
	}
}
