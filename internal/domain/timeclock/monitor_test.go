package timeclock

import (
	"context"
	"testing"
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
)

type stubSampler struct {
	fixes map[string]geo.Fix
}

func (s *stubSampler) Sample(ctx context.Context, personID string) (geo.Fix, error) {
	return s.fixes[personID], nil
}

func TestMonitorSweepRaisesDrift(t *testing.T) {
	store := newFakeStore()
	siteLat, siteLng := 30.0, -97.0
	store.policies["job1"] = ProjectPolicy{
		ProjectID:        "job1",
		TimeClockEnabled: true,
		Site:             geo.Site{RequireClockLocation: true, Lat: &siteLat, Lng: &siteLng},
	}
	store.policies["job2"] = ProjectPolicy{ProjectID: "job2", TimeClockEnabled: true}

	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()
	drifted, _ := store.CreateOpenSession(ctx, ClockSession{PersonID: "p1", ProjectID: "job1", ClockInAt: now})
	if _, err := store.CreateOpenSession(ctx, ClockSession{PersonID: "p2", ProjectID: "job2", ClockInAt: now}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sampler := &stubSampler{fixes: map[string]geo.Fix{
		"p1": geo.DeviceFix(30.0050, -97.0000, nil, now),
		"p2": geo.DeviceFix(45.0000, -120.0000, nil, now),
	}}
	notifier := &fakeNotifier{}

	var observed int
	monitor := NewMonitor(store, sampler, notifier, time.Minute)
	monitor.OnDrift = func() { observed++ }
	monitor.Sweep(ctx)

	// p1 drifted off an enforced site; p2's project has no geofence.
	if notifier.drifts != 1 {
		t.Fatalf("expected one drift event, got %d", notifier.drifts)
	}
	if notifier.lastDist < 0.3 || notifier.lastDist > 0.4 {
		t.Fatalf("expected drift distance near 0.34 miles, got %v", notifier.lastDist)
	}
	if observed != 1 {
		t.Fatalf("expected metrics hook to fire once, got %d", observed)
	}

	// The monitor observes only; the session stays open and untouched.
	session, err := store.GetSession(ctx, drifted.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ClockOutAt != nil || session.State() != StateWorking {
		t.Fatal("expected drifted session to remain open")
	}
}

func TestMonitorSweepSkipsFailedSamples(t *testing.T) {
	store := newFakeStore()
	siteLat, siteLng := 30.0, -97.0
	store.policies["job1"] = ProjectPolicy{
		ProjectID:        "job1",
		TimeClockEnabled: true,
		Site:             geo.Site{RequireClockLocation: true, Lat: &siteLat, Lng: &siteLng},
	}
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()
	if _, err := store.CreateOpenSession(ctx, ClockSession{PersonID: "p1", ProjectID: "job1", ClockInAt: now}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No coordinates were ever reported; the sweep must stay quiet.
	store.lastFix["p1"] = geo.FailedFix("denied", now)
	notifier := &fakeNotifier{}
	monitor := NewMonitor(store, StoreSampler{Store: store}, notifier, time.Minute)
	monitor.Sweep(ctx)

	if notifier.drifts != 0 {
		t.Fatalf("expected no drift events, got %d", notifier.drifts)
	}
}
