package timeclock

import (
	"context"
	"log/slog"
	"time"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
)

// LocationSampler supplies a current fix for a person with an open session.
type LocationSampler interface {
	Sample(ctx context.Context, personID string) (geo.Fix, error)
}

// Monitor periodically re-validates the geofence for open sessions and
// raises advisory drift events. It never mutates sessions, so it cannot
// contend with the primary transition path.
type Monitor struct {
	store    StoreAPI
	sampler  LocationSampler
	notifier Notifier
	interval time.Duration

	// OnDrift, when set, observes each drift event (metrics hook).
	OnDrift func()
}

func NewMonitor(store StoreAPI, sampler LocationSampler, notifier Notifier, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Monitor{store: store, sampler: sampler, notifier: notifier, interval: interval}
}

// Run blocks until the context is cancelled, sweeping once per interval.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep checks every open session once.
func (m *Monitor) Sweep(ctx context.Context) {
	sessions, err := m.store.ListOpenSessions(ctx)
	if err != nil {
		slog.Warn("location monitor list failed", "err", err)
		return
	}

	for _, session := range sessions {
		policy, err := m.store.ProjectPolicy(ctx, session.ProjectID)
		if err != nil {
			slog.Warn("location monitor policy lookup failed", "project", session.ProjectID, "err", err)
			continue
		}
		if policy.Site.Enforcement() != geo.EnforcementEnforced {
			continue
		}

		fix, err := m.sampler.Sample(ctx, session.PersonID)
		if err != nil || !fix.HasCoordinates() {
			continue
		}

		if within, dist := policy.Site.CheckFix(fix); !within {
			slog.Warn("open session drifted outside geofence",
				"person", session.PersonID, "project", session.ProjectID, "distanceMiles", dist)
			if m.notifier != nil {
				m.notifier.NotifyDrift(ctx, session.PersonID, session.ProjectID, dist)
			}
			if m.OnDrift != nil {
				m.OnDrift()
			}
		}
	}
}
