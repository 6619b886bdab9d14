package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Notification is a stored in-app message for one user.
type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Service struct {
	store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{store: store}
}

// NotifyLateBlock fans a blocked clock-in out to every supervisor and
// admin. Delivery is best effort; the clock-in refusal already happened.
func (s *Service) NotifyLateBlock(ctx context.Context, personID, projectID string, minutesLate int, scheduledTime string) {
	title := "Late clock-in blocked"
	body := fmt.Sprintf("Worker %s was refused on project %s: %d minutes past the %s start.",
		personID, projectID, minutesLate, scheduledTime)
	s.fanOut(ctx, TypeLateClockInBlocked, title, body)
}

// NotifyDrift reports an open session found outside its project geofence.
func (s *Service) NotifyDrift(ctx context.Context, personID, projectID string, distanceMiles float64) {
	title := "Worker outside job site"
	body := fmt.Sprintf("Worker %s on project %s is %.2f miles from the site.",
		personID, projectID, distanceMiles)
	s.fanOut(ctx, TypeGeofenceDrift, title, body)
}

func (s *Service) fanOut(ctx context.Context, ntype, title, body string) {
	userIDs, err := s.store.SupervisorUserIDs(ctx)
	if err != nil {
		slog.Warn("notification recipient lookup failed", "type", ntype, "err", err)
		return
	}
	for _, userID := range userIDs {
		if err := s.store.CreateNotification(ctx, userID, ntype, title, body); err != nil {
			slog.Warn("notification insert failed", "type", ntype, "user", userID, "err", err)
		}
	}
}

// Notify writes a single notification for one user.
func (s *Service) Notify(ctx context.Context, userID, ntype, title, body string) error {
	return s.store.CreateNotification(ctx, userID, ntype, title, body)
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
