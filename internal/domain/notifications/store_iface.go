package notifications

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, userID, ntype, title, body string) error
	SupervisorUserIDs(ctx context.Context) ([]string, error)
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
}
