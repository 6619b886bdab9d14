package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotification(ctx context.Context, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_id, type, title, body)
    VALUES ($1,$2,$3,$4)
  `, userID, ntype, title, body)
	return err
}

func (s *Store) SupervisorUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users
    WHERE role IN ('supervisor', 'admin') AND status = 'active'
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2 OFFSET $3
  `, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND read_at IS NULL
  `, userID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE user_id = $1 AND id = $2 AND read_at IS NULL
  `, userID, notificationID)
	return err
}
