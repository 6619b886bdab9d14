package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string
	PersonID     string
	RoleName     string
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	var user AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, email, password_hash, COALESCE(person_id::text, ''), role
    FROM users
    WHERE email = $1 AND status = 'active'
  `, email).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.PersonID, &user.RoleName)
	if err != nil {
		return AuthUser{}, err
	}
	return user, nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login_at = now() WHERE id = $1", userID)
	return err
}

func (s *Store) CreateSession(ctx context.Context, userID, refreshTokenHash string, expires time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO auth_sessions (user_id, refresh_token_hash, expires_at)
    VALUES ($1, $2, $3)
  `, userID, refreshTokenHash, expires)
	return err
}

func (s *Store) RevokeSession(ctx context.Context, userID, refreshTokenHash string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE auth_sessions SET revoked_at = now()
    WHERE user_id = $1 AND refresh_token_hash = $2 AND revoked_at IS NULL
  `, userID, refreshTokenHash)
	return err
}
