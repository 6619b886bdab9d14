package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/auth"
	"github.com/Smoothestguy/commndx-sub004/internal/platform/config"
)

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := ensureCompanySettings(ctx, pool, cfg); err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureCompanySettings(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	_, err := pool.Exec(ctx, `
    INSERT INTO company_settings (id, overtime_multiplier, holiday_multiplier, weekly_overtime_threshold)
    VALUES (1, $1, $2, $3)
    ON CONFLICT (id) DO NOTHING
  `, cfg.OvertimeMultiplier, cfg.HolidayMultiplier, cfg.WeeklyOvertimeThreshold)
	return err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	return pool.QueryRow(ctx, `
    INSERT INTO users (email, password_hash, role, status)
    VALUES ($1, $2, $3, 'active')
    RETURNING id
  `, email, hash, auth.RoleAdmin).Scan(&id)
}
