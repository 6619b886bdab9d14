package timeclock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Smoothestguy/commndx-sub004/internal/domain/geo"
	"github.com/Smoothestguy/commndx-sub004/internal/domain/payroll"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const sessionColumns = `
  id, person_id::text, project_id::text, clock_in_at, clock_out_at,
  lunch_start_at, lunch_end_at, lunch_duration_minutes,
  in_lat, in_lng, in_accuracy, in_source, in_captured_at, in_geo_error,
  out_lat, out_lng, out_accuracy, out_source, out_captured_at, out_geo_error,
  created_at`

func scanSession(row pgx.Row) (ClockSession, error) {
	var s ClockSession
	err := row.Scan(&s.ID, &s.PersonID, &s.ProjectID, &s.ClockInAt, &s.ClockOutAt,
		&s.LunchStartAt, &s.LunchEndAt, &s.LunchDurationMinutes,
		&s.ClockInFix.Lat, &s.ClockInFix.Lng, &s.ClockInFix.Accuracy,
		&s.ClockInFix.Source, &s.ClockInFix.CapturedAt, &s.ClockInFix.Err,
		&s.ClockOutFix.Lat, &s.ClockOutFix.Lng, &s.ClockOutFix.Accuracy,
		&s.ClockOutFix.Source, &s.ClockOutFix.CapturedAt, &s.ClockOutFix.Err,
		&s.CreatedAt)
	return s, err
}

func (s *Store) CreateOpenSession(ctx context.Context, session ClockSession) (ClockSession, error) {
	fix := session.ClockInFix
	row := s.DB.QueryRow(ctx, `
    INSERT INTO clock_sessions
      (person_id, project_id, clock_in_at, in_lat, in_lng, in_accuracy, in_source, in_captured_at, in_geo_error)
    SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
    WHERE NOT EXISTS (
      SELECT 1 FROM clock_sessions WHERE person_id = $1 AND clock_out_at IS NULL
    )
    RETURNING `+sessionColumns+`
  `, session.PersonID, session.ProjectID, session.ClockInAt,
		fix.Lat, fix.Lng, fix.Accuracy, fix.Source, fix.CapturedAt, fix.Err)

	created, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClockSession{}, ErrAlreadyClockedIn
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		// Partial unique index on (person_id) WHERE clock_out_at IS NULL
		// backstops the conditional insert under concurrent writers.
		return ClockSession{}, ErrAlreadyClockedIn
	}
	if err != nil {
		return ClockSession{}, err
	}
	return created, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (ClockSession, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+sessionColumns+` FROM clock_sessions WHERE id = $1`, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClockSession{}, ErrSessionNotFound
	}
	if err != nil {
		return ClockSession{}, err
	}
	return session, nil
}

func (s *Store) OpenSessionForPerson(ctx context.Context, personID string) (*ClockSession, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+sessionColumns+` FROM clock_sessions
    WHERE person_id::text = $1 AND clock_out_at IS NULL
  `, personID)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) ListOpenSessions(ctx context.Context) ([]ClockSession, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+sessionColumns+` FROM clock_sessions WHERE clock_out_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []ClockSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *Store) MarkLunchStart(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE clock_sessions
    SET lunch_start_at = $2, is_on_lunch = TRUE
    WHERE id = $1 AND clock_out_at IS NULL AND lunch_start_at IS NULL
  `, sessionID, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkLunchEnd(ctx context.Context, sessionID string, at time.Time, addMinutes float64) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE clock_sessions
    SET lunch_end_at = $2, is_on_lunch = FALSE,
        lunch_duration_minutes = lunch_duration_minutes + $3
    WHERE id = $1 AND clock_out_at IS NULL AND lunch_start_at IS NOT NULL AND lunch_end_at IS NULL
  `, sessionID, at, addMinutes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) CloseSession(ctx context.Context, sessionID string, at time.Time, fix geo.Fix, record payroll.WorkedHourRecord) (ClockSession, string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return ClockSession{}, "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
    UPDATE clock_sessions
    SET clock_out_at = $2, is_on_lunch = FALSE,
        out_lat = $3, out_lng = $4, out_accuracy = $5, out_source = $6, out_captured_at = $7, out_geo_error = $8
    WHERE id = $1 AND clock_out_at IS NULL
  `, sessionID, at, fix.Lat, fix.Lng, fix.Accuracy, fix.Source, fix.CapturedAt, fix.Err)
	if err != nil {
		return ClockSession{}, "", err
	}
	if tag.RowsAffected() == 0 {
		return ClockSession{}, "", ErrNoOpenSession
	}

	var recordID string
	err = tx.QueryRow(ctx, `
    INSERT INTO worked_hour_records
      (person_id, project_id, work_date, hours, is_holiday, hourly_rate, session_id, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id
  `, record.PersonID, record.ProjectID, record.WorkDate, record.Hours,
		record.IsHoliday, record.HourlyRate, record.SessionID, record.Status).Scan(&recordID)
	if err != nil {
		return ClockSession{}, "", err
	}

	session, err := scanSession(tx.QueryRow(ctx, `SELECT `+sessionColumns+` FROM clock_sessions WHERE id = $1`, sessionID))
	if err != nil {
		return ClockSession{}, "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return ClockSession{}, "", err
	}
	return session, recordID, nil
}

func (s *Store) ProjectPolicy(ctx context.Context, projectID string) (ProjectPolicy, error) {
	policy := ProjectPolicy{ProjectID: projectID}
	var scheduledStart *string
	err := s.DB.QueryRow(ctx, `
    SELECT time_clock_enabled, require_clock_location, site_lat, site_lng, radius_miles, scheduled_start_time
    FROM projects
    WHERE id = $1
  `, projectID).Scan(&policy.TimeClockEnabled, &policy.Site.RequireClockLocation,
		&policy.Site.Lat, &policy.Site.Lng, &policy.Site.RadiusMiles, &scheduledStart)
	if err != nil {
		return ProjectPolicy{}, err
	}

	if scheduledStart != nil {
		if parsed, err := time.Parse("15:04:05", *scheduledStart); err == nil {
			now := time.Now().UTC()
			start := time.Date(now.Year(), now.Month(), now.Day(),
				parsed.Hour(), parsed.Minute(), parsed.Second(), 0, time.UTC)
			policy.ScheduledStart = &start
		}
	}
	return policy, nil
}

func (s *Store) PersonRate(ctx context.Context, personID string) (float64, error) {
	var rate float64
	err := s.DB.QueryRow(ctx, `SELECT COALESCE(hourly_rate, 0) FROM people WHERE id = $1`, personID).Scan(&rate)
	if err != nil {
		return 0, err
	}
	return rate, nil
}

func (s *Store) ClockBlockedUntil(ctx context.Context, personID string) (*time.Time, error) {
	var until *time.Time
	err := s.DB.QueryRow(ctx, `SELECT clock_blocked_until FROM people WHERE id = $1`, personID).Scan(&until)
	if err != nil {
		return nil, err
	}
	return until, nil
}

func (s *Store) SetClockBlockedUntil(ctx context.Context, personID string, until time.Time) error {
	_, err := s.DB.Exec(ctx, `UPDATE people SET clock_blocked_until = $2 WHERE id = $1`, personID, until)
	return err
}

func (s *Store) RecordLastFix(ctx context.Context, personID string, fix geo.Fix) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE people SET last_lat = $2, last_lng = $3, last_fix_at = $4 WHERE id = $1
  `, personID, fix.Lat, fix.Lng, fix.CapturedAt)
	return err
}

func (s *Store) LastFix(ctx context.Context, personID string) (geo.Fix, error) {
	var fix geo.Fix
	err := s.DB.QueryRow(ctx, `
    SELECT last_lat, last_lng, last_fix_at FROM people WHERE id = $1
  `, personID).Scan(&fix.Lat, &fix.Lng, &fix.CapturedAt)
	if err != nil {
		return geo.Fix{}, err
	}
	return fix, nil
}
