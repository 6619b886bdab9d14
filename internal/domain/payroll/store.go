package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var settings Settings
	err := s.DB.QueryRow(ctx, `
    SELECT overtime_multiplier, holiday_multiplier, weekly_overtime_threshold
    FROM company_settings
    WHERE id = 1
  `).Scan(&settings.OvertimeMultiplier, &settings.HolidayMultiplier, &settings.WeeklyOvertimeThreshold)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings Settings) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO company_settings (id, overtime_multiplier, holiday_multiplier, weekly_overtime_threshold)
    VALUES (1, $1, $2, $3)
    ON CONFLICT (id) DO UPDATE SET
      overtime_multiplier = EXCLUDED.overtime_multiplier,
      holiday_multiplier = EXCLUDED.holiday_multiplier,
      weekly_overtime_threshold = EXCLUDED.weekly_overtime_threshold,
      updated_at = now()
  `, settings.OvertimeMultiplier, settings.HolidayMultiplier, settings.WeeklyOvertimeThreshold)
	return err
}

func (s *Store) ListRecords(ctx context.Context, filter RecordFilter) ([]WorkedHourRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.person_id, COALESCE(p.full_name, ''), r.project_id, COALESCE(j.name, ''),
           r.work_date, r.hours, r.is_holiday, r.regular_hours, r.overtime_hours,
           r.hourly_rate, r.session_id::text, r.status, r.created_at, r.updated_at
    FROM worked_hour_records r
    LEFT JOIN people p ON p.id = r.person_id
    LEFT JOIN projects j ON j.id = r.project_id
    WHERE ($1 = '' OR r.person_id::text = $1)
      AND ($2 = '' OR r.project_id::text = $2)
      AND r.work_date >= $3 AND r.work_date < $4
    ORDER BY r.work_date, r.created_at
  `, filter.PersonID, filter.ProjectID, filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []WorkedHourRecord
	for rows.Next() {
		var r WorkedHourRecord
		if err := rows.Scan(&r.ID, &r.PersonID, &r.PersonName, &r.ProjectID, &r.ProjectName,
			&r.WorkDate, &r.Hours, &r.IsHoliday, &r.RegularHours, &r.OvertimeHours,
			&r.HourlyRate, &r.SessionID, &r.Status, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) GetRecord(ctx context.Context, recordID string) (WorkedHourRecord, error) {
	var r WorkedHourRecord
	err := s.DB.QueryRow(ctx, `
    SELECT id, person_id, project_id, work_date, hours, is_holiday,
           regular_hours, overtime_hours, hourly_rate, session_id::text, status, created_at, updated_at
    FROM worked_hour_records
    WHERE id = $1
  `, recordID).Scan(&r.ID, &r.PersonID, &r.ProjectID, &r.WorkDate, &r.Hours, &r.IsHoliday,
		&r.RegularHours, &r.OvertimeHours, &r.HourlyRate, &r.SessionID, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return WorkedHourRecord{}, ErrRecordNotFound
	}
	if err != nil {
		return WorkedHourRecord{}, err
	}
	return r, nil
}

func (s *Store) InsertRecord(ctx context.Context, record WorkedHourRecord) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO worked_hour_records
      (person_id, project_id, work_date, hours, is_holiday, regular_hours, overtime_hours, hourly_rate, session_id, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, record.PersonID, record.ProjectID, record.WorkDate, record.Hours, record.IsHoliday,
		record.RegularHours, record.OvertimeHours, record.HourlyRate, record.SessionID, record.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateRecordStatus(ctx context.Context, recordIDs []string, status string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE worked_hour_records
    SET status = $2, updated_at = now()
    WHERE id = ANY($1)
  `, recordIDs, status)
	return err
}

func (s *Store) DeleteRecord(ctx context.Context, recordID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM worked_hour_records WHERE id = $1", recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *Store) CurrentRates(ctx context.Context, personIDs []string) (map[string]float64, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id::text, COALESCE(hourly_rate, 0)
    FROM people
    WHERE id::text = ANY($1)
  `, personIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[string]float64, len(personIDs))
	for rows.Next() {
		var id string
		var rate float64
		if err := rows.Scan(&id, &rate); err != nil {
			return nil, err
		}
		rates[id] = rate
	}
	return rates, rows.Err()
}

func (s *Store) ListLocks(ctx context.Context, from, to time.Time) ([]PeriodLock, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT project_id::text, week_start, locked_at, COALESCE(locked_by::text, '')
    FROM period_locks
    WHERE week_start >= $1 AND week_start < $2
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locks []PeriodLock
	for rows.Next() {
		var lock PeriodLock
		if err := rows.Scan(&lock.ProjectID, &lock.WeekStart, &lock.LockedAt, &lock.LockedBy); err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, rows.Err()
}

func (s *Store) IsPeriodLocked(ctx context.Context, projectID string, weekStart time.Time) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM period_locks WHERE project_id::text = $1 AND week_start = $2
  `, projectID, weekStart).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) SetPeriodLock(ctx context.Context, projectID string, weekStart time.Time, lockedBy string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO period_locks (project_id, week_start, locked_by)
    VALUES ($1, $2, NULLIF($3, ''))
    ON CONFLICT (project_id, week_start) DO NOTHING
  `, projectID, weekStart, lockedBy)
	return err
}

func (s *Store) RemovePeriodLock(ctx context.Context, projectID string, weekStart time.Time) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM period_locks WHERE project_id::text = $1 AND week_start = $2
  `, projectID, weekStart)
	return err
}
