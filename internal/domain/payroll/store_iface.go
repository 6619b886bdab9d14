package payroll

import (
	"context"
	"time"
)

// RecordFilter narrows worked-hour reads to an aggregation window.
type RecordFilter struct {
	PersonID  string
	ProjectID string
	From      time.Time
	To        time.Time
}

type StoreAPI interface {
	GetSettings(ctx context.Context) (Settings, error)
	UpdateSettings(ctx context.Context, settings Settings) error

	ListRecords(ctx context.Context, filter RecordFilter) ([]WorkedHourRecord, error)
	GetRecord(ctx context.Context, recordID string) (WorkedHourRecord, error)
	InsertRecord(ctx context.Context, record WorkedHourRecord) (string, error)
	UpdateRecordStatus(ctx context.Context, recordIDs []string, status string) error
	DeleteRecord(ctx context.Context, recordID string) error

	CurrentRates(ctx context.Context, personIDs []string) (map[string]float64, error)

	ListLocks(ctx context.Context, from, to time.Time) ([]PeriodLock, error)
	IsPeriodLocked(ctx context.Context, projectID string, weekStart time.Time) (bool, error)
	SetPeriodLock(ctx context.Context, projectID string, weekStart time.Time, lockedBy string) error
	RemovePeriodLock(ctx context.Context, projectID string, weekStart time.Time) error
}
