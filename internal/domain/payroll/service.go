package payroll

import (
	"context"
	"time"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// WeekStartOf truncates a date to the Monday beginning its week, the
// canonical key for period locks.
func WeekStartOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	return s.store.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.OvertimeMultiplier < 1 || settings.WeeklyOvertimeThreshold <= 0 || settings.HolidayMultiplier < 1 {
		return ErrInvalidHours
	}
	return s.store.UpdateSettings(ctx, settings)
}

// WeeklyTotals classifies one person's hours for the week starting at
// weekStart. The weekly roll-up is authoritative; the variance against
// per-entry costs is reported, not reconciled.
func (s *Service) WeeklyTotals(ctx context.Context, personID string, weekStart time.Time) (WeekClassification, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return WeekClassification{}, err
	}

	records, err := s.store.ListRecords(ctx, RecordFilter{
		PersonID: personID,
		From:     weekStart,
		To:       weekStart.AddDate(0, 0, 7),
	})
	if err != nil {
		return WeekClassification{}, err
	}

	rates, err := s.store.CurrentRates(ctx, []string{personID})
	if err != nil {
		return WeekClassification{}, err
	}

	classified := ClassifyWeekWithVariance(records, rates[personID], settings)
	classified.Totals.PersonID = personID
	return classified, nil
}

// View builds an aggregation view over the filtered records, with period
// lock flags resolved for the window.
func (s *Service) View(ctx context.Context, filter RecordFilter, opts ViewOptions) ([]*GroupNode, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.store.ListRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	personIDs := make([]string, 0, len(records))
	seen := map[string]bool{}
	for _, record := range records {
		if !seen[record.PersonID] {
			seen[record.PersonID] = true
			personIDs = append(personIDs, record.PersonID)
		}
	}

	rates := map[string]float64{}
	if len(personIDs) > 0 {
		rates, err = s.store.CurrentRates(ctx, personIDs)
		if err != nil {
			return nil, err
		}
	}

	locks, err := s.store.ListLocks(ctx, WeekStartOf(filter.From), filter.To)
	if err != nil {
		return nil, err
	}
	lockSet := map[string]bool{}
	for _, lock := range locks {
		lockSet[lock.ProjectID+"|"+lock.WeekStart.Format("2006-01-02")] = true
	}
	checker := func(projectID string, workDate time.Time) bool {
		return lockSet[projectID+"|"+WeekStartOf(workDate).Format("2006-01-02")]
	}

	return BuildView(records, opts, rates, checker, settings)
}

// Register returns the raw filtered records for export.
func (s *Service) Register(ctx context.Context, filter RecordFilter) ([]WorkedHourRecord, error) {
	return s.store.ListRecords(ctx, filter)
}

// CreateManualEntry records worked hours entered outside the clock flow.
func (s *Service) CreateManualEntry(ctx context.Context, record WorkedHourRecord) (string, error) {
	if record.Hours < 0 || record.Hours > 24 {
		return "", ErrInvalidHours
	}

	locked, err := s.store.IsPeriodLocked(ctx, record.ProjectID, WeekStartOf(record.WorkDate))
	if err != nil {
		return "", err
	}
	if locked {
		return "", ErrPeriodLocked
	}

	if record.Status == "" {
		record.Status = RecordStatusPending
	}
	return s.store.InsertRecord(ctx, record)
}

// UpdateStatus applies a bulk status change to the membership set of a
// group node, refusing records in closed-out periods.
func (s *Service) UpdateStatus(ctx context.Context, recordIDs []string, status string) error {
	for _, id := range recordIDs {
		record, err := s.store.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		locked, err := s.store.IsPeriodLocked(ctx, record.ProjectID, WeekStartOf(record.WorkDate))
		if err != nil {
			return err
		}
		if locked {
			return ErrPeriodLocked
		}
	}
	return s.store.UpdateRecordStatus(ctx, recordIDs, status)
}

// DeleteRecord removes a record unless its period is locked.
func (s *Service) DeleteRecord(ctx context.Context, recordID string) error {
	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	locked, err := s.store.IsPeriodLocked(ctx, record.ProjectID, WeekStartOf(record.WorkDate))
	if err != nil {
		return err
	}
	if locked {
		return ErrPeriodLocked
	}
	return s.store.DeleteRecord(ctx, recordID)
}

func (s *Service) LockPeriod(ctx context.Context, projectID string, weekStart time.Time, lockedBy string) error {
	return s.store.SetPeriodLock(ctx, projectID, WeekStartOf(weekStart), lockedBy)
}

func (s *Service) UnlockPeriod(ctx context.Context, projectID string, weekStart time.Time) error {
	return s.store.RemovePeriodLock(ctx, projectID, WeekStartOf(weekStart))
}
