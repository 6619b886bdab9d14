package payroll

import (
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func record(personID string, d int, hours float64, holiday bool) WorkedHourRecord {
	return WorkedHourRecord{
		ID:        personID + "-" + day(d).Format("20060102"),
		PersonID:  personID,
		ProjectID: "proj-1",
		WorkDate:  day(d),
		Hours:     hours,
		IsHoliday: holiday,
	}
}

func TestClassifyWeekHourConservation(t *testing.T) {
	records := []WorkedHourRecord{
		record("p1", 2, 9, false),
		record("p1", 3, 10.5, false),
		record("p1", 4, 8, true),
		record("p1", 5, 12, false),
		record("p1", 6, 11, false),
	}

	totals := ClassifyWeek(records, 20, DefaultSettings())
	sum := totals.RegularHours + totals.OvertimeHours + totals.HolidayHours
	if math.Abs(sum-totals.TotalHours) > 1e-9 {
		t.Fatalf("expected hour conservation, got %v vs total %v", sum, totals.TotalHours)
	}
}

func TestClassifyWeekOvertimeBoundary(t *testing.T) {
	totals := ClassifyWeek([]WorkedHourRecord{record("p1", 2, 40, false)}, 20, DefaultSettings())
	if totals.OvertimeHours != 0 {
		t.Fatalf("expected no overtime at exactly 40 hours, got %v", totals.OvertimeHours)
	}

	totals = ClassifyWeek([]WorkedHourRecord{record("p1", 2, 40.01, false)}, 20, DefaultSettings())
	if math.Abs(totals.OvertimeHours-0.01) > 1e-9 {
		t.Fatalf("expected 0.01 overtime hours, got %v", totals.OvertimeHours)
	}
}

func TestClassifyWeekHolidayIsolation(t *testing.T) {
	records := []WorkedHourRecord{
		record("p1", 2, 40, false),
		record("p1", 4, 8, true),
	}

	totals := ClassifyWeek(records, 20, DefaultSettings())
	if totals.OvertimeHours != 0 {
		t.Fatalf("expected holiday hours not to push the threshold, got overtime %v", totals.OvertimeHours)
	}
	if totals.HolidayHours != 8 {
		t.Fatalf("expected 8 holiday hours, got %v", totals.HolidayHours)
	}
	if totals.RegularHours != 40 {
		t.Fatalf("expected 40 regular hours, got %v", totals.RegularHours)
	}
}

func TestClassifyWeekScenario(t *testing.T) {
	// 44 non-holiday hours and 8 holiday hours at $20/hr.
	records := []WorkedHourRecord{
		record("p1", 2, 11, false),
		record("p1", 3, 11, false),
		record("p1", 4, 11, false),
		record("p1", 5, 11, false),
		record("p1", 6, 8, true),
	}

	totals := ClassifyWeek(records, 20, DefaultSettings())
	if totals.RegularHours != 40 {
		t.Fatalf("expected 40 regular hours, got %v", totals.RegularHours)
	}
	if totals.OvertimeHours != 4 {
		t.Fatalf("expected 4 overtime hours, got %v", totals.OvertimeHours)
	}
	if math.Abs(totals.TotalCost-1240) > 1e-9 {
		t.Fatalf("expected total cost 1240, got %v", totals.TotalCost)
	}
}

func TestClassifyWeekMissingRate(t *testing.T) {
	totals := ClassifyWeek([]WorkedHourRecord{record("p1", 2, 8, false)}, 0, DefaultSettings())
	if totals.TotalCost != 0 {
		t.Fatalf("expected zero cost with no rate, got %v", totals.TotalCost)
	}
	if totals.RegularHours != 8 {
		t.Fatalf("expected hours still classified, got %v", totals.RegularHours)
	}
}

func TestClassifyWeekSnapshottedRateWins(t *testing.T) {
	snapshot := 25.0
	entry := record("p1", 2, 10, false)
	entry.HourlyRate = &snapshot

	totals := ClassifyWeek([]WorkedHourRecord{entry}, 20, DefaultSettings())
	if totals.TotalCost != 250 {
		t.Fatalf("expected snapshotted rate to win, got cost %v", totals.TotalCost)
	}
}

func TestEntryCostUsesEntrySplit(t *testing.T) {
	regular, overtime := 8.0, 2.0
	entry := record("p1", 2, 10, false)
	entry.RegularHours = &regular
	entry.OvertimeHours = &overtime

	cost := EntryCost(entry, 20, DefaultSettings())
	if cost != 8*20+2*20*1.5 {
		t.Fatalf("expected 220, got %v", cost)
	}

	plain := record("p1", 3, 6, false)
	if cost := EntryCost(plain, 20, DefaultSettings()); cost != 120 {
		t.Fatalf("expected unsplit entry priced fully regular, got %v", cost)
	}

	holiday := record("p1", 4, 8, true)
	if cost := EntryCost(holiday, 20, DefaultSettings()); cost != 320 {
		t.Fatalf("expected holiday entry at holiday multiplier, got %v", cost)
	}
}

func TestClassifyWeekWithVariance(t *testing.T) {
	// Entry splits claim overtime the weekly roll-up does not realize.
	regular, overtime := 30.0, 8.0
	entry := record("p1", 2, 38, false)
	entry.RegularHours = &regular
	entry.OvertimeHours = &overtime

	classified := ClassifyWeekWithVariance([]WorkedHourRecord{entry}, 20, DefaultSettings())
	if classified.Totals.OvertimeHours != 0 {
		t.Fatalf("expected weekly roll-up to realize no overtime, got %v", classified.Totals.OvertimeHours)
	}
	if classified.EntryVariance <= 0 {
		t.Fatalf("expected positive variance, got %v", classified.EntryVariance)
	}
}
