package payroll

import "math"

// ResolveRate picks the pay rate for a record: entry-snapshotted rate first,
// then the person's current rate, then zero. Missing rates never error, they
// render as zero cost.
func ResolveRate(record WorkedHourRecord, currentRate float64) float64 {
	if record.HourlyRate != nil {
		return *record.HourlyRate
	}
	if currentRate > 0 {
		return currentRate
	}
	return 0
}

// ClassifyWeek splits one person's worked hours for an aggregation window
// into regular, overtime and holiday buckets and prices them.
//
// Holiday hours are deliberately kept out of the regular/overtime split:
// they are paid at the full holiday multiplier regardless of the rest of the
// week, and they do not count toward the overtime threshold.
func ClassifyWeek(records []WorkedHourRecord, currentRate float64, settings Settings) PersonTotals {
	var totals PersonTotals
	if len(records) > 0 {
		totals.PersonID = records[0].PersonID
		totals.PersonName = records[0].PersonName
	}

	rate := currentRate
	rateSnapshotted := false
	for _, record := range records {
		totals.TotalHours += record.Hours
		if record.IsHoliday {
			totals.HolidayHours += record.Hours
		}
		if record.HourlyRate != nil && !rateSnapshotted {
			rate = *record.HourlyRate
			rateSnapshotted = true
		}
	}
	if rate < 0 {
		rate = 0
	}

	nonHolidayHours := totals.TotalHours - totals.HolidayHours
	totals.RegularHours = math.Min(nonHolidayHours, settings.WeeklyOvertimeThreshold)
	totals.OvertimeHours = math.Max(0, nonHolidayHours-settings.WeeklyOvertimeThreshold)

	totals.TotalCost = totals.RegularHours*rate +
		totals.OvertimeHours*rate*settings.OvertimeMultiplier +
		totals.HolidayHours*rate*settings.HolidayMultiplier
	return totals
}

// EntryCost prices a single record for display. It trusts the entry's own
// regular/overtime split when present and otherwise treats the hours as
// fully regular; overtime actually realized is governed by the weekly
// roll-up, so this is an approximation.
func EntryCost(record WorkedHourRecord, currentRate float64, settings Settings) float64 {
	rate := ResolveRate(record, currentRate)
	if record.IsHoliday {
		return record.Hours * rate * settings.HolidayMultiplier
	}
	if record.RegularHours != nil || record.OvertimeHours != nil {
		var regular, overtime float64
		if record.RegularHours != nil {
			regular = *record.RegularHours
		}
		if record.OvertimeHours != nil {
			overtime = *record.OvertimeHours
		}
		return regular*rate + overtime*rate*settings.OvertimeMultiplier
	}
	return record.Hours * rate
}

// ClassifyWeekWithVariance computes the authoritative weekly totals plus the
// delta against summed per-entry costs. Entries edited out of order within a
// week can disagree with the roll-up; the variance is reported for review,
// not absorbed into any entry.
func ClassifyWeekWithVariance(records []WorkedHourRecord, currentRate float64, settings Settings) WeekClassification {
	totals := ClassifyWeek(records, currentRate, settings)

	var entryCost float64
	for _, record := range records {
		entryCost += EntryCost(record, currentRate, settings)
	}

	return WeekClassification{
		Totals:        totals,
		EntryCost:     entryCost,
		EntryVariance: entryCost - totals.TotalCost,
	}
}
