package payroll

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// WriteRegisterCSV streams the filtered records as a billing register.
// Row order follows the input; callers sort before exporting.
func WriteRegisterCSV(w io.Writer, records []WorkedHourRecord) error {
	writer := csv.NewWriter(w)
	header := []string{"date", "person", "project", "hours", "holiday", "rate", "cost", "status"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, record := range records {
		rate := 0.0
		if record.HourlyRate != nil {
			rate = *record.HourlyRate
		}
		row := []string{
			record.WorkDate.Format("2006-01-02"),
			record.PersonName,
			record.ProjectName,
			strconv.FormatFloat(record.Hours, 'f', 2, 64),
			strconv.FormatBool(record.IsHoliday),
			strconv.FormatFloat(rate, 'f', 2, 64),
			strconv.FormatFloat(record.Hours*rate, 'f', 2, 64),
			record.Status,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTimesheetPDF renders one person's weekly timesheet with the
// classified totals underneath the day rows.
func WriteTimesheetPDF(w io.Writer, personName string, weekStart time.Time, records []WorkedHourRecord, classified WeekClassification) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Weekly Timesheet")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Worker: %s", personName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Week of: %s", weekStart.Format("2006-01-02")))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(30, 8, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(70, 8, "Project", "1", 0, "", false, 0, "")
	pdf.CellFormat(25, 8, "Hours", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 8, "Holiday", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	for _, record := range records {
		holiday := ""
		if record.IsHoliday {
			holiday = "yes"
		}
		pdf.CellFormat(30, 8, record.WorkDate.Format("2006-01-02"), "1", 0, "", false, 0, "")
		pdf.CellFormat(70, 8, record.ProjectName, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", record.Hours), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, holiday, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	totals := classified.Totals
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Totals")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Regular: %.2f h", totals.RegularHours))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Overtime: %.2f h", totals.OvertimeHours))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Holiday: %.2f h", totals.HolidayHours))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Total cost: $%.2f", totals.TotalCost))
	if classified.EntryVariance != 0 {
		pdf.Ln(6)
		pdf.Cell(0, 7, fmt.Sprintf("Entry cost variance: $%.2f (flagged for review)", classified.EntryVariance))
	}

	return pdf.Output(w)
}
