package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/in-nis/smartschedule-back/internal/planner"
)

const (
	ScheduleSheet = "Schedule"
	SummarySheet  = "Summary"
)

var scheduleHeader = []any{"Day", "Start", "End", "Course", "Type", "Room"}

// WriteSchedule renders the timetable as an xlsx workbook with one row per
// session, days in week order.
func WriteSchedule(w io.Writer, days []planner.DaySchedule, summary string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ScheduleSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetSheetRow(ScheduleSheet, "A1", &scheduleHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(ScheduleSheet, "A1", "F1", bold); err != nil {
		return err
	}

	row := 2
	for _, d := range days {
		for _, s := range d.Sessions {
			name := s.CourseName
			if name == "" {
				name = s.CourseID
			}
			cells := []any{d.Day, s.Start, s.End, name, s.Type, s.Room}
			if err := f.SetSheetRow(ScheduleSheet, fmt.Sprintf("A%d", row), &cells); err != nil {
				return err
			}
			row++
		}
	}
	if err := f.SetColWidth(ScheduleSheet, "A", "C", 10); err != nil {
		return err
	}
	if err := f.SetColWidth(ScheduleSheet, "D", "D", 32); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SummarySheet, "A1", summary); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "A1", wrap); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 100); err != nil {
		return err
	}

	return f.Write(w)
}
