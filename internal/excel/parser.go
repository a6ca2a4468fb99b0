package excel

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/in-nis/smartschedule-back/internal/models"
)

// Header names accepted for each course column, lowercased with spaces and
// underscores removed.
var courseColumns = map[string]string{
	"id":              "id",
	"name":            "name",
	"course":          "name",
	"coursename":      "name",
	"subject":         "name",
	"code":            "code",
	"coursecode":      "code",
	"instructor":      "instructor",
	"teacher":         "instructor",
	"professor":       "instructor",
	"credithours":     "creditHours",
	"credits":         "creditHours",
	"sessionsperweek": "sessionsPerWeek",
	"sessions":        "sessionsPerWeek",
	"color":           "color",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "")
	h = strings.ReplaceAll(h, "_", "")
	return h
}

// ParseCourses reads courses from the first sheet of an xlsx workbook. The
// first row is the header; rows without a name are skipped. Unknown columns
// end up in Course.Extra.
func ParseCourses(r io.Reader) ([]models.Course, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	headers := make([]string, len(rows[0]))
	hasName := false
	for i, cell := range rows[0] {
		if field, ok := courseColumns[normalizeHeader(cell)]; ok {
			headers[i] = field
			hasName = hasName || field == "name"
			continue
		}
		headers[i] = strings.TrimSpace(cell)
	}
	if !hasName {
		return nil, fmt.Errorf("sheet %s has no name column", sheetName)
	}

	var courses []models.Course
	skipped := 0
	for rowIndex, row := range rows[1:] {
		c, ok := parseRowCourse(headers, row, rowIndex+2)
		if !ok {
			skipped++
			continue
		}
		courses = append(courses, c)
	}

	slog.Info("parsed courses from workbook", "sheet", sheetName, "courses", len(courses), "skipped", skipped)
	return courses, nil
}

func parseRowCourse(headers, row []string, rowNumber int) (models.Course, bool) {
	var c models.Course
	for i, raw := range row {
		if i >= len(headers) || headers[i] == "" {
			continue
		}
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}

		switch headers[i] {
		case "id":
			c.ID = value
		case "name":
			c.Name = value
		case "code":
			c.Code = value
		case "instructor":
			c.Instructor = value
		case "color":
			c.Color = value
		case "creditHours", "sessionsPerWeek":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 || n > models.MaxWeeklyLoad {
				slog.Warn("skipping invalid number", "row", rowNumber, "column", headers[i], "value", value)
				continue
			}
			if headers[i] == "creditHours" {
				c.CreditHours = n
			} else {
				c.SessionsPerWeek = n
			}
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[headers[i]] = value
		}
	}

	if c.Name == "" {
		return models.Course{}, false
	}
	return c, true
}
