package planner

import (
	"sort"
	"strings"

	"github.com/in-nis/smartschedule-back/internal/models"
)

var dayOrder = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// DayIndex maps "Mon", "monday", "MON" etc. to 1..7, or 0 when unknown.
func DayIndex(day string) int {
	d := strings.ToLower(strings.TrimSpace(day))
	if len(d) >= 3 {
		d = d[:3]
	}
	return dayOrder[d]
}

type DaySchedule struct {
	Day      string                `json:"day"`
	Sessions []models.ClassSession `json:"sessions"`
}

// GroupByDay orders days Mon..Sun (unknown day names last, in order of first
// appearance) and sorts each day by start time. Sessions starting at the same
// time keep the order the service returned them in.
func GroupByDay(sessions []models.ClassSession) []DaySchedule {
	index := make(map[string]int)
	var days []DaySchedule
	for _, s := range sessions {
		key, label := strings.ToLower(strings.TrimSpace(s.Day)), s.Day
		if di := DayIndex(s.Day); di > 0 {
			key, label = dayKeys[di-1], dayLabels[di-1]
		}
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, DaySchedule{Day: label})
		}
		days[i].Sessions = append(days[i].Sessions, s)
	}

	sort.SliceStable(days, func(a, b int) bool {
		da, db := DayIndex(days[a].Day), DayIndex(days[b].Day)
		if da == 0 {
			return false
		}
		if db == 0 {
			return true
		}
		return da < db
	})
	for _, d := range days {
		sort.SliceStable(d.Sessions, func(a, b int) bool {
			return startMinutes(d.Sessions[a]) < startMinutes(d.Sessions[b])
		})
	}
	return days
}

var (
	dayKeys   = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	dayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

func startMinutes(s models.ClassSession) int {
	m, ok := models.ClockMinutes(s.Start)
	if !ok {
		return 24 * 60
	}
	return m
}

func durationMinutes(s models.ClassSession) int {
	start, ok1 := models.ClockMinutes(s.Start)
	end, ok2 := models.ClockMinutes(s.End)
	if !ok1 || !ok2 || end <= start {
		return 0
	}
	return end - start
}

type CourseLoad struct {
	CourseID string `json:"courseId"`
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
	Minutes  int    `json:"minutes"`
}

type DayLoad struct {
	Day     string `json:"day"`
	Minutes int    `json:"minutes"`
}

// Workload is the data behind the workload chart.
type Workload struct {
	Courses      []CourseLoad `json:"courses"`
	Days         []DayLoad    `json:"days"`
	TotalMinutes int          `json:"totalMinutes"`
}

// BuildWorkload sums scheduled minutes per course (in course list order,
// then unknown course ids in order of appearance) and per day.
func BuildWorkload(courses []models.Course, sessions []models.ClassSession) Workload {
	w := Workload{Courses: []CourseLoad{}, Days: []DayLoad{}}

	byCourse := make(map[string]int)
	for _, c := range courses {
		byCourse[c.ID] = len(w.Courses)
		w.Courses = append(w.Courses, CourseLoad{CourseID: c.ID, Name: c.Name})
	}
	for _, s := range sessions {
		i, ok := byCourse[s.CourseID]
		if !ok {
			name := s.CourseName
			if name == "" {
				name = s.CourseID
			}
			i = len(w.Courses)
			byCourse[s.CourseID] = i
			w.Courses = append(w.Courses, CourseLoad{CourseID: s.CourseID, Name: name})
		}
		mins := durationMinutes(s)
		w.Courses[i].Sessions++
		w.Courses[i].Minutes += mins
		w.TotalMinutes += mins
	}

	for _, d := range GroupByDay(sessions) {
		load := DayLoad{Day: d.Day}
		for _, s := range d.Sessions {
			load.Minutes += durationMinutes(s)
		}
		w.Days = append(w.Days, load)
	}
	return w
}
