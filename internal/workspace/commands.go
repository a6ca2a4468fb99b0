package workspace

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/in-nis/smartschedule-back/internal/models"
)

func normalizeCourse(c models.Course) models.Course {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return c
}

// appendUnique normalizes courses onto dst, failing on an id already taken.
func appendUnique(dst []models.Course, courses []models.Course) ([]models.Course, error) {
	seen := make(map[string]bool, len(dst)+len(courses))
	for _, c := range dst {
		seen[c.ID] = true
	}
	for _, c := range courses {
		c = normalizeCourse(c)
		if seen[c.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCourse, c.ID)
		}
		seen[c.ID] = true
		dst = append(dst, c.Clone())
	}
	return dst, nil
}

func AddCourses(courses ...models.Course) UpdateFunc {
	return func(w *models.Workspace) error {
		next, err := appendUnique(models.CloneCourses(w.Courses), courses)
		if err != nil {
			return err
		}
		w.Courses = next
		return nil
	}
}

func ReplaceCourses(courses []models.Course) UpdateFunc {
	return func(w *models.Workspace) error {
		next, err := appendUnique(make([]models.Course, 0, len(courses)), courses)
		if err != nil {
			return err
		}
		w.Courses = next
		return nil
	}
}

// UpdateCourse replaces the course with the given id, keeping the id.
func UpdateCourse(id string, c models.Course) UpdateFunc {
	return func(w *models.Workspace) error {
		i, ok := w.FindCourse(id)
		if !ok {
			return ErrCourseNotFound
		}
		c = c.Clone()
		c.ID = id
		c.Name = strings.TrimSpace(c.Name)
		w.Courses[i] = c
		return nil
	}
}

func RemoveCourse(id string) UpdateFunc {
	return func(w *models.Workspace) error {
		i, ok := w.FindCourse(id)
		if !ok {
			return ErrCourseNotFound
		}
		w.Courses = append(w.Courses[:i], w.Courses[i+1:]...)
		return nil
	}
}

func SetPreferences(p models.SchedulePreferences) UpdateFunc {
	return func(w *models.Workspace) error {
		w.Preferences = p
		return nil
	}
}
