package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/in-nis/smartschedule-back/internal/auth"
	"github.com/in-nis/smartschedule-back/internal/excel"
	"github.com/in-nis/smartschedule-back/internal/models"
	"github.com/in-nis/smartschedule-back/internal/planner"
	"github.com/in-nis/smartschedule-back/internal/workspace"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	store   workspace.Store
	planner *planner.Orchestrator
	history HistoryReader
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ScheduleResponse is the timetable grouped by weekday.
type ScheduleResponse struct {
	Days    []planner.DaySchedule `json:"days"`
	Summary string                `json:"summary"`
	Error   *string               `json:"error"`
	Busy    bool                  `json:"busy"`
}

// ImportResponse reports how many courses an Excel upload added.
type ImportResponse struct {
	Count   int             `json:"count"`
	Courses []models.Course `json:"courses"`
}

func workspaceID(c *gin.Context) string {
	return c.GetString(auth.EmailKey)
}

// fail maps domain errors to status codes.
func fail(c *gin.Context, err error, fallback string) {
	var se *planner.ServiceError
	switch {
	case errors.Is(err, planner.ErrNoCourses):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": planner.MsgNoCourses})
	case errors.Is(err, planner.ErrGenerationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &se):
		c.JSON(http.StatusBadGateway, gin.H{"error": planner.UserMessage(se)})
	case errors.Is(err, workspace.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
	case errors.Is(err, workspace.ErrDuplicateCourse):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error(fallback, "workspace", workspaceID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func blankName(courses ...models.Course) bool {
	for _, c := range courses {
		if strings.TrimSpace(c.Name) == "" {
			return true
		}
	}
	return false
}

// GetState godoc
// @Summary      Get workspace
// @Description  Returns courses, preferences, last schedule and request status
// @Tags         planner
// @Produce      json
// @Success      200 {object} models.Workspace
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/state [get]
func (h *Handler) GetState(c *gin.Context) {
	ws, err := h.store.Get(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err, "Failed to load workspace")
		return
	}
	c.JSON(http.StatusOK, ws)
}

// ResetState godoc
// @Summary      Reset workspace
// @Description  Drops courses, preferences and schedule of the authenticated user
// @Tags         planner
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/state [delete]
func (h *Handler) ResetState(c *gin.Context) {
	ctx := c.Request.Context()
	id := workspaceID(c)

	ws, err := h.store.Get(ctx, id)
	if err != nil {
		fail(c, err, "Failed to load workspace")
		return
	}
	if ws.Busy {
		fail(c, planner.ErrGenerationInFlight, "")
		return
	}
	if err := h.store.Delete(ctx, id); err != nil {
		fail(c, err, "Failed to reset workspace")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workspace reset"})
}

// ListCourses godoc
// @Summary      List courses
// @Tags         courses
// @Produce      json
// @Success      200 {array} models.Course
// @Security     BearerAuth
// @Router       /planner/courses [get]
func (h *Handler) ListCourses(c *gin.Context) {
	ws, err := h.store.Get(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err, "Failed to load courses")
		return
	}
	c.JSON(http.StatusOK, ws.Courses)
}

// AddCourse godoc
// @Summary      Add a course
// @Description  Appends a course; an id is generated when omitted
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        body  body  models.Course  true  "Course"
// @Success      201 {array} models.Course
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/courses [post]
func (h *Handler) AddCourse(c *gin.Context) {
	var req models.Course
	if err := c.ShouldBindJSON(&req); err != nil || blankName(req) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course"})
		return
	}

	ws, err := h.store.Update(c.Request.Context(), workspaceID(c), workspace.AddCourses(req))
	if err != nil {
		fail(c, err, "Failed to add course")
		return
	}
	c.JSON(http.StatusCreated, ws.Courses)
}

// ReplaceCourses godoc
// @Summary      Replace course list
// @Description  Replaces the whole list, which is also how courses are reordered
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        body  body  []models.Course  true  "Courses"
// @Success      200 {array} models.Course
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/courses [put]
func (h *Handler) ReplaceCourses(c *gin.Context) {
	var req []models.Course
	if err := c.ShouldBindJSON(&req); err != nil || blankName(req...) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course list"})
		return
	}

	ws, err := h.store.Update(c.Request.Context(), workspaceID(c), workspace.ReplaceCourses(req))
	if err != nil {
		fail(c, err, "Failed to save courses")
		return
	}
	c.JSON(http.StatusOK, ws.Courses)
}

// UpdateCourse godoc
// @Summary      Update a course
// @Tags         courses
// @Accept       json
// @Produce      json
// @Param        id    path  string         true  "Course ID"
// @Param        body  body  models.Course  true  "Course"
// @Success      200 {array} models.Course
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/courses/{id} [put]
func (h *Handler) UpdateCourse(c *gin.Context) {
	var req models.Course
	if err := c.ShouldBindJSON(&req); err != nil || blankName(req) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course"})
		return
	}

	ws, err := h.store.Update(c.Request.Context(), workspaceID(c), workspace.UpdateCourse(c.Param("id"), req))
	if err != nil {
		fail(c, err, "Failed to update course")
		return
	}
	c.JSON(http.StatusOK, ws.Courses)
}

// DeleteCourse godoc
// @Summary      Remove a course
// @Tags         courses
// @Produce      json
// @Param        id  path  string  true  "Course ID"
// @Success      200 {array} models.Course
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/courses/{id} [delete]
func (h *Handler) DeleteCourse(c *gin.Context) {
	ws, err := h.store.Update(c.Request.Context(), workspaceID(c), workspace.RemoveCourse(c.Param("id")))
	if err != nil {
		fail(c, err, "Failed to remove course")
		return
	}
	c.JSON(http.StatusOK, ws.Courses)
}

// ImportCourses godoc
// @Summary      Import courses from Excel
// @Description  Appends every row of the first sheet of an .xlsx upload, or of a workbook downloaded from url
// @Tags         courses
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file    false  "Workbook"
// @Param        url   formData  string  false  "Workbook link, e.g. a Google Sheets xlsx export"
// @Success      200 {object} ImportResponse
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/courses/import [post]
func (h *Handler) ImportCourses(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		courses []models.Course
		err     error
	)
	if fh, ferr := c.FormFile("file"); ferr == nil {
		f, oerr := fh.Open()
		if oerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		defer f.Close()
		courses, err = excel.ParseCourses(excel.LimitReader(f))
	} else if link := c.PostForm("url"); link != "" {
		courses, err = excel.FetchCourses(ctx, link)
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if err != nil {
		slog.Warn("course import rejected", "workspace", workspaceID(c), "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse Excel"})
		return
	}

	ws, err := h.store.Update(ctx, workspaceID(c), workspace.AddCourses(courses...))
	if err != nil {
		fail(c, err, "Failed to save courses")
		return
	}
	c.JSON(http.StatusOK, ImportResponse{Count: len(courses), Courses: ws.Courses})
}

// GetPreferences godoc
// @Summary      Get preferences
// @Tags         preferences
// @Produce      json
// @Success      200 {object} models.SchedulePreferences
// @Security     BearerAuth
// @Router       /planner/preferences [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	ws, err := h.store.Get(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err, "Failed to load preferences")
		return
	}
	c.JSON(http.StatusOK, ws.Preferences)
}

// SetPreferences godoc
// @Summary      Update preferences
// @Description  Times are "HH:MM"; the end is not checked against the start
// @Tags         preferences
// @Accept       json
// @Produce      json
// @Param        body  body  models.SchedulePreferences  true  "Preferences"
// @Success      200 {object} models.SchedulePreferences
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/preferences [put]
func (h *Handler) SetPreferences(c *gin.Context) {
	var req models.SchedulePreferences
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid preferences"})
		return
	}

	ws, err := h.store.Update(c.Request.Context(), workspaceID(c), workspace.SetPreferences(req))
	if err != nil {
		fail(c, err, "Failed to save preferences")
		return
	}
	c.JSON(http.StatusOK, ws.Preferences)
}

// Generate godoc
// @Summary      Generate schedule
// @Description  Sends the courses and preferences to the AI service. With async=true it returns 202 at once; poll /planner/state.
// @Tags         planner
// @Produce      json
// @Param        async  query  bool  false  "Do not wait for the AI service"
// @Success      200 {object} models.Workspace
// @Success      202 {object} models.Workspace
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/generate [post]
func (h *Handler) Generate(c *gin.Context) {
	ctx := c.Request.Context()
	id := workspaceID(c)

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if _, err := h.planner.Start(ctx, id); err != nil {
			fail(c, err, "Failed to start generation")
			return
		}
		ws, err := h.store.Get(ctx, id)
		if err != nil {
			fail(c, err, "Failed to load workspace")
			return
		}
		c.JSON(http.StatusAccepted, ws)
		return
	}

	ws, err := h.planner.Generate(ctx, id)
	if err != nil {
		fail(c, err, "Failed to generate schedule")
		return
	}
	c.JSON(http.StatusOK, ws)
}

// GetSchedule godoc
// @Summary      Get schedule
// @Description  Last generated sessions grouped by weekday
// @Tags         planner
// @Produce      json
// @Success      200 {object} ScheduleResponse
// @Security     BearerAuth
// @Router       /planner/schedule [get]
func (h *Handler) GetSchedule(c *gin.Context) {
	ws, err := h.store.Get(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err, "Failed to load schedule")
		return
	}
	days := planner.GroupByDay(ws.Sessions)
	if days == nil {
		days = []planner.DaySchedule{}
	}
	c.JSON(http.StatusOK, ScheduleResponse{
		Days:    days,
		Summary: ws.Summary,
		Error:   ws.Error,
		Busy:    ws.Busy,
	})
}

// ExportSchedule godoc
// @Summary      Export schedule
// @Description  Downloads the last schedule as an .xlsx workbook
// @Tags         planner
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} file
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/schedule/export [get]
func (h *Handler) ExportSchedule(c *gin.Context) {
	ws, err := h.store.Get(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err, "Failed to load schedule")
		return
	}

	var buf bytes.Buffer
	if err := excel.WriteSchedule(&buf, planner.GroupByDay(ws.Sessions), ws.Summary); err != nil {
		fail(c, err, "Failed to export schedule")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="schedule.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetWorkload godoc
// @Summary      Get workload
// @Description  Minutes and session counts per course and per day
// @Tags         planner
// @Produce      json
// @Success      200 {object} planner.Workload
// @Security     BearerAuth
// @Router       /planner/workload [get]
func (h *Handler) GetWorkload(c *gin.Context) {
	ws, err := h.store.Get(c.Request.Context(), workspaceID(c))
	if err != nil {
		fail(c, err, "Failed to load workload")
		return
	}
	c.JSON(http.StatusOK, planner.BuildWorkload(ws.Courses, ws.Sessions))
}

// GetHistory godoc
// @Summary      Generation history
// @Description  Archived successful generations, newest first
// @Tags         planner
// @Produce      json
// @Param        limit  query  int  false  "Max records (default 10, max 100)"
// @Success      200 {array} models.GenerationRecord
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /planner/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	if h.history == nil {
		c.JSON(http.StatusOK, []models.GenerationRecord{})
		return
	}
	recs, err := h.history.ListGenerations(c.Request.Context(), workspaceID(c), limit)
	if err != nil {
		fail(c, err, "Failed to fetch history")
		return
	}
	if recs == nil {
		recs = []models.GenerationRecord{}
	}
	c.JSON(http.StatusOK, recs)
}
