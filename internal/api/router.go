package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/in-nis/smartschedule-back/docs"
	"github.com/in-nis/smartschedule-back/internal/auth"
	"github.com/in-nis/smartschedule-back/internal/models"
	"github.com/in-nis/smartschedule-back/internal/planner"
	"github.com/in-nis/smartschedule-back/internal/workspace"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping() error
}

// HistoryReader lists archived generations of a workspace, newest first.
type HistoryReader interface {
	ListGenerations(ctx context.Context, workspace string, limit int) ([]models.GenerationRecord, error)
}

type Deps struct {
	Auth    *auth.Service
	Store   workspace.Store
	Planner *planner.Orchestrator
	DB      Pinger
	History HistoryReader
}

// @title           SmartSchedule API
// @version         1.0
// @description     Weekly timetable planner backed by an AI scheduling service.
// @host            localhost:8000
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func SetupRouter(d Deps) *gin.Engine {
	registerValidators()

	r := gin.Default()
	h := &Handler{store: d.Store, planner: d.Planner, history: d.History}

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		if d.DB != nil {
			if err := d.DB.Ping(); err != nil {
				c.JSON(500, gin.H{"status": "db_ping_error"})
				return
			}
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Google login
	r.GET("/auth/google/login", d.Auth.GoogleLoginHandler())
	r.GET("/auth/google/callback", d.Auth.GoogleCallbackHandler())
	r.POST("/auth/refresh", d.Auth.RefreshHandler())

	// Protected
	pl := r.Group("/planner")
	pl.Use(d.Auth.AuthMiddleware())
	{
		pl.GET("/state", h.GetState)
		pl.DELETE("/state", h.ResetState)

		pl.GET("/courses", h.ListCourses)
		pl.POST("/courses", h.AddCourse)
		pl.PUT("/courses", h.ReplaceCourses)
		pl.PUT("/courses/:id", h.UpdateCourse)
		pl.DELETE("/courses/:id", h.DeleteCourse)
		pl.POST("/courses/import", h.ImportCourses)

		pl.GET("/preferences", h.GetPreferences)
		pl.PUT("/preferences", h.SetPreferences)

		pl.POST("/generate", h.Generate)
		pl.GET("/schedule", h.GetSchedule)
		pl.GET("/schedule/export", h.ExportSchedule)
		pl.GET("/workload", h.GetWorkload)
		pl.GET("/history", h.GetHistory)
	}

	return r
}

func registerValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	err := v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return models.ValidClock(fl.Field().String())
	})
	if err != nil {
		slog.Error("failed to register hhmm validator", "error", err)
	}
}
