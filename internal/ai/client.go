// Package ai talks to the external model that builds the timetable. Slot
// assignment, conflict avoidance and break placement all happen on the
// model side; this package only renders the request and parses the reply.
package ai

import (
	"context"
	"errors"
	"log/slog"

	"github.com/in-nis/smartschedule-back/internal/config"
	"github.com/in-nis/smartschedule-back/internal/models"
)

// ErrInvalidResponse is returned when the model reply has no usable schedule.
var ErrInvalidResponse = errors.New("the AI service returned an invalid schedule")

type Scheduler interface {
	Name() string
	GenerateSchedule(ctx context.Context, courses []models.Course, prefs models.SchedulePreferences) (*models.GenerationResult, error)
}

// FromConfig picks the provider. Without credentials it falls back to the
// mock so the API stays usable in development.
func FromConfig(ctx context.Context, cfg *config.Config) (Scheduler, error) {
	provider := cfg.AIProvider
	if provider == "" {
		switch {
		case cfg.GeminiAPIKey != "":
			provider = "gemini"
		case cfg.LLMEndpoint != "" && cfg.LLMAPIKey != "":
			provider = "openai"
		default:
			provider = "mock"
		}
	}

	switch provider {
	case "gemini":
		return NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "openai":
		return NewOpenAI(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel), nil
	case "mock":
		slog.Warn("no AI credentials configured, using mock scheduler")
		return NewMock(), nil
	default:
		return nil, errors.New("unknown AI_PROVIDER " + provider)
	}
}
