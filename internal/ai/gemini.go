package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/in-nis/smartschedule-back/internal/models"
)

// contentGenerator is the part of *genai.GenerativeModel we use.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Gemini struct {
	model contentGenerator
	name  string
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	return &Gemini{model: model, name: modelName}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.name }

func (g *Gemini) GenerateSchedule(ctx context.Context, courses []models.Course, prefs models.SchedulePreferences) (*models.GenerationResult, error) {
	prompt, err := renderSchedulePrompt(courses, prefs)
	if err != nil {
		return nil, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	var text strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text.WriteString(string(txt))
			}
		}
	}
	if text.Len() == 0 {
		return nil, ErrInvalidResponse
	}

	return parseSchedule(text.String(), courses)
}
