package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/in-nis/smartschedule-back/internal/models"
)

// OpenAI calls any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	endpoint string
	key      string
	model    string
	httpc    *http.Client
}

func NewOpenAI(endpoint, key, model string) *OpenAI {
	return &OpenAI{
		endpoint: strings.TrimRight(endpoint, "/"),
		key:      key,
		model:    model,
		// Bounded by the caller's context; this only guards a missing deadline.
		httpc: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *OpenAI) Name() string { return "openai:" + c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAI) GenerateSchedule(ctx context.Context, courses []models.Course, prefs models.SchedulePreferences) (*models.GenerationResult, error) {
	prompt, err := renderSchedulePrompt(courses, prefs)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AI service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read AI response: %w", err)
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("AI service error: %s", resp.Status)
		}
		return nil, ErrInvalidResponse
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != nil && out.Error.Message != "" {
			return nil, fmt.Errorf("AI service error: %s", out.Error.Message)
		}
		return nil, fmt.Errorf("AI service error: %s", resp.Status)
	}
	if len(out.Choices) == 0 {
		return nil, ErrInvalidResponse
	}

	return parseSchedule(out.Choices[0].Message.Content, courses)
}
