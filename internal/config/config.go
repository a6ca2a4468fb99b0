package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	DBDriver string
	DBUrl    string

	GoogleClientID    string
	GoogleSecret      string
	GoogleRedirectURL string
	JWT_SECRET        string

	// AIProvider is one of "gemini", "openai", "mock". Empty picks the first
	// provider that has credentials and falls back to the mock.
	AIProvider   string
	GeminiAPIKey string
	GeminiModel  string
	LLMEndpoint  string
	LLMAPIKey    string
	LLMModel     string

	RedisAddr        string
	WorkspaceIdleTTL time.Duration

	GenerationTimeout      time.Duration
	StaleBusyAfter         time.Duration
	ClearScheduleOnFailure bool
	HistoryRetentionDays   int
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8000"),
		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBUrl:    getEnv("DATABASE_URL", "smartschedule.db"),

		GoogleClientID:    getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL: getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8000/auth/google/callback"),
		JWT_SECRET:        getEnv("JWT_SECRET", ""),

		AIProvider:   getEnv("AI_PROVIDER", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		LLMEndpoint:  getEnv("LLM_ENDPOINT", ""),
		LLMAPIKey:    getEnv("LLM_API_KEY", ""),
		LLMModel:     getEnv("LLM_MODEL", "gpt-4o-mini"),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		WorkspaceIdleTTL: getDuration("WORKSPACE_IDLE_TTL", 24*time.Hour),

		GenerationTimeout:      getDuration("GENERATION_TIMEOUT", 90*time.Second),
		StaleBusyAfter:         getDuration("STALE_BUSY_AFTER", 10*time.Minute),
		ClearScheduleOnFailure: getBool("CLEAR_SCHEDULE_ON_FAILURE", false),
		HistoryRetentionDays:   getInt("HISTORY_RETENTION_DAYS", 30),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in env, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid bool in env, using default", "key", key, "value", raw)
		return fallback
	}
	return b
}

func getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid int in env, using default", "key", key, "value", raw)
		return fallback
	}
	return n
}
