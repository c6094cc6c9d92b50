// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings for the server.
type Config struct {
	Port string

	// LLM backend
	GroqAPIKey       string
	GroqModel        string
	GroqBaseURL      string
	LLMMaxRetries    int
	LLMRetryDelay    time.Duration
	LLMThrottleDelay time.Duration

	// Embeddings
	GeminiAPIKey string

	// Precedent store
	PrecedentBackend    string
	DatabaseURL         string
	ChromemPath         string
	PrecedentCollection string

	// Email
	EmailBackend    string
	ResendAPIKey    string
	ResendFromEmail string
	ResendOwner     string
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPass        string

	// Tracing
	TraceEnabled bool
	LogDir       string
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		GroqAPIKey:       os.Getenv("GROQ_API_KEY"),
		GroqModel:        getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMMaxRetries:    getEnvInt("LLM_MAX_RETRIES", 3),
		LLMRetryDelay:    getEnvDuration("LLM_RETRY_DELAY", 2*time.Second),
		LLMThrottleDelay: getEnvDuration("LLM_THROTTLE_DELAY", 500*time.Millisecond),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		PrecedentBackend:    getEnv("PRECEDENT_BACKEND", "chromem"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ChromemPath:         getEnv("CHROMEM_PATH", "./chromem_db"),
		PrecedentCollection: getEnv("PRECEDENT_COLLECTION", "precedents"),

		EmailBackend:    getEnv("EMAIL_BACKEND", "resend"),
		ResendAPIKey:    os.Getenv("RESEND_API_KEY"),
		ResendFromEmail: getEnv("RESEND_FROM_EMAIL", "onboarding@resend.dev"),
		ResendOwner:     os.Getenv("RESEND_OWNER_EMAIL"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        getEnvInt("SMTP_PORT", 465),
		SMTPUser:        os.Getenv("SMTP_USER"),
		SMTPPass:        os.Getenv("SMTP_PASS"),

		TraceEnabled: getEnvBool("TRACE_ENABLED", true),
		LogDir:       getEnv("LOG_DIR", "./logs"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
