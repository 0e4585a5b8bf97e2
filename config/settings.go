package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Settings holds application options read from the environment. Connection
// strings for the stores stay with their Init functions.
type Settings struct {
	Port string

	GCPProjectID string
	GCPLocation  string

	LLMProvider  string // vertex | gemini
	LLMModel     string
	GeminiAPIKey string

	TTSEnabled bool
	TTSVoiceEN string
	TTSVoiceES string

	AudioBucket string
	AudioTTL    time.Duration

	ResumeCacheTTL time.Duration

	CompletionWorkers    int
	StaleSessionAfter    time.Duration
	StaleSessionSchedule string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string

	// AllowedOrigins limits dashboard websocket origins; empty allows any.
	AllowedOrigins []string
}

func LoadSettings() (Settings, error) {
	s := Settings{
		Port:                 getEnv("PORT", "8080"),
		GCPProjectID:         getEnv("GCP_PROJECT_ID", ""),
		GCPLocation:          getEnv("GCP_LOCATION", "us-central1"),
		LLMProvider:          strings.ToLower(getEnv("LLM_PROVIDER", "vertex")),
		LLMModel:             getEnv("LLM_MODEL", "gemini-2.0-flash"),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		TTSEnabled:           getBool("TTS_ENABLED", true),
		TTSVoiceEN:           getEnv("TTS_VOICE_EN", "en-US-Neural2-F"),
		TTSVoiceES:           getEnv("TTS_VOICE_ES", "es-US-Neural2-A"),
		AudioBucket:          getEnv("AUDIO_BUCKET", ""),
		AudioTTL:             getDuration("AUDIO_TTL", 72*time.Hour),
		ResumeCacheTTL:       getDuration("RESUME_CACHE_TTL", 6*time.Hour),
		CompletionWorkers:    getInt("COMPLETION_WORKERS", 2),
		StaleSessionAfter:    getDuration("STALE_SESSION_AFTER", 48*time.Hour),
		StaleSessionSchedule: getEnv("STALE_SESSION_SCHEDULE", "@every 1h"),
		JWTSecret:            getEnv("SUPABASE_JWT_SECRET", ""),
		JWTIssuer:            getEnv("SUPABASE_JWT_ISSUER", ""),
		JWTAudience:          getEnv("SUPABASE_JWT_AUDIENCE", ""),
		AllowedOrigins:       getList("ALLOWED_ORIGINS"),
	}

	switch s.LLMProvider {
	case "vertex":
		if s.GCPProjectID == "" {
			return s, errors.New("GCP_PROJECT_ID is required for LLM_PROVIDER=vertex")
		}
	case "gemini":
		if s.GeminiAPIKey == "" {
			return s, errors.New("GEMINI_API_KEY is required for LLM_PROVIDER=gemini")
		}
	default:
		return s, errors.New("LLM_PROVIDER must be vertex or gemini")
	}
	if s.CompletionWorkers < 0 {
		s.CompletionWorkers = 0
	}
	return s, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
