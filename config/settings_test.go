package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("PORT", "")
	t.Setenv("AUDIO_TTL", "bogus")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, 72*time.Hour, s.AudioTTL)
	assert.Equal(t, "@every 1h", s.StaleSessionSchedule)
	assert.True(t, s.TTSEnabled)
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Vertex")
	t.Setenv("GCP_PROJECT_ID", "proj")
	t.Setenv("TTS_ENABLED", "false")
	t.Setenv("COMPLETION_WORKERS", "5")
	t.Setenv("STALE_SESSION_AFTER", "30m")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "vertex", s.LLMProvider)
	assert.False(t, s.TTSEnabled)
	assert.Equal(t, 5, s.CompletionWorkers)
	assert.Equal(t, 30*time.Minute, s.StaleSessionAfter)
}

func TestLoadSettingsRequiresProviderCredentials(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "vertex")
	t.Setenv("GCP_PROJECT_ID", "")
	_, err := LoadSettings()
	assert.Error(t, err)

	t.Setenv("LLM_PROVIDER", "openai")
	_, err = LoadSettings()
	assert.Error(t, err)
}

func TestLoadSettingsAuthAndOrigins(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("SUPABASE_JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", " https://dash.example.com, ,http://localhost:3000")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", s.JWTSecret)
	assert.Equal(t, []string{"https://dash.example.com", "http://localhost:3000"}, s.AllowedOrigins)
}
