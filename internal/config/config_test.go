package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon-key")
	t.Setenv("SUPABASE_JWT_SECRET", "jwt-secret")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.OpenRouterBaseURL)
	assert.Equal(t, "openai/gpt-3.5-turbo", cfg.LLMModel)
	assert.InDelta(t, 0.7, cfg.LLMTemperature, 0.0001)
	assert.Equal(t, "0.0.0.0", cfg.AppHost)
	assert.Equal(t, 8000, cfg.AppPort)
	assert.False(t, cfg.Debug)
	assert.Equal(t, StorageREST, cfg.StorageBackend)
	assert.Equal(t, LLMClientOpenAI, cfg.LLMClient)
	assert.Equal(t, "authenticated", cfg.JWTAudience)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Zero(t, cfg.RequestTimeout)
	assert.Zero(t, cfg.MaxHistoryItems)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DEBUG", "true")
	t.Setenv("LLM_MODEL", "anthropic/claude-3-haiku")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.True(t, cfg.Debug)
	assert.Equal(t, "anthropic/claude-3-haiku", cfg.LLMModel)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"jwt secret", "SUPABASE_JWT_SECRET", "SUPABASE_JWT_SECRET is required"},
		{"openrouter key", "OPENROUTER_API_KEY", "OPENROUTER_API_KEY is required"},
		{"supabase url", "SUPABASE_URL", "SUPABASE_URL is required"},
		{"supabase key", "SUPABASE_KEY", "SUPABASE_KEY is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MemoryBackendSkipsSupabase(t *testing.T) {
	setRequired(t)
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")
	t.Setenv("STORAGE_BACKEND", StorageMemory)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
}

func TestLoad_RejectsUnknownBackends(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "mongo")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORAGE_BACKEND", StorageMemory)
	t.Setenv("LLM_CLIENT", "anthropic")
	_, err = Load()
	require.Error(t, err)
}
