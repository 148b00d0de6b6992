package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load("api")
	require.NoError(t, err)

	assert.Equal(t, "api", cfg.RunMode)
	assert.Equal(t, "8080", cfg.ApiPort)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout())
	assert.Equal(t, 24*time.Hour, cfg.JwtTTL())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "3")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("MOCK_SERVICES", "true")

	cfg, err := Load("all")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.MockServices)
}

func TestLoad_MongoRequiresURI(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "")

	_, err := Load("api")
	assert.ErrorContains(t, err, "MONGO_URI")
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "sqlite")

	_, err := Load("api")
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestLoad_RejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("NOTIFY_TIMEOUT_SECONDS", "0")

	_, err := Load("api")
	assert.Error(t, err)
}
