package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "STORAGE_BACKEND", "MONGO_URI", "MONGO_DATABASE", "DATABASE_URL",
	"AUTO_MIGRATE", "JWT_SECRET", "JWT_EXPIRES_IN", "JWT_REFRESH_EXPIRES_IN",
	"CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT", "GIN_MODE",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, ":3001", cfg.ServerPort)
	assert.Equal(t, BackendMongo, cfg.StorageBackend)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "ExpenseHive", cfg.MongoDatabase)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshExpiresIn)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.True(t, cfg.AllowAllOrigins())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "release", cfg.GinMode)
	require.NoError(t, cfg.Validate())
}

func TestLoadGinMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", "Debug")

	cfg := Load()
	assert.Equal(t, "debug", cfg.GinMode)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("STORAGE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("JWT_EXPIRES_IN", "15m")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ServerPort)
	assert.Equal(t, BackendPostgres, cfg.StorageBackend)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiresIn)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
	assert.False(t, cfg.AllowAllOrigins())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.NoError(t, cfg.Validate())
}

func TestInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_EXPIRES_IN", "soon")
	t.Setenv("AUTO_MIGRATE", "maybe")
	t.Setenv("LOG_LEVEL", "loud")

	cfg := Load()
	assert.Equal(t, time.Hour, cfg.JWTExpiresIn)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base := Load()

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad port", func(c *Config) { c.ServerPort = ":abc" }, "invalid port"},
		{"port range", func(c *Config) { c.ServerPort = ":70000" }, "between 1 and 65535"},
		{"backend", func(c *Config) { c.StorageBackend = "sqlite" }, "invalid storage backend"},
		{"mongo uri", func(c *Config) { c.MongoURI = "http://localhost" }, "MONGO_URI"},
		{"postgres url", func(c *Config) { c.StorageBackend = BackendPostgres; c.DBConn = "" }, "DATABASE_URL"},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"refresh shorter", func(c *Config) { c.JWTRefreshExpiresIn = time.Minute }, "JWT_REFRESH_EXPIRES_IN"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log format"},
		{"gin mode", func(c *Config) { c.GinMode = "verbose" }, "GIN_MODE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateReportsEverything(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.ServerPort = ":0"
	cfg.JWTSecret = ""
	cfg.LogFormat = "yaml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "log format")
}

func TestMemoryBackendNeedsNoConnection(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	cfg.StorageBackend = BackendMemory
	cfg.MongoURI = ""
	cfg.DBConn = ""
	assert.NoError(t, cfg.Validate())
}
