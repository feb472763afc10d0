package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "tunehub", cfg.DBName)
	assert.Equal(t, "tunehub", cfg.MinioBucket)
	assert.Equal(t, 72, cfg.JWTExpiryHours)
	assert.Equal(t, int64(50<<20), cfg.MaxAudioSize)
	assert.Equal(t, int64(10<<20), cfg.MaxCoverSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("DB_NAME", "tunehub_test")
	t.Setenv("MAX_AUDIO_SIZE_MB", "5")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "tunehub_test", cfg.DBName)
	assert.Equal(t, int64(5<<20), cfg.MaxAudioSize)
	assert.True(t, cfg.MinioUseSSL)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "not-a-number")
	cfg := Load()
	assert.Equal(t, 72, cfg.JWTExpiryHours)
}
