package config_test

import (
	"testing"
	"time"

	"tutoring-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("EnvOverrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("PORT", "6000")
		t.Setenv("ALLOWED_ORIGINS", "http://a.example,http://b.example")
		t.Setenv("DB_URI", "postgres://u:p@db:5432/tutoring?sslmode=disable")

		cfg, err := config.Load()
		require.NoError(t, err)

		assert.Equal(t, "6000", cfg.Server.Port)
		assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Server.CORSOrigins)
		assert.Equal(t, "postgres://u:p@db:5432/tutoring?sslmode=disable", cfg.Database.DSN)
		assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	})

	t.Run("MissingSecret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("DefaultTokenTTL", func(t *testing.T) {
		assert.Equal(t, time.Hour, config.AuthConfig{}.TokenTTL())
		assert.Equal(t, 15*time.Minute, config.AuthConfig{TokenTTLMinutes: 15}.TokenTTL())
	})
}
