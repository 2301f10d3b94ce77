package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("JWT_KEY_ACCESS_TOKEN", "access-secret")
	t.Setenv("JWT_KEY_REFRESH_TOKEN", "refresh-secret")

	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, DefaultDatabase, cfg.MongoDB.Database)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, 12*time.Hour, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
}

func TestValidateRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)
	require.ErrorIs(t, cfg.Validate(), ErrMissingMongoURI)
	require.Equal(t, "", cfg.Redis.Addr())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("MONGODB_DATABASE", "link_share_test")
	t.Setenv("JWT_ACCESS_TOKEN_TTL", "5")
	t.Setenv("RATE_LIMIT_ENABLED", "true")

	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)
	require.Equal(t, "link_share_test", cfg.MongoDB.Database)
	require.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenTTL)
	require.True(t, cfg.RateLimit.Enabled)
}
