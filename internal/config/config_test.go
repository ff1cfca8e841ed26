package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/shop?sslmode=disable")
	for _, k := range []string{
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "STRICT_STOCK", "KAFKA_BROKERS",
		"MEDIA_BACKEND", "RATE_LIMIT_RPS", "REDIS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL)
	assert.False(t, cfg.StrictStock)
	assert.Equal(t, "cloudinary", cfg.Media.Backend)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Empty(t, cfg.Kafka.Brokers)
	// DATABASE_URLがあればそのまま
	assert.Equal(t, "postgres://u:p@localhost:5432/shop?sslmode=disable", cfg.DSN())
}

func TestLoad_Overrides(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("STRICT_STOCK", "true")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.StrictStock)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"no secret":    {"JWT_SECRET", ""},
		"bad ttl":      {"ACCESS_TOKEN_TTL", "soon"},
		"negative ttl": {"REFRESH_TOKEN_TTL", "-1h"},
		"bad bool":     {"STRICT_STOCK", "maybe"},
		"bad media":    {"MEDIA_BACKEND", "ftp"},
		"bad rate":     {"RATE_LIMIT_RPS", "fast"},
		"missing port": {"PORT", ""},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			setMinimalEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestDSN_FromParts(t *testing.T) {
	c := Config{
		PostgresHost: "db", PostgresPort: 5432, PostgresUser: "app",
		PostgresPassword: "pw", PostgresDB: "shop", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=shop sslmode=disable", c.DSN())
}

func TestIsProd(t *testing.T) {
	assert.True(t, Config{GoEnv: "production"}.IsProd())
	assert.False(t, Config{GoEnv: "dev"}.IsProd())
}
