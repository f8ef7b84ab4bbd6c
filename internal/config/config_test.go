package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JDBC_DATABASE_URL", "")
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ENRICHMENT_TIMEOUT_MS", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, 3*time.Second, cfg.EnrichmentTimeout)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadLegacyJDBCURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JDBC_DATABASE_URL", "jdbc:postgresql://db:5432/questions")

	assert.Equal(t, "postgresql://db:5432/questions", Load().DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")
	t.Setenv("SERVER_ADDRESS", "127.0.0.1")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENRICHMENT_TIMEOUT_MS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()

	assert.Equal(t, "postgres://u:p@h/db", cfg.DatabaseURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
	assert.Equal(t, 3*time.Second, cfg.EnrichmentTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadRejectsNonPositiveEnrichmentSettings(t *testing.T) {
	for _, v := range []string{"0", "-250"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("ENRICHMENT_TIMEOUT_MS", v)
			t.Setenv("ENRICHMENT_CACHE_TTL_SECONDS", v)

			cfg := Load()

			assert.Equal(t, 3*time.Second, cfg.EnrichmentTimeout)
			assert.Equal(t, 10*time.Minute, cfg.EnrichmentCacheTTL)
		})
	}
}

func TestEnrichmentKeyIsStable(t *testing.T) {
	a := CacheKey.EnrichmentKey("http://x/1")
	assert.Equal(t, a, CacheKey.EnrichmentKey("http://x/1"))
	assert.NotEqual(t, a, CacheKey.EnrichmentKey("http://x/2"))
	assert.Regexp(t, `^enrichment:[0-9a-f]{40}$`, a)
}
