package enrichment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/thoughtcode/tca-backend/internal/config"
	"github.com/thoughtcode/tca-backend/internal/metrics"
	"github.com/thoughtcode/tca-backend/internal/model"
)

// Cache is the subset of the Redis client used by CachedEnricher.
type Cache interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// negativeEntry marks a URL the upstream returned no entry for.
const negativeEntry = "null"

// CachedEnricher serves per-URL entries from Redis and only asks the wrapped
// Enricher for URLs it has not seen within ttl. URLs the upstream has no entry
// for are remembered for a tenth of ttl. Cache failures fall through to the
// wrapped Enricher.
type CachedEnricher struct {
	next  Enricher
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCachedEnricher wraps next with a Redis cache.
func NewCachedEnricher(next Enricher, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedEnricher {
	return &CachedEnricher{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "enrichment_cache").Logger(),
	}
}

func (c *CachedEnricher) Enrich(ctx context.Context, urls []string) (map[string]model.Enrichment, error) {
	if len(urls) == 0 {
		return map[string]model.Enrichment{}, nil
	}

	result := make(map[string]model.Enrichment, len(urls))
	missing := c.lookup(ctx, urls, result)
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.next.Enrich(ctx, missing)
	if err != nil {
		if len(result) > 0 {
			// Serve what the cache had; the caller reports the rest as missing.
			c.log.Warn().Err(err).Int("cached", len(result)).Msg("Enrichment fetch failed, serving cached entries")
			return result, nil
		}
		return nil, err
	}

	for _, url := range missing {
		entry, ok := fetched[url]
		if !ok {
			c.storeRaw(ctx, url, []byte(negativeEntry), c.negativeTTL())
			continue
		}
		result[url] = entry
		c.store(ctx, url, entry)
	}
	return result, nil
}

// lookup fills result from the cache and returns the URLs still needed.
func (c *CachedEnricher) lookup(ctx context.Context, urls []string, result map[string]model.Enrichment) []string {
	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = config.CacheKey.EnrichmentKey(u)
	}

	vals, err := c.cache.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.EnrichmentCache.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Msg("Enrichment cache read failed")
		return urls
	}

	var missing []string
	for i, u := range urls {
		s, ok := vals[i].(string)
		if !ok {
			metrics.EnrichmentCache.WithLabelValues("miss").Inc()
			missing = append(missing, u)
			continue
		}
		if s == negativeEntry {
			metrics.EnrichmentCache.WithLabelValues("negative").Inc()
			continue
		}
		var entry model.Enrichment
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			metrics.EnrichmentCache.WithLabelValues("error").Inc()
			missing = append(missing, u)
			continue
		}
		metrics.EnrichmentCache.WithLabelValues("hit").Inc()
		result[u] = entry
	}
	return missing
}

func (c *CachedEnricher) store(ctx context.Context, url string, entry model.Enrichment) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	c.storeRaw(ctx, url, raw, c.ttl)
}

func (c *CachedEnricher) storeRaw(ctx context.Context, url string, raw []byte, ttl time.Duration) {
	if err := c.cache.Set(ctx, config.CacheKey.EnrichmentKey(url), raw, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("url", url).Msg("Enrichment cache write failed")
	}
}

func (c *CachedEnricher) negativeTTL() time.Duration {
	if ttl := c.ttl / 10; ttl > 0 {
		return ttl
	}
	return c.ttl
}
