package enrichment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thoughtcode/tca-backend/internal/config"
	"github.com/thoughtcode/tca-backend/internal/model"
)

type fakeCache struct {
	data    map[string]string
	readErr error
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) MGet(_ context.Context, keys ...string) *redis.SliceCmd {
	if f.readErr != nil {
		return redis.NewSliceResult(nil, f.readErr)
	}
	vals := make([]interface{}, len(keys))
	for i, k := range keys {
		if v, ok := f.data[k]; ok {
			vals[i] = v
		}
	}
	return redis.NewSliceResult(vals, nil)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

type recordingEnricher struct {
	calls [][]string
	out   map[string]model.Enrichment
	err   error
}

func (r *recordingEnricher) Enrich(_ context.Context, urls []string) (map[string]model.Enrichment, error) {
	r.calls = append(r.calls, urls)
	if r.err != nil {
		return nil, r.err
	}
	res := map[string]model.Enrichment{}
	for _, u := range urls {
		if e, ok := r.out[u]; ok {
			res[u] = e
		}
	}
	return res, nil
}

func TestCachedEnricherFetchesOnlyMisses(t *testing.T) {
	cache := newFakeCache()
	cache.data[config.CacheKey.EnrichmentKey("http://a")] = `{"descriptionURL":"http://a","cached":true}`
	next := &recordingEnricher{out: map[string]model.Enrichment{
		"http://b": {"descriptionURL": "http://b", "fresh": true},
	}}

	c := NewCachedEnricher(next, cache, time.Minute, zerolog.Nop())
	got, err := c.Enrich(context.Background(), []string{"http://a", "http://b", "http://c"})

	require.NoError(t, err)
	require.Len(t, next.calls, 1)
	assert.Equal(t, []string{"http://b", "http://c"}, next.calls[0])
	assert.Equal(t, true, got["http://a"]["cached"])
	assert.Equal(t, true, got["http://b"]["fresh"])
	assert.NotContains(t, got, "http://c")

	key := config.CacheKey.EnrichmentKey("http://b")
	assert.Contains(t, cache.data, key)
	assert.Equal(t, time.Minute, cache.ttls[key])
}

func TestCachedEnricherFallsThroughOnCacheError(t *testing.T) {
	cache := newFakeCache()
	cache.readErr = errors.New("connection refused")
	next := &recordingEnricher{out: map[string]model.Enrichment{"http://a": {"x": 1.0}}}

	got, err := NewCachedEnricher(next, cache, time.Minute, zerolog.Nop()).
		Enrich(context.Background(), []string{"http://a"})

	require.NoError(t, err)
	assert.Contains(t, got, "http://a")
	assert.Len(t, next.calls, 1)
}

func TestCachedEnricherServesCacheWhenUpstreamFails(t *testing.T) {
	cache := newFakeCache()
	cache.data[config.CacheKey.EnrichmentKey("http://a")] = `{"descriptionURL":"http://a"}`
	next := &recordingEnricher{err: errors.New("down")}

	c := NewCachedEnricher(next, cache, time.Minute, zerolog.Nop())

	got, err := c.Enrich(context.Background(), []string{"http://a", "http://b"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = c.Enrich(context.Background(), []string{"http://b"})
	assert.Error(t, err)
}

func TestCachedEnricherRemembersUnmatchedURLs(t *testing.T) {
	cache := newFakeCache()
	next := &recordingEnricher{out: map[string]model.Enrichment{
		"http://a": {"descriptionURL": "http://a"},
	}}
	c := NewCachedEnricher(next, cache, time.Minute, zerolog.Nop())

	got, err := c.Enrich(context.Background(), []string{"http://a", "http://gone"})
	require.NoError(t, err)
	assert.Contains(t, got, "http://a")
	assert.NotContains(t, got, "http://gone")

	key := config.CacheKey.EnrichmentKey("http://gone")
	assert.Equal(t, negativeEntry, cache.data[key])
	assert.Equal(t, 6*time.Second, cache.ttls[key])

	got, err = c.Enrich(context.Background(), []string{"http://a", "http://gone"})
	require.NoError(t, err)
	assert.Len(t, next.calls, 1)
	assert.Contains(t, got, "http://a")
	assert.NotContains(t, got, "http://gone")
}
