package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/thoughtcode/tca-backend/internal/enrichment"
	"github.com/thoughtcode/tca-backend/internal/model"
)

// QuestionLister is the read side of the question store.
type QuestionLister interface {
	List(ctx context.Context) ([]model.Question, error)
}

// EnrichmentWarmer periodically asks the (cached) enricher for every stored
// description URL so list requests are served from the cache.
type EnrichmentWarmer struct {
	questions QuestionLister
	enricher  enrichment.Enricher
	interval  time.Duration
	timeout   time.Duration
	log       zerolog.Logger
}

// NewEnrichmentWarmer creates an EnrichmentWarmer. Each pass is bounded by timeout.
func NewEnrichmentWarmer(questions QuestionLister, enricher enrichment.Enricher, interval, timeout time.Duration, log zerolog.Logger) *EnrichmentWarmer {
	return &EnrichmentWarmer{
		questions: questions,
		enricher:  enricher,
		interval:  interval,
		timeout:   timeout,
		log:       log.With().Str("component", "enrichment_warmer").Logger(),
	}
}

// Start runs one pass immediately, then one per interval until ctx is done.
// Call in a goroutine.
func (w *EnrichmentWarmer) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	w.WarmOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.WarmOnce(ctx)
		}
	}
}

// WarmOnce fetches enrichment for all distinct description URLs.
// It returns how many URLs received an entry.
func (w *EnrichmentWarmer) WarmOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	questions, err := w.questions.List(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("List questions failed")
		return 0
	}

	seen := make(map[string]struct{}, len(questions))
	urls := make([]string, 0, len(questions))
	for _, q := range questions {
		if q.DescriptionURL == nil || *q.DescriptionURL == "" {
			continue
		}
		if _, ok := seen[*q.DescriptionURL]; ok {
			continue
		}
		seen[*q.DescriptionURL] = struct{}{}
		urls = append(urls, *q.DescriptionURL)
	}
	if len(urls) == 0 {
		return 0
	}

	entries, err := w.enricher.Enrich(ctx, urls)
	if err != nil {
		w.log.Warn().Err(err).Int("urls", len(urls)).Msg("Enrichment warm-up failed")
		return 0
	}

	w.log.Debug().
		Int("urls", len(urls)).
		Int("warmed", len(entries)).
		Msg("Enrichment cache warmed")
	return len(entries)
}
