package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thoughtcode/tca-backend/internal/enrichment"
	"github.com/thoughtcode/tca-backend/internal/metrics"
	"github.com/thoughtcode/tca-backend/internal/model"
	"github.com/thoughtcode/tca-backend/internal/repository"
)

// DefaultEnrichmentTimeout bounds List enrichment when no positive timeout is configured.
const DefaultEnrichmentTimeout = 3 * time.Second

// ErrQuestionNotFound is returned by Get when no row has the requested id.
var ErrQuestionNotFound = errors.New("question not found")

// QuestionStore is the persistence contract used by QuestionService.
// *repository.QuestionRepository satisfies it.
type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error
	UpdateWhereAsked(ctx context.Context, id int64, whereAsked *string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Question, error)
	List(ctx context.Context) ([]model.Question, error)
}

// QuestionService handles question business logic.
type QuestionService struct {
	questionRepo      QuestionStore
	enricher          enrichment.Enricher
	enrichmentTimeout time.Duration
	log               zerolog.Logger
}

// NewQuestionService creates a new QuestionService. A nil enricher disables
// enrichment; a non-positive timeout is replaced by DefaultEnrichmentTimeout.
func NewQuestionService(questionRepo QuestionStore, enricher enrichment.Enricher, enrichmentTimeout time.Duration, log zerolog.Logger) *QuestionService {
	if enricher == nil {
		enricher = enrichment.NopEnricher{}
	}
	if enrichmentTimeout <= 0 {
		enrichmentTimeout = DefaultEnrichmentTimeout
	}
	return &QuestionService{
		questionRepo:      questionRepo,
		enricher:          enricher,
		enrichmentTimeout: enrichmentTimeout,
		log:               log.With().Str("component", "question_service").Logger(),
	}
}

// Create persists a new question. ID and LastUpdated are filled in by the store.
func (s *QuestionService) Create(ctx context.Context, q *model.Question) error {
	if err := s.questionRepo.Create(ctx, q); err != nil {
		s.log.Error().Err(err).Msg("failed to create question")
		return fmt.Errorf("create question: %w", err)
	}
	s.log.Info().Int64("id", q.ID).Msg("Question created")
	return nil
}

// UpdateWhereAsked changes where a question was asked. Updating a missing id
// is not an error.
func (s *QuestionService) UpdateWhereAsked(ctx context.Context, id int64, whereAsked *string) error {
	updated, err := s.questionRepo.UpdateWhereAsked(ctx, id, whereAsked)
	if err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("failed to update question")
		return fmt.Errorf("update question %d: %w", id, err)
	}
	if !updated {
		s.log.Debug().Int64("id", id).Msg("Update matched no question")
	}
	return nil
}

// Delete removes a question. Deleting a missing id is not an error.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.questionRepo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("failed to delete question")
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	if !deleted {
		s.log.Debug().Int64("id", id).Msg("Delete matched no question")
	}
	return nil
}

// Get retrieves one question from the store.
func (s *QuestionService) Get(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("failed to get question")
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return q, nil
}

// List returns every question ordered by where-asked, merged with any
// enrichment available within the configured timeout. Enrichment failure
// never fails the list; it is reported through the returned status.
func (s *QuestionService) List(ctx context.Context) (*model.QuestionList, error) {
	questions, err := s.questionRepo.List(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list questions")
		return nil, fmt.Errorf("list questions: %w", err)
	}

	list := &model.QuestionList{
		Questions: make([]model.ListedQuestion, len(questions)),
		Status:    model.EnrichmentDisabled,
	}
	for i, q := range questions {
		list.Questions[i] = model.ListedQuestion{Question: q}
	}

	if enrichment.Enabled(s.enricher) {
		s.applyEnrichment(ctx, list)
	}
	metrics.EnrichmentResults.WithLabelValues(string(list.Status)).Inc()

	s.log.Info().
		Int("count", len(list.Questions)).
		Str("enrichment", string(list.Status)).
		Int("enrichment_missing", list.Missing).
		Msg("Questions listed")

	return list, nil
}

func (s *QuestionService) applyEnrichment(ctx context.Context, list *model.QuestionList) {
	urls := distinctURLs(list.Questions)
	if len(urls) == 0 {
		list.Status = model.EnrichmentOK
		return
	}

	entries, err := s.fetchEnrichment(ctx, urls)
	if err != nil {
		s.log.Warn().Err(err).Int("urls", len(urls)).Msg("Enrichment unavailable, returning base records")
		list.Status = model.EnrichmentUnavailable
		list.Missing = countWithURL(list.Questions)
		metrics.EnrichmentMissing.Add(float64(list.Missing))
		return
	}

	for i := range list.Questions {
		q := &list.Questions[i]
		if q.DescriptionURL == nil || *q.DescriptionURL == "" {
			continue
		}
		entry, ok := entries[*q.DescriptionURL]
		if !ok {
			list.Missing++
			continue
		}
		q.Extra = entry
		q.Enriched = true
	}

	list.Status = model.EnrichmentOK
	if list.Missing > 0 {
		list.Status = model.EnrichmentPartial
		metrics.EnrichmentMissing.Add(float64(list.Missing))
		s.log.Warn().Int("missing", list.Missing).Msg("Some questions had no enrichment match")
	}
}

type enrichmentResult struct {
	entries map[string]model.Enrichment
	err     error
}

// fetchEnrichment runs the enricher in its own goroutine and waits at most
// enrichmentTimeout for it.
func (s *QuestionService) fetchEnrichment(ctx context.Context, urls []string) (map[string]model.Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.enrichmentTimeout)
	defer cancel()

	done := make(chan enrichmentResult, 1)
	go func() {
		entries, err := s.enricher.Enrich(ctx, urls)
		done <- enrichmentResult{entries: entries, err: err}
	}()

	select {
	case res := <-done:
		return res.entries, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("enrichment: %w", ctx.Err())
	}
}

func distinctURLs(questions []model.ListedQuestion) []string {
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
	return urls
}

func countWithURL(questions []model.ListedQuestion) int {
	n := 0
	for _, q := range questions {
		if q.DescriptionURL != nil && *q.DescriptionURL != "" {
			n++
		}
	}
	return n
}
