package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thoughtcode/tca-backend/internal/model"
	"github.com/thoughtcode/tca-backend/internal/service"
	"github.com/thoughtcode/tca-backend/internal/testutil"
)

func str(s string) *string { return &s }
func boolean(b bool) *bool { return &b }

func newService(store service.QuestionStore, enricher *testutil.StubEnricher, timeout time.Duration) *service.QuestionService {
	if enricher == nil {
		return service.NewQuestionService(store, nil, timeout, zerolog.Nop())
	}
	return service.NewQuestionService(store, enricher, timeout, zerolog.Nop())
}

func TestCreateThenListIncludesRecord(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, nil, time.Second)

	before := time.Now()
	q := &model.Question{DescriptionURL: str("http://x/1"), CodingRound: boolean(true), WhereAsked: str("A")}
	require.NoError(t, svc.Create(ctx, q))
	assert.NotZero(t, q.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Questions, 1)

	got := list.Questions[0]
	assert.Equal(t, "http://x/1", *got.DescriptionURL)
	assert.True(t, *got.CodingRound)
	assert.Equal(t, "A", *got.WhereAsked)
	assert.False(t, got.LastUpdated.Before(before))
	assert.Equal(t, model.EnrichmentDisabled, list.Status)
	assert.False(t, got.Enriched)
}

func TestListOrdersByWhereAsked(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, nil, time.Second)

	for _, w := range []*string{str("B"), nil, str("A")} {
		require.NoError(t, svc.Create(ctx, &model.Question{WhereAsked: w}))
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Questions, 3)
	assert.Equal(t, "A", *list.Questions[0].WhereAsked)
	assert.Equal(t, "B", *list.Questions[1].WhereAsked)
	assert.Nil(t, list.Questions[2].WhereAsked)
}

func TestListOrdersMixedCaseByByteOrder(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, nil, time.Second)

	for _, w := range []string{"b", "B", "a", "A"} {
		require.NoError(t, svc.Create(ctx, &model.Question{WhereAsked: str(w)}))
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	got := make([]string, 0, len(list.Questions))
	for _, q := range list.Questions {
		got = append(got, *q.WhereAsked)
	}
	assert.Equal(t, []string{"A", "B", "a", "b"}, got)
}

func TestUpdateChangesOnlyWhereAsked(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, nil, time.Second)

	q := &model.Question{Title: str("Two sum"), DescriptionURL: str("http://x/1"), WhereAsked: str("A")}
	require.NoError(t, svc.Create(ctx, q))
	original, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateWhereAsked(ctx, q.ID, str("B")))

	updated, err := svc.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", *updated.WhereAsked)
	assert.True(t, updated.LastUpdated.After(original.LastUpdated))

	updated.WhereAsked = original.WhereAsked
	updated.LastUpdated = original.LastUpdated
	assert.Equal(t, original, updated)
}

func TestUpdateAndDeleteMissingIDAreNoOps(t *testing.T) {
	svc := newService(testutil.NewMemoryStore(), nil, time.Second)

	assert.NoError(t, svc.UpdateWhereAsked(context.Background(), 404, str("A")))
	assert.NoError(t, svc.Delete(context.Background(), 404))
}

func TestDeleteRemovesFromList(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, nil, time.Second)

	keep := &model.Question{WhereAsked: str("A")}
	drop := &model.Question{WhereAsked: str("B")}
	require.NoError(t, svc.Create(ctx, keep))
	require.NoError(t, svc.Create(ctx, drop))

	require.NoError(t, svc.Delete(ctx, drop.ID))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Questions, 1)
	assert.Equal(t, keep.ID, list.Questions[0].ID)

	_, err = svc.Get(ctx, drop.ID)
	assert.ErrorIs(t, err, service.ErrQuestionNotFound)
}

func TestStoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.Err = errors.New("connection refused")
	svc := newService(store, nil, time.Second)

	assert.ErrorIs(t, svc.Create(ctx, &model.Question{}), store.Err)
	assert.ErrorIs(t, svc.UpdateWhereAsked(ctx, 1, str("A")), store.Err)
	assert.ErrorIs(t, svc.Delete(ctx, 1), store.Err)
	_, err := svc.Get(ctx, 1)
	assert.ErrorIs(t, err, store.Err)
	_, err = svc.List(ctx)
	assert.ErrorIs(t, err, store.Err)
}

func TestListMergesEnrichment(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	enricher := &testutil.StubEnricher{Entries: map[string]model.Enrichment{
		"http://x/1": {"descriptionURL": "http://x/1", "topic": "arrays"},
	}}
	svc := newService(store, enricher, time.Second)

	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/1"), WhereAsked: str("A")}))
	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/1"), WhereAsked: str("B")}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EnrichmentOK, list.Status)
	assert.Zero(t, list.Missing)
	for _, q := range list.Questions {
		assert.True(t, q.Enriched)
		assert.Equal(t, "arrays", q.Extra["topic"])
	}

	calls := enricher.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"http://x/1"}, calls[0])
}

func TestListReportsPartialEnrichment(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	enricher := &testutil.StubEnricher{Entries: map[string]model.Enrichment{
		"http://x/1": {"topic": "arrays"},
	}}
	svc := newService(store, enricher, time.Second)

	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/1"), WhereAsked: str("A")}))
	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/2"), WhereAsked: str("B")}))
	require.NoError(t, svc.Create(ctx, &model.Question{WhereAsked: str("C")}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EnrichmentPartial, list.Status)
	assert.Equal(t, 1, list.Missing)
	assert.True(t, list.Questions[0].Enriched)
	assert.False(t, list.Questions[1].Enriched)
	assert.False(t, list.Questions[2].Enriched)
}

func TestListSurvivesEnrichmentFailure(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, &testutil.StubEnricher{Err: errors.New("unreachable")}, time.Second)

	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/1")}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list.Questions, 1)
	assert.Equal(t, model.EnrichmentUnavailable, list.Status)
	assert.Equal(t, 1, list.Missing)
}

func TestListEnrichmentTimesOut(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, &testutil.StubEnricher{Delay: 5 * time.Second}, 50*time.Millisecond)

	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/1")}))

	start := time.Now()
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, model.EnrichmentUnavailable, list.Status)
	assert.Len(t, list.Questions, 1)
}

func TestListZeroTimeoutFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	svc := newService(store, &testutil.StubEnricher{Delay: 10 * time.Second}, 0)

	require.NoError(t, svc.Create(ctx, &model.Question{DescriptionURL: str("http://x/1")}))

	start := time.Now()
	list, err := svc.List(ctx)
	require.NoError(t, err)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, service.DefaultEnrichmentTimeout)
	assert.Less(t, elapsed, service.DefaultEnrichmentTimeout+2*time.Second)
	assert.Equal(t, model.EnrichmentUnavailable, list.Status)
	assert.Equal(t, 1, list.Missing)
}

func TestListWithoutURLsSkipsEnricher(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	enricher := &testutil.StubEnricher{}
	svc := newService(store, enricher, time.Second)

	require.NoError(t, svc.Create(ctx, &model.Question{WhereAsked: str("A")}))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EnrichmentOK, list.Status)
	assert.Empty(t, enricher.Calls())
}
