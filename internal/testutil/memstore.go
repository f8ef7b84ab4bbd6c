// Package testutil holds in-memory doubles shared by package tests.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thoughtcode/tca-backend/internal/model"
	"github.com/thoughtcode/tca-backend/internal/repository"
)

// MemoryStore is an in-memory question store that mirrors the SQL
// repository's ordering and timestamp rules.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]model.Question
	nextID int64
	now    func() time.Time

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows:   make(map[int64]model.Question),
		nextID: 1,
		now:    time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	q.ID = m.nextID
	q.LastUpdated = m.now()
	m.nextID++
	m.rows[q.ID] = *q
	return nil
}

func (m *MemoryStore) UpdateWhereAsked(_ context.Context, id int64, whereAsked *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	q, ok := m.rows[id]
	if !ok {
		return false, nil
	}
	q.WhereAsked = whereAsked
	next := m.now()
	if !next.After(q.LastUpdated) {
		next = q.LastUpdated.Add(time.Microsecond)
	}
	q.LastUpdated = next
	m.rows[id] = q
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	_, ok := m.rows[id]
	delete(m.rows, id)
	return ok, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id int64) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	q, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

// List orders by where-asked in byte order with nulls last, then by id,
// matching the COLLATE "C" ordering of the SQL repository.
func (m *MemoryStore) List(_ context.Context) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Question, 0, len(m.rows))
	for _, q := range m.rows {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].WhereAsked, out[j].WhereAsked
		switch {
		case a == nil && b == nil:
			return out[i].ID < out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a < *b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Len returns the number of stored questions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// StubEnricher returns canned entries or an error, optionally after a delay.
type StubEnricher struct {
	Entries map[string]model.Enrichment
	Err     error
	Delay   time.Duration

	mu    sync.Mutex
	calls [][]string
}

func (s *StubEnricher) Enrich(ctx context.Context, urls []string) (map[string]model.Enrichment, error) {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string(nil), urls...))
	s.mu.Unlock()

	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]model.Enrichment)
	for _, u := range urls {
		if e, ok := s.Entries[u]; ok {
			out[u] = e
		}
	}
	return out, nil
}

// Calls returns the URL batches the stub has been asked for.
func (s *StubEnricher) Calls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.calls...)
}
