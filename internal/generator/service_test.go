// AniRec - Anime List Recommendation Service
// Copyright 2026 Takumi O. (takumi809)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/takumi809/anirec

package generator

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/takumi809/anirec/internal/database"
	"github.com/takumi809/anirec/internal/logging"
	"github.com/takumi809/anirec/internal/models"
	"github.com/takumi809/anirec/internal/recommend"
)

type mockGenStore struct {
	submissions map[string]*models.Submission
	results     map[string]*models.StoredResult
	inserts     []*models.StoredResult
	insertErr   error
}

func newMockGenStore() *mockGenStore {
	return &mockGenStore{
		submissions: make(map[string]*models.Submission),
		results:     make(map[string]*models.StoredResult),
	}
}

func (m *mockGenStore) GetSubmission(_ context.Context, id string) (*models.Submission, error) {
	if sub, ok := m.submissions[id]; ok {
		return sub, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockGenStore) GetLatestResult(_ context.Context, id string) (*models.StoredResult, error) {
	if res, ok := m.results[id]; ok {
		return res, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockGenStore) InsertResult(_ context.Context, res *models.StoredResult) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserts = append(m.inserts, res)
	m.results[res.SubmissionID] = res
	return nil
}

type mockWalker struct {
	result *recommend.Result
	err    error
	calls  int
}

func (m *mockWalker) Aggregate(_ context.Context, _ []models.RatedAnime, _ map[string]struct{}, _ int) (*recommend.Result, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

type mockEnqueuer struct {
	queued []string
	err    error
}

func (m *mockEnqueuer) EnqueueAnime(_ context.Context, animeID string) error {
	if m.err != nil {
		return m.err
	}
	m.queued = append(m.queued, animeID)
	return nil
}

func testSubmission(id string) *models.Submission {
	return &models.Submission{
		ID:        id,
		Rated:     []models.RatedAnime{{ID: "1", Title: "One", Score: 9}},
		AllIDs:    []string{"1"},
		CreatedAt: time.Now(),
	}
}

func newTestService(store Store, walker Walker, enq Enqueuer) *Service {
	return NewService(store, walker, enq, logging.NewTestLogger(io.Discard))
}

func TestGenerateComputesAndPersists(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")

	walker := &mockWalker{result: &recommend.Result{
		Entries:       []models.RecommendationEntry{{Title: "X", AnimeID: "9", Count: 2, ImageURL: "set", MediaType: "TV"}},
		AnalyzedCount: 1,
	}}

	svc := newTestService(store, walker, &mockEnqueuer{})

	gen, err := svc.Generate(context.Background(), "abc", 0)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gen.ServedFromCache {
		t.Error("First generation must not be served from cache")
	}
	if len(store.inserts) != 1 {
		t.Fatalf("Expected 1 persisted result, got %d", len(store.inserts))
	}
	if gen.Result.AnalyzedCount != 1 || len(gen.Result.Entries) != 1 {
		t.Errorf("Unexpected result: %+v", gen.Result)
	}
	if gen.Result.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")

	walker := &mockWalker{result: &recommend.Result{
		Entries:       []models.RecommendationEntry{{Title: "X", AnimeID: "9", Count: 2, MediaType: "TV"}},
		AnalyzedCount: 1,
	}}

	svc := newTestService(store, walker, &mockEnqueuer{})

	first, err := svc.Generate(context.Background(), "abc", 0)
	if err != nil {
		t.Fatalf("First Generate failed: %v", err)
	}

	second, err := svc.Generate(context.Background(), "abc", 0)
	if err != nil {
		t.Fatalf("Second Generate failed: %v", err)
	}

	if !second.ServedFromCache {
		t.Error("Second generation must be served from cache")
	}
	if walker.calls != 1 {
		t.Errorf("Expected zero walks on the second call, total walks %d", walker.calls)
	}
	if len(second.Result.Entries) != len(first.Result.Entries) {
		t.Errorf("Cached result differs from computed result")
	}
}

func TestGenerateUnknownIdentifier(t *testing.T) {
	svc := newTestService(newMockGenStore(), &mockWalker{}, &mockEnqueuer{})

	if _, err := svc.Generate(context.Background(), "missing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGenerateQueuesEnrichmentForBareEntries(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")

	walker := &mockWalker{result: &recommend.Result{
		Entries: []models.RecommendationEntry{
			{Title: "Enriched", AnimeID: "10", Count: 2, ImageURL: "https://img.test/10.jpg"},
			{Title: "Bare", AnimeID: "11", Count: 1},
		},
		AnalyzedCount: 1,
	}}
	enq := &mockEnqueuer{}

	svc := newTestService(store, walker, enq)

	if _, err := svc.Generate(context.Background(), "abc", 0); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(enq.queued) != 1 || enq.queued[0] != "11" {
		t.Errorf("Expected only the bare entry queued, got %v", enq.queued)
	}
}

func TestGenerateSwallowsEnqueueFailures(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")

	walker := &mockWalker{result: &recommend.Result{
		Entries:       []models.RecommendationEntry{{Title: "Bare", AnimeID: "11", Count: 1}},
		AnalyzedCount: 1,
	}}

	svc := newTestService(store, walker, &mockEnqueuer{err: errors.New("queue down")})

	if _, err := svc.Generate(context.Background(), "abc", 0); err != nil {
		t.Errorf("Queue failure must not fail the generation: %v", err)
	}
}

func TestGenerateWithoutEnqueuer(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")

	walker := &mockWalker{result: &recommend.Result{
		Entries:       []models.RecommendationEntry{{Title: "Bare", AnimeID: "11", Count: 1}},
		AnalyzedCount: 1,
	}}

	svc := newTestService(store, walker, nil)

	if _, err := svc.Generate(context.Background(), "abc", 0); err != nil {
		t.Errorf("Generation must work with the queue disabled: %v", err)
	}
}

func TestGeneratePersistFailure(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")
	store.insertErr = errors.New("disk full")

	walker := &mockWalker{result: &recommend.Result{AnalyzedCount: 1}}

	svc := newTestService(store, walker, nil)

	if _, err := svc.Generate(context.Background(), "abc", 0); err == nil {
		t.Error("Expected error when persistence fails")
	}
}

func TestGetCached(t *testing.T) {
	store := newMockGenStore()
	store.submissions["abc"] = testSubmission("abc")

	svc := newTestService(store, &mockWalker{}, nil)

	// Known identifier, nothing generated yet.
	if _, err := svc.GetCached(context.Background(), "abc"); !errors.Is(err, ErrNoResult) {
		t.Errorf("Expected ErrNoResult, got %v", err)
	}

	// Unknown identifier.
	if _, err := svc.GetCached(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	store.results["abc"] = &models.StoredResult{SubmissionID: "abc", AnalyzedCount: 1}
	res, err := svc.GetCached(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetCached failed: %v", err)
	}
	if res.SubmissionID != "abc" {
		t.Errorf("Unexpected result: %+v", res)
	}
}
