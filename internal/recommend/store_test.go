// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStore is a hand-rolled GraphStore double. Fields configure what each
// method returns; the persisted* fields record writes for assertions.
type fakeStore struct {
	visitors   []Visitor
	catalog    []Session
	ownHistory map[string][]Session
	similar    []SimilarVisitorCandidate
	attendance []Session
	popular    []PopularSession

	visitorsErr   error
	catalogErr    error
	ownHistoryErr error
	similarErr    error

	similarCalls int

	persistedVisitors map[string]persistedVisitor
	persistedRecs     map[string][]Recommendation
}

type persistedVisitor struct {
	hasRecommendation bool
	controlFlag       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ownHistory:        make(map[string][]Session),
		persistedVisitors: make(map[string]persistedVisitor),
		persistedRecs:     make(map[string][]Recommendation),
	}
}

func (f *fakeStore) SelectVisitors(_ context.Context, _ bool) ([]Visitor, error) {
	return f.visitors, f.visitorsErr
}

func (f *fakeStore) ThisYearSessions(_ context.Context) ([]Session, error) {
	return f.catalog, f.catalogErr
}

func (f *fakeStore) OwnHistory(_ context.Context, badgeID string) ([]Session, error) {
	return f.ownHistory[badgeID], f.ownHistoryErr
}

func (f *fakeStore) SimilarVisitors(_ context.Context, _ []Criterion, limit int) ([]SimilarVisitorCandidate, error) {
	f.similarCalls++
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	if len(f.similar) > limit {
		return f.similar[:limit], nil
	}
	return f.similar, nil
}

func (f *fakeStore) AttendanceOf(_ context.Context, _ []string) ([]Session, error) {
	return f.attendance, nil
}

func (f *fakeStore) PopularSessions(_ context.Context, limit int) ([]PopularSession, error) {
	if len(f.popular) > limit {
		return f.popular[:limit], nil
	}
	return f.popular, nil
}

func (f *fakeStore) PersistVisitor(_ context.Context, badgeID string, hasRecommendation bool, controlFlag int, _ time.Time) error {
	f.persistedVisitors[badgeID] = persistedVisitor{hasRecommendation, controlFlag}
	return nil
}

func (f *fakeStore) PersistRecommendations(_ context.Context, badgeID string, recs []Recommendation, _ time.Time) error {
	f.persistedRecs[badgeID] = recs
	return nil
}

// testLogger returns a no-op logger for tests that do not assert on output.
func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// newTestEngine builds an engine with a fixed random seed and quiet logger.
func newTestEngine(t *testing.T, cfg *Config, store GraphStore) *Engine {
	t.Helper()
	e, err := NewEngine(cfg, store, zerolog.Nop(), WithRand(rand.New(rand.NewSource(1))))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

// testConfig returns a valid engine config pointed at a temp output directory.
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.ShowID = "vetshow_2026"
	cfg.OutputDirectory = t.TempDir()
	cfg.SimilarityAttributes = map[string]SimilarityAttribute{
		"role": {Weight: 2, Field: "job_role", Properties: []string{"job_role"}},
	}
	return cfg
}

// embedded builds a session with an embedding in one line.
func embedded(id string, vec ...float64) Session {
	return Session{ID: id, Title: "Session " + id, Embedding: vec}
}
