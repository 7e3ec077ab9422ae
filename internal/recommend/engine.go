// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Engine drives the recommendation pipeline for one show. It is constructed
// per run; the caches it owns are discarded with it, so repeated runs never
// leak state into each other. The engine is not safe for concurrent use.
type Engine struct {
	cfg    *Config
	store  GraphStore
	logger zerolog.Logger
	rng    *rand.Rand

	// similarCache memoizes similar-visitor pools per criteria signature.
	similarCache map[string][]SimilarVisitorCandidate
}

// Option customizes engine construction.
type Option func(*Engine)

// WithRand injects the random source used for similar-visitor sampling,
// popularity sampling and the (unseeded) control-group draw. Tests use this to
// force determinism; production runs default to an entropy-seeded source.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// NewEngine validates the configuration and builds an engine bound to the
// given store. The config is cloned so later caller mutations cannot affect a
// running engine.
func NewEngine(cfg *Config, store GraphStore, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("graph store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:          cfg.Clone(),
		store:        store,
		logger:       logger.With().Str("component", "recommend").Str("show", cfg.ShowID).Logger(),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		similarCache: make(map[string][]SimilarVisitorCandidate),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Process runs the full pipeline: visitor selection, per-visitor scoring and
// filtering, the global capacity and control-group passes, persistence, and
// export. Per-visitor failures are recorded in the run statistics and never
// abort the run; only selection, catalog and export failures propagate.
func (e *Engine) Process(ctx context.Context) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		Payloads: make(map[string]*Payload),
		RunID:    uuid.NewString(),
	}

	visitors, err := e.store.SelectVisitors(ctx, e.cfg.IncrementalOnly)
	if err != nil {
		return nil, fmt.Errorf("select visitors: %w", err)
	}
	catalog, err := e.store.ThisYearSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session catalog: %w", err)
	}

	e.logger.Info().
		Int("visitors", len(visitors)).
		Int("catalog_sessions", len(catalog)).
		Bool("incremental", e.cfg.IncrementalOnly).
		Str("mode", e.cfg.Mode).
		Msg("starting recommendation run")
	if len(catalog) == 0 {
		e.logger.Warn().Msg("empty session catalog, all visitors will have zero recommendations")
	}

	for i := range visitors {
		visitor := &visitors[i]
		result.Stats.VisitorsProcessed++

		payload, perr := e.processVisitor(ctx, visitor, catalog)
		if perr != nil {
			e.logger.Error().
				Str("badge_id", perr.BadgeID).
				Str("stage", perr.Stage).
				Str("error", perr.Message).
				Msg("visitor processing failed")
			result.Stats.Errors++
			result.Stats.ErrorDetails = append(result.Stats.ErrorDetails, *perr)
			continue
		}
		result.Payloads[visitor.BadgeID] = payload
	}

	if e.cfg.Capacity.Enabled {
		result.Capacity = e.runCapacityPass(result.Payloads)
	}

	if e.cfg.Mode == ModePrimary {
		result.ControlPayloads = e.splitControlGroup(result.Payloads)
	}

	e.persist(ctx, result)

	for _, p := range result.Payloads {
		if len(p.Filtered) > 0 {
			result.Stats.WithRecommendations++
		} else {
			result.Stats.WithoutRecommendations++
		}
		result.Stats.TotalRecommendations += len(p.Filtered)
	}
	result.Stats.UniqueSessions = countUniqueSessions(result.Payloads)
	result.Stats.ControlGroupSize = len(result.ControlPayloads)
	result.GeneratedAt = time.Now().UTC()
	result.Stats.DurationMS = time.Since(start).Milliseconds()

	paths, err := e.exportRun(result)
	if err != nil {
		return result, fmt.Errorf("export: %w", err)
	}

	e.logger.Info().
		Int("visitors_processed", result.Stats.VisitorsProcessed).
		Int("with_recommendations", result.Stats.WithRecommendations).
		Int("without_recommendations", result.Stats.WithoutRecommendations).
		Int("total_recommendations", result.Stats.TotalRecommendations).
		Int("control_group_size", result.Stats.ControlGroupSize).
		Int("errors", result.Stats.Errors).
		Int64("duration_ms", result.Stats.DurationMS).
		Strs("exports", paths).
		Msg("recommendation run complete")

	return result, nil
}

// processVisitor runs the per-visitor pipeline: population resolution, cosine
// scoring, rule filtering, the proxy-score adjustment, the cap, and overlap
// handling.
func (e *Engine) processVisitor(ctx context.Context, visitor *Visitor, catalog []Session) (*Payload, *ProcessingError) {
	payload := &Payload{
		Visitor:     *visitor,
		GeneratedAt: time.Now().UTC(),
	}

	pop, err := e.resolvePopulation(ctx, visitor)
	payload.Source = pop.Source.String()
	payload.Notes = append(payload.Notes, pop.Notes...)
	if err != nil {
		return nil, &ProcessingError{BadgeID: visitor.BadgeID, Stage: "population", Message: err.Error()}
	}
	if len(pop.Sessions) == 0 {
		payload.Filtered = []Recommendation{}
		return payload, nil
	}

	raw := ScoreCatalog(catalog, pop.Sessions, e.cfg.MinSimilarityScore)
	payload.Raw = append([]Recommendation(nil), raw...)

	filtered, ruleNotes := e.applyRules(visitor, raw)
	payload.Notes = append(payload.Notes, ruleNotes...)

	// The exponent adjustment is monotonic, so the ranking established by
	// ScoreCatalog survives it and the cap below still keeps the top entries.
	filtered = append([]Recommendation(nil), filtered...)
	if pop.AdjustScores && e.cfg.ReturningWithoutHistory.Enabled {
		AdjustScores(filtered, e.cfg.ReturningWithoutHistory.SimilarityExponent)
		payload.Notes = append(payload.Notes,
			fmt.Sprintf("proxy-population scores adjusted with exponent %.2f",
				e.cfg.ReturningWithoutHistory.SimilarityExponent))
	}

	if len(filtered) > e.cfg.MaxRecommendations {
		filtered = filtered[:e.cfg.MaxRecommendations]
	}

	if e.cfg.ResolveOverlaps {
		before := len(filtered)
		filtered = resolveOverlaps(filtered)
		if removed := before - len(filtered); removed > 0 {
			payload.Notes = append(payload.Notes,
				fmt.Sprintf("overlap resolution removed %d lower-scoring sessions", removed))
		}
	}
	annotateOverlaps(filtered)

	payload.Filtered = filtered
	return payload, nil
}

// runCapacityPass loads the capacity table and applies the global trim. An
// unreadable or empty table disables enforcement with a warning instead of
// failing the run.
func (e *Engine) runCapacityPass(payloads map[string]*Payload) *CapacityStats {
	table, err := LoadCapacityTable(e.cfg.Capacity.CapacityFile, e.cfg.Capacity.SessionFile)
	if err != nil {
		e.logger.Warn().Err(err).Msg("capacity enforcement disabled, capacity table unavailable")
		return nil
	}
	return e.enforceCapacity(payloads, table)
}

// persist writes processing status and recommendation edges back to the
// graph. Control-group visitors get their flag written but no edges, keeping
// them out of the delivered agenda while staying identifiable downstream.
// Individual write failures are recorded and do not stop the loop.
func (e *Engine) persist(ctx context.Context, result *RunResult) {
	now := time.Now().UTC()

	for badge, p := range result.Payloads {
		hasRecs := len(p.Filtered) > 0
		if err := e.store.PersistVisitor(ctx, badge, hasRecs, p.ControlGroup, now); err != nil {
			e.recordPersistError(result, badge, err)
			continue
		}
		if hasRecs {
			if err := e.store.PersistRecommendations(ctx, badge, p.Filtered, now); err != nil {
				e.recordPersistError(result, badge, err)
			}
		}
	}

	for badge := range result.ControlPayloads {
		if err := e.store.PersistVisitor(ctx, badge, false, 1, now); err != nil {
			e.recordPersistError(result, badge, err)
		}
	}
}

func (e *Engine) recordPersistError(result *RunResult, badge string, err error) {
	e.logger.Error().Str("badge_id", badge).Err(err).Msg("persist failed")
	result.Stats.Errors++
	result.Stats.ErrorDetails = append(result.Stats.ErrorDetails,
		ProcessingError{BadgeID: badge, Stage: "persist", Message: err.Error()})
}

// countUniqueSessions counts distinct recommended session ids across the
// primary payload set.
func countUniqueSessions(payloads map[string]*Payload) int {
	seen := make(map[string]struct{})
	for _, p := range payloads {
		for _, rec := range p.Filtered {
			seen[rec.Session.ID] = struct{}{}
		}
	}
	return len(seen)
}
