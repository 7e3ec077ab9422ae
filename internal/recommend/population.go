// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// similarPoolFactor sizes the candidate pool the similar-visitor sample is
// drawn from, relative to the requested cohort size. Sampling from a wider
// pool avoids always recommending from an identical small clique.
const similarPoolFactor = 3

// popularityHeadroomFactor sizes the popularity-fallback fetch relative to
// max_recommendations, for the same reason.
const popularityHeadroomFactor = 5

// resolvePopulation decides what historical session set to score the visitor
// against. Strategies are tried in preference order: own history, similar
// visitors, global popularity. Exhausting all of them yields SourceNone,
// which is not an error; the visitor is simply recorded with zero
// recommendations.
func (e *Engine) resolvePopulation(ctx context.Context, visitor *Visitor) (Population, error) {
	pop := Population{Source: SourceNone}

	returning := visitor.AssistYearBefore == "1"
	if returning {
		sessions, err := e.store.OwnHistory(ctx, visitor.BadgeID)
		if err != nil {
			return pop, fmt.Errorf("own history lookup: %w", err)
		}
		if len(sessions) > 0 {
			pop.Source = SourceOwnHistory
			pop.Sessions = sessions
			pop.Notes = append(pop.Notes, fmt.Sprintf("own history: %d past sessions", len(sessions)))
			return pop, nil
		}

		// Returning but the Same_Visitor link yielded nothing. Any proxy
		// population scored from here on gets the exponent adjustment.
		if e.cfg.ReturningWithoutHistory.Enabled {
			pop.AdjustScores = true
		}
		pop.Notes = append(pop.Notes, "returning visitor without discoverable own history")
	}

	if found, err := e.resolveSimilarVisitors(ctx, visitor, &pop); err != nil {
		return pop, err
	} else if found {
		return pop, nil
	}

	if err := e.resolvePopularityFallback(ctx, &pop); err != nil {
		return pop, err
	}
	return pop, nil
}

// resolveSimilarVisitors attempts the proxy-cohort strategy. Returns true when
// a non-empty population was resolved.
func (e *Engine) resolveSimilarVisitors(ctx context.Context, visitor *Visitor, pop *Population) (bool, error) {
	criteria := BuildCriteria(visitor, e.cfg.SimilarityAttributes)
	if len(criteria) == 0 {
		pop.Notes = append(pop.Notes, "no active similarity criteria; no similar visitors")
		return false, nil
	}

	candidates, err := e.lookupSimilarVisitors(ctx, criteria)
	if err != nil {
		return false, fmt.Errorf("similar visitors lookup: %w", err)
	}
	if len(candidates) == 0 {
		pop.Notes = append(pop.Notes, "no similar visitors found")
		return false, nil
	}

	chosen := e.sampleCandidates(candidates, e.cfg.SimilarVisitorsCount)
	badges := make([]string, len(chosen))
	for i, c := range chosen {
		badges[i] = c.BadgeID
	}

	sessions, err := e.store.AttendanceOf(ctx, badges)
	if err != nil {
		return false, fmt.Errorf("similar visitors attendance: %w", err)
	}
	if len(sessions) == 0 {
		pop.Notes = append(pop.Notes, "similar visitors had no retrievable attendance")
		return false, nil
	}

	pop.Source = SourceSimilarVisitors
	pop.Sessions = sessions
	pop.SimilarBadges = badges
	pop.Notes = append(pop.Notes,
		fmt.Sprintf("similar visitors: %d of %d candidates, %d past sessions",
			len(badges), len(candidates), len(sessions)))
	return true, nil
}

// lookupSimilarVisitors fetches the ranked candidate pool, memoized per run on
// the criteria signature so visitors with identical active criteria share one
// round trip.
func (e *Engine) lookupSimilarVisitors(ctx context.Context, criteria []Criterion) ([]SimilarVisitorCandidate, error) {
	key := criteriaSignature(criteria)
	if cached, ok := e.similarCache[key]; ok {
		return cached, nil
	}

	poolSize := e.cfg.SimilarVisitorsCount * similarPoolFactor
	candidates, err := e.store.SimilarVisitors(ctx, criteria, poolSize)
	if err != nil {
		return nil, err
	}

	e.similarCache[key] = candidates
	return candidates, nil
}

// sampleCandidates picks count candidates from the ranked pool. When the pool
// is larger than requested, a random subset is drawn rather than the
// deterministic top-N; the draw is then re-ranked by score desc, attendance
// desc so downstream notes stay readable.
func (e *Engine) sampleCandidates(pool []SimilarVisitorCandidate, count int) []SimilarVisitorCandidate {
	if len(pool) <= count {
		return pool
	}

	perm := e.rng.Perm(len(pool))
	chosen := make([]SimilarVisitorCandidate, count)
	for i := 0; i < count; i++ {
		chosen[i] = pool[perm[i]]
	}

	sort.SliceStable(chosen, func(i, j int) bool {
		if chosen[i].Score != chosen[j].Score {
			return chosen[i].Score > chosen[j].Score
		}
		return chosen[i].Attendance > chosen[j].Attendance
	})
	return chosen
}

// resolvePopularityFallback fills the population from the global popularity
// ranking. The fetch carries headroom and the result is randomly sampled down
// to max_recommendations, then re-ordered by popularity, so repeated runs do
// not surface the identical "most popular" set to everyone.
func (e *Engine) resolvePopularityFallback(ctx context.Context, pop *Population) error {
	limit := e.cfg.MaxRecommendations * popularityHeadroomFactor
	popular, err := e.store.PopularSessions(ctx, limit)
	if err != nil {
		return fmt.Errorf("popularity fallback: %w", err)
	}
	if len(popular) == 0 {
		pop.Notes = append(pop.Notes, "popularity fallback found no past sessions")
		return nil
	}

	sample := popular
	if len(popular) > e.cfg.MaxRecommendations {
		perm := e.rng.Perm(len(popular))
		sample = make([]PopularSession, e.cfg.MaxRecommendations)
		for i := 0; i < e.cfg.MaxRecommendations; i++ {
			sample[i] = popular[perm[i]]
		}
	}

	sort.SliceStable(sample, func(i, j int) bool {
		return sample[i].Attendance > sample[j].Attendance
	})

	sessions := make([]Session, len(sample))
	for i, p := range sample {
		sessions[i] = p.Session
	}

	pop.Source = SourcePopularity
	pop.Sessions = sessions
	pop.Notes = append(pop.Notes,
		fmt.Sprintf("popularity fallback: sampled %d of %d popular sessions", len(sample), len(popular)))
	return nil
}

// criteriaSignature builds a stable cache key from the active criteria.
func criteriaSignature(criteria []Criterion) string {
	var b strings.Builder
	for _, c := range criteria {
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
		b.WriteByte(';')
	}
	return b.String()
}
