// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/eventgraph/recommender/internal/recommend"
)

// SelectVisitors returns the current-year visitors for the show. In
// incremental mode, visitors already marked has_recommendation = "1" are
// excluded by the query itself.
func (s *Store) SelectVisitors(ctx context.Context, incrementalOnly bool) ([]recommend.Visitor, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `MATCH (v:Visitor_this_year {show: $show})`
	if incrementalOnly {
		query += `
WHERE v.has_recommendation IS NULL OR v.has_recommendation = "0"`
	}
	query += `
RETURN properties(v) AS props`

	result, err := session.Run(ctx, query, map[string]any{"show": s.showID})
	if err != nil {
		return nil, fmt.Errorf("select visitors: %w", err)
	}

	var visitors []recommend.Visitor
	for result.Next(ctx) {
		props := propsFromRecord(result.Record().AsMap())
		if props == nil {
			continue
		}
		v := visitorFromProps(props)
		if v.BadgeID == "" {
			continue
		}
		visitors = append(visitors, v)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("select visitors: %w", err)
	}

	s.logger.Debug().Int("visitors", len(visitors)).Bool("incremental", incrementalOnly).
		Msg("visitor selection complete")
	return visitors, nil
}

// SimilarVisitors runs the weighted-criteria match against every past-year
// segment, merges the per-segment candidates and returns the top entries by
// score desc then attendance desc. Candidates must score above zero and have
// at least one attended session.
func (s *Store) SimilarVisitors(ctx context.Context, criteria []recommend.Criterion, limit int) ([]recommend.SimilarVisitorCandidate, error) {
	if len(criteria) == 0 || limit < 1 {
		return nil, nil
	}

	scoreClause, params := buildScoreClause(criteria)
	params["show"] = s.showID
	params["limit"] = limit

	session := s.readSession(ctx)
	defer session.Close(ctx)

	var candidates []recommend.SimilarVisitorCandidate
	for _, label := range s.pastLabels {
		query := fmt.Sprintf(`MATCH (p:%s {show: $show})
WITH p, (%s) AS score
WHERE score > 0
MATCH (p)-[:attended_session]->(sess:Sessions_past_year {show: $show})
WITH p, score, count(sess) AS attendance
WHERE attendance > 0
RETURN p.badge_id AS badge_id, score, attendance
ORDER BY score DESC, attendance DESC
LIMIT $limit`, label, scoreClause)

		result, err := session.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("similar visitors (%s): %w", label, err)
		}
		for result.Next(ctx) {
			values := result.Record().AsMap()
			score, _ := asFloat(values["score"])
			candidates = append(candidates, recommend.SimilarVisitorCandidate{
				BadgeID:    asString(values["badge_id"]),
				Segment:    label,
				Score:      score,
				Attendance: asInt(values["attendance"]),
			})
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("similar visitors (%s): %w", label, err)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Attendance > candidates[j].Attendance
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// buildScoreClause renders the weighted-match score expression for a criteria
// list. Each criterion adds its weight when any of its backing properties
// equals the visitor's value; values are passed as parameters, never
// interpolated.
func buildScoreClause(criteria []recommend.Criterion) (string, map[string]any) {
	params := make(map[string]any, len(criteria))
	terms := make([]string, 0, len(criteria))

	for i, c := range criteria {
		param := fmt.Sprintf("crit_%d", i)
		params[param] = c.Value

		matches := make([]string, 0, len(c.Properties))
		for _, prop := range c.Properties {
			matches = append(matches, fmt.Sprintf("p.%s = $%s", sanitizeIdentifier(prop), param))
		}
		terms = append(terms, fmt.Sprintf("CASE WHEN %s THEN %g ELSE 0 END",
			strings.Join(matches, " OR "), c.Weight))
	}

	return strings.Join(terms, " + "), params
}
