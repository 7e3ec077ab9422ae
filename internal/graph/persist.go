// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/eventgraph/recommender/internal/recommend"
)

// PersistVisitor marks a visitor processed: has_recommendation "0"/"1", the
// generation timestamp, and the configured control-group property. The write
// is a plain SET, so re-running it is idempotent apart from the timestamp.
func (s *Store) PersistVisitor(ctx context.Context, badgeID string, hasRecommendation bool, controlFlag int, generatedAt time.Time) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	flag := "0"
	if hasRecommendation {
		flag = "1"
	}

	query := fmt.Sprintf(`MATCH (v:Visitor_this_year {badge_id: $badge, show: $show})
SET v.has_recommendation = $flag,
    v.recommendation_generated_at = $generated_at,
    v.%s = $control`, s.controlProp)

	_, err := session.Run(ctx, query, map[string]any{
		"badge":        badgeID,
		"show":         s.showID,
		"flag":         flag,
		"generated_at": generatedAt.Format(time.RFC3339),
		"control":      controlFlag,
	})
	if err != nil {
		return fmt.Errorf("persist visitor %s: %w", badgeID, err)
	}
	return nil
}

// PersistRecommendations upserts one IS_RECOMMENDED edge per recommendation
// in a single round trip. MERGE keeps re-runs free of duplicate edges, and
// edge creation only targets session nodes with a non-empty title so
// placeholder nodes never get linked.
func (s *Store) PersistRecommendations(ctx context.Context, badgeID string, recs []recommend.Recommendation, generatedAt time.Time) error {
	if len(recs) == 0 {
		return nil
	}

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	entries := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, map[string]any{
			"id":    rec.Session.ID,
			"score": rec.Similarity,
		})
	}

	query := `MATCH (v:Visitor_this_year {badge_id: $badge, show: $show})
UNWIND $recs AS rec
MATCH (sess:Sessions_this_year {id: rec.id, show: $show})
WHERE sess.title IS NOT NULL AND sess.title <> ""
MERGE (v)-[r:IS_RECOMMENDED]->(sess)
SET r.similarity_score = rec.score,
    r.generated_at = $generated_at,
    r.show = $show`

	_, err := session.Run(ctx, query, map[string]any{
		"badge":        badgeID,
		"show":         s.showID,
		"recs":         entries,
		"generated_at": generatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("persist recommendations for %s: %w", badgeID, err)
	}
	return nil
}
