// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package graph

import (
	"context"
	"fmt"

	"github.com/eventgraph/recommender/internal/recommend"
)

// ThisYearSessions returns the current-year catalog for the show. Sessions
// whose embedding is absent or unparseable come back with a nil Embedding and
// are counted as a coverage gap.
func (s *Store) ThisYearSessions(ctx context.Context) ([]recommend.Session, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `MATCH (sess:Sessions_this_year {show: $show})
RETURN properties(sess) AS props`

	result, err := session.Run(ctx, query, map[string]any{"show": s.showID})
	if err != nil {
		return nil, fmt.Errorf("this-year sessions: %w", err)
	}

	var sessions []recommend.Session
	missingEmbeddings := 0
	for result.Next(ctx) {
		props := propsFromRecord(result.Record().AsMap())
		if props == nil {
			continue
		}
		sess := sessionFromProps(props)
		if sess.ID == "" {
			continue
		}
		if sess.Embedding == nil {
			missingEmbeddings++
		}
		sessions = append(sessions, sess)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("this-year sessions: %w", err)
	}

	if missingEmbeddings > 0 {
		s.logger.Warn().
			Int("sessions", len(sessions)).
			Int("missing_embeddings", missingEmbeddings).
			Msg("catalog sessions without a parseable embedding are excluded from scoring")
	}
	return sessions, nil
}

// OwnHistory follows the Same_Visitor link from the current-year visitor into
// every past-year segment and returns the distinct sessions attended.
func (s *Store) OwnHistory(ctx context.Context, badgeID string) ([]recommend.Session, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	params := map[string]any{"show": s.showID, "badge": badgeID}

	var sessions []recommend.Session
	seen := make(map[string]bool)
	for _, label := range s.pastLabels {
		query := fmt.Sprintf(`MATCH (v:Visitor_this_year {badge_id: $badge, show: $show})
MATCH (v)-[:Same_Visitor]-(p:%s)
MATCH (p)-[:attended_session]->(sess:Sessions_past_year {show: $show})
RETURN DISTINCT properties(sess) AS props`, label)

		result, err := session.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("own history (%s): %w", label, err)
		}
		for result.Next(ctx) {
			props := propsFromRecord(result.Record().AsMap())
			if props == nil {
				continue
			}
			sess := sessionFromProps(props)
			if sess.ID == "" || seen[sess.ID] {
				continue
			}
			seen[sess.ID] = true
			sessions = append(sessions, sess)
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("own history (%s): %w", label, err)
		}
	}

	return sessions, nil
}

// AttendanceOf returns the combined distinct past-year attendance of the given
// visitors across all segments.
func (s *Store) AttendanceOf(ctx context.Context, badgeIDs []string) ([]recommend.Session, error) {
	if len(badgeIDs) == 0 {
		return nil, nil
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	params := map[string]any{"show": s.showID, "badges": badgeIDs}

	var sessions []recommend.Session
	seen := make(map[string]bool)
	for _, label := range s.pastLabels {
		query := fmt.Sprintf(`MATCH (p:%s {show: $show})
WHERE p.badge_id IN $badges
MATCH (p)-[:attended_session]->(sess:Sessions_past_year {show: $show})
RETURN DISTINCT properties(sess) AS props`, label)

		result, err := session.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("attendance of cohort (%s): %w", label, err)
		}
		for result.Next(ctx) {
			props := propsFromRecord(result.Record().AsMap())
			if props == nil {
				continue
			}
			sess := sessionFromProps(props)
			if sess.ID == "" || seen[sess.ID] {
				continue
			}
			seen[sess.ID] = true
			sessions = append(sessions, sess)
		}
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("attendance of cohort (%s): %w", label, err)
		}
	}

	return sessions, nil
}

// PopularSessions returns up to limit past-year sessions for the show, ranked
// by attended_session edge count across all past-year visitor segments.
func (s *Store) PopularSessions(ctx context.Context, limit int) ([]recommend.PopularSession, error) {
	if limit < 1 {
		return nil, nil
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `MATCH (sess:Sessions_past_year {show: $show})<-[:attended_session]-(p)
WITH sess, count(p) AS attendance
RETURN properties(sess) AS props, attendance
ORDER BY attendance DESC
LIMIT $limit`

	result, err := session.Run(ctx, query, map[string]any{"show": s.showID, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("popular sessions: %w", err)
	}

	var popular []recommend.PopularSession
	for result.Next(ctx) {
		values := result.Record().AsMap()
		props := propsFromRecord(values)
		if props == nil {
			continue
		}
		sess := sessionFromProps(props)
		if sess.ID == "" {
			continue
		}
		popular = append(popular, recommend.PopularSession{
			Session:    sess,
			Attendance: asInt(values["attendance"]),
		})
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("popular sessions: %w", err)
	}

	return popular, nil
}
