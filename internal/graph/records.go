// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package graph

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/eventgraph/recommender/internal/recommend"
)

// Visitor property names used by the upstream ETL.
const (
	propBadgeID           = "badge_id"
	propJobRole           = "job_role"
	propPracticeType      = "practice_type"
	propCompany           = "company"
	propJobTitle          = "job_title"
	propCountry           = "country"
	propAssistYearBefore  = "assist_year_before"
	propHasRecommendation = "has_recommendation"
)

// visitorFromProps maps a node property bag to a Visitor. Known properties
// fill the typed fields; everything else lands in Props so configuration-driven
// field lookups keep working for attributes this package does not know about.
func visitorFromProps(props map[string]any) recommend.Visitor {
	v := recommend.Visitor{
		BadgeID:           asString(props[propBadgeID]),
		JobRole:           asString(props[propJobRole]),
		PracticeType:      asString(props[propPracticeType]),
		Company:           asString(props[propCompany]),
		JobTitle:          asString(props[propJobTitle]),
		Country:           asString(props[propCountry]),
		AssistYearBefore:  asString(props[propAssistYearBefore]),
		HasRecommendation: asString(props[propHasRecommendation]),
	}

	for key, val := range props {
		switch key {
		case propBadgeID, propJobRole, propPracticeType, propCompany,
			propJobTitle, propCountry, propAssistYearBefore, propHasRecommendation:
			continue
		}
		if v.Props == nil {
			v.Props = make(map[string]string)
		}
		v.Props[key] = asString(val)
	}

	return v
}

// sessionFromProps maps a session node property bag to a Session, parsing the
// serialized embedding. A missing or malformed embedding leaves Embedding nil;
// the session then simply does not participate in similarity scoring.
func sessionFromProps(props map[string]any) recommend.Session {
	return recommend.Session{
		ID:        asString(props["id"]),
		Title:     asString(props["title"]),
		Stream:    asString(props["stream"]),
		Theatre:   asString(props["theatre"]),
		Date:      asString(props["date"]),
		StartTime: asString(props["start_time"]),
		EndTime:   asString(props["end_time"]),
		Sponsor:   asString(props["sponsor"]),
		Show:      asString(props["show"]),
		Embedding: parseEmbedding(props["embedding"]),
	}
}

// parseEmbedding accepts either a JSON-serialized vector string or a native
// Neo4j list of numbers. Anything else yields nil.
func parseEmbedding(raw any) []float64 {
	switch v := raw.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		var vec []float64
		if err := json.Unmarshal([]byte(trimmed), &vec); err != nil || len(vec) == 0 {
			return nil
		}
		return vec
	case []any:
		vec := make([]float64, 0, len(v))
		for _, item := range v {
			f, ok := asFloat(item)
			if !ok {
				return nil
			}
			vec = append(vec, f)
		}
		if len(vec) == 0 {
			return nil
		}
		return vec
	default:
		return nil
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// propsFromRecord extracts the "props" map column of a record.
func propsFromRecord(values map[string]any) map[string]any {
	props, _ := values["props"].(map[string]any)
	return props
}
