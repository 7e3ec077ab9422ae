// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"sort"
	"strings"
)

// BuildCriteria translates the configured similarity attributes into the
// active criteria for one visitor. Attributes whose visitor-side value is
// missing, blank, or the "NA" sentinel are skipped. Matching is exact-value;
// no normalization or stemming is performed.
//
// The returned slice is ordered by attribute name so the generated query text
// is stable across runs. An empty result means the population resolver must
// report "no similar visitors" rather than erroring.
func BuildCriteria(visitor *Visitor, attrs map[string]SimilarityAttribute) []Criterion {
	if len(attrs) == 0 {
		return nil
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	criteria := make([]Criterion, 0, len(names))
	for _, name := range names {
		attr := attrs[name]
		value := strings.TrimSpace(visitor.Field(attr.Field))
		if value == "" || strings.EqualFold(value, NA) {
			continue
		}

		criteria = append(criteria, Criterion{
			Name:       name,
			Weight:     attr.Weight,
			Value:      value,
			Properties: attr.Properties,
		})
	}

	return criteria
}
