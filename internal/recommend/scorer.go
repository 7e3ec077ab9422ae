// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"math"
	"sort"
)

// ScoreCatalog scores every current-year session against a population's
// historical attendance by cosine similarity.
//
// For each catalog session the score is the maximum similarity against any
// population session. Sessions missing an embedding on either side are
// silently excluded (absence is not zero similarity). Only candidates whose
// score meets minScore survive, sorted descending; the sort is stable so exact
// ties preserve catalog order, leaving tie-breaking to later stages.
func ScoreCatalog(catalog, population []Session, minScore float64) []Recommendation {
	history := make([][]float64, 0, len(population))
	for _, s := range population {
		if len(s.Embedding) > 0 {
			history = append(history, s.Embedding)
		}
	}
	if len(history) == 0 {
		return nil
	}

	recs := make([]Recommendation, 0, len(catalog))
	for _, candidate := range catalog {
		if len(candidate.Embedding) == 0 {
			continue
		}

		best := -1.0
		for _, h := range history {
			if sim := CosineSimilarity(candidate.Embedding, h); sim > best {
				best = sim
			}
		}

		if best >= minScore {
			recs = append(recs, Recommendation{
				Session:       candidate,
				Similarity:    best,
				RawSimilarity: best,
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Similarity > recs[j].Similarity
	})

	return recs
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or zero-norm vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// AdjustScores raises each similarity to the given exponent, clamping the
// input to [0,1] first and the result after. It is applied once, after
// filtering and ranking, when a returning visitor was scored against a proxy
// population, so proxy-derived scores stay visibly conservative relative to
// true own-history matches. RawSimilarity keeps the pre-adjustment value.
func AdjustScores(recs []Recommendation, exponent float64) {
	for i := range recs {
		clamped := clamp01(recs[i].Similarity)
		recs[i].Similarity = clamp01(math.Pow(clamped, exponent))
	}
}

// clamp01 clamps v into [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
