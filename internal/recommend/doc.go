// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

// Package recommend implements the session recommendation engine.
//
// Given a visitor and the current year's session catalog, the engine resolves a
// comparison population (the visitor's own past attendance, similar visitors'
// attendance, or a global popularity fallback), scores candidate sessions by
// embedding cosine similarity against that population, applies the configured
// business-rule filter chain, resolves schedule overlaps, enforces venue
// capacity across all visitors, optionally withholds a control-group cohort,
// and hands the result to the graph layer and the export writer.
//
// # Pipeline
//
//	population → similarity scoring → rule filtering → overlap resolution
//	→ (second pass, all visitors) capacity enforcement → control-group split
//	→ persistence + export
//
// # Design
//
// The package has no dependencies on other internal packages. The GraphStore
// interface decouples it from the Neo4j layer, mirroring how the engine caches
// (session catalog, similar-visitor lookups) are owned per Engine instance and
// discarded at run end, so repeated runs and tests never share state.
//
// Randomness is confined to three places: similar-visitor pool sampling,
// popularity-fallback sampling, and the control-group draw. Only the control
// group supports a fixed seed; the other two draw from the engine's injected
// source and are intentionally varied between runs.
package recommend
