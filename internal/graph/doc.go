// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

// Package graph implements the recommend.GraphStore contract against a Neo4j
// knowledge graph.
//
// The graph holds Visitor_this_year, per-segment Visitor_last_year_<segment>,
// Sessions_this_year and Sessions_past_year nodes, connected by
// attended_session, Same_Visitor and IS_RECOMMENDED relationships. Every node
// carries a show property and all reads and writes are scoped to the show
// identifier the store was constructed with. Node labels and the configurable
// control-group property name cannot be parameterized in Cypher, so they are
// sanitized to [A-Za-z0-9_] before interpolation; every value goes through
// query parameters.
package graph
