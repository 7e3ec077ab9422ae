// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
)

// Config holds the connection and scoping settings for a Store.
type Config struct {
	// URI is the bolt/neo4j connection URI.
	URI string

	// Username and Password for basic auth.
	Username string
	Password string

	// Database is the target database name. Empty uses the server default.
	Database string

	// ShowID scopes every read and write.
	ShowID string

	// PastSegments are the past-year visitor label suffixes, e.g. a show
	// that ran as two parallel events has two segments.
	PastSegments []string

	// ControlGroupProperty is the visitor property receiving the 0/1
	// control flag. Defaults to "control_group".
	ControlGroupProperty string
}

// Store is the Neo4j-backed implementation of recommend.GraphStore. One store
// serves one show; the driver it owns is safe for concurrent use but the
// engine calls it sequentially.
type Store struct {
	driver      neo4j.DriverWithContext
	database    string
	showID      string
	pastLabels  []string
	controlProp string
	logger      zerolog.Logger
}

// NewStore connects to Neo4j and verifies connectivity before returning.
// Connectivity failures are fatal by contract: no partial run is attempted
// against an unreachable graph.
func NewStore(ctx context.Context, cfg Config, logger zerolog.Logger) (*Store, error) {
	if cfg.ShowID == "" {
		return nil, fmt.Errorf("show id is required")
	}
	if len(cfg.PastSegments) == 0 {
		return nil, fmt.Errorf("at least one past-year segment is required")
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	labels := make([]string, len(cfg.PastSegments))
	for i, seg := range cfg.PastSegments {
		labels[i] = "Visitor_last_year_" + sanitizeIdentifier(seg)
	}

	controlProp := cfg.ControlGroupProperty
	if controlProp == "" {
		controlProp = "control_group"
	}

	return &Store{
		driver:      driver,
		database:    cfg.Database,
		showID:      cfg.ShowID,
		pastLabels:  labels,
		controlProp: sanitizeIdentifier(controlProp),
		logger:      logger.With().Str("component", "graph").Logger(),
	}, nil
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
}

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
}

// sanitizeIdentifier strips everything outside [A-Za-z0-9_] from a label or
// property fragment before Cypher interpolation. Labels cannot be
// parameterized, so configuration-sourced fragments must never carry query
// syntax.
func sanitizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, s)
}
