// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

// Package main is the entry point for the recommendation batch run.
//
// The run initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (Koanf v2)
//  2. Logging: zerolog, JSON or console format
//  3. Metrics: optional Prometheus /metrics listener
//  4. Graph store: Neo4j driver with connectivity verification (fatal on failure)
//  5. Engine: per-visitor pipeline, global passes, persistence, export
//
// # Configuration
//
// Settings come from recommender.yaml (or CONFIG_PATH) and environment
// variables such as NEO4J_URI, NEO4J_PASSWORD, SHOW_ID and
// RECOMMEND_MIN_SIMILARITY. The operating mode ("primary" or "post_analysis")
// is a configuration field, not a CLI flag.
//
// # Exit Codes
//
// The process exits non-zero only for construction-time failures: bad
// configuration, an unreachable graph, or a failed export. Per-visitor
// processing errors are logged, counted in the run statistics and never fail
// the batch.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventgraph/recommender/internal/config"
	"github.com/eventgraph/recommender/internal/graph"
	"github.com/eventgraph/recommender/internal/logging"
	"github.com/eventgraph/recommender/internal/metrics"
	"github.com/eventgraph/recommender/internal/recommend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Default logger for config errors, config is not yet available.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("show", cfg.Show.ID).
		Str("mode", cfg.Mode).
		Str("profile", cfg.Show.Profile).
		Msg("Starting recommendation run")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.ListenAddr, logging.Logger())
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("Error stopping metrics listener")
			}
		}()
	}

	store, err := graph.NewStore(ctx, graph.Config{
		URI:                  cfg.Neo4j.URI,
		Username:             cfg.Neo4j.Username,
		Password:             cfg.Neo4j.Password,
		Database:             cfg.Neo4j.Database,
		ShowID:               cfg.Show.ID,
		PastSegments:         cfg.Show.PastSegments,
		ControlGroupProperty: cfg.Recommendation.ControlGroup.Neo4jProperty,
	}, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to graph database")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Error closing graph driver")
		}
	}()

	engine, err := recommend.NewEngine(engineConfig(cfg), store, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to construct engine")
	}

	result, err := engine.Process(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("Recommendation run failed")
	}

	metrics.RecordRun(
		result.Stats.WithRecommendations,
		result.Stats.WithoutRecommendations,
		result.Stats.Errors,
		result.Stats.ControlGroupSize,
		time.Duration(result.Stats.DurationMS)*time.Millisecond,
	)
	for _, payload := range result.Payloads {
		metrics.RecommendationsTotal.WithLabelValues(payload.Source).Add(float64(len(payload.Filtered)))
	}
	if result.Capacity != nil {
		metrics.CapacityRemovals.Add(float64(result.Capacity.RecommendationsRemoved))
	}

	logging.Info().
		Str("run_id", result.RunID).
		Int("visitors_processed", result.Stats.VisitorsProcessed).
		Int("errors", result.Stats.Errors).
		Msg("Recommendation run finished")
}

// engineConfig maps the loaded application configuration onto the engine's
// own config type. The engine package has no dependency on the config loader,
// so the translation lives here.
func engineConfig(cfg *config.Config) *recommend.Config {
	rec := cfg.Recommendation

	out := recommend.DefaultConfig()
	out.ShowID = cfg.Show.ID
	out.Mode = cfg.Mode
	out.Profile = recommend.ParseEventProfile(cfg.Show.Profile)
	out.MinSimilarityScore = rec.MinSimilarityScore
	out.MaxRecommendations = rec.MaxRecommendations
	out.SimilarVisitorsCount = rec.SimilarVisitorsCount
	out.IncrementalOnly = rec.IncrementalOnly
	out.EnableFiltering = rec.EnableFiltering
	out.ResolveOverlaps = rec.ResolveOverlappingSessionsBySimilarity
	out.SaveCSV = rec.SaveCSV
	out.ExportAdditionalVisitorFields = rec.ExportAdditionalVisitorFields
	out.OutputDirectory = rec.OutputDirectory

	if len(rec.SimilarityAttributes) > 0 {
		out.SimilarityAttributes = make(map[string]recommend.SimilarityAttribute, len(rec.SimilarityAttributes))
		for name, attr := range rec.SimilarityAttributes {
			out.SimilarityAttributes[name] = recommend.SimilarityAttribute{
				Weight:     attr.Weight,
				Field:      attr.Field,
				Properties: attr.Properties,
			}
		}
	}

	out.ReturningWithoutHistory = recommend.ReturningWithoutHistoryConfig{
		Enabled:            rec.ReturningWithoutHistory.Enabled,
		SimilarityExponent: rec.ReturningWithoutHistory.SimilarityExponent,
	}
	out.Capacity = recommend.CapacityConfig{
		Enabled:            rec.TheatreCapacityLimits.Enabled,
		CapacityMultiplier: rec.TheatreCapacityLimits.CapacityMultiplier,
		CapacityFile:       rec.TheatreCapacityLimits.CapacityFile,
		SessionFile:        rec.TheatreCapacityLimits.SessionFile,
	}
	out.ControlGroup = recommend.ControlGroupConfig{
		Enabled:         rec.ControlGroup.Enabled,
		Percentage:      rec.ControlGroup.Percentage,
		RandomSeed:      rec.ControlGroup.RandomSeed,
		FileSuffix:      rec.ControlGroup.FileSuffix,
		OutputDirectory: rec.ControlGroup.OutputDirectory,
		GraphProperty:   rec.ControlGroup.Neo4jProperty,
	}

	out.Rules = recommend.RulesConfig{
		Priority: rec.RulesConfig.Priority,
		PracticeType: recommend.PracticeTypeRules{
			EquineMixedExcludedStreams: rec.RulesConfig.PracticeType.EquineMixedExcludedStreams,
			SmallAnimalExcludedStreams: rec.RulesConfig.PracticeType.SmallAnimalExcludedStreams,
		},
		JobRoles: recommend.JobRoleRules{
			VetRoles:            rec.RulesConfig.JobRoles.VetRoles,
			VetExcludedStreams:  rec.RulesConfig.JobRoles.VetExcludedStreams,
			NurseRoles:          rec.RulesConfig.JobRoles.NurseRoles,
			NurseAllowedStreams: rec.RulesConfig.JobRoles.NurseAllowedStreams,
		},
		Custom: recommend.CustomRulesConfig{
			Enabled:          rec.RulesConfig.CustomRules.Enabled,
			ApplicableEvents: rec.RulesConfig.CustomRules.ApplicableEvents,
		},
	}
	for _, r := range rec.RulesConfig.CustomRules.Rules {
		out.Rules.Custom.Rules = append(out.Rules.Custom.Rules, recommend.CustomRuleConfig{
			Name:    r.Name,
			Enabled: r.Enabled,
			Params:  r.Params,
		})
	}

	return out
}
