// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"recommender.yaml",
	"recommender.yml",
	"/etc/recommender/config.yaml",
	"/etc/recommender/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"show.past_segments",
	"recommendation.rules_config.priority",
	"recommendation.rules_config.custom_rules.applicable_events",
	"recommendation.export_additional_visitor_fields",
}

// processSliceFields converts comma-separated env values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are dropped so arbitrary environment noise cannot leak
// into the configuration.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"neo4j_uri":      "neo4j.uri",
		"neo4j_username": "neo4j.username",
		"neo4j_password": "neo4j.password",
		"neo4j_database": "neo4j.database",

		"show_id":            "show.id",
		"show_past_segments": "show.past_segments",
		"show_profile":       "show.profile",

		"run_mode": "mode",

		"recommend_min_similarity":        "recommendation.min_similarity_score",
		"recommend_max_recommendations":   "recommendation.max_recommendations",
		"recommend_similar_visitors":      "recommendation.similar_visitors_count",
		"recommend_incremental_only":      "recommendation.incremental_only",
		"recommend_enable_filtering":      "recommendation.enable_filtering",
		"recommend_resolve_overlaps":      "recommendation.resolve_overlapping_sessions_by_similarity",
		"recommend_save_csv":              "recommendation.save_csv",
		"recommend_output_dir":            "recommendation.output_directory",
		"recommend_rwh_enabled":           "recommendation.returning_without_history.enabled",
		"recommend_rwh_exponent":          "recommendation.returning_without_history.similarity_exponent",
		"recommend_capacity_enabled":      "recommendation.theatre_capacity_limits.enabled",
		"recommend_capacity_multiplier":   "recommendation.theatre_capacity_limits.capacity_multiplier",
		"recommend_capacity_file":         "recommendation.theatre_capacity_limits.capacity_file",
		"recommend_session_file":          "recommendation.theatre_capacity_limits.session_file",
		"recommend_control_enabled":       "recommendation.control_group.enabled",
		"recommend_control_percentage":    "recommendation.control_group.percentage",
		"recommend_control_seed":          "recommendation.control_group.random_seed",
		"recommend_control_suffix":        "recommendation.control_group.file_suffix",
		"recommend_control_output_dir":    "recommendation.control_group.output_directory",
		"recommend_control_property":      "recommendation.control_group.neo4j_property",
		"recommend_custom_rules_enabled":  "recommendation.rules_config.custom_rules.enabled",
		"recommend_applicable_events":     "recommendation.rules_config.custom_rules.applicable_events",
		"recommend_rule_priority":         "recommendation.rules_config.priority",
		"recommend_export_visitor_fields": "recommendation.export_additional_visitor_fields",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"metrics_enabled":     "metrics.enabled",
		"metrics_listen_addr": "metrics.listen_addr",
	}

	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
