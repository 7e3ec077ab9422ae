// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// exportDocument is the on-disk JSON shape of a run deliverable.
type exportDocument struct {
	// GeneratedAt is the run completion time.
	GeneratedAt time.Time `json:"generated_at"`

	// RunID identifies the run across the JSON/CSV pair.
	RunID string `json:"run_id"`

	// Show is the show identifier the run was scoped to.
	Show string `json:"show"`

	// Mode is the operating mode of the run.
	Mode string `json:"mode"`

	// Config is the engine configuration snapshot that produced the run.
	Config *Config `json:"config"`

	// Capacity carries the capacity-enforcement summary, when enabled.
	Capacity *CapacityStats `json:"theatre_capacity_stats,omitempty"`

	// Payloads maps badge id to the per-visitor result.
	Payloads map[string]*Payload `json:"recommendations"`

	// Stats is the aggregated run statistics block.
	Stats RunStats `json:"stats"`
}

// exportRun writes the primary JSON file, the optional flattened CSV, and the
// control-group file pair when a control cohort exists. Returns the paths
// written.
func (e *Engine) exportRun(result *RunResult) ([]string, error) {
	stamp := result.GeneratedAt.Format("20060102_150405")
	base := fmt.Sprintf("recommendations_%s_%s", sanitizeFileToken(e.cfg.ShowID), stamp)

	paths, err := e.writePayloadSet(e.cfg.OutputDirectory, base, result, result.Payloads)
	if err != nil {
		return paths, err
	}

	if len(result.ControlPayloads) > 0 {
		dir := e.cfg.ControlGroup.OutputDirectory
		if dir == "" {
			dir = e.cfg.OutputDirectory
		}
		controlPaths, err := e.writePayloadSet(dir, base+e.cfg.ControlGroup.FileSuffix, result, result.ControlPayloads)
		paths = append(paths, controlPaths...)
		if err != nil {
			return paths, err
		}
	}

	return paths, nil
}

// writePayloadSet writes one JSON file, plus a CSV when save_csv is set, for
// the given payload map.
func (e *Engine) writePayloadSet(dir, base string, result *RunResult, payloads map[string]*Payload) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	doc := exportDocument{
		GeneratedAt: result.GeneratedAt,
		RunID:       result.RunID,
		Show:        e.cfg.ShowID,
		Mode:        e.cfg.Mode,
		Config:      e.cfg,
		Capacity:    result.Capacity,
		Payloads:    payloads,
		Stats:       result.Stats,
	}

	jsonPath := filepath.Join(dir, base+".json")
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", jsonPath, err)
	}
	paths := []string{jsonPath}

	if e.cfg.SaveCSV {
		csvPath := filepath.Join(dir, base+".csv")
		if err := e.writeCSV(csvPath, payloads); err != nil {
			return paths, err
		}
		paths = append(paths, csvPath)
	}

	return paths, nil
}

// writeCSV flattens payloads to one row per (visitor, recommended session)
// pair. Visitors with zero recommendations are omitted from the CSV; the JSON
// export remains the complete record.
func (e *Engine) writeCSV(path string, payloads map[string]*Payload) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"badge_id", "job_role", "practice_type", "company", "country",
	}
	header = append(header, e.cfg.ExportAdditionalVisitorFields...)
	header = append(header,
		"session_id", "session_title", "stream", "theatre", "date",
		"start_time", "end_time", "similarity_score", "population_source",
		"overlapping_sessions", "control_group",
	)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	badges := sortedBadges(payloads)
	for _, badge := range badges {
		p := payloads[badge]
		for _, rec := range p.Filtered {
			row := []string{
				p.Visitor.BadgeID, p.Visitor.JobRole, p.Visitor.PracticeType,
				p.Visitor.Company, p.Visitor.Country,
			}
			for _, field := range e.cfg.ExportAdditionalVisitorFields {
				row = append(row, p.Visitor.Field(field))
			}
			row = append(row,
				rec.Session.ID, rec.Session.Title, rec.Session.Stream,
				rec.Session.Theatre, rec.Session.Date,
				rec.Session.StartTime, rec.Session.EndTime,
				strconv.FormatFloat(rec.Similarity, 'f', 4, 64),
				p.Source,
				strings.Join(rec.OverlapsWith, "|"),
				strconv.Itoa(p.ControlGroup),
			)
			if err := w.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}

	w.Flush()
	return w.Error()
}

// sortedBadges returns the payload keys in stable order for deterministic
// file contents.
func sortedBadges(payloads map[string]*Payload) []string {
	badges := make([]string, 0, len(payloads))
	for badge := range payloads {
		badges = append(badges, badge)
	}
	sort.Strings(badges)
	return badges
}

// sanitizeFileToken makes a show identifier safe for filenames.
func sanitizeFileToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
