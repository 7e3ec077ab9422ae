// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// CapacityTable maps normalized theatre names to seat capacities, with an
// optional session-id to theatre join for catalogs whose session nodes carry
// no venue.
type CapacityTable struct {
	// Seats is keyed by normalized theatre name.
	Seats map[string]int

	// SessionTheatre optionally joins session ids to theatre names.
	SessionTheatre map[string]string
}

// LoadCapacityTable reads the venue-capacity CSV (theatre name, seat count)
// and the optional session-join CSV (session id, theatre name). Malformed rows
// are skipped, so a header line needs no special casing. An unreadable
// capacity file is an error; the caller degrades by disabling enforcement.
func LoadCapacityTable(capacityFile, sessionFile string) (*CapacityTable, error) {
	rows, err := readCSVFile(capacityFile)
	if err != nil {
		return nil, fmt.Errorf("capacity file: %w", err)
	}

	table := &CapacityTable{Seats: make(map[string]int)}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		seats, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || seats <= 0 {
			continue
		}
		name := normalizeTheatre(row[0])
		if name != "" {
			table.Seats[name] = seats
		}
	}
	if len(table.Seats) == 0 {
		return nil, fmt.Errorf("capacity file %s: no parseable rows", capacityFile)
	}

	if sessionFile != "" {
		joinRows, err := readCSVFile(sessionFile)
		if err != nil {
			return nil, fmt.Errorf("session file: %w", err)
		}
		table.SessionTheatre = make(map[string]string, len(joinRows))
		for _, row := range joinRows {
			if len(row) < 2 {
				continue
			}
			id := strings.TrimSpace(row[0])
			theatre := strings.TrimSpace(row[1])
			if id != "" && theatre != "" {
				table.SessionTheatre[id] = theatre
			}
		}
	}

	return table, nil
}

func readCSVFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// normalizeTheatre lowercases and collapses whitespace so capacity lookups
// tolerate formatting drift between the catalog and the capacity table.
func normalizeTheatre(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// theatreOf resolves a session's venue, preferring the session-join table.
func (t *CapacityTable) theatreOf(s *Session) string {
	if t.SessionTheatre != nil {
		if theatre, ok := t.SessionTheatre[s.ID]; ok {
			return theatre
		}
	}
	return s.Theatre
}

// slotKey derives the capacity-grouping key for a session. ok is false when
// venue or time metadata is missing, in which case the entry is left
// unconstrained.
func (t *CapacityTable) slotKey(s *Session) (key, theatre string, ok bool) {
	theatre = t.theatreOf(s)
	if theatre == "" || s.Date == "" || s.StartTime == "" {
		return "", theatre, false
	}
	return normalizeTheatre(theatre) + "|" + s.Date + "|" + s.StartTime, theatre, true
}

// slotEntry locates one visitor-recommendation pair inside the global view.
type slotEntry struct {
	badgeID    string
	index      int
	similarity float64
}

// enforceCapacity trims over-subscribed slots across all visitors' filtered
// lists, keeping the highest-similarity entries up to floor(capacity *
// multiplier) per slot. Slots with unknown capacity and sessions without
// resolvable venue or time metadata stay unconstrained and are reported as
// coverage gaps.
func (e *Engine) enforceCapacity(payloads map[string]*Payload, table *CapacityTable) *CapacityStats {
	stats := &CapacityStats{}
	slots := make(map[string][]slotEntry)
	unconstrainedSlots := make(map[string]bool)
	unresolvedSessions := make(map[string]bool)

	for badge, p := range payloads {
		for i, rec := range p.Filtered {
			key, theatre, ok := table.slotKey(&rec.Session)
			if !ok {
				// Count the session once, however many visitors carry it.
				unresolvedSessions[rec.Session.ID] = true
				continue
			}
			if _, known := table.Seats[normalizeTheatre(theatre)]; !known {
				if !unconstrainedSlots[key] {
					unconstrainedSlots[key] = true
					e.logger.Debug().
						Str("theatre", theatre).
						Str("slot", key).
						Msg("no capacity known for theatre, slot unconstrained")
				}
				continue
			}
			slots[key] = append(slots[key], slotEntry{badge, i, rec.Similarity})
		}
	}
	stats.SlotsUnconstrained = len(unconstrainedSlots) + len(unresolvedSessions)
	stats.SlotsConstrained = len(slots)

	toDrop := make(map[string]map[int]bool)
	for key, entries := range slots {
		theatre := strings.SplitN(key, "|", 2)[0]
		capLimit := int(math.Floor(float64(table.Seats[theatre]) * e.cfg.Capacity.CapacityMultiplier))
		if len(entries) <= capLimit {
			continue
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].similarity > entries[j].similarity
		})
		for _, entry := range entries[capLimit:] {
			if toDrop[entry.badgeID] == nil {
				toDrop[entry.badgeID] = make(map[int]bool)
			}
			toDrop[entry.badgeID][entry.index] = true
		}

		e.logger.Info().
			Str("slot", key).
			Int("capacity", capLimit).
			Int("demand", len(entries)).
			Int("removed", len(entries)-capLimit).
			Msg("slot over capacity, trimming lowest-similarity entries")
	}

	for badge, drops := range toDrop {
		p := payloads[badge]
		kept := make([]Recommendation, 0, len(p.Filtered))
		removed := make([]string, 0, len(drops))
		for i, rec := range p.Filtered {
			if drops[i] {
				removed = append(removed, rec.Session.Title)
				continue
			}
			kept = append(kept, rec)
		}
		p.Filtered = kept
		p.Notes = append(p.Notes, fmt.Sprintf("capacity: removed %d over-capacity sessions: %s",
			len(removed), strings.Join(removed, "; ")))

		stats.RecommendationsRemoved += len(removed)
		stats.VisitorsAffected++
	}

	return stats
}
