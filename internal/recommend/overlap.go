// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"sort"
	"time"
)

// Date and clock layouts seen in upstream session catalogs. Parsing tries each
// in order.
var (
	dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02"}
	timeLayouts = []string{"15:04", "15:04:05", "3:04 PM"}
)

// sessionInterval parses a session's [start, end) interval. ok is false when
// any of date, start or end time fails to parse, or when the interval is
// inverted; such sessions are treated as non-overlapping with everything.
func sessionInterval(s *Session) (start, end time.Time, ok bool) {
	day, ok := parseFirst(s.Date, dateLayouts)
	if !ok {
		return start, end, false
	}
	st, ok := parseFirst(s.StartTime, timeLayouts)
	if !ok {
		return start, end, false
	}
	et, ok := parseFirst(s.EndTime, timeLayouts)
	if !ok {
		return start, end, false
	}

	start = day.Add(time.Duration(st.Hour())*time.Hour + time.Duration(st.Minute())*time.Minute)
	end = day.Add(time.Duration(et.Hour())*time.Hour + time.Duration(et.Minute())*time.Minute)
	if !end.After(start) {
		return start, end, false
	}
	return start, end, true
}

func parseFirst(value string, layouts []string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// intervalsOverlap reports whether two half-open intervals intersect.
func intervalsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// annotateOverlaps fills each recommendation's OverlapsWith with the session
// ids it conflicts with in time. The annotation is written regardless of
// whether overlap resolution runs, so exports always surface conflicts.
func annotateOverlaps(recs []Recommendation) {
	type parsed struct {
		start, end time.Time
		ok         bool
	}
	intervals := make([]parsed, len(recs))
	for i := range recs {
		s, e, ok := sessionInterval(&recs[i].Session)
		intervals[i] = parsed{s, e, ok}
		recs[i].OverlapsWith = nil
	}

	for i := range recs {
		if !intervals[i].ok {
			continue
		}
		for j := range recs {
			if i == j || !intervals[j].ok {
				continue
			}
			if intervalsOverlap(intervals[i].start, intervals[i].end, intervals[j].start, intervals[j].end) {
				recs[i].OverlapsWith = append(recs[i].OverlapsWith, recs[j].Session.ID)
			}
		}
	}
}

// resolveOverlaps drops the lower-scoring of any two temporally overlapping
// entries. Candidates are processed in their similarity-ranked order against
// an incrementally built kept set: a newcomer that overlaps a kept entry with
// similarity >= its own is dropped; otherwise it evicts every lower-similarity
// overlapping kept entry. Sessions with unparseable date or time are never
// dropped. The survivors are re-sorted by similarity descending.
func resolveOverlaps(recs []Recommendation) []Recommendation {
	if len(recs) < 2 {
		return recs
	}

	type keptEntry struct {
		rec        Recommendation
		start, end time.Time
		ok         bool
	}

	var kept []keptEntry
	for _, r := range recs {
		start, end, ok := sessionInterval(&r.Session)
		if !ok {
			kept = append(kept, keptEntry{rec: r})
			continue
		}

		dominated := false
		var overlapping []int
		for i, k := range kept {
			if k.ok && intervalsOverlap(start, end, k.start, k.end) {
				if k.rec.Similarity >= r.Similarity {
					dominated = true
					break
				}
				overlapping = append(overlapping, i)
			}
		}
		if dominated {
			continue
		}

		if len(overlapping) > 0 {
			filtered := kept[:0]
			drop := make(map[int]bool, len(overlapping))
			for _, i := range overlapping {
				drop[i] = true
			}
			for i, k := range kept {
				if !drop[i] {
					filtered = append(filtered, k)
				}
			}
			kept = filtered
		}
		kept = append(kept, keptEntry{rec: r, start: start, end: end, ok: true})
	}

	out := make([]Recommendation, len(kept))
	for i, k := range kept {
		out[i] = k.rec
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}
