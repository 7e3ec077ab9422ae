// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package recommend

import (
	"math"
	"math/rand"
	"sort"
)

// splitControlGroup withholds a random cohort of eligible visitors from the
// primary payload set for A/B measurement. Eligible means at least one
// surviving recommendation. The draw takes round(eligible * percentage)
// visitors, minimum 1 when any are eligible; withheld payloads are moved to
// the returned map with their control flag set. The stage is gated on the
// control-group config, and the caller additionally gates it on primary mode.
//
// Badge ids are sorted before the draw so a fixed seed reproduces the same
// cohort regardless of map iteration order.
func (e *Engine) splitControlGroup(payloads map[string]*Payload) map[string]*Payload {
	cg := e.cfg.ControlGroup
	if !cg.Enabled || cg.Percentage <= 0 {
		return nil
	}

	eligible := make([]string, 0, len(payloads))
	for badge, p := range payloads {
		if len(p.Filtered) > 0 {
			eligible = append(eligible, badge)
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	sort.Strings(eligible)

	size := int(math.Round(float64(len(eligible)) * cg.Percentage))
	if size < 1 {
		size = 1
	}
	if size > len(eligible) {
		size = len(eligible)
	}

	rng := e.rng
	if cg.RandomSeed != 0 {
		rng = rand.New(rand.NewSource(cg.RandomSeed))
	}

	control := make(map[string]*Payload, size)
	for _, idx := range rng.Perm(len(eligible))[:size] {
		badge := eligible[idx]
		p := payloads[badge]
		p.ControlGroup = 1
		p.Notes = append(p.Notes, "withheld into control group")
		control[badge] = p
		delete(payloads, badge)
	}

	e.logger.Info().
		Int("eligible", len(eligible)).
		Int("control_group_size", size).
		Float64("percentage", cg.Percentage).
		Msg("control group withheld from primary deliverable")

	return control
}
