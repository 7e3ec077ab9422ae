// Eventgraph Recommender - Conference Knowledge Graph Session Recommendations
// Copyright 2026 Eventgraph contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/eventgraph/recommender

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"DEBUG", zerolog.DebugLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInit(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })

	t.Run("json output", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: "debug", Format: "json", Output: &buf})

		Info().Str("key", "value").Msg("test message")

		out := buf.String()
		if !strings.Contains(out, `"key":"value"`) {
			t.Errorf("output missing structured field: %s", out)
		}
		if !strings.Contains(out, `"message":"test message"`) {
			t.Errorf("output missing message: %s", out)
		}
	})

	t.Run("level filters lower events", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: "warn", Format: "json", Output: &buf})

		Debug().Msg("dropped")
		Info().Msg("also dropped")
		Warn().Msg("kept")

		out := buf.String()
		if strings.Contains(out, "dropped") {
			t.Errorf("events below threshold leaked: %s", out)
		}
		if !strings.Contains(out, "kept") {
			t.Errorf("warn event missing: %s", out)
		}
	})

	t.Run("console format is human readable", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Level: "info", Format: "console", Output: &buf})

		Info().Msg("console line")

		out := buf.String()
		if strings.Contains(out, `"message"`) {
			t.Errorf("console output looks like JSON: %s", out)
		}
		if !strings.Contains(out, "console line") {
			t.Errorf("console output missing message: %s", out)
		}
	})

	t.Run("empty fields fall back to defaults", func(t *testing.T) {
		var buf bytes.Buffer
		Init(Config{Output: &buf})

		Debug().Msg("below default level")
		Info().Msg("at default level")

		out := buf.String()
		if strings.Contains(out, "below default level") {
			t.Errorf("debug event leaked at default info level: %s", out)
		}
		if !strings.Contains(out, "at default level") {
			t.Errorf("info event missing: %s", out)
		}
	})
}

func TestWith(t *testing.T) {
	t.Cleanup(func() { Init(DefaultConfig()) })

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	child := With().Str("component", "scoring").Logger()
	child.Info().Msg("child event")

	if !strings.Contains(buf.String(), `"component":"scoring"`) {
		t.Errorf("child logger missing component field: %s", buf.String())
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("badge_id", "B1").Msg("captured")

	out := buf.String()
	if !strings.Contains(out, `"badge_id":"B1"`) || !strings.Contains(out, "captured") {
		t.Errorf("test logger output = %s", out)
	}
}
