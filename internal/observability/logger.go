// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package observability builds the structured logger shared by every
// component of the pipeline.
package observability

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/pkg/types"
)

// NewLogger creates a zerolog logger per configuration. Console format
// writes human-readable lines; anything else emits JSON.
func NewLogger(cfg types.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out = zerolog.New(os.Stderr)
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	return out.With().Timestamp().Logger().Level(parseLevel(cfg.Level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithProject adds the project directory name to a logger.
func WithProject(logger zerolog.Logger, project string) zerolog.Logger {
	return logger.With().Str("project", project).Logger()
}

// WithStep adds the pipeline stage number to a logger.
func WithStep(logger zerolog.Logger, step int) zerolog.Logger {
	return logger.With().Int("step", step).Logger()
}

// WithPaper adds paper identifiers to a logger.
func WithPaper(logger zerolog.Logger, pmid, pmcid string) zerolog.Logger {
	ctx := logger.With().Str("pmid", pmid)
	if pmcid != "" {
		ctx = ctx.Str("pmcid", pmcid)
	}
	return ctx.Logger()
}
