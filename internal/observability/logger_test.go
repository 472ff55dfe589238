// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
}

func TestNewLogger(t *testing.T) {
	t.Run("json format", func(t *testing.T) {
		logger := NewLogger(types.LoggingConfig{Level: "debug", Format: "json"})
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})

	t.Run("console format", func(t *testing.T) {
		logger := NewLogger(types.LoggingConfig{Level: "info", Format: "console"})
		assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	})
}

func TestWithPaper(t *testing.T) {
	base := NewLogger(types.LoggingConfig{Level: "info", Format: "json"})
	logger := WithPaper(base, "12345", "PMC99")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}
