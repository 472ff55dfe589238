// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	return s.text, s.err
}

func longText(words int) string {
	return strings.TrimSpace(strings.Repeat("word ", words))
}

func TestProcessWritesText(t *testing.T) {
	cfg := types.FulltextConfig{MaxWords: 1000}
	proc := NewProcessor(cfg, &stubExtractor{text: longText(200)}, zerolog.Nop())

	txtPath := filepath.Join(t.TempDir(), "fulltext", "111.txt")
	count, err := proc.Process(context.Background(), "in.pdf", txtPath)
	require.NoError(t, err)
	assert.Equal(t, 200, count)

	data, err := os.ReadFile(txtPath)
	require.NoError(t, err)
	assert.Equal(t, 200, wordCount(string(data)))
}

func TestProcessRejectsEmptyExtraction(t *testing.T) {
	proc := NewProcessor(types.FulltextConfig{}, &stubExtractor{text: "too short"}, zerolog.Nop())
	_, err := proc.Process(context.Background(), "in.pdf", filepath.Join(t.TempDir(), "out.txt"))
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestProcessReducesOversizedText(t *testing.T) {
	cfg := types.FulltextConfig{MaxWords: 100}
	proc := NewProcessor(cfg, &stubExtractor{text: longText(500)}, zerolog.Nop())

	txtPath := filepath.Join(t.TempDir(), "out.txt")
	count, err := proc.Process(context.Background(), "in.pdf", txtPath)
	require.NoError(t, err)
	assert.LessOrEqual(t, count, 102)

	data, err := os.ReadFile(txtPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[content truncated]")
}

func TestProcessWarnsOnUnstructuredText(t *testing.T) {
	var logs strings.Builder
	logger := zerolog.New(&logs)
	proc := NewProcessor(types.FulltextConfig{}, &stubExtractor{text: longText(60)}, logger)

	_, err := proc.Process(context.Background(), "in.pdf", filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "no section headings")

	logs.Reset()
	structured := "Introduction\n" + longText(60)
	proc = NewProcessor(types.FulltextConfig{}, &stubExtractor{text: structured}, logger)
	_, err = proc.Process(context.Background(), "in.pdf", filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "no section headings")
}

func TestReduceToKeySections(t *testing.T) {
	t.Run("drops references", func(t *testing.T) {
		text := longText(80) + "\n\nReferences\n" + longText(400)
		reduced := ReduceToKeySections(text, 100)
		assert.Equal(t, 80, wordCount(reduced))
		assert.NotContains(t, reduced, "References")
	})

	t.Run("caps word count", func(t *testing.T) {
		reduced := ReduceToKeySections(longText(500), 100)
		// 100 content words plus the truncation marker.
		assert.Equal(t, 102, wordCount(reduced))
		assert.True(t, strings.HasSuffix(reduced, "[content truncated]"))
	})

	t.Run("leaves short text alone", func(t *testing.T) {
		text := longText(50)
		assert.Equal(t, text, ReduceToKeySections(text, 100))
	})
}

func TestNormalizeText(t *testing.T) {
	in := "line one  \n\n\n\n\fline two\t\n"
	out := normalizeText(in)
	assert.Equal(t, "line one\n\nline two", out)
}

func TestHasSectionHeadings(t *testing.T) {
	assert.True(t, HasSectionHeadings("Title\n\nIntroduction\nSome text"))
	assert.True(t, HasSectionHeadings("1. Methods\ndetails"))
	assert.False(t, HasSectionHeadings("just a blob of text with no structure"))
}
