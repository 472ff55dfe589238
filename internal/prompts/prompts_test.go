// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

func writeFulltext(t *testing.T, projectPath, pmid, text string) string {
	t.Helper()
	rel := filepath.Join("step2_details", "pdfs", pmid+".txt")
	full := filepath.Join(projectPath, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(text), 0o644))
	return rel
}

func TestSelectContent(t *testing.T) {
	projectPath := t.TempDir()
	rel := writeFulltext(t, projectPath, "111", "the full article text goes here")

	t.Run("fulltext when extraction succeeded", func(t *testing.T) {
		paper := types.Paper{
			PMID:           "111",
			Abstract:       "the abstract",
			FulltextPath:   rel,
			FulltextStatus: types.FulltextSuccess,
		}
		content := SelectContent(paper, projectPath)
		assert.Equal(t, types.ContentFulltext, content.Source)
		assert.Equal(t, "FULLTEXT", content.SourceTag())
		assert.Equal(t, "the full article text goes here", content.Text)
	})

	t.Run("abstract when no fulltext", func(t *testing.T) {
		paper := types.Paper{PMID: "222", Abstract: "the abstract", FulltextStatus: types.FulltextNoPMCID}
		content := SelectContent(paper, projectPath)
		assert.Equal(t, types.ContentAbstract, content.Source)
		assert.Equal(t, "the abstract", content.Text)
		assert.Equal(t, "ABSTRACT - no open-access full text", content.SourceTag())
	})

	t.Run("abstract when fulltext file missing", func(t *testing.T) {
		paper := types.Paper{
			PMID:           "333",
			Abstract:       "the abstract",
			FulltextPath:   "step2_details/pdfs/gone.txt",
			FulltextStatus: types.FulltextSuccess,
		}
		content := SelectContent(paper, projectPath)
		assert.Equal(t, types.ContentAbstract, content.Source)
		assert.Equal(t, "ABSTRACT - full text unreadable", content.SourceTag())
	})

	t.Run("deterministic", func(t *testing.T) {
		paper := types.Paper{
			PMID:           "111",
			Abstract:       "the abstract",
			FulltextPath:   rel,
			FulltextStatus: types.FulltextSuccess,
		}
		first := SelectContent(paper, projectPath)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, SelectContent(paper, projectPath))
		}
	})
}

// Each enrichment failure mode falls back to the abstract with its own
// reason in the provenance tag, never a bare ABSTRACT tag.
func TestSourceTagCarriesFallbackReason(t *testing.T) {
	want := map[string]string{
		types.FulltextNoPMCID:        "ABSTRACT - no open-access full text",
		types.FulltextDownloadFailed: "ABSTRACT - PDF download failed",
		types.FulltextExtractFailed:  "ABSTRACT - PDF text extraction failed",
	}

	projectPath := t.TempDir()
	tags := make(map[string]bool)
	for status, tag := range want {
		paper := types.Paper{PMID: "1", Abstract: "the abstract", FulltextStatus: status}
		content := SelectContent(paper, projectPath)
		assert.Equal(t, tag, content.SourceTag(), "status %s", status)
		tags[content.SourceTag()] = true
	}
	assert.Len(t, tags, len(want), "fallback reasons must be distinguishable")

	// Missing status (fulltext fetch disabled) keeps the plain tag.
	content := SelectContent(types.Paper{PMID: "2", Abstract: "a"}, projectPath)
	assert.Equal(t, "ABSTRACT", content.SourceTag())
}

func TestTruncateWords(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("w ", 50))

	got, truncated := TruncateWords(text, 10)
	assert.True(t, truncated)
	assert.Equal(t, 10, len(strings.Fields(got)))

	got, truncated = TruncateWords(text, 50)
	assert.False(t, truncated)
	assert.Equal(t, text, got)

	got, truncated = TruncateWords(text, 0)
	assert.False(t, truncated)
	assert.Equal(t, text, got)
}

func TestGenerate(t *testing.T) {
	projectPath := t.TempDir()
	rel := writeFulltext(t, projectPath, "111", strings.TrimSpace(strings.Repeat("body ", 60)))

	gen, err := NewGenerator(types.PromptConfig{MaxWordsPerPaper: 100}, zerolog.Nop())
	require.NoError(t, err)

	papers := []types.Paper{
		{
			PMID: "111", Title: "Fulltext paper", Authors: []string{"Jane Smith", "Bob Lee"},
			Journal: "Nature", PubDate: "2024", DOI: "10.1/a",
			FulltextPath: rel, FulltextStatus: types.FulltextSuccess,
		},
		{
			PMID: "222", Title: "Abstract-only paper", Abstract: "just the abstract",
			FulltextStatus: types.FulltextNoPMCID,
		},
	}
	figures := []types.PaperFigures{
		{PMID: "111", Figures: []types.Figure{{}, {}}},
	}

	promptDir := filepath.Join(projectPath, "step4_prompts")
	infos, err := gen.Generate("my topic", papers, figures, projectPath, promptDir)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	first := infos[0]
	assert.Equal(t, types.ContentFulltext, first.ContentSource)
	assert.True(t, first.HasFigures)
	assert.Equal(t, 2, first.FigureCount)
	assert.Contains(t, first.Prompt, "[SOURCE: FULLTEXT]")
	assert.Contains(t, first.Prompt, "Jane Smith, Bob Lee")
	assert.Contains(t, first.Prompt, "my topic")
	assert.Contains(t, first.Prompt, "DOI: 10.1/a")

	second := infos[1]
	assert.Equal(t, types.ContentAbstract, second.ContentSource)
	assert.False(t, second.HasFigures)
	assert.Contains(t, second.Prompt, "[SOURCE: ABSTRACT - no open-access full text]")
	assert.Contains(t, second.Prompt, "just the abstract")

	// Prompt files land on disk and match the inline text.
	data, err := os.ReadFile(filepath.Join(promptDir, "prompt_111.txt"))
	require.NoError(t, err)
	assert.Equal(t, first.Prompt, string(data))

	ft, ab := CountSources(infos)
	assert.Equal(t, 1, ft)
	assert.Equal(t, 1, ab)
}

func TestBuildOverview(t *testing.T) {
	projectPath := t.TempDir()
	rel := writeFulltext(t, projectPath, "111", strings.TrimSpace(strings.Repeat("word ", 200)))

	gen, err := NewGenerator(types.PromptConfig{MaxWordsPerPaper: 50}, zerolog.Nop())
	require.NoError(t, err)

	papers := []types.Paper{
		{
			PMID: "111", Title: "Long paper", Authors: []string{"A One", "B Two", "C Three"},
			Journal: "Cell", FulltextPath: rel, FulltextStatus: types.FulltextSuccess,
		},
		{PMID: "222", Title: "Short paper", Abstract: "tiny abstract", Authors: []string{"Solo Author"}},
	}

	result, err := gen.BuildOverview("my topic", papers, projectPath)
	require.NoError(t, err)

	assert.Equal(t, 1, result.FulltextCount)
	assert.Equal(t, 1, result.AbstractCount)
	assert.Equal(t, 1, result.TruncatedCount)
	require.Len(t, result.Entries, 2)
	assert.True(t, result.Entries[0].Truncated)
	assert.Equal(t, "A One et al.", result.Entries[0].AuthorsShort)
	assert.False(t, result.Entries[1].Truncated)
	assert.Equal(t, "Solo Author", result.Entries[1].AuthorsShort)

	data, err := os.ReadFile(result.PromptPath)
	require.NoError(t, err)
	prompt := string(data)
	assert.Equal(t, len(prompt), result.PromptCharLen)
	assert.Contains(t, prompt, "my topic")
	assert.Contains(t, prompt, "--- Paper 1 of 2 ---")
	assert.Contains(t, prompt, "[SOURCE: FULLTEXT]")
	assert.Contains(t, prompt, "[SOURCE: ABSTRACT]")
	assert.Contains(t, prompt, "[truncated at 50 words]")

	// The long paper's section carries exactly the capped word count
	// between its tag and the truncation marker.
	start := strings.Index(prompt, "[SOURCE: FULLTEXT]")
	end := strings.Index(prompt, "[truncated at 50 words]")
	require.Greater(t, end, start)
	section := prompt[start+len("[SOURCE: FULLTEXT]") : end]
	assert.Equal(t, 50, len(strings.Fields(section)))
}

func TestLoadTemplatesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paper: |\n  CUSTOM {{.PMID}}\n"), 0o644))

	templates, err := LoadTemplates(path)
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, templates.Paper.Execute(&sb, paperData{PMID: "42"}))
	assert.Equal(t, "CUSTOM 42\n", sb.String())

	// Overview keeps the default when the file does not set it.
	sb.Reset()
	require.NoError(t, templates.Overview.Execute(&sb, overviewData{Query: "q", PaperCount: 1}))
	assert.Contains(t, sb.String(), "literature overview")
}

func TestLoadTemplatesBadFile(t *testing.T) {
	_, err := LoadTemplates(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
