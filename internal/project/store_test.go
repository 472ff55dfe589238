// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package project

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"CRISPR gene editing", "crispr_gene_editing"},
		{"p53 & cancer: a review!", "p53_cancer_a_review"},
		{"  spaces  ", "spaces"},
		{"", "query"},
		{"???", "query"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeQuery(tt.in), "query %q", tt.in)
	}

	long := SanitizeQuery(strings.Repeat("cardiomyopathy ", 10))
	assert.LessOrEqual(t, len(long), 50)
	assert.False(t, strings.HasSuffix(long, "_"))
}

func TestCreate(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	path, err := store.Create("CRISPR gene editing", now)
	require.NoError(t, err)

	assert.Equal(t, "20260314_092653_crispr_gene_editing", filepath.Base(path))
	for _, dir := range []string{SearchDir, PDFDir, ImageDir, PromptsDir, OverviewDir, ReportDir, FinalOutputDir} {
		info, err := os.Stat(filepath.Join(path, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	summary, err := store.ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, "CRISPR gene editing", summary.SearchQuery)
	assert.Equal(t, types.StatusInProgress, summary.Status)
	assert.Equal(t, 0, summary.CurrentStep)
}

func TestUpdateStatus(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	path, err := store.Create("test query", time.Now())
	require.NoError(t, err)

	require.NoError(t, store.UpdateStatus(path, "step3_completed", 3))

	summary, err := store.ReadSummary(path)
	require.NoError(t, err)
	assert.Equal(t, "step3_completed", summary.Status)
	assert.Equal(t, 3, summary.CurrentStep)
	assert.Equal(t, "test query", summary.SearchQuery)
	assert.False(t, summary.LastUpdated.Before(summary.CreatedTime))
}

func TestReadSummaryErrors(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := store.ReadSummary(filepath.Join(store.OutputDir(), "nope"))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("corrupt", func(t *testing.T) {
		path, err := store.Create("q", time.Now())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(path, SummaryFile), []byte("{not json"), 0o644))

		_, err = store.ReadSummary(path)
		var corrupt *CorruptArtifactError
		assert.ErrorAs(t, err, &corrupt)
	})
}

func TestArtifactRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	path, err := store.Create("q", time.Now())
	require.NoError(t, err)

	art := types.SearchArtifact{
		Success:       true,
		Query:         "q",
		TotalFound:    2,
		ReturnedCount: 1,
		Papers:        []types.Paper{{PMID: "1", Title: "T"}},
	}
	require.NoError(t, store.WriteArtifact(path, SearchFile, art))
	assert.True(t, store.HasArtifact(path, SearchFile))

	var got types.SearchArtifact
	require.NoError(t, store.ReadArtifact(path, SearchFile, &got))
	assert.Equal(t, art.Query, got.Query)
	assert.Len(t, got.Papers, 1)

	var missing types.DetailsArtifact
	err = store.ReadArtifact(path, DetailsFile, &missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	path, err := store.Create("resolve me", time.Now())
	require.NoError(t, err)

	byName, err := store.Resolve(filepath.Base(path))
	require.NoError(t, err)
	assert.Equal(t, path, byName)

	byPath, err := store.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, byPath)

	_, err = store.Resolve("does_not_exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	older, err := store.Create("older project", time.Now())
	require.NoError(t, err)
	newer, err := store.Create("newer project", time.Now().Add(time.Second))
	require.NoError(t, err)

	// Separate the directory mtimes so ordering is deterministic.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	// A random directory without a summary or stage 1 artifact is skipped.
	require.NoError(t, os.Mkdir(filepath.Join(store.OutputDir(), "stray"), 0o755))

	projects, err := store.List()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, filepath.Base(newer), projects[0].Name)
	assert.Equal(t, filepath.Base(older), projects[1].Name)

	t.Run("summary-less project with stage artifact", func(t *testing.T) {
		bare := filepath.Join(store.OutputDir(), "bare_project")
		require.NoError(t, os.MkdirAll(filepath.Join(bare, SearchDir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(bare, SearchFile), []byte("{}"), 0o644))

		projects, err := store.List()
		require.NoError(t, err)
		require.Len(t, projects, 3)
	})

	t.Run("corrupt summary listed as error", func(t *testing.T) {
		broken, err := store.Create("broken", time.Now())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(broken, SummaryFile), []byte("!!"), 0o644))

		projects, err := store.List()
		require.NoError(t, err)

		var found bool
		for _, p := range projects {
			if p.Name == filepath.Base(broken) {
				found = true
				assert.Equal(t, types.StatusError, p.Summary.Status)
			}
		}
		assert.True(t, found)
	})
}
