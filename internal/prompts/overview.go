// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// Overview artifacts, relative to the project directory.
const (
	OverviewPromptFile = "step5_overview/merged_prompt.txt"
	PapersListFile     = "step5_overview/papers_list.json"
)

// OverviewResult is what BuildOverview persists and reports.
type OverviewResult struct {
	PromptPath     string
	PromptCharLen  int
	FulltextCount  int
	AbstractCount  int
	TruncatedCount int
	Entries        []types.PapersListEntry
}

// overviewData is the template context for the merged prompt.
type overviewData struct {
	Query         string
	PaperCount    int
	PaperSections string
}

// BuildOverview renders the merged overview prompt covering every paper
// and writes it to projectPath. Each paper contributes one section,
// tagged with its content source and capped at the configured per-paper
// word count with an explicit truncation marker.
func (g *Generator) BuildOverview(query string, papers []types.Paper, projectPath string) (*OverviewResult, error) {
	result := &OverviewResult{
		Entries: make([]types.PapersListEntry, 0, len(papers)),
	}

	var sections strings.Builder
	for i, paper := range papers {
		content := SelectContent(paper, projectPath)
		text, truncated := TruncateWords(content.Text, g.cfg.MaxWordsPerPaper)
		if truncated {
			text += "\n[truncated at " + fmt.Sprint(g.cfg.MaxWordsPerPaper) + " words]"
			result.TruncatedCount++
		}

		switch content.Source {
		case types.ContentFulltext:
			result.FulltextCount++
		case types.ContentAbstract:
			result.AbstractCount++
		}

		authorsShort := paper.AuthorsShort
		if authorsShort == "" {
			authorsShort = types.ShortAuthors(paper.Authors)
		}

		fmt.Fprintf(&sections, "--- Paper %d of %d ---\n", i+1, len(papers))
		fmt.Fprintf(&sections, "Title: %s\n", paper.Title)
		fmt.Fprintf(&sections, "Authors: %s\n", authorsShort)
		fmt.Fprintf(&sections, "Journal: %s", paper.Journal)
		if paper.PubDate != "" {
			fmt.Fprintf(&sections, " (%s)", paper.PubDate)
		}
		sections.WriteString("\n")
		fmt.Fprintf(&sections, "PMID: %s\n", paper.PMID)
		if paper.DOI != "" {
			fmt.Fprintf(&sections, "DOI: %s\n", paper.DOI)
		}
		fmt.Fprintf(&sections, "[SOURCE: %s]\n\n%s\n\n", content.SourceTag(), text)

		result.Entries = append(result.Entries, types.PapersListEntry{
			PMID:          paper.PMID,
			Title:         paper.Title,
			AuthorsShort:  authorsShort,
			Journal:       paper.Journal,
			PubDate:       paper.PubDate,
			DOI:           paper.DOI,
			ContentSource: content.Source,
			Truncated:     truncated,
		})
	}

	data := overviewData{
		Query:         query,
		PaperCount:    len(papers),
		PaperSections: strings.TrimRight(sections.String(), "\n"),
	}

	var sb strings.Builder
	if err := g.templates.Overview.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("rendering overview prompt: %w", err)
	}
	prompt := sb.String()

	promptPath := filepath.Join(projectPath, OverviewPromptFile)
	if err := os.MkdirAll(filepath.Dir(promptPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating overview directory: %w", err)
	}
	if err := os.WriteFile(promptPath, []byte(prompt), 0o644); err != nil {
		return nil, fmt.Errorf("writing overview prompt: %w", err)
	}

	result.PromptPath = promptPath
	result.PromptCharLen = len(prompt)
	return result, nil
}
