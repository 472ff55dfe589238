// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/pkg/types"
)

// Generator renders and persists the per-paper analysis prompts.
type Generator struct {
	cfg       types.PromptConfig
	templates *Templates
	logger    zerolog.Logger
}

// NewGenerator creates a Generator, loading any configured template
// override file.
func NewGenerator(cfg types.PromptConfig, logger zerolog.Logger) (*Generator, error) {
	templates, err := LoadTemplates(cfg.TemplateFile)
	if err != nil {
		return nil, err
	}
	return &Generator{cfg: cfg, templates: templates, logger: logger}, nil
}

// paperData is the template context for one per-paper prompt.
type paperData struct {
	PMID        string
	Title       string
	Authors     string
	Journal     string
	PubDate     string
	DOI         string
	Query       string
	SourceTag   string
	Content     string
	HasFigures  bool
	FigureCount int
}

// Generate renders one prompt per paper into promptDir and returns the
// artifact records in paper order. Figure counts come from the stage 3
// records, matched by PMID.
func (g *Generator) Generate(query string, papers []types.Paper, figures []types.PaperFigures, projectPath, promptDir string) ([]types.PromptInfo, error) {
	if err := os.MkdirAll(promptDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating prompt directory: %w", err)
	}

	figureCounts := make(map[string]int, len(figures))
	for _, pf := range figures {
		figureCounts[pf.PMID] = len(pf.Figures)
	}

	infos := make([]types.PromptInfo, 0, len(papers))
	for _, paper := range papers {
		content := SelectContent(paper, projectPath)

		data := paperData{
			PMID:        paper.PMID,
			Title:       paper.Title,
			Authors:     strings.Join(paper.Authors, ", "),
			Journal:     paper.Journal,
			PubDate:     paper.PubDate,
			DOI:         paper.DOI,
			Query:       query,
			SourceTag:   content.SourceTag(),
			Content:     content.Text,
			HasFigures:  figureCounts[paper.PMID] > 0,
			FigureCount: figureCounts[paper.PMID],
		}

		var sb strings.Builder
		if err := g.templates.Paper.Execute(&sb, data); err != nil {
			return nil, fmt.Errorf("rendering prompt for %s: %w", paper.PMID, err)
		}
		prompt := sb.String()

		fileName := "prompt_" + paper.PMID + ".txt"
		if err := os.WriteFile(filepath.Join(promptDir, fileName), []byte(prompt), 0o644); err != nil {
			return nil, fmt.Errorf("writing prompt for %s: %w", paper.PMID, err)
		}

		g.logger.Debug().Str("pmid", paper.PMID).Str("source", content.Source).
			Msg("generated paper prompt")

		infos = append(infos, types.PromptInfo{
			PMID:          paper.PMID,
			Title:         paper.Title,
			Prompt:        prompt,
			PromptFile:    filepath.Join(filepath.Base(promptDir), fileName),
			ContentSource: content.Source,
			HasFigures:    data.HasFigures,
			FigureCount:   data.FigureCount,
		})
	}
	return infos, nil
}

// CountSources tallies how many prompts drew on full text versus
// abstracts.
func CountSources(infos []types.PromptInfo) (fulltext, abstract int) {
	for _, info := range infos {
		switch info.ContentSource {
		case types.ContentFulltext:
			fulltext++
		case types.ContentAbstract:
			abstract++
		}
	}
	return fulltext, abstract
}
