// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/internal/cache"
	"github.com/pdiddy/litreview/internal/figures"
	"github.com/pdiddy/litreview/internal/observability"
	"github.com/pdiddy/litreview/internal/project"
	"github.com/pdiddy/litreview/internal/prompts"
	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/pkg/types"
)

// step1Search queries PubMed and persists the bibliographic result set.
// Zero hits is a successful outcome with an empty paper list.
func (p *Processor) step1Search(ctx context.Context, projectPath, query string, logger zerolog.Logger) (string, error) {
	resp, err := p.entrez.Search(ctx, query, p.cfg.MaxResults)
	if err != nil {
		return "", fmt.Errorf("searching PubMed: %w", err)
	}

	artifact := types.SearchArtifact{
		Success:       true,
		Query:         query,
		SearchTime:    p.now().UTC(),
		TotalFound:    resp.TotalFound,
		ReturnedCount: len(resp.Papers),
		Papers:        resp.Papers,
	}
	if artifact.Papers == nil {
		artifact.Papers = []types.Paper{}
	}
	if err := p.store.WriteArtifact(projectPath, project.SearchFile, artifact); err != nil {
		return "", err
	}

	logger.Info().Int("total_found", resp.TotalFound).Int("returned", len(resp.Papers)).Msg("search done")
	return fmt.Sprintf("found %d papers (%d total matches)", len(resp.Papers), resp.TotalFound), nil
}

// step2Details enriches the stage 1 papers with PMCID, DOI, and full
// text. Per-paper download or extraction failures degrade that paper to
// its abstract; only batch-level lookup failures fail the stage.
func (p *Processor) step2Details(ctx context.Context, projectPath, query string, logger zerolog.Logger) (string, error) {
	var search types.SearchArtifact
	if err := p.store.ReadArtifact(projectPath, project.SearchFile, &search); err != nil {
		return "", err
	}

	papers := search.Papers
	pmcids, dois, err := p.lookupIdentifiers(ctx, papers, logger)
	if err != nil {
		return "", err
	}

	var stats types.DetailsStats
	stats.TotalPapers = len(papers)

	for i := range papers {
		paper := &papers[i]
		paper.PMCID = pmcids[paper.PMID]
		paper.DOI = dois[paper.PMID]
		paper.AuthorsShort = types.ShortAuthors(paper.Authors)
		paper.HasFreeFulltext = paper.PMCID != ""

		if paper.PMCID == "" {
			stats.PapersWithoutPMC++
			paper.FulltextStatus = types.FulltextNoPMCID
			continue
		}
		stats.PapersWithPMC++

		if !p.cfg.Fulltext.Enabled {
			continue
		}
		p.fetchFulltext(ctx, projectPath, paper, &stats, logger)
	}

	artifact := types.DetailsArtifact{
		Success:     true,
		Query:       query,
		DetailsTime: p.now().UTC(),
		Papers:      papers,
		Stats:       stats,
	}
	if artifact.Papers == nil {
		artifact.Papers = []types.Paper{}
	}
	if err := p.store.WriteArtifact(projectPath, project.DetailsFile, artifact); err != nil {
		return "", err
	}

	logger.Info().Int("with_pmc", stats.PapersWithPMC).Int("with_fulltext", stats.PapersWithFulltext).
		Msg("details done")
	return fmt.Sprintf("%d/%d papers have free full text", stats.PapersWithFulltext, stats.TotalPapers), nil
}

// lookupIdentifiers resolves PMCIDs and DOIs for the batch, consulting
// the enrichment cache first and writing fresh lookups back to it.
func (p *Processor) lookupIdentifiers(ctx context.Context, papers []types.Paper, logger zerolog.Logger) (pmcids, dois map[string]string, err error) {
	pmcids = make(map[string]string, len(papers))
	dois = make(map[string]string, len(papers))

	var cached map[string]cache.Entry
	if p.cache != nil {
		pmids := make([]string, 0, len(papers))
		for _, paper := range papers {
			pmids = append(pmids, paper.PMID)
		}
		var cacheErr error
		if cached, cacheErr = p.cache.GetMany(ctx, pmids); cacheErr != nil {
			logger.Warn().Err(cacheErr).Msg("reading enrichment cache failed")
			cached = nil
		}
	}

	var missing []string
	for _, paper := range papers {
		if entry, ok := cached[paper.PMID]; ok {
			pmcids[paper.PMID] = entry.PMCID
			dois[paper.PMID] = entry.DOI
			continue
		}
		missing = append(missing, paper.PMID)
	}
	if len(missing) == 0 {
		return pmcids, dois, nil
	}

	linked, err := p.entrez.LinkPMCIDs(ctx, missing)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving PMC links: %w", err)
	}
	resolved, err := p.entrez.ResolveDOIs(ctx, missing)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving DOIs: %w", err)
	}

	entries := make([]cache.Entry, 0, len(missing))
	for _, pmid := range missing {
		pmcids[pmid] = linked[pmid]
		dois[pmid] = resolved[pmid]
		entries = append(entries, cache.Entry{PMID: pmid, PMCID: linked[pmid], DOI: resolved[pmid]})
	}
	if p.cache != nil {
		if cacheErr := p.cache.PutMany(ctx, entries); cacheErr != nil {
			logger.Warn().Err(cacheErr).Msg("writing enrichment cache failed")
		}
	}
	return pmcids, dois, nil
}

// fetchFulltext downloads and extracts one paper's PDF, recording the
// outcome on the paper rather than failing the stage.
func (p *Processor) fetchFulltext(ctx context.Context, projectPath string, paper *types.Paper, stats *types.DetailsStats, logger zerolog.Logger) {
	pdfRel := filepath.Join(project.PDFDir, paper.PMCID+".pdf")
	txtRel := filepath.Join(project.PDFDir, paper.PMCID+".txt")
	plog := observability.WithPaper(logger, paper.PMID, paper.PMCID)

	if err := p.downloader.Download(ctx, paper.PMCID, filepath.Join(projectPath, pdfRel)); err != nil {
		plog.Warn().Err(err).Msg("pdf download failed")
		paper.FulltextStatus = types.FulltextDownloadFailed
		stats.PapersPDFFailed++
		return
	}
	paper.PDFPath = pdfRel

	words, err := p.extractor.Process(ctx, filepath.Join(projectPath, pdfRel), filepath.Join(projectPath, txtRel))
	if err != nil {
		plog.Warn().Err(err).Msg("text extraction failed")
		paper.FulltextStatus = types.FulltextExtractFailed
		return
	}

	paper.FulltextPath = txtRel
	paper.FulltextStatus = types.FulltextSuccess
	paper.FulltextWordCount = words
	stats.PapersWithFulltext++
}

// step3Figures captures figures for every paper with a PMC record and
// persists the records in stage 1 order.
func (p *Processor) step3Figures(ctx context.Context, projectPath, query string, logger zerolog.Logger) (string, error) {
	var details types.DetailsArtifact
	if err := p.store.ReadArtifact(projectPath, project.DetailsFile, &details); err != nil {
		return "", err
	}

	figDir := filepath.Join(projectPath, project.ImageDir)
	records := p.figures.CaptureAll(ctx, details.Papers, figDir)
	totalFigures, papersWithFigures := figures.Summarize(records)

	// Persist image paths relative to the project directory so artifacts
	// survive the directory being moved or copied.
	for i := range records {
		for j := range records[i].Figures {
			fig := &records[i].Figures[j]
			if fig.LocalPath == "" {
				continue
			}
			if rel, err := filepath.Rel(projectPath, fig.LocalPath); err == nil {
				fig.LocalPath = filepath.ToSlash(rel)
			}
		}
	}

	artifact := types.FiguresArtifact{
		Success:           true,
		Query:             query,
		FiguresTime:       p.now().UTC(),
		Papers:            records,
		TotalFigures:      totalFigures,
		PapersWithFigures: papersWithFigures,
	}
	if artifact.Papers == nil {
		artifact.Papers = []types.PaperFigures{}
	}
	if err := p.store.WriteArtifact(projectPath, project.FiguresFile, artifact); err != nil {
		return "", err
	}

	logger.Info().Int("figures", totalFigures).Int("papers_with_figures", papersWithFigures).Msg("figures done")
	return fmt.Sprintf("captured %d figures across %d papers", totalFigures, papersWithFigures), nil
}

// step4Prompts writes one analysis prompt per paper.
func (p *Processor) step4Prompts(_ context.Context, projectPath, query string, logger zerolog.Logger) (string, error) {
	var details types.DetailsArtifact
	if err := p.store.ReadArtifact(projectPath, project.DetailsFile, &details); err != nil {
		return "", err
	}
	var figs types.FiguresArtifact
	if err := p.store.ReadArtifact(projectPath, project.FiguresFile, &figs); err != nil {
		return "", err
	}

	promptDir := filepath.Join(projectPath, project.PromptsDir)
	infos, err := p.prompts.Generate(query, details.Papers, figs.Papers, projectPath, promptDir)
	if err != nil {
		return "", err
	}
	fulltextCount, abstractCount := prompts.CountSources(infos)

	artifact := types.PromptsArtifact{
		Success:       true,
		Query:         query,
		PromptsTime:   p.now().UTC(),
		Prompts:       infos,
		FulltextCount: fulltextCount,
		AbstractCount: abstractCount,
	}
	if artifact.Prompts == nil {
		artifact.Prompts = []types.PromptInfo{}
	}
	if err := p.store.WriteArtifact(projectPath, project.PromptsFile, artifact); err != nil {
		return "", err
	}

	logger.Info().Int("fulltext", fulltextCount).Int("abstract", abstractCount).Msg("prompts done")
	return fmt.Sprintf("generated %d prompts (%d from full text)", len(infos), fulltextCount), nil
}

// step5Overview builds the merged overview prompt and the paper index.
func (p *Processor) step5Overview(_ context.Context, projectPath, query string, logger zerolog.Logger) (string, error) {
	var details types.DetailsArtifact
	if err := p.store.ReadArtifact(projectPath, project.DetailsFile, &details); err != nil {
		return "", err
	}

	result, err := p.prompts.BuildOverview(query, details.Papers, projectPath)
	if err != nil {
		return "", err
	}

	papersList := types.PapersList{Query: query, Papers: result.Entries}
	if err := p.store.WriteArtifact(projectPath, prompts.PapersListFile, papersList); err != nil {
		return "", err
	}

	artifact := types.OverviewArtifact{
		Success:         true,
		Query:           query,
		OverviewTime:    p.now().UTC(),
		PaperCount:      len(details.Papers),
		FulltextCount:   result.FulltextCount,
		AbstractCount:   result.AbstractCount,
		TruncatedCount:  result.TruncatedCount,
		PromptFile:      prompts.OverviewPromptFile,
		PapersListFile:  prompts.PapersListFile,
		PromptCharCount: result.PromptCharLen,
	}
	if err := p.store.WriteArtifact(projectPath, project.OverviewFile, artifact); err != nil {
		return "", err
	}

	logger.Info().Int("papers", artifact.PaperCount).Int("truncated", artifact.TruncatedCount).Msg("overview done")
	return fmt.Sprintf("overview prompt covers %d papers (%d truncated)", artifact.PaperCount, artifact.TruncatedCount), nil
}

// step6Report renders the HTML pages, with placeholders when no model
// response has been dropped into the project yet.
func (p *Processor) step6Report(_ context.Context, projectPath, query string, logger zerolog.Logger) (string, error) {
	var details types.DetailsArtifact
	if err := p.store.ReadArtifact(projectPath, project.DetailsFile, &details); err != nil {
		return "", err
	}

	var figs types.FiguresArtifact
	err := p.store.ReadArtifact(projectPath, project.FiguresFile, &figs)
	if err != nil && !errors.Is(err, project.ErrNotFound) {
		return "", err
	}

	resp, err := report.LoadLLMResponse(projectPath)
	if err != nil {
		return "", err
	}

	artifact, err := p.renderer.Render(projectPath, query, details.Papers, figs.Papers, resp,
		p.now().UTC().Format("2006-01-02 15:04 MST"))
	if err != nil {
		return "", err
	}
	artifact.Success = true
	artifact.ReportTime = p.now().UTC()

	if err := p.store.WriteArtifact(projectPath, project.ReportFile, artifact); err != nil {
		return "", err
	}

	if artifact.HasAnalysis {
		return fmt.Sprintf("report rendered for %d papers", len(details.Papers)), nil
	}
	return fmt.Sprintf("report rendered for %d papers (no llm_response.json, placeholders used)", len(details.Papers)), nil
}
