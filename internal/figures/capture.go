// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/pkg/types"
)

// noPMCNote explains an empty figure set for papers outside PMC.
const noPMCNote = "no PMC record, figures unavailable"

// Service captures figures for a batch of papers with a bounded worker
// pool. The primary capturer is tried first; on failure the service
// degrades to the fallback, and a paper whose capture fails entirely
// still gets an empty record rather than failing the batch.
type Service struct {
	cfg      types.FiguresConfig
	primary  Capturer
	fallback Capturer
	logger   zerolog.Logger
}

// NewService wires the default capturers: headless browser when enabled,
// HTML scraping as the fallback.
func NewService(cfg types.FiguresConfig, logger zerolog.Logger) *Service {
	var primary Capturer
	if cfg.BrowserEnabled {
		primary = NewBrowserCapturer(cfg, logger)
	}
	return &Service{
		cfg:      cfg,
		primary:  primary,
		fallback: NewScraper(cfg),
		logger:   logger,
	}
}

// NewServiceWith creates a Service with explicit capturers, used by
// tests and by callers that bring their own browser setup.
func NewServiceWith(cfg types.FiguresConfig, primary, fallback Capturer, logger zerolog.Logger) *Service {
	return &Service{cfg: cfg, primary: primary, fallback: fallback, logger: logger}
}

// CaptureAll processes the papers concurrently and returns one record
// per paper in the same order as the input, regardless of which capture
// finished first.
func (s *Service) CaptureAll(ctx context.Context, papers []types.Paper, figDir string) []types.PaperFigures {
	results := make([]types.PaperFigures, len(papers))

	concurrency := s.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	semaphore := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, paper := range papers {
		wg.Add(1)
		go func(i int, paper types.Paper) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			results[i] = s.captureOne(ctx, paper, figDir)
		}(i, paper)
	}
	wg.Wait()

	return results
}

func (s *Service) captureOne(ctx context.Context, paper types.Paper, figDir string) types.PaperFigures {
	record := types.PaperFigures{
		PMID:    paper.PMID,
		PMCID:   paper.PMCID,
		Figures: []types.Figure{},
	}

	if paper.PMCID == "" {
		record.Note = noPMCNote
		return record
	}

	logger := s.logger.With().Str("pmid", paper.PMID).Str("pmcid", paper.PMCID).Logger()

	if s.primary != nil {
		figs, err := s.primary.Capture(ctx, paper.PMCID, figDir, s.cfg.MaxPerPaper)
		if err == nil {
			record.Figures = figs
			record.FigureCount = len(figs)
			return record
		}
		logger.Warn().Err(err).Msg("browser capture failed, scraping figure URLs instead")
	}

	figs, err := s.fallback.Capture(ctx, paper.PMCID, figDir, s.cfg.MaxPerPaper)
	if err != nil {
		logger.Warn().Err(err).Msg("figure capture failed")
		record.Note = "figure capture failed: " + err.Error()
		return record
	}
	record.Figures = figs
	record.FigureCount = len(figs)
	return record
}

// Summarize computes the batch totals recorded in the stage artifact.
func Summarize(records []types.PaperFigures) (totalFigures, papersWithFigures int) {
	for _, r := range records {
		totalFigures += len(r.Figures)
		if len(r.Figures) > 0 {
			papersWithFigures++
		}
	}
	return totalFigures, papersWithFigures
}
