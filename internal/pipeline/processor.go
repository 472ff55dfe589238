// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives the six-stage literature pipeline over a
// project directory: search, details, figures, prompts, overview,
// report. Each stage reads the previous stage's artifact from disk and
// persists its own, so a pipeline can stop after any stage and resume
// later, including from a different process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/internal/cache"
	"github.com/pdiddy/litreview/internal/entrez"
	"github.com/pdiddy/litreview/internal/figures"
	"github.com/pdiddy/litreview/internal/fulltext"
	"github.com/pdiddy/litreview/internal/observability"
	"github.com/pdiddy/litreview/internal/project"
	"github.com/pdiddy/litreview/internal/prompts"
	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/pkg/types"
)

// Stage bounds.
const (
	FirstStep = 1
	LastStep  = 6
)

// stageArtifacts maps each stage to its artifact file.
var stageArtifacts = map[int]string{
	1: project.SearchFile,
	2: project.DetailsFile,
	3: project.FiguresFile,
	4: project.PromptsFile,
	5: project.OverviewFile,
	6: project.ReportFile,
}

// Processor wires the stage implementations to a project store and runs
// them with uniform status bookkeeping: a completed stage records
// stepN_completed and advances current_step, a failed stage records the
// error and sets current_step to the error marker.
type Processor struct {
	cfg        types.Config
	store      *project.Store
	entrez     *entrez.Client
	cache      *cache.Store
	downloader *fulltext.Downloader
	extractor  *fulltext.Processor
	figures    *figures.Service
	prompts    *prompts.Generator
	renderer   *report.Renderer
	logger     zerolog.Logger
	now        func() time.Time
}

// NewProcessor builds a Processor from configuration. The enrichment
// cache is optional: when it cannot be opened the pipeline runs without
// it rather than failing.
func NewProcessor(cfg types.Config, logger zerolog.Logger) (*Processor, error) {
	store, err := project.NewStore(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	generator, err := prompts.NewGenerator(cfg.Prompt, logger)
	if err != nil {
		return nil, err
	}

	var enrichCache *cache.Store
	if cfg.CacheDir != "" {
		enrichCache, err = cache.Open(cfg.CacheDir)
		if err != nil {
			logger.Warn().Err(err).Msg("enrichment cache unavailable, continuing without it")
			enrichCache = nil
		}
	}

	return &Processor{
		cfg:        cfg,
		store:      store,
		entrez:     entrez.NewClient(cfg.Entrez),
		cache:      enrichCache,
		downloader: fulltext.NewDownloader(cfg.Fulltext, logger),
		extractor:  fulltext.NewProcessor(cfg.Fulltext, nil, logger),
		figures:    figures.NewService(cfg.Figures, logger),
		prompts:    generator,
		renderer:   report.NewRenderer(cfg.Report, logger),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Close releases the processor's resources.
func (p *Processor) Close() error {
	if p.cache != nil {
		return p.cache.Close()
	}
	return nil
}

// Store exposes the project store for listing and status commands.
func (p *Processor) Store() *project.Store {
	return p.store
}

// StartProject creates a fresh project directory for a query and runs
// stage 1 in it.
func (p *Processor) StartProject(ctx context.Context, query string) (string, types.StepResult) {
	projectPath, err := p.store.Create(query, p.now())
	if err != nil {
		return "", types.StepResult{Error: err.Error()}
	}
	return projectPath, p.RunStep(ctx, projectPath, 1)
}

// RunStep executes one stage in an existing project, updating the
// persisted status on both success and failure. Stages after the first
// require their predecessor's artifact on disk.
func (p *Processor) RunStep(ctx context.Context, projectPath string, step int) types.StepResult {
	result := p.runStepGuarded(ctx, projectPath, step)
	result.ProjectPath = projectPath

	if result.Success {
		status := fmt.Sprintf("step%d_completed", step)
		if err := p.store.UpdateStatus(projectPath, status, step); err != nil {
			result = types.StepResult{
				ProjectPath: projectPath,
				Error:       fmt.Sprintf("step %d succeeded but status update failed: %v", step, err),
			}
		}
	} else {
		if err := p.store.UpdateStatus(projectPath, "error: "+result.Error, types.StepError); err != nil {
			p.logger.Error().Err(err).Msg("recording step failure in project status")
		}
	}
	return result
}

// RunSteps executes a contiguous stage range, stopping at the first
// failure. It returns the result of every stage that ran.
func (p *Processor) RunSteps(ctx context.Context, projectPath string, from, to int) []types.StepResult {
	var results []types.StepResult
	for step := from; step <= to; step++ {
		result := p.RunStep(ctx, projectPath, step)
		results = append(results, result)
		if !result.Success {
			break
		}
	}
	return results
}

// runStepGuarded dispatches to the stage implementation, converting
// errors and panics into a failed StepResult so one stage can never take
// down the process or leave the status record unset.
func (p *Processor) runStepGuarded(ctx context.Context, projectPath string, step int) (result types.StepResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().Interface("panic", r).
				Str("stack", string(debug.Stack())).Int("step", step).Msg("step panicked")
			result = types.StepResult{Error: fmt.Sprintf("step %d panicked: %v", step, r)}
		}
	}()

	if step < FirstStep || step > LastStep {
		return types.StepResult{Error: fmt.Sprintf("unknown step %d", step)}
	}

	if step > FirstStep {
		prev := stageArtifacts[step-1]
		if !p.store.HasArtifact(projectPath, prev) {
			return types.StepResult{
				Error: fmt.Sprintf("step %d requires step %d output (%s) which is missing", step, step-1, prev),
			}
		}
	}

	summary, err := p.store.ReadSummary(projectPath)
	if err != nil && !errors.Is(err, project.ErrNotFound) {
		return types.StepResult{Error: fmt.Sprintf("reading project status: %v", err)}
	}
	query := summary.SearchQuery

	logger := observability.WithStep(observability.WithProject(p.logger, projectPath), step)
	start := p.now()

	var message string
	switch step {
	case 1:
		message, err = p.step1Search(ctx, projectPath, query, logger)
	case 2:
		message, err = p.step2Details(ctx, projectPath, query, logger)
	case 3:
		message, err = p.step3Figures(ctx, projectPath, query, logger)
	case 4:
		message, err = p.step4Prompts(ctx, projectPath, query, logger)
	case 5:
		message, err = p.step5Overview(ctx, projectPath, query, logger)
	case 6:
		message, err = p.step6Report(ctx, projectPath, query, logger)
	}
	if err != nil {
		logger.Error().Err(err).Msg("step failed")
		return types.StepResult{Error: err.Error()}
	}

	logger.Info().Dur("elapsed", p.now().Sub(start)).Msg("step completed")
	return types.StepResult{Success: true, Message: message}
}
