// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package project manages project directories and their persisted status.
// Every pipeline run lives in one directory under the output dir; the
// stage artifacts and the status record are plain JSON files so a project
// survives process restarts and can be inspected with ordinary tools.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

const (
	// SummaryFile is the status record inside every project directory.
	SummaryFile = "project_summary.json"

	// Per-stage subdirectories inside a project.
	SearchDir   = "step1_search"
	DetailsDir  = "step2_details"
	FiguresDir  = "step3_figures"
	PromptsDir  = "step4_prompts"
	OverviewDir = "step5_overview"
	ReportDir   = "step6_report"

	// Stage artifact files, relative to the project directory.
	SearchFile   = SearchDir + "/search_results.json"
	DetailsFile  = DetailsDir + "/papers_details.json"
	FiguresFile  = FiguresDir + "/figures_info.json"
	PromptsFile  = PromptsDir + "/prompts_info.json"
	OverviewFile = OverviewDir + "/overview_info.json"
	ReportFile   = ReportDir + "/report_info.json"

	// LLMResponseFile is the externally supplied analysis read by stage 6.
	LLMResponseFile = OverviewDir + "/llm_response.json"

	// PDFDir holds downloaded PDFs and the text extracted from them.
	PDFDir = DetailsDir + "/pdfs"

	// ImageDir holds captured figure images.
	ImageDir = FiguresDir + "/images"

	// FinalOutputDir holds the rendered report pages.
	FinalOutputDir = "FinalOutput"
)

// ErrNotFound is returned when a project directory or an expected
// artifact file does not exist.
var ErrNotFound = errors.New("not found")

// CorruptArtifactError reports an artifact file that exists but cannot be
// decoded. It keeps the path and the decode error so callers can name the
// file that needs attention.
type CorruptArtifactError struct {
	Path string
	Err  error
}

func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt artifact %s: %v", e.Path, e.Err)
}

func (e *CorruptArtifactError) Unwrap() error { return e.Err }

// Store creates, lists, and reads project directories under a base
// output directory.
type Store struct {
	outputDir string
}

// NewStore creates a Store rooted at outputDir, creating the directory
// if needed.
func NewStore(outputDir string) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Store{outputDir: outputDir}, nil
}

// OutputDir returns the base directory holding project directories.
func (s *Store) OutputDir() string { return s.outputDir }

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeQuery reduces a search query to a directory-name-safe slug:
// lowercase, runs of non-alphanumerics collapsed to single underscores,
// capped at 50 characters.
func SanitizeQuery(query string) string {
	slug := unsafeChars.ReplaceAllString(strings.ToLower(query), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 50 {
		slug = strings.Trim(slug[:50], "_")
	}
	if slug == "" {
		slug = "query"
	}
	return slug
}

// Create makes a fresh project directory for a query, named
// [timestamp]_[sanitized query], with the standard subdirectories and an
// initial status record. It returns the absolute project path.
func (s *Store) Create(query string, now time.Time) (string, error) {
	name := now.Format("20060102_150405") + "_" + SanitizeQuery(query)
	path := filepath.Join(s.outputDir, name)

	for _, dir := range []string{path,
		filepath.Join(path, SearchDir),
		filepath.Join(path, PDFDir),
		filepath.Join(path, ImageDir),
		filepath.Join(path, PromptsDir),
		filepath.Join(path, OverviewDir),
		filepath.Join(path, ReportDir),
		filepath.Join(path, FinalOutputDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating project directory: %w", err)
		}
	}

	summary := types.ProjectSummary{
		SearchQuery: query,
		Status:      types.StatusInProgress,
		CurrentStep: 0,
		CreatedTime: now.UTC(),
		LastUpdated: now.UTC(),
	}
	if err := s.WriteSummary(path, summary); err != nil {
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return abs, nil
}

// WriteSummary persists the status record for a project. The write goes
// through a temp file and a rename so a crash never leaves a truncated
// summary behind.
func (s *Store) WriteSummary(projectPath string, summary types.ProjectSummary) error {
	return writeJSON(filepath.Join(projectPath, SummaryFile), summary)
}

// ReadSummary loads the status record for a project. Returns ErrNotFound
// when the file does not exist and a CorruptArtifactError when it cannot
// be decoded.
func (s *Store) ReadSummary(projectPath string) (types.ProjectSummary, error) {
	var summary types.ProjectSummary
	err := readJSON(filepath.Join(projectPath, SummaryFile), &summary)
	return summary, err
}

// UpdateStatus rewrites the status and current step of a project,
// refreshing the last-updated timestamp and preserving the rest of the
// record.
func (s *Store) UpdateStatus(projectPath, status string, currentStep int) error {
	summary, err := s.ReadSummary(projectPath)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	summary.Status = status
	summary.CurrentStep = currentStep
	summary.LastUpdated = time.Now().UTC()
	return s.WriteSummary(projectPath, summary)
}

// WriteArtifact persists a stage artifact under the project directory.
func (s *Store) WriteArtifact(projectPath, name string, v any) error {
	return writeJSON(filepath.Join(projectPath, name), v)
}

// ReadArtifact loads a stage artifact into v. Returns ErrNotFound when
// the file does not exist and a CorruptArtifactError when it cannot be
// decoded.
func (s *Store) ReadArtifact(projectPath, name string, v any) error {
	return readJSON(filepath.Join(projectPath, name), v)
}

// HasArtifact reports whether a stage artifact exists in the project.
func (s *Store) HasArtifact(projectPath, name string) bool {
	_, err := os.Stat(filepath.Join(projectPath, name))
	return err == nil
}

// Resolve maps a project name or path to an absolute project directory.
// A bare name is looked up under the output dir; anything with a path
// separator is treated as a path. Returns ErrNotFound when the directory
// does not exist.
func (s *Store) Resolve(nameOrPath string) (string, error) {
	path := nameOrPath
	if !strings.ContainsRune(nameOrPath, os.PathSeparator) {
		path = filepath.Join(s.outputDir, nameOrPath)
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("project %s: %w", nameOrPath, ErrNotFound)
	}
	return filepath.Abs(path)
}

// List returns all project directories under the output dir, newest
// first. A directory counts as a project when it has a status record or
// at least a stage 1 artifact; summaries that fail to decode are reported
// with an error status rather than dropped.
func (s *Store) List() ([]types.ProjectInfo, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory: %w", err)
	}

	var projects []types.ProjectInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.outputDir, entry.Name())

		summary, err := s.ReadSummary(path)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			if !s.HasArtifact(path, SearchFile) {
				continue
			}
			summary = types.ProjectSummary{Status: "unknown"}
		default:
			summary = types.ProjectSummary{Status: types.StatusError}
		}

		info, statErr := entry.Info()
		modTime := time.Time{}
		if statErr == nil {
			modTime = info.ModTime()
		}

		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			abs = path
		}
		projects = append(projects, types.ProjectInfo{
			Name:    entry.Name(),
			Path:    abs,
			Summary: summary,
			ModTime: modTime,
		})
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ModTime.After(projects[j].ModTime)
	})
	return projects, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", filepath.Base(path), ErrNotFound)
		}
		return fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &CorruptArtifactError{Path: path, Err: err}
	}
	return nil
}
