// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webui serves the generated reports over HTTP: a project index,
// per-project status, and the rendered report pages with their figures.
// It reads straight from the project directories, so regenerating a
// report is immediately visible without a restart.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/internal/project"
	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/pkg/types"
)

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Literature Review Projects</title>
<style>
body { font-family: Georgia, serif; max-width: 900px; margin: 2em auto; padding: 0 1em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; }
th { background: #f0f0f0; }
.status-error { color: #a00; }
.status-completed { color: #070; }
</style>
</head>
<body>
<h1>Literature Review Projects</h1>
{{if .Projects}}
<table>
<tr><th>Project</th><th>Query</th><th>Status</th><th>Step</th><th>Updated</th><th>Report</th></tr>
{{range .Projects}}
<tr>
<td>{{.Name}}</td>
<td>{{.Query}}</td>
<td class="{{.StatusClass}}">{{.Status}}</td>
<td>{{.Step}}</td>
<td>{{.Updated}}</td>
<td>{{if .HasReport}}<a href="/projects/{{.Name}}/report/overview_report.html">view</a>{{else}}&mdash;{{end}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No projects yet.</p>
{{end}}
</body>
</html>
`))

type indexProject struct {
	Name        string
	Query       string
	Status      string
	StatusClass string
	Step        int
	Updated     string
	HasReport   bool
}

type indexPage struct {
	Projects []indexProject
}

// PipelineRunner is the subset of the pipeline used by the mutation
// endpoints.
type PipelineRunner interface {
	StartProject(ctx context.Context, query string) (string, types.StepResult)
	RunStep(ctx context.Context, projectPath string, step int) types.StepResult
	RunSteps(ctx context.Context, projectPath string, from, to int) []types.StepResult
}

// Server serves the project index, rendered reports, and a JSON API for
// running pipeline stages.
type Server struct {
	store      *project.Store
	runner     PipelineRunner
	router     chi.Router
	httpServer *http.Server
	shutdown   time.Duration
	logger     zerolog.Logger
}

// NewServer builds a server over the given project store. runner may be
// nil, which disables the mutation endpoints.
func NewServer(cfg types.WebConfig, store *project.Store, runner PipelineRunner, logger zerolog.Logger) *Server {
	s := &Server{
		store:    store,
		runner:   runner,
		shutdown: cfg.ShutdownTimeout,
		logger:   logger.With().Str("component", "webui").Logger(),
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	r.Get("/", s.indexHandler)
	r.Get("/api/projects", s.listProjectsHandler)
	r.Get("/api/projects/{name}", s.projectStatusHandler)
	r.Get("/projects/{name}/report/*", s.reportFileHandler)
	r.Get("/projects/{name}/step3_figures/images/*", s.figureFileHandler)

	if s.runner != nil {
		r.Post("/api/projects", s.createProjectHandler)
		r.Post("/api/projects/{name}/steps/{step}", s.runStepHandler)
		r.Post("/api/projects/{name}/collect", s.collectHandler)
	}
	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("web UI listening")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdown > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdown)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("list projects")
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}

	page := indexPage{}
	for _, info := range infos {
		statusClass := ""
		switch {
		case strings.HasPrefix(info.Summary.Status, "error"):
			statusClass = "status-error"
		case info.Summary.CurrentStep >= 6:
			statusClass = "status-completed"
		}
		page.Projects = append(page.Projects, indexProject{
			Name:        info.Name,
			Query:       info.Summary.SearchQuery,
			Status:      info.Summary.Status,
			StatusClass: statusClass,
			Step:        info.Summary.CurrentStep,
			Updated:     info.Summary.LastUpdated.Format("2006-01-02 15:04"),
			HasReport:   s.store.HasArtifact(info.Path, project.ReportFile),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, page); err != nil {
		s.logger.Error().Err(err).Msg("render index")
	}
}

func (s *Server) listProjectsHandler(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List()
	if err != nil {
		s.logger.Error().Err(err).Msg("list projects")
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	if infos == nil {
		infos = []types.ProjectInfo{}
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) projectStatusHandler(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	summary, err := s.store.ReadSummary(path)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		s.logger.Error().Err(err).Str("project", path).Msg("read summary")
		writeError(w, http.StatusInternalServerError, "failed to read project status")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// reportFileHandler serves files from a project's output directory.
// Report pages reference captured figures through relative
// ../step3_figures/images/ paths, which the figures route covers.
func (s *Server) reportFileHandler(w http.ResponseWriter, r *http.Request) {
	s.serveProjectFile(w, r, report.ReportsDirName)
}

func (s *Server) figureFileHandler(w http.ResponseWriter, r *http.Request) {
	s.serveProjectFile(w, r, project.ImageDir)
}

func (s *Server) serveProjectFile(w http.ResponseWriter, r *http.Request, subdir string) {
	projectPath, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	rel := chi.URLParam(r, "*")
	clean := filepath.Clean("/" + rel)
	if clean == "/" {
		clean = "/overview_report.html"
	}
	http.ServeFile(w, r, filepath.Join(projectPath, subdir, clean))
}

// resolveProject maps the {name} URL parameter to a project directory.
// Only bare names are accepted so the store lookup stays inside the
// output directory.
func (s *Server) resolveProject(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "invalid project name")
		return "", false
	}
	path, err := s.store.Resolve(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "project not found")
		return "", false
	}
	return path, true
}

// stepResponse is the uniform JSON reply for the mutation endpoints.
type stepResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Project string             `json:"project,omitempty"`
	Results []types.StepResult `json:"results"`
}

func newStepResponse(projectPath string, results []types.StepResult) stepResponse {
	resp := stepResponse{Success: true, Results: results}
	if projectPath != "" {
		resp.Project = filepath.Base(projectPath)
	}
	for _, res := range results {
		if !res.Success {
			resp.Success = false
			resp.Error = res.Error
			break
		}
	}
	return resp
}

// createProjectHandler starts a project for a query and runs the
// retrieval stages (1-3) synchronously.
func (s *Server) createProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	path, result := s.runner.StartProject(r.Context(), req.Query)
	results := []types.StepResult{result}
	if result.Success {
		results = append(results, s.runner.RunSteps(r.Context(), path, 2, 3)...)
	}

	status := http.StatusCreated
	resp := newStepResponse(path, results)
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// runStepHandler runs one pipeline stage on an existing project.
func (s *Server) runStepHandler(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil || step < 1 || step > 6 {
		writeError(w, http.StatusBadRequest, "step must be a number between 1 and 6")
		return
	}

	result := s.runner.RunStep(r.Context(), path, step)
	resp := newStepResponse(path, []types.StepResult{result})
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

// collectHandler runs the analysis stages (4-6) on an existing project.
func (s *Server) collectHandler(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	results := s.runner.RunSteps(r.Context(), path, 4, 6)
	resp := newStepResponse(path, results)
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent, nothing to recover.
		_ = err
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
