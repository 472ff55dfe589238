// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the HTML report pages for a project: one
// overview page and one detail page per paper. Analysis text comes from
// an llm_response.json dropped into the project's step5_overview
// directory by an external model run; when the file is absent the pages
// carry placeholders so the report can be generated and regenerated at
// any time.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/internal/project"
	"github.com/pdiddy/litreview/pkg/types"
)

// ReportsDirName is the subdirectory holding the rendered pages.
const ReportsDirName = project.FinalOutputDir

// placeholderAnalysis appears wherever no model response is available.
const placeholderAnalysis = "Analysis pending. Run the merged overview prompt through your language model, save the response as step5_overview/llm_response.json, then regenerate the report."

var overviewTmpl = template.Must(template.New("overview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Literature overview: {{.Query}}</title>
<style>
body { font-family: Georgia, serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1, h2 { font-family: Helvetica, Arial, sans-serif; }
.meta { color: #666; font-size: 0.9rem; }
.analysis { white-space: pre-wrap; background: #fafafa; border-left: 4px solid #4a78b0; padding: 1rem; }
.placeholder { color: #888; font-style: italic; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; }
.tag { font-family: monospace; font-size: 0.8rem; background: #eee; padding: 0 0.3rem; }
</style>
</head>
<body>
<h1>Literature overview</h1>
<p class="meta">Topic: <strong>{{.Query}}</strong> &middot; {{.PaperCount}} papers{{if .GeneratedAt}} &middot; generated {{.GeneratedAt}}{{end}}</p>

<h2>Synthesis</h2>
<div class="analysis{{if not .HasAnalysis}} placeholder{{end}}">{{.Analysis}}</div>

<h2>Papers</h2>
<table>
<tr><th>Title</th><th>Authors</th><th>Journal</th><th>Source</th></tr>
{{range .Papers}}<tr>
<td><a href="{{.DetailFile}}">{{.Title}}</a></td>
<td>{{.AuthorsShort}}</td>
<td>{{.Journal}}{{if .PubDate}} ({{.PubDate}}){{end}}</td>
<td><span class="tag">{{.ContentSource}}</span></td>
</tr>
{{end}}</table>
</body>
</html>
`))

var detailTmpl = template.Must(template.New("detail").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #222; }
h1, h2 { font-family: Helvetica, Arial, sans-serif; }
.meta { color: #666; font-size: 0.9rem; }
.abstract { background: #fafafa; padding: 1rem; }
.analysis { white-space: pre-wrap; background: #fafafa; border-left: 4px solid #4a78b0; padding: 1rem; }
.placeholder { color: #888; font-style: italic; }
figure { margin: 1rem 0; }
figcaption { color: #555; font-size: 0.9rem; }
</style>
</head>
<body>
<p><a href="overview_report.html">&larr; back to overview</a></p>
<h1>{{.Title}}</h1>
<p class="meta">{{.Authors}}{{if .Journal}} &middot; {{.Journal}}{{end}}{{if .PubDate}} ({{.PubDate}}){{end}}</p>
<p class="meta">PMID: <a href="https://pubmed.ncbi.nlm.nih.gov/{{.PMID}}/">{{.PMID}}</a>{{if .DOI}} &middot; DOI: <a href="https://doi.org/{{.DOI}}">{{.DOI}}</a>{{end}}{{if .PMCID}} &middot; {{.PMCID}}{{end}}</p>

{{if .Abstract}}<h2>Abstract</h2>
<div class="abstract">{{.Abstract}}</div>
{{end}}
<h2>Analysis</h2>
<div class="analysis{{if not .HasAnalysis}} placeholder{{end}}">{{.Analysis}}</div>

{{if .Figures}}<h2>Figures</h2>
{{range .Figures}}<figure>
{{if .ImageSrc}}<img src="{{.ImageSrc}}" width="{{$.ImageWidth}}" alt="{{.FigureID}}">{{else}}<p class="meta">Image not captured; original at <a href="{{.OriginalURL}}">{{.OriginalURL}}</a></p>{{end}}
{{if .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}
</figure>
{{end}}{{end}}</body>
</html>
`))

type overviewPaper struct {
	Title         string
	AuthorsShort  string
	Journal       string
	PubDate       string
	ContentSource string
	DetailFile    string
}

type overviewPage struct {
	Query       string
	PaperCount  int
	GeneratedAt string
	HasAnalysis bool
	Analysis    string
	Papers      []overviewPaper
}

type detailFigure struct {
	FigureID    string
	Caption     string
	ImageSrc    string
	OriginalURL string
}

type detailPage struct {
	PMID        string
	PMCID       string
	DOI         string
	Title       string
	Authors     string
	Journal     string
	PubDate     string
	Abstract    string
	HasAnalysis bool
	Analysis    string
	ImageWidth  int
	Figures     []detailFigure
}

// Renderer writes the report pages for a project.
type Renderer struct {
	cfg    types.ReportConfig
	logger zerolog.Logger
}

// NewRenderer creates a Renderer from configuration.
func NewRenderer(cfg types.ReportConfig, logger zerolog.Logger) *Renderer {
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = 600
	}
	return &Renderer{cfg: cfg, logger: logger}
}

// LoadLLMResponse reads the analysis file from the project's
// step5_overview directory. A missing file is not an error; it returns
// nil so the caller renders placeholders.
func LoadLLMResponse(projectPath string) (*types.LLMResponse, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, project.LLMResponseFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading llm_response.json: %w", err)
	}
	var resp types.LLMResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parsing llm_response.json: %w", err)
	}
	return &resp, nil
}

// Render writes the overview page and one detail page per paper into
// the project's reports directory, returning the stage artifact.
func (r *Renderer) Render(projectPath, query string, papers []types.Paper, figures []types.PaperFigures, resp *types.LLMResponse, generatedAt string) (*types.ReportArtifact, error) {
	reportsDir := filepath.Join(projectPath, ReportsDirName)
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating reports directory: %w", err)
	}

	figuresByPMID := make(map[string][]types.Figure, len(figures))
	for _, pf := range figures {
		figuresByPMID[pf.PMID] = pf.Figures
	}

	artifact := &types.ReportArtifact{
		Query:       query,
		DetailFiles: make(map[string]string, len(papers)),
		HasAnalysis: resp != nil,
	}

	page := overviewPage{
		Query:       query,
		PaperCount:  len(papers),
		GeneratedAt: generatedAt,
		HasAnalysis: resp != nil,
		Analysis:    placeholderAnalysis,
	}
	if resp != nil && resp.Overview != "" {
		page.Analysis = resp.Overview
	}

	for _, paper := range papers {
		detailName := paper.PMID + "_" + project.SanitizeQuery(paper.Title) + ".html"
		if err := r.renderDetail(reportsDir, paper, figuresByPMID[paper.PMID], resp, detailName); err != nil {
			return nil, err
		}
		artifact.DetailFiles[paper.PMID] = filepath.Join(ReportsDirName, detailName)

		authorsShort := paper.AuthorsShort
		if authorsShort == "" {
			authorsShort = types.ShortAuthors(paper.Authors)
		}
		page.Papers = append(page.Papers, overviewPaper{
			Title:         paper.Title,
			AuthorsShort:  authorsShort,
			Journal:       paper.Journal,
			PubDate:       paper.PubDate,
			ContentSource: contentSource(paper),
			DetailFile:    detailName,
		})
	}

	overviewPath := filepath.Join(reportsDir, "overview_report.html")
	if err := renderToFile(overviewTmpl, overviewPath, page); err != nil {
		return nil, err
	}
	artifact.OverviewFile = filepath.Join(ReportsDirName, "overview_report.html")

	r.logger.Info().Int("papers", len(papers)).Bool("has_analysis", artifact.HasAnalysis).
		Msg("report rendered")
	return artifact, nil
}

func (r *Renderer) renderDetail(reportsDir string, paper types.Paper, figs []types.Figure, resp *types.LLMResponse, fileName string) error {
	page := detailPage{
		PMID:        paper.PMID,
		PMCID:       paper.PMCID,
		DOI:         paper.DOI,
		Title:       paper.Title,
		Authors:     strings.Join(paper.Authors, ", "),
		Journal:     paper.Journal,
		PubDate:     paper.PubDate,
		Abstract:    paper.Abstract,
		Analysis:    placeholderAnalysis,
		ImageWidth:  r.cfg.ImageWidth,
	}
	if resp != nil {
		if text, ok := resp.Papers[paper.PMID]; ok && text != "" {
			page.Analysis = text
			page.HasAnalysis = true
		}
	}

	for _, fig := range figs {
		df := detailFigure{
			FigureID:    fig.FigureID,
			Caption:     fig.Caption,
			OriginalURL: fig.OriginalURL,
		}
		if fig.LocalPath != "" {
			// LocalPath is relative to the project directory; detail
			// pages live one level down in the output directory.
			if filepath.IsAbs(fig.LocalPath) {
				if rel, err := filepath.Rel(reportsDir, fig.LocalPath); err == nil {
					df.ImageSrc = filepath.ToSlash(rel)
				}
			} else {
				df.ImageSrc = filepath.ToSlash(filepath.Join("..", fig.LocalPath))
			}
		}
		page.Figures = append(page.Figures, df)
	}

	return renderToFile(detailTmpl, filepath.Join(reportsDir, fileName), page)
}

func contentSource(paper types.Paper) string {
	if paper.FulltextStatus == types.FulltextSuccess {
		return types.ContentFulltext
	}
	return types.ContentAbstract
}

func renderToFile(tmpl *template.Template, path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	execErr := tmpl.Execute(f, data)
	closeErr := f.Close()
	if execErr != nil {
		return fmt.Errorf("rendering %s: %w", filepath.Base(path), execErr)
	}
	if closeErr != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), closeErr)
	}
	return nil
}
