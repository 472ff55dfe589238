// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Content-source labels describing what text fed a paper's prompt.
const (
	ContentFulltext = "fulltext"
	ContentAbstract = "abstract"
)

// Figure capture methods recorded in stage 3 output.
const (
	// FigureMethodBrowser means the figure image was captured by the
	// headless browser.
	FigureMethodBrowser = "browser"

	// FigureMethodURLOnly means only the figure URL and caption were
	// scraped, without downloading an image.
	FigureMethodURLOnly = "url_only"
)

// SearchArtifact is the stage 1 output, persisted as
// step1_search/search_results.json.
type SearchArtifact struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Query         string    `json:"query"`
	SearchTime    time.Time `json:"search_time"`
	TotalFound    int       `json:"total_found"`
	ReturnedCount int       `json:"returned_count"`
	Papers        []Paper   `json:"papers"`
}

// DetailsStats summarizes stage 2 enrichment over the whole paper set.
type DetailsStats struct {
	TotalPapers        int `json:"total_papers"`
	PapersWithPMC      int `json:"papers_with_pmc"`
	PapersWithoutPMC   int `json:"papers_without_pmc"`
	PapersWithFulltext int `json:"papers_with_fulltext"`
	PapersPDFFailed    int `json:"papers_pdf_failed"`
}

// DetailsArtifact is the stage 2 output, persisted as
// step2_details/papers_details.json.
// Papers carries the stage 1 set with enrichment fields filled in, in the
// original order.
type DetailsArtifact struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Query       string       `json:"query"`
	DetailsTime time.Time    `json:"details_time"`
	Papers      []Paper      `json:"papers"`
	Stats       DetailsStats `json:"stats"`
}

// Figure is one captured or referenced figure belonging to a paper.
type Figure struct {
	// FigureID is unique within the paper, e.g. "fig1".
	FigureID string `json:"figure_id"`

	Caption   string `json:"caption,omitempty"`
	LocalPath string `json:"local_path,omitempty"`

	// OriginalURL is the figure's source URL on the article page.
	OriginalURL string `json:"original_url,omitempty"`

	// IsOriginal reports whether LocalPath holds a real captured image
	// rather than a placeholder.
	IsOriginal bool `json:"is_original"`

	// Method is one of the FigureMethod* constants.
	Method string `json:"method"`

	DownloadFailed bool `json:"download_failed,omitempty"`
}

// PaperFigures groups the figures found for one paper.
type PaperFigures struct {
	PMID  string `json:"pmid"`
	PMCID string `json:"pmcid,omitempty"`

	Figures     []Figure `json:"figures"`
	FigureCount int      `json:"figure_count"`

	// Note explains an empty figure set, e.g. the paper has no PMC record.
	Note string `json:"note,omitempty"`
}

// FiguresArtifact is the stage 3 output, persisted as
// step3_figures/figures_info.json.
// Papers is ordered to match the stage 1 paper order regardless of
// capture-completion order.
type FiguresArtifact struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Query       string         `json:"query"`
	FiguresTime time.Time      `json:"figures_time"`
	Papers      []PaperFigures `json:"papers"`

	TotalFigures      int `json:"total_figures"`
	PapersWithFigures int `json:"papers_with_figures"`
}

// PromptInfo is the per-paper record in stage 4 output. Prompt carries the
// full prompt text inline; PromptFile is the project-relative path of the
// same text on disk.
type PromptInfo struct {
	PMID       string `json:"pmid"`
	Title      string `json:"title"`
	Prompt     string `json:"prompt"`
	PromptFile string `json:"prompt_file"`

	// ContentSource is ContentFulltext or ContentAbstract.
	ContentSource string `json:"content_source"`

	HasFigures  bool `json:"has_figures"`
	FigureCount int  `json:"figure_count"`
}

// PromptsArtifact is the stage 4 output, persisted as
// step4_prompts/prompts_info.json.
type PromptsArtifact struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Query       string       `json:"query"`
	PromptsTime time.Time    `json:"prompts_time"`
	Prompts     []PromptInfo `json:"prompts"`

	FulltextCount int `json:"fulltext_count"`
	AbstractCount int `json:"abstract_count"`
}

// OverviewArtifact is the stage 5 output, persisted as
// step5_overview/overview_info.json.
// The merged prompt itself lives in PromptFile; the artifact records where
// the content came from and how much of it was truncated.
type OverviewArtifact struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Query        string    `json:"query"`
	OverviewTime time.Time `json:"overview_time"`

	PaperCount    int `json:"paper_count"`
	FulltextCount int `json:"fulltext_count"`
	AbstractCount int `json:"abstract_count"`

	// TruncatedCount is the number of papers whose content section hit the
	// per-paper word cap.
	TruncatedCount int `json:"truncated_count"`

	PromptFile     string `json:"prompt_file"`
	PapersListFile string `json:"papers_list_file"`

	PromptCharCount int `json:"prompt_char_count"`
}

// PapersListEntry is one row of the machine-readable paper index written
// alongside the overview prompt.
type PapersListEntry struct {
	PMID          string `json:"pmid"`
	Title         string `json:"title"`
	AuthorsShort  string `json:"authors_short"`
	Journal       string `json:"journal"`
	PubDate       string `json:"pub_date"`
	DOI           string `json:"doi,omitempty"`
	ContentSource string `json:"content_source"`
	Truncated     bool   `json:"truncated"`
}

// PapersList is the stage 5 companion file step5_overview/papers_list.json.
type PapersList struct {
	Query  string            `json:"query"`
	Papers []PapersListEntry `json:"papers"`
}

// ReportArtifact is the stage 6 output, persisted as
// step6_report/report_info.json.
type ReportArtifact struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`

	Query      string    `json:"query"`
	ReportTime time.Time `json:"report_time"`

	// OverviewFile is the project-relative path of the rendered overview
	// report HTML.
	OverviewFile string `json:"overview_file"`

	// DetailFiles maps PMID to the per-paper detail page path.
	DetailFiles map[string]string `json:"detail_files"`

	// HasAnalysis reports whether llm_response.json was present; when
	// false the report carries placeholder analysis sections.
	HasAnalysis bool `json:"has_analysis"`
}

// StepResult is the uniform outcome of running one pipeline stage. A
// failing stage reports through Error rather than a panic or a partial
// artifact.
type StepResult struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ProjectPath string `json:"project_path"`
	Message     string `json:"message,omitempty"`
}

// LLMResponse is the analysis file dropped into a project directory by an
// external model run, read by stage 6 when present.
type LLMResponse struct {
	// Overview is the synthesis text for the overview report.
	Overview string `json:"overview"`

	// Papers maps PMID to per-paper analysis text.
	Papers map[string]string `json:"papers"`
}
