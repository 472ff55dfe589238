// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litreview/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RetryConfig is the bounded-retry policy applied to collaborator calls:
// a fixed number of attempts with a constant delay between them.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts" mapstructure:"max_attempts"`

	// Delay is the fixed pause between consecutive attempts.
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// EntrezConfig holds settings for the NCBI E-utilities client used by
// stages 1 and 2.
type EntrezConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the E-utilities endpoint. Defaults to the NCBI production URL.
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Email identifies the caller to NCBI, per their usage policy.
	Email string `json:"email" yaml:"email" mapstructure:"email"`

	// APIKey raises the NCBI rate limit from 3 to 10 requests per second.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Tool is the registered tool name sent with every request.
	Tool string `json:"tool" yaml:"tool" mapstructure:"tool"`

	// RateLimit is the sustained request rate in requests per second.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`

	// Burst is the token-bucket burst size.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// Retry bounds transient-failure retries for every E-utilities call.
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// FulltextConfig holds settings for PMC PDF download and text extraction
// (stage 2 enrichment).
type FulltextConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled controls whether stage 2 attempts PDF download at all.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MaxWords caps extracted full text; longer texts are reduced to key
	// sections before persisting.
	MaxWords int `json:"max_words" yaml:"max_words" mapstructure:"max_words"`

	// PdftotextPath locates the pdftotext binary used for extraction.
	// An empty value means "pdftotext" resolved via PATH.
	PdftotextPath string `json:"pdftotext_path,omitempty" yaml:"pdftotext_path,omitempty" mapstructure:"pdftotext_path"`

	// Retry bounds download retries per source URL.
	Retry RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// FiguresConfig holds settings for the figure-capture stage (stage 3).
type FiguresConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// ArticleBaseURL is the PMC article page root. Defaults to the NCBI
	// production URL.
	ArticleBaseURL string `json:"article_base_url" yaml:"article_base_url" mapstructure:"article_base_url"`

	// MaxPerPaper caps the number of figures captured per paper.
	MaxPerPaper int `json:"max_per_paper" yaml:"max_per_paper" mapstructure:"max_per_paper"`

	// Concurrency is the number of papers processed in parallel. The pool
	// is private to stage 3; the pipeline itself stays sequential.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// BrowserEnabled controls whether headless-browser capture is attempted.
	// When false (or when no browser is available) the stage degrades to
	// URL-only figure records.
	BrowserEnabled bool `json:"browser_enabled" yaml:"browser_enabled" mapstructure:"browser_enabled"`
}

// PromptConfig holds settings for prompt generation (stages 4 and 5).
type PromptConfig struct {
	// TemplateFile is an optional YAML file overriding the built-in
	// single-paper and merged prompt templates.
	TemplateFile string `json:"template_file,omitempty" yaml:"template_file,omitempty" mapstructure:"template_file"`

	// MaxWordsPerPaper caps each paper's content section in the merged
	// overview prompt. Sections over the cap are truncated and flagged.
	MaxWordsPerPaper int `json:"max_words_per_paper" yaml:"max_words_per_paper" mapstructure:"max_words_per_paper"`
}

// ReportConfig holds settings for HTML report rendering (stage 6).
type ReportConfig struct {
	// ImageWidth is the display width in pixels for embedded figures.
	ImageWidth int `json:"image_width" yaml:"image_width" mapstructure:"image_width"`
}

// WebConfig holds settings for the HTTP front end.
type WebConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds structured-logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is the output format: "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for the pipeline. It is built once in main and
// threaded as a parameter into every component constructor.
type Config struct {
	// OutputDir is the base directory holding project directories.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// CacheDir holds cross-project caches (the enrichment database).
	CacheDir string `json:"cache_dir" yaml:"cache_dir" mapstructure:"cache_dir"`

	// MaxResults is the maximum number of papers returned by stage 1.
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	Entrez   EntrezConfig   `json:"entrez" yaml:"entrez" mapstructure:"entrez"`
	Fulltext FulltextConfig `json:"fulltext" yaml:"fulltext" mapstructure:"fulltext"`
	Figures  FiguresConfig  `json:"figures" yaml:"figures" mapstructure:"figures"`
	Prompt   PromptConfig   `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Report   ReportConfig   `json:"report" yaml:"report" mapstructure:"report"`
	Web      WebConfig      `json:"web" yaml:"web" mapstructure:"web"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DefaultConfig returns the configuration used when no config file or flags
// override anything.
func DefaultConfig() Config {
	return Config{
		OutputDir:  "projects",
		CacheDir:   "cache",
		MaxResults: 20,
		Entrez: EntrezConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litreview/0.1"},
			BaseURL:    "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			Email:      "user@example.com",
			Tool:       "litreview",
			RateLimit:  3,
			Burst:      3,
			Retry:      RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second},
		},
		Fulltext: FulltextConfig{
			HTTPConfig: HTTPConfig{Timeout: 60 * time.Second, UserAgent: "litreview/0.1"},
			Enabled:    true,
			MaxWords:   8000,
			Retry:      RetryConfig{MaxAttempts: 3, Delay: 2 * time.Second},
		},
		Figures: FiguresConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "litreview/0.1"},
			ArticleBaseURL: "https://pmc.ncbi.nlm.nih.gov/articles",
			MaxPerPaper:    5,
			Concurrency:    3,
			BrowserEnabled: true,
		},
		Prompt: PromptConfig{MaxWordsPerPaper: 8000},
		Report: ReportConfig{ImageWidth: 600},
		Web: WebConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}
