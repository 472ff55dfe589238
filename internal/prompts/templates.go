// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package prompts builds the LLM prompt files: one analysis prompt per
// paper and one merged overview prompt for the whole result set. Prompt
// content comes from extracted full text when a paper has it and from
// the abstract otherwise, and every content block is tagged with its
// source so the model knows what it is reading.
package prompts

import (
	"fmt"
	"os"
	"text/template"

	"go.yaml.in/yaml/v3"
)

// defaultPaperTemplate is the per-paper analysis prompt.
var defaultPaperTemplate = `You are a research assistant analyzing a scientific paper. Read the paper content below and produce a structured analysis.

Title: {{.Title}}
Authors: {{.Authors}}
Journal: {{.Journal}}{{if .PubDate}} ({{.PubDate}}){{end}}
PMID: {{.PMID}}
{{- if .DOI}}
DOI: {{.DOI}}
{{- end}}

[SOURCE: {{.SourceTag}}]

{{.Content}}

{{if .HasFigures}}This paper has {{.FigureCount}} figure(s) available alongside this prompt.

{{end -}}
Provide your analysis as the following sections:
1. Summary: two to three sentences describing what the paper is about.
2. Key findings: the main results, with numbers where the paper gives them.
3. Methods: the experimental or computational approach.
4. Limitations: weaknesses or open questions the paper leaves.
5. Relevance: how this paper relates to the topic "{{.Query}}".
`

// defaultOverviewTemplate is the merged prompt covering every paper in
// the project. Per-paper content sections are built by the caller and
// passed in pre-rendered.
var defaultOverviewTemplate = `You are a research assistant writing a literature overview on the topic "{{.Query}}". Below are {{.PaperCount}} papers retrieved for this topic. Each paper section is tagged with its content source: FULLTEXT sections contain the extracted article text, ABSTRACT sections only the abstract, with the reason full text was unavailable.

{{.PaperSections}}

Write a structured literature overview with the following sections:
1. Introduction: the state of the field and why the topic matters.
2. Themes: the major lines of work across these papers, grouped by approach or question.
3. Agreements and contradictions: where the papers support or dispute each other.
4. Gaps: what the literature has not yet answered.
5. Conclusion: a short synthesis.

Cite papers by first author and PMID, e.g. (Smith et al., PMID 12345678).
`

// Templates holds the parsed prompt templates.
type Templates struct {
	Paper    *template.Template
	Overview *template.Template
}

// templateFile is the YAML shape of a template override file.
type templateFile struct {
	Paper    string `yaml:"paper"`
	Overview string `yaml:"overview"`
}

// LoadTemplates parses the built-in templates, overridden by any set in
// the YAML file at path. An empty path loads the defaults.
func LoadTemplates(path string) (*Templates, error) {
	paperText := defaultPaperTemplate
	overviewText := defaultOverviewTemplate

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template file: %w", err)
		}
		var tf templateFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("parsing template file: %w", err)
		}
		if tf.Paper != "" {
			paperText = tf.Paper
		}
		if tf.Overview != "" {
			overviewText = tf.Overview
		}
	}

	paper, err := template.New("paper").Parse(paperText)
	if err != nil {
		return nil, fmt.Errorf("parsing paper template: %w", err)
	}
	overview, err := template.New("overview").Parse(overviewText)
	if err != nil {
		return nil, fmt.Errorf("parsing overview template: %w", err)
	}
	return &Templates{Paper: paper, Overview: overview}, nil
}
