// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/pkg/types"
)

// ErrEmptyExtraction means pdftotext ran but produced no usable text,
// which happens with scanned or image-only PDFs.
var ErrEmptyExtraction = errors.New("extraction produced no text")

// Extractor converts PDFs to plain text. Different backends could
// implement this; the pipeline ships with the pdftotext backend.
type Extractor interface {
	// Extract reads the PDF at pdfPath and returns its plain text.
	Extract(ctx context.Context, pdfPath string) (string, error)
}

// PdftotextExtractor shells out to the poppler pdftotext tool.
type PdftotextExtractor struct {
	// Path locates the binary; empty means "pdftotext" via PATH.
	Path string
}

// Extract runs pdftotext in layout-free mode and returns the text.
func (e *PdftotextExtractor) Extract(ctx context.Context, pdfPath string) (string, error) {
	bin := e.Path
	if bin == "" {
		bin = "pdftotext"
	}

	// "-" sends the text to stdout.
	cmd := exec.CommandContext(ctx, bin, "-q", pdfPath, "-")
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// Processor drives extraction for one paper: run the extractor, reduce
// oversized text to its key sections, and persist the result.
type Processor struct {
	cfg       types.FulltextConfig
	extractor Extractor
	logger    zerolog.Logger
}

// NewProcessor creates a Processor. A nil extractor selects the
// pdftotext backend with the configured binary path.
func NewProcessor(cfg types.FulltextConfig, extractor Extractor, logger zerolog.Logger) *Processor {
	if extractor == nil {
		extractor = &PdftotextExtractor{Path: cfg.PdftotextPath}
	}
	return &Processor{cfg: cfg, extractor: extractor, logger: logger}
}

// Process extracts text from pdfPath, writes it to txtPath, and returns
// the persisted word count. Text over the configured word cap is reduced
// to key sections first.
func (p *Processor) Process(ctx context.Context, pdfPath, txtPath string) (int, error) {
	text, err := p.extractor.Extract(ctx, pdfPath)
	if err != nil {
		return 0, err
	}

	text = normalizeText(text)
	if wordCount(text) < 50 {
		return 0, ErrEmptyExtraction
	}
	if !HasSectionHeadings(text) {
		p.logger.Warn().Str("pdf", filepath.Base(pdfPath)).
			Msg("extracted text has no section headings, may be scanned or malformed")
	}

	if p.cfg.MaxWords > 0 && wordCount(text) > p.cfg.MaxWords {
		reduced := ReduceToKeySections(text, p.cfg.MaxWords)
		p.logger.Debug().Str("pdf", filepath.Base(pdfPath)).
			Int("words", wordCount(text)).Int("reduced", wordCount(reduced)).
			Msg("reduced fulltext to key sections")
		text = reduced
	}

	if err := os.MkdirAll(filepath.Dir(txtPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating fulltext directory: %w", err)
	}
	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		return 0, fmt.Errorf("writing fulltext: %w", err)
	}
	return wordCount(text), nil
}

var (
	multiBlank  = regexp.MustCompile(`\n{3,}`)
	sectionHead = regexp.MustCompile(`(?im)^\s*(?:\d+\.?\s+)?(abstract|introduction|background|methods?|materials and methods|results?|discussion|conclusions?|summary)\b`)

	// References and beyond carry little prompt value and a lot of words.
	tailHead = regexp.MustCompile(`(?im)^\s*(references|bibliography|acknowledg(e)?ments|supplementary material)\b`)
)

// normalizeText collapses pdftotext artifacts: form feeds, trailing
// whitespace, and runs of blank lines.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\f", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(multiBlank.ReplaceAllString(text, "\n\n"))
}

// ReduceToKeySections shrinks article text to fit maxWords. It first
// drops everything from the references section on, then, if still over
// the cap, keeps the leading maxWords words with a truncation marker.
func ReduceToKeySections(text string, maxWords int) string {
	if loc := tailHead.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[:loc[0]])
	}
	if wordCount(text) <= maxWords {
		return text
	}

	words := strings.Fields(text)
	return strings.Join(words[:maxWords], " ") + "\n\n[content truncated]"
}

// HasSectionHeadings reports whether the text looks like a structured
// article rather than raw OCR noise.
func HasSectionHeadings(text string) bool {
	return sectionHead.MatchString(text)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
