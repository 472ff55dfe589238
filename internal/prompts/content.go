// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package prompts

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// Content is a paper's prompt content with its provenance.
type Content struct {
	// Text is the content body.
	Text string

	// Source is types.ContentFulltext or types.ContentAbstract.
	Source string

	// Note explains an abstract fallback in human-readable form. Empty
	// when the full text was used.
	Note string
}

// abstractNotes maps an enrichment outcome to the reason shown in the
// provenance tag when the prompt falls back to the abstract.
var abstractNotes = map[string]string{
	types.FulltextNoPMCID:        "no open-access full text",
	types.FulltextDownloadFailed: "PDF download failed",
	types.FulltextExtractFailed:  "PDF text extraction failed",
}

// SourceTag renders the provenance tag used inside prompts: the
// uppercase source, with the fallback reason appended for abstracts.
func (c Content) SourceTag() string {
	tag := strings.ToUpper(c.Source)
	if c.Note != "" {
		tag += " - " + c.Note
	}
	return tag
}

// SelectContent picks a paper's prompt content deterministically: the
// extracted full text when enrichment succeeded and the file is readable,
// the abstract otherwise. The same artifact state always yields the same
// choice.
func SelectContent(paper types.Paper, projectPath string) Content {
	if paper.FulltextStatus == types.FulltextSuccess && paper.FulltextPath != "" {
		path := paper.FulltextPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectPath, path)
		}
		if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
			return Content{Text: string(data), Source: types.ContentFulltext}
		}
		return Content{Text: paper.Abstract, Source: types.ContentAbstract, Note: "full text unreadable"}
	}
	return Content{Text: paper.Abstract, Source: types.ContentAbstract, Note: abstractNotes[paper.FulltextStatus]}
}

// TruncateWords cuts text to at most maxWords words. The second return
// value reports whether anything was cut. maxWords <= 0 disables the cap.
func TruncateWords(text string, maxWords int) (string, bool) {
	if maxWords <= 0 {
		return text, false
	}
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text, false
	}
	return strings.Join(words[:maxWords], " "), true
}
