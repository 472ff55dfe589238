// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Fulltext status values recorded per paper during stage 2. Exactly one of
// these is set on every paper once enrichment has run.
const (
	// FulltextSuccess means a PDF was downloaded and text extracted.
	FulltextSuccess = "success"

	// FulltextNoPMCID means the paper has no PubMed Central record, so no
	// free full text exists to fetch.
	FulltextNoPMCID = "no_pmcid"

	// FulltextDownloadFailed means every candidate PDF URL failed.
	FulltextDownloadFailed = "download_failed"

	// FulltextExtractFailed means the PDF downloaded but text extraction
	// produced nothing usable.
	FulltextExtractFailed = "extract_failed"
)

// Paper is one retrieved publication. Stage 1 fills the bibliographic
// fields; stage 2 adds the enrichment fields in place.
type Paper struct {
	PMID     string   `json:"pmid"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	Journal  string   `json:"journal"`
	PubDate  string   `json:"pub_date"`

	// Enrichment fields, populated by stage 2.

	// PMCID is the PubMed Central identifier, empty when the paper has no
	// PMC record.
	PMCID string `json:"pmcid,omitempty"`

	// DOI is the digital object identifier, empty when unresolvable.
	DOI string `json:"doi,omitempty"`

	// AuthorsShort is a citation-style author string, e.g.
	// "Smith J et al." for three or more authors.
	AuthorsShort string `json:"authors_short,omitempty"`

	// HasFreeFulltext reports whether a PMC record exists for the paper.
	HasFreeFulltext bool `json:"has_free_fulltext"`

	// PDFPath is the project-relative path of the downloaded PDF.
	PDFPath string `json:"pdf_path,omitempty"`

	// FulltextPath is the project-relative path of the extracted text.
	FulltextPath string `json:"fulltext_path,omitempty"`

	// FulltextStatus is one of the Fulltext* constants.
	FulltextStatus string `json:"fulltext_status,omitempty"`

	// FulltextWordCount is the word count of the extracted text after any
	// section reduction.
	FulltextWordCount int `json:"fulltext_word_count,omitempty"`
}

// ShortAuthors renders the citation form of an author list: the sole
// author verbatim, two authors joined with "and", three or more as
// "First et al.".
func ShortAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return authors[0] + " et al."
	}
}
