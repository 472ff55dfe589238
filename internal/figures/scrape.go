// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package figures collects article figures from PubMed Central pages.
// The primary path renders the page in a headless browser and screenshots
// each figure element; when no browser is available the package degrades
// to scraping figure URLs and captions out of the page HTML.
package figures

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// articleURL is the PMC article page for a PMCID.
func articleURL(base, pmcid string) string {
	if base == "" {
		base = "https://pmc.ncbi.nlm.nih.gov/articles"
	}
	return strings.TrimRight(base, "/") + "/" + pmcid + "/"
}

// Capturer extracts up to max figures for a PMC article into destDir.
type Capturer interface {
	Capture(ctx context.Context, pmcid, destDir string, max int) ([]types.Figure, error)
}

// Scraper is the degraded capturer: it parses the article HTML and
// records figure URLs and captions without downloading images.
type Scraper struct {
	cfg  types.FiguresConfig
	http *http.Client
}

// NewScraper creates a Scraper from configuration.
func NewScraper(cfg types.FiguresConfig) *Scraper {
	return &Scraper{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Capture fetches the article page and returns URL-only figure records.
// destDir is unused; nothing is written to disk.
func (s *Scraper) Capture(ctx context.Context, pmcid, destDir string, max int) ([]types.Figure, error) {
	pageURL := articleURL(s.cfg.ArticleBaseURL, pmcid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.http, req, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching article page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, pageURL)
	}

	figures, err := ParseFigures(resp.Body, pageURL)
	if err != nil {
		return nil, err
	}
	if max > 0 && len(figures) > max {
		figures = figures[:max]
	}
	return figures, nil
}

// ParseFigures walks an article HTML document and extracts figure image
// URLs and captions. Relative image URLs are resolved against baseURL.
func ParseFigures(r io.Reader, baseURL string) ([]types.Figure, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing article HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	var figures []types.Figure
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isFigureNode(n) {
			src := findImageSrc(n)
			caption := findCaption(n)
			if src != "" || caption != "" {
				figures = append(figures, types.Figure{
					FigureID:       fmt.Sprintf("fig%d", len(figures)+1),
					Caption:        caption,
					OriginalURL:    resolveURL(base, src),
					IsOriginal:     false,
					Method:         types.FigureMethodURLOnly,
					DownloadFailed: true,
				})
			}
			// Figure elements do not nest.
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return figures, nil
}

// isFigureNode matches <figure> elements and the div.fig wrappers PMC
// uses in older article markup.
func isFigureNode(n *html.Node) bool {
	switch n.Data {
	case "figure":
		return true
	case "div":
		return hasClass(n, "fig")
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// findImageSrc returns the first <img> source inside a figure node,
// preferring src over lazy-load data-src.
func findImageSrc(n *html.Node) string {
	var src string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if src != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "img" {
			if v := attrValue(n, "src"); v != "" {
				src = v
				return
			}
			if v := attrValue(n, "data-src"); v != "" {
				src = v
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return src
}

// findCaption returns the text of the figcaption or div.caption inside a
// figure node.
func findCaption(n *html.Node) string {
	var caption *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if caption != nil {
			return
		}
		if n.Type == html.ElementNode &&
			(n.Data == "figcaption" || (n.Data == "div" && hasClass(n, "caption"))) {
			caption = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	if caption == nil {
		return ""
	}
	return strings.Join(strings.Fields(nodeText(caption)), " ")
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
		sb.WriteString(" ")
	}
	return sb.String()
}

func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
