// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package entrez

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/litreview/pkg/types"
)

// maxResponseBytes bounds how much of an E-utilities response is read.
const maxResponseBytes = 10 << 20

// SearchResponse is the result of a Search call: the total hit count on
// the server and the fetched page of papers.
type SearchResponse struct {
	TotalFound int
	Papers     []types.Paper
}

// Client calls the NCBI E-utilities endpoints. All requests share one
// token-bucket rate limiter, so a Client is safe for concurrent use and
// stays inside the NCBI request-rate policy.
type Client struct {
	cfg     types.EntrezConfig
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client from configuration. With an API key NCBI
// allows 10 requests per second instead of 3; the caller sets the rate
// accordingly.
func NewClient(cfg types.EntrezConfig) *Client {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 3
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RateLimit)
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
	}
}

// Search runs esearch followed by efetch and returns up to maxResults
// papers in the server's relevance order. A query with no hits is not an
// error; the response carries an empty paper list.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (*SearchResponse, error) {
	result, err := c.esearch(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	if result.ErrorList != nil && len(result.ErrorList.PhraseNotFound) > 0 {
		return &SearchResponse{}, nil
	}
	if len(result.IDList.IDs) == 0 {
		return &SearchResponse{TotalFound: result.Count}, nil
	}

	papers, err := c.Fetch(ctx, result.IDList.IDs)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{TotalFound: result.Count, Papers: papers}, nil
}

// Fetch retrieves article metadata for a list of PMIDs via efetch. The
// returned papers follow the efetch response order, which matches the
// requested ID order.
func (c *Client) Fetch(ctx context.Context, pmids []string) ([]types.Paper, error) {
	if len(pmids) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	var set PubmedArticleSet
	if err := c.get(ctx, "efetch.fcgi", params, &set); err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}

	papers := make([]types.Paper, 0, len(set.Articles))
	for _, article := range set.Articles {
		papers = append(papers, articleToPaper(article))
	}
	return papers, nil
}

// LinkPMCIDs maps PMIDs to PMCIDs via elink. PMIDs without a PubMed
// Central record are absent from the returned map.
func (c *Client) LinkPMCIDs(ctx context.Context, pmids []string) (map[string]string, error) {
	if len(pmids) == 0 {
		return map[string]string{}, nil
	}

	params := url.Values{}
	params.Set("dbfrom", "pubmed")
	params.Set("db", "pmc")
	params.Set("retmode", "xml")
	for _, pmid := range pmids {
		params.Add("id", pmid)
	}

	var result ELinkResult
	if err := c.get(ctx, "elink.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("elink: %w", err)
	}

	links := make(map[string]string, len(result.LinkSets))
	for _, set := range result.LinkSets {
		if len(set.IDList.IDs) == 0 {
			continue
		}
		pmid := set.IDList.IDs[0]
		for _, db := range set.LinkSetDbs {
			if db.LinkName != "pubmed_pmc" || len(db.Links) == 0 {
				continue
			}
			links[pmid] = "PMC" + db.Links[0].ID
			break
		}
	}
	return links, nil
}

// ResolveDOIs maps PMIDs to DOIs using article metadata from efetch.
// PMIDs without a resolvable DOI are absent from the returned map.
func (c *Client) ResolveDOIs(ctx context.Context, pmids []string) (map[string]string, error) {
	if len(pmids) == 0 {
		return map[string]string{}, nil
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(pmids, ","))
	params.Set("retmode", "xml")
	params.Set("rettype", "abstract")

	var set PubmedArticleSet
	if err := c.get(ctx, "efetch.fcgi", params, &set); err != nil {
		return nil, fmt.Errorf("efetch: %w", err)
	}

	dois := make(map[string]string, len(set.Articles))
	for _, article := range set.Articles {
		if doi := extractDOI(article); doi != "" {
			dois[article.MedlineCitation.PMID.Value] = doi
		}
	}
	return dois, nil
}

func (c *Client) esearch(ctx context.Context, query string, maxResults int) (*ESearchResult, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", query)
	params.Set("retmode", "xml")
	params.Set("retmax", strconv.Itoa(maxResults))
	params.Set("sort", "relevance")

	var result ESearchResult
	if err := c.get(ctx, "esearch.fcgi", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// get issues one rate-limited GET against an E-utilities endpoint and
// decodes the XML response into out. Transient failures (network errors,
// 429, 5xx) are retried with a fixed delay up to the configured attempt
// count.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.cfg.Tool != "" {
		params.Set("tool", c.cfg.Tool)
	}
	if c.cfg.Email != "" {
		params.Set("email", c.cfg.Email)
	}
	if c.cfg.APIKey != "" {
		params.Set("api_key", c.cfg.APIKey)
	}

	reqURL := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.Retry.Delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		body, err := c.do(ctx, reqURL)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			var retryable *retryableError
			if !errors.As(err, &retryable) {
				return err
			}
			lastErr = err
			continue
		}

		if err := xml.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding %s response: %w", endpoint, err)
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts: %w", endpoint, c.cfg.Retry.MaxAttempts, lastErr)
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &retryableError{fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &retryableError{fmt.Errorf("server returned status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// articleToPaper maps one efetch article record to the pipeline's paper
// shape, taking only the bibliographic fields.
func articleToPaper(article PubmedArticle) types.Paper {
	citation := article.MedlineCitation

	journal := citation.Article.Journal.Title
	if journal == "" {
		journal = citation.Article.Journal.ISOAbbreviation
	}

	return types.Paper{
		PMID:     citation.PMID.Value,
		Title:    strings.TrimSpace(citation.Article.ArticleTitle),
		Abstract: extractAbstract(citation.Article.Abstract),
		Authors:  extractAuthors(citation.Article.AuthorList),
		Journal:  journal,
		PubDate:  extractPubDate(citation.Article),
	}
}

// extractDOI checks ELocationID first, then the article ID list.
func extractDOI(article PubmedArticle) string {
	for _, eloc := range article.MedlineCitation.Article.ELocationID {
		if eloc.EIdType == "doi" && (eloc.Valid == "" || eloc.Valid == "Y") {
			return eloc.Value
		}
	}
	for _, aid := range article.PubmedData.ArticleIdList.ArticleIds {
		if aid.IdType == "doi" {
			return aid.Value
		}
	}
	return ""
}

// extractAbstract joins the abstract sections, prefixing labeled sections
// of structured abstracts with their labels.
func extractAbstract(abstract *Abstract) string {
	if abstract == nil {
		return ""
	}
	if len(abstract.AbstractTexts) == 1 && abstract.AbstractTexts[0].Label == "" {
		return strings.TrimSpace(abstract.AbstractTexts[0].Value)
	}

	var parts []string
	for _, at := range abstract.AbstractTexts {
		text := strings.TrimSpace(at.Value)
		if text == "" {
			continue
		}
		if at.Label != "" {
			parts = append(parts, at.Label+": "+text)
		} else {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func extractAuthors(list *AuthorList) []string {
	if list == nil {
		return nil
	}
	authors := make([]string, 0, len(list.Authors))
	for _, a := range list.Authors {
		if a.ValidYN == "N" {
			continue
		}
		name := a.CollectiveName
		if name == "" {
			var parts []string
			if a.ForeName != "" {
				parts = append(parts, a.ForeName)
			}
			if a.LastName != "" {
				parts = append(parts, a.LastName)
			}
			name = strings.Join(parts, " ")
		}
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// extractPubDate prefers the electronic ArticleDate, falling back to the
// journal issue PubDate, including its MedlineDate form.
func extractPubDate(article Article) string {
	for _, ad := range article.ArticleDate {
		if ad.Year != "" {
			return formatDate(ad.Year, ad.Month, ad.Day)
		}
	}

	pd := article.Journal.JournalIssue.PubDate
	if pd.Year != "" {
		return formatDate(pd.Year, pd.Month, pd.Day)
	}
	if pd.MedlineDate != "" {
		return pd.MedlineDate
	}
	return ""
}

func formatDate(year, month, day string) string {
	s := year
	if month != "" {
		s += " " + month
		if day != "" {
			s += " " + day
		}
	}
	return s
}
