// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext downloads open-access PDFs from PubMed Central and
// extracts their text for prompt building. Both operations are best
// effort: a paper whose PDF cannot be fetched or read falls back to its
// abstract downstream.
package fulltext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/pkg/types"
)

// Sentinel errors distinguishing why a paper has no full text.
var (
	// ErrNoPMCID means the paper has no PubMed Central record.
	ErrNoPMCID = errors.New("paper has no PMC record")

	// ErrAllSourcesFailed means every candidate PDF URL was tried.
	ErrAllSourcesFailed = errors.New("all PDF sources failed")

	// ErrNotPDF means the server responded but the payload is not a PDF,
	// typically an interstitial HTML page.
	ErrNotPDF = errors.New("response is not a PDF")
)

var pdfMagic = []byte("%PDF-")

// Downloader fetches open-access PDFs for PMC articles.
type Downloader struct {
	cfg    types.FulltextConfig
	http   *http.Client
	logger zerolog.Logger
}

// NewDownloader creates a Downloader from configuration.
func NewDownloader(cfg types.FulltextConfig, logger zerolog.Logger) *Downloader {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Downloader{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// candidateURLs lists the PDF locations tried for a PMC article, in
// preference order.
func candidateURLs(pmcid string) []string {
	return []string{
		"https://pmc.ncbi.nlm.nih.gov/articles/" + pmcid + "/pdf/",
		"https://www.ncbi.nlm.nih.gov/pmc/articles/" + pmcid + "/pdf/",
	}
}

// Download fetches the article PDF to destPath. An existing file at
// destPath is left alone so reruns skip completed downloads. Each
// candidate URL gets the configured number of attempts before the next
// one is tried.
func (d *Downloader) Download(ctx context.Context, pmcid, destPath string) error {
	if pmcid == "" {
		return ErrNoPMCID
	}

	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		d.logger.Debug().Str("pmcid", pmcid).Msg("pdf already downloaded")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating pdf directory: %w", err)
	}

	var lastErr error
	for _, pdfURL := range candidateURLs(pmcid) {
		for attempt := 1; attempt <= d.cfg.Retry.MaxAttempts; attempt++ {
			if attempt > 1 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(d.cfg.Retry.Delay):
				}
			}

			err := d.fetch(ctx, pdfURL, destPath)
			if err == nil {
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			lastErr = err
			d.logger.Debug().Str("pmcid", pmcid).Str("url", pdfURL).
				Int("attempt", attempt).Err(err).Msg("pdf download attempt failed")

			// A non-PDF payload is the server's answer, not a transient
			// failure. Move on to the next source.
			if errors.Is(err, ErrNotPDF) {
				break
			}
		}
	}
	return fmt.Errorf("%w for %s: %v", ErrAllSourcesFailed, pmcid, lastErr)
}

// fetch downloads one URL through a temp file, validating the PDF magic
// bytes before the rename so a failed download never leaves a partial or
// bogus file at destPath.
func (d *Downloader) fetch(ctx context.Context, pdfURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.http.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, pdfURL)
	}

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(resp.Body, head); err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if !bytes.Equal(head, pdfMagic) {
		return ErrNotPDF
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, io.MultiReader(bytes.NewReader(head), resp.Body))
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
