// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

func testFulltextConfig() types.FulltextConfig {
	return types.FulltextConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test"},
		Enabled:    true,
		MaxWords:   100,
		Retry:      types.RetryConfig{MaxAttempts: 2, Delay: 10 * time.Millisecond},
	}
}

// downloaderAt points the candidate URLs at a test server by fetching
// through it directly.
func fetchVia(t *testing.T, d *Downloader, url, dest string) error {
	t.Helper()
	return d.fetch(context.Background(), url, dest)
}

func TestFetchWritesPDF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		w.Write([]byte("%PDF-1.4 fake pdf body"))
	}))
	defer srv.Close()

	d := NewDownloader(testFulltextConfig(), zerolog.Nop())
	dest := filepath.Join(t.TempDir(), "paper.pdf")

	require.NoError(t, fetchVia(t, d, srv.URL, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake pdf body", string(data))
}

func TestFetchRejectsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>interstitial</body></html>"))
	}))
	defer srv.Close()

	d := NewDownloader(testFulltextConfig(), zerolog.Nop())
	dest := filepath.Join(t.TempDir(), "paper.pdf")

	err := fetchVia(t, d, srv.URL, dest)
	assert.ErrorIs(t, err, ErrNotPDF)
	assert.NoFileExists(t, dest)
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := NewDownloader(testFulltextConfig(), zerolog.Nop())
	err := fetchVia(t, d, srv.URL, filepath.Join(t.TempDir(), "paper.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestDownloadRequiresPMCID(t *testing.T) {
	d := NewDownloader(testFulltextConfig(), zerolog.Nop())
	err := d.Download(context.Background(), "", filepath.Join(t.TempDir(), "x.pdf"))
	assert.ErrorIs(t, err, ErrNoPMCID)
}

func TestDownloadSkipsExisting(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "paper.pdf")
	require.NoError(t, os.WriteFile(dest, []byte("%PDF-1.4 already here"), 0o644))

	// No server is running; a network attempt would fail.
	d := NewDownloader(testFulltextConfig(), zerolog.Nop())
	require.NoError(t, d.Download(context.Background(), "PMC1", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 already here", string(data))
}

func TestCandidateURLs(t *testing.T) {
	urls := candidateURLs("PMC12345")
	require.Len(t, urls, 2)
	for _, u := range urls {
		assert.Contains(t, u, "PMC12345")
		assert.Contains(t, u, "/pdf/")
	}
}
