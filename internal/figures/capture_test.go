// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

type stubCapturer struct {
	perCall  time.Duration
	err      error
	inflight atomic.Int32
	peak     atomic.Int32
}

func (s *stubCapturer) Capture(ctx context.Context, pmcid, destDir string, max int) ([]types.Figure, error) {
	cur := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		peak := s.peak.Load()
		if cur <= peak || s.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	if s.perCall > 0 {
		time.Sleep(s.perCall)
	}
	if s.err != nil {
		return nil, s.err
	}
	return []types.Figure{{
		FigureID:    "fig1",
		Caption:     "figure from " + pmcid,
		Method:      types.FigureMethodBrowser,
		IsOriginal:  true,
	}}, nil
}

func testPapers(n int) []types.Paper {
	papers := make([]types.Paper, n)
	for i := range papers {
		papers[i] = types.Paper{
			PMID:  fmt.Sprintf("pmid%d", i),
			PMCID: fmt.Sprintf("PMC%d", i),
		}
	}
	return papers
}

func TestCaptureAllPreservesOrder(t *testing.T) {
	stub := &stubCapturer{perCall: 5 * time.Millisecond}
	svc := NewServiceWith(types.FiguresConfig{Concurrency: 4, MaxPerPaper: 5}, stub, nil, zerolog.Nop())

	papers := testPapers(12)
	records := svc.CaptureAll(context.Background(), papers, t.TempDir())

	require.Len(t, records, len(papers))
	for i, record := range records {
		assert.Equal(t, papers[i].PMID, record.PMID, "position %d", i)
		assert.Equal(t, 1, record.FigureCount)
	}
}

func TestCaptureAllBoundsConcurrency(t *testing.T) {
	stub := &stubCapturer{perCall: 10 * time.Millisecond}
	svc := NewServiceWith(types.FiguresConfig{Concurrency: 3}, stub, nil, zerolog.Nop())

	svc.CaptureAll(context.Background(), testPapers(10), t.TempDir())
	assert.LessOrEqual(t, stub.peak.Load(), int32(3))
}

func TestCaptureOneSkipsWithoutPMCID(t *testing.T) {
	stub := &stubCapturer{}
	svc := NewServiceWith(types.FiguresConfig{Concurrency: 1}, stub, nil, zerolog.Nop())

	records := svc.CaptureAll(context.Background(), []types.Paper{{PMID: "1"}}, t.TempDir())
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Figures)
	assert.Equal(t, noPMCNote, records[0].Note)
}

func TestCaptureOneFallsBack(t *testing.T) {
	broken := &stubCapturer{err: errors.New("no browser")}
	working := &stubCapturer{}
	svc := NewServiceWith(types.FiguresConfig{Concurrency: 1}, broken, working, zerolog.Nop())

	records := svc.CaptureAll(context.Background(), testPapers(1), t.TempDir())
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].FigureCount)
}

func TestCaptureOneRecordsTotalFailure(t *testing.T) {
	broken := &stubCapturer{err: errors.New("network down")}
	svc := NewServiceWith(types.FiguresConfig{Concurrency: 1}, broken, broken, zerolog.Nop())

	records := svc.CaptureAll(context.Background(), testPapers(1), t.TempDir())
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Figures)
	assert.Contains(t, records[0].Note, "figure capture failed")
}

func TestSummarize(t *testing.T) {
	records := []types.PaperFigures{
		{Figures: []types.Figure{{}, {}}},
		{Figures: nil},
		{Figures: []types.Figure{{}}},
	}
	total, withFigures := Summarize(records)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, withFigures)
}

func TestParseFigures(t *testing.T) {
	page := `<html><body>
	<figure class="fig">
	  <img src="/articles/PMC1/bin/fig1.jpg">
	  <figcaption>Figure 1.  Study   design.</figcaption>
	</figure>
	<div class="fig">
	  <img data-src="https://cdn.example.org/fig2.png">
	  <div class="caption">Figure 2. Results.</div>
	</div>
	<div class="not-a-figure"><img src="/logo.png"></div>
	</body></html>`

	figures, err := ParseFigures(strings.NewReader(page), "https://pmc.ncbi.nlm.nih.gov/articles/PMC1/")
	require.NoError(t, err)
	require.Len(t, figures, 2)

	assert.Equal(t, "fig1", figures[0].FigureID)
	assert.Equal(t, "https://pmc.ncbi.nlm.nih.gov/articles/PMC1/bin/fig1.jpg", figures[0].OriginalURL)
	assert.Equal(t, "Figure 1. Study design.", figures[0].Caption)
	assert.Equal(t, types.FigureMethodURLOnly, figures[0].Method)
	assert.False(t, figures[0].IsOriginal)
	assert.True(t, figures[0].DownloadFailed, "url-only records carry no local image")

	assert.Equal(t, "https://cdn.example.org/fig2.png", figures[1].OriginalURL)
	assert.Equal(t, "Figure 2. Results.", figures[1].Caption)
	assert.True(t, figures[1].DownloadFailed)
}

func TestParseFiguresEmptyPage(t *testing.T) {
	figures, err := ParseFigures(strings.NewReader("<html><body><p>no figures</p></body></html>"), "https://example.org/")
	require.NoError(t, err)
	assert.Empty(t, figures)
}

func TestScraperCapture(t *testing.T) {
	page := `<html><body>
	<figure class="fig"><img src="bin/a.jpg"><figcaption>A.</figcaption></figure>
	<figure class="fig"><img src="bin/b.jpg"><figcaption>B.</figcaption></figure>
	<figure class="fig"><img src="bin/c.jpg"><figcaption>C.</figcaption></figure>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/PMC1/", r.URL.Path)
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	s := NewScraper(types.FiguresConfig{ArticleBaseURL: srv.URL})
	figures, err := s.Capture(context.Background(), "PMC1", t.TempDir(), 2)
	require.NoError(t, err)
	require.Len(t, figures, 2)
	assert.Equal(t, srv.URL+"/PMC1/bin/a.jpg", figures[0].OriginalURL)
	assert.Equal(t, types.FigureMethodURLOnly, figures[0].Method)
}

func TestScraperCaptureErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewScraper(types.FiguresConfig{ArticleBaseURL: srv.URL})
	_, err := s.Capture(context.Background(), "PMC1", t.TempDir(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}
