// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package figures

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/litreview/pkg/types"
)

// BrowserCapturer renders article pages in headless Chrome and
// screenshots each figure element.
type BrowserCapturer struct {
	cfg    types.FiguresConfig
	logger zerolog.Logger
}

// NewBrowserCapturer creates a BrowserCapturer from configuration.
func NewBrowserCapturer(cfg types.FiguresConfig, logger zerolog.Logger) *BrowserCapturer {
	return &BrowserCapturer{cfg: cfg, logger: logger}
}

// Capture loads the PMC article page, locates figure elements, and
// writes one PNG per figure into destDir, named <pmcid>_<figid>.png.
// A figure whose screenshot fails is still recorded, flagged as failed,
// so downstream stages know it existed.
func (b *BrowserCapturer) Capture(ctx context.Context, pmcid, destDir string, max int) ([]types.Figure, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating figure directory: %w", err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, b.cfg.Timeout)
		defer cancel()
	}

	pageURL := articleURL(b.cfg.ArticleBaseURL, pmcid)

	var nodes []*cdp.Node
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Nodes(`figure, div.fig`, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading article page: %w", err)
	}

	if max > 0 && len(nodes) > max {
		nodes = nodes[:max]
	}

	figures := make([]types.Figure, 0, len(nodes))
	for i, node := range nodes {
		figureID := fmt.Sprintf("fig%d", i+1)
		figure := types.Figure{
			FigureID:    figureID,
			OriginalURL: pageURL,
			Method:      types.FigureMethodBrowser,
		}

		var caption string
		// AtLeast(0) keeps a missing figcaption from blocking.
		capErr := chromedp.Run(browserCtx,
			chromedp.Text(`figcaption, div.caption`, &caption,
				chromedp.ByQuery, chromedp.FromNode(node), chromedp.AtLeast(0)),
		)
		if capErr == nil {
			figure.Caption = caption
		}

		var shot []byte
		err := chromedp.Run(browserCtx,
			chromedp.ScrollIntoView([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID),
			chromedp.Screenshot([]cdp.NodeID{node.NodeID}, &shot, chromedp.ByNodeID),
		)
		if err != nil {
			b.logger.Debug().Str("pmcid", pmcid).Str("figure", figureID).
				Err(err).Msg("figure screenshot failed")
			figure.DownloadFailed = true
			figures = append(figures, figure)
			continue
		}

		localPath := filepath.Join(destDir, pmcid+"_"+figureID+".png")
		if err := os.WriteFile(localPath, shot, 0o644); err != nil {
			return nil, fmt.Errorf("writing figure %s: %w", figureID, err)
		}
		figure.LocalPath = localPath
		figure.IsOriginal = true
		figures = append(figures, figure)
	}
	return figures, nil
}
