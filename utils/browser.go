package utils

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/chromedp/chromedp"

	"race-extractor/internal/types"
)

// BrowserClient is the full render path: a sandboxed headless Chrome with a
// mobile user agent and viewport, for platforms that serve an empty shell to
// plain HTTP clients.
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// Render navigates to url in a fresh headless browser and returns the page
// HTML after scripts have run. The browser process is torn down on every exit
// path: all lifecycle contexts are cancelled via defer, so a navigation error
// or timeout can never leak a Chrome process.
func (b *BrowserClient) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(b.config.UserAgent),
		chromedp.WindowSize(390, 844),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, b.config.BrowserTimeout)
	defer timeoutCancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Extra settle delay for late-loading result widgets
		chromedp.Sleep(b.config.SettleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	b.logger.Debugf("rendered %d bytes from %s", len(html), url)
	return html, nil
}
