package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"race-extractor/internal/types"
)

// FetchMode selects how a page is retrieved before parsing.
type FetchMode string

const (
	// FetchStatic is a plain HTTP GET; the platform serves real HTML.
	FetchStatic FetchMode = "static"
	// FetchBrowser renders in headless Chrome; the platform serves a JS shell.
	FetchBrowser FetchMode = "browser"
	// FetchNone skips retrieval entirely; the parser calls the provider API
	// from identifiers embedded in the URL.
	FetchNone FetchMode = "none"
	// FetchAuto fetches statically, then upgrades to a browser render when
	// the response looks like an empty client-side shell.
	FetchAuto FetchMode = "auto"
)

// StrategyFor returns the cheapest fetch mode known to work for a platform.
func StrategyFor(platform types.Platform) FetchMode {
	switch platform {
	case types.PlatformWebscorer, types.PlatformAthlinks:
		return FetchStatic
	case types.PlatformRaceResult, types.PlatformIfinish:
		return FetchBrowser
	case types.PlatformSportstiming, types.PlatformNYRR:
		return FetchNone
	default:
		return FetchAuto
	}
}

type pageFetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

type pageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Fetcher retrieves page HTML using whichever mode the platform calls for.
type Fetcher struct {
	logger  types.Logger
	http    pageFetcher
	browser pageRenderer
}

func NewFetcher(logger types.Logger, httpClient pageFetcher, browser pageRenderer) *Fetcher {
	return &Fetcher{logger: logger, http: httpClient, browser: browser}
}

// Fetch returns the page HTML for url under the given mode. FetchNone returns
// an empty document; the platform parser works from the URL alone.
func (f *Fetcher) Fetch(ctx context.Context, url string, mode FetchMode) (string, error) {
	switch mode {
	case FetchNone:
		return "", nil

	case FetchStatic:
		return f.http.Get(ctx, url)

	case FetchBrowser:
		html, err := f.browser.Render(ctx, url)
		if err != nil {
			// Degrade to the static body; some fields may still be present
			f.logger.Warnf("browser render failed, falling back to static fetch: %v", err)
			return f.http.Get(ctx, url)
		}
		return html, nil

	default: // FetchAuto
		html, err := f.http.Get(ctx, url)
		if err != nil {
			f.logger.Debugf("static fetch failed, trying browser render: %v", err)
			rendered, rerr := f.browser.Render(ctx, url)
			if rerr != nil {
				// The typed fetch error carries the user-facing category;
				// the render error would flatten it to generic copy.
				return "", err
			}
			return rendered, nil
		}
		if !looksLikeJSShell(html) {
			return html, nil
		}
		f.logger.Debug("static HTML looks like a JS shell, upgrading to browser render")
		rendered, rerr := f.browser.Render(ctx, url)
		if rerr != nil {
			// Degraded but non-empty beats nothing
			f.logger.Warnf("browser render failed, keeping static HTML: %v", rerr)
			return html, nil
		}
		return rendered, nil
	}
}

var (
	mustacheRE   = regexp.MustCompile(`\{\{.*?\}\}`)
	whitespaceRE = regexp.MustCompile(`\s+`)
	jsRequiredRE = regexp.MustCompile(`(?i)enable javascript|javascript is required|javascript to run`)
)

// looksLikeJSShell reports whether statically-fetched HTML is an empty
// client-side application shell: almost no visible text, unexpanded template
// placeholders, or a noscript-style "enable JavaScript" notice on an
// otherwise thin page.
func looksLikeJSShell(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return true
	}
	doc.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(whitespaceRE.ReplaceAllString(doc.Find("body").Text(), " "))

	if len(text) < 600 {
		return true
	}
	// Placeholders and notices only count in the visible text; an inline
	// framework bundle full of template literals is not a shell.
	if len(mustacheRE.FindAllString(text, 5)) > 4 {
		return true
	}
	if jsRequiredRE.MatchString(text) && len(text) < 2000 {
		return true
	}
	return false
}
