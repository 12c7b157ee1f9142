// Package scraper orchestrates the pipeline: URL normalization, platform
// detection, fetch strategy, parser dispatch and final field cleanup.
package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"race-extractor/ai"
	"race-extractor/internal/normalize"
	"race-extractor/internal/types"
	"race-extractor/parsers"
	"race-extractor/utils"
)

const (
	msgInvalidURL   = "Invalid URL format. Please check the link and try again."
	msgFetchFailed  = "Failed to fetch the page."
	msgParseFailed  = "Failed to parse this page."
	msgLeaderboard  = "This link shows the full race leaderboard, not your individual result. Please find your specific result — search for your name or BIB number on the race website — then paste that individual link here."
	hintLeaderboard = `Tip: Look for a "Search" or "Find my result" option on the race results page.`
)

// DetectPlatform maps a hostname onto a known timing platform. Unknown hosts
// map to the generic platform, never to an error.
func DetectPlatform(hostname string) types.Platform {
	hostname = strings.ToLower(hostname)
	switch {
	case strings.Contains(hostname, "webscorer.com"):
		return types.PlatformWebscorer
	case strings.Contains(hostname, "raceresult.com"):
		return types.PlatformRaceResult
	case strings.Contains(hostname, "athlinks.com"):
		return types.PlatformAthlinks
	case strings.Contains(hostname, "ifinish.in"):
		return types.PlatformIfinish
	case strings.Contains(hostname, "sportstimingsolutions.in"):
		return types.PlatformSportstiming
	case strings.Contains(hostname, "results.nyrr.org"):
		return types.PlatformNYRR
	default:
		return types.PlatformGeneric
	}
}

// Scraper is one configured pipeline instance. It is safe for concurrent use.
type Scraper struct {
	config   *types.Config
	logger   types.Logger
	fetcher  *Fetcher
	registry *parsers.Registry
}

// New builds a Scraper with real HTTP and browser clients. The extractor may
// be nil when no LLM credential is configured.
func New(config *types.Config, logger types.Logger, extractor ai.Extractor) *Scraper {
	httpClient := utils.NewHTTPClient(config, logger)
	browser := utils.NewBrowserClient(config, logger)
	return &Scraper{
		config:   config,
		logger:   logger,
		fetcher:  NewFetcher(logger, httpClient, browser),
		registry: parsers.NewRegistry(config, logger, httpClient, extractor),
	}
}

// ScrapeRaceResult runs the full pipeline for one URL and always returns a
// well-formed result; every failure mode maps to user-facing copy.
func (s *Scraper) ScrapeRaceResult(ctx context.Context, rawURL string) types.ScrapeResult {
	normalized := strings.TrimSpace(rawURL)
	if normalized == "" {
		return types.Fail(msgInvalidURL)
	}
	if !strings.HasPrefix(normalized, "http") {
		normalized = "https://" + normalized
	}

	u, err := url.Parse(normalized)
	if err != nil || u.Hostname() == "" {
		return types.Fail(msgInvalidURL)
	}

	platform := DetectPlatform(u.Hostname())
	mode := StrategyFor(platform)
	s.logger.Infof("scraping url=%s platform=%s mode=%s", normalized, platform, mode)

	html, err := s.fetcher.Fetch(ctx, normalized, mode)
	if err != nil {
		var fe *utils.FetchError
		if errors.As(err, &fe) {
			return types.Fail(fe.Message())
		}
		s.logger.Warnf("fetch failed: %v", err)
		return types.Fail(msgFetchFailed)
	}

	var doc *goquery.Document
	if mode != FetchNone {
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return types.Fail(msgParseFailed)
		}
	}

	result := s.registry.For(platform).Parse(ctx, parsers.Input{URL: normalized, Doc: doc})

	if !result.Success && result.IsLeaderboardPage {
		return types.ScrapeResult{
			IsLeaderboardPage: true,
			Error:             msgLeaderboard,
			Hint:              hintLeaderboard,
		}
	}

	if result.Success && result.Data != nil {
		normalize.Race(result.Data)
	}

	return result
}
