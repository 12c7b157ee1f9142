// Package parsers holds one extraction strategy per supported timing platform
// plus the generic fallback. Every parser degrades to a typed failure; none
// panics across the package boundary.
package parsers

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"race-extractor/ai"
	"race-extractor/internal/types"
	"race-extractor/utils"
)

// Input carries the rendered page and its URL into a parser. Doc is nil for
// API-backed platforms, which fetch their own data from identifiers embedded
// in the URL.
type Input struct {
	URL string
	Doc *goquery.Document
}

// Parser is the common contract all platform strategies implement.
type Parser interface {
	Platform() types.Platform
	Parse(ctx context.Context, in Input) types.ScrapeResult
}

// Registry maps platforms to their parsers, falling back to the generic
// parser for anything unrecognized.
type Registry struct {
	parsers map[types.Platform]Parser
	generic Parser
}

// NewRegistry wires up every platform parser. The extractor may be nil when
// no LLM credential is configured; the generic parser degrades accordingly.
func NewRegistry(config *types.Config, logger types.Logger, httpClient *utils.HTTPClient, extractor ai.Extractor) *Registry {
	r := &Registry{
		parsers: make(map[types.Platform]Parser),
		generic: NewGenericParser(logger, extractor),
	}
	for _, p := range []Parser{
		&WebscorerParser{},
		&RaceResultParser{},
		&AthlinksParser{},
		&IfinishParser{},
		NewSportstimingParser(config, logger, httpClient),
		NewNYRRParser(config, logger, httpClient),
	} {
		r.parsers[p.Platform()] = p
	}
	return r
}

// For returns the parser for a platform, or the generic fallback.
func (r *Registry) For(platform types.Platform) Parser {
	if p, ok := r.parsers[platform]; ok {
		return p
	}
	return r.generic
}
