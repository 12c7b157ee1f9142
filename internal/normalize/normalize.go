// Package normalize holds the pure field cleaners applied to every extracted
// raw string before a RaceData record is handed to the caller.
package normalize

import (
	"regexp"
	"strings"

	"race-extractor/internal/types"
)

var (
	timeRE     = regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}\b`)
	hourZeroRE = regexp.MustCompile(`^0(\d:)`)
	paceRE     = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	minZeroRE  = regexp.MustCompile(`^0(\d)`)
	numberRE   = regexp.MustCompile(`\b\d+\b`)
	rankRE     = regexp.MustCompile(`(?i)(\d+)\s*(?:/|of)\s*(\d+)`)
	kmishRE    = regexp.MustCompile(`(?i)\d+\.?\d*\s*(km|k)\b`)
)

// Time pulls the first H:MM:SS pattern out of raw and strips a single leading
// zero from the hour field ("01:45:22" becomes "1:45:22"; minute and second
// padding is preserved, so "00:05:01" becomes "0:05:01", not "5:01").
// Without a match the trimmed input passes through unchanged, which keeps
// M:SS finish times intact.
func Time(raw string) string {
	if m := timeRE.FindString(raw); m != "" {
		return hourZeroRE.ReplaceAllString(m, "$1")
	}
	return strings.TrimSpace(raw)
}

// Pace extracts a bare M:SS pace, skipping any minute:second pair that is
// actually a sub-component of a longer H:MM:SS time (a candidate adjacent to
// a colon on either side is part of a full time, not a pace).
func Pace(raw string) string {
	for _, loc := range paceRE.FindAllStringIndex(raw, -1) {
		if loc[0] > 0 && raw[loc[0]-1] == ':' {
			continue
		}
		if loc[1] < len(raw) && raw[loc[1]] == ':' {
			continue
		}
		return minZeroRE.ReplaceAllString(raw[loc[0]:loc[1]], "$1")
	}
	return strings.TrimSpace(raw)
}

// Number extracts the first integer run from raw.
func Number(raw string) string {
	if m := numberRE.FindString(raw); m != "" {
		return m
	}
	return strings.TrimSpace(raw)
}

// Position canonicalizes a placement into "rank/total" (keeping the original
// separator text) or a bare rank.
func Position(raw string) string {
	if m := rankRE.FindString(raw); m != "" {
		return m
	}
	if m := numberRE.FindString(raw); m != "" {
		return m
	}
	return strings.TrimSpace(raw)
}

// distanceLabels maps race-name vocabulary to canonical distance labels.
// Longer keys first so "full marathon" wins over "marathon" and
// "open 10k" over "10k".
var distanceLabels = []struct{ key, label string }{
	{"full marathon", "42.2 KM"},
	{"half marathon", "21.1 KM"},
	{"dream run", "6 KM"},
	{"open 10k", "10 KM"},
	{"marathon", "42.2 KM"},
	{"50 kms", "50 KM"},
	{"35 kms", "35 KM"},
	{"25 kms", "25 KM"},
	{"10km", "10 KM"},
	{"10k", "10 KM"},
	{"5km", "5 KM"},
	{"42k", "42 KM"},
	{"21k", "21 KM"},
	{"5k", "5 KM"},
	{"3km", "3 KM"},
	{"3k", "3 KM"},
}

// Distance resolves a raw distance or race-name string to a canonical label
// like "42.2 KM". Unrecognized text passes through unchanged; that is not an
// error, distance normalization is best-effort.
func Distance(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, d := range distanceLabels {
		if lower == d.key {
			return d.label
		}
	}
	for _, d := range distanceLabels {
		if strings.Contains(lower, d.key) {
			return d.label
		}
	}
	if kmishRE.MatchString(raw) {
		return raw
	}
	return raw
}

// Race runs every field of a freshly parsed record through the cleaners.
// Called once by the orchestrator after a parser reports success.
func Race(data *types.RaceData) {
	if data == nil {
		return
	}
	data.RaceName = strings.TrimSpace(data.RaceName)
	data.RaceDate = strings.TrimSpace(data.RaceDate)
	data.RunnerName = strings.TrimSpace(data.RunnerName)
	data.Distance = strings.TrimSpace(data.Distance)
	data.Category = strings.TrimSpace(data.Category)
	if data.BibNumber != "" {
		data.BibNumber = Number(data.BibNumber)
	}
	if data.NetTime != "" {
		data.NetTime = Time(data.NetTime)
	}
	if data.GunTime != "" {
		data.GunTime = Time(data.GunTime)
	}
	if data.Pace != "" {
		data.Pace = Pace(data.Pace)
	}
	if data.OverallPosition != "" {
		data.OverallPosition = Position(data.OverallPosition)
	}
	if data.CategoryPosition != "" {
		data.CategoryPosition = Position(data.CategoryPosition)
	}
}
