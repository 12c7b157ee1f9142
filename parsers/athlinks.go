package parsers

import (
	"context"
	"regexp"
	"strings"

	"race-extractor/internal/types"
)

var athlinksBibRE = regexp.MustCompile(`(?i)/Bib/(\d+)`)

// AthlinksParser extracts an individual result from an Athlinks page.
// Athlinks addresses individuals in the URL path
// (/event/{id}/results/Race/{raceId}/Bib/{bib}), and its markup uses
// generated class names, so every selector matches on class substrings.
type AthlinksParser struct{}

func (p *AthlinksParser) Platform() types.Platform { return types.PlatformAthlinks }

func (p *AthlinksParser) Parse(_ context.Context, in Input) types.ScrapeResult {
	doc := in.Doc
	if doc == nil {
		return types.Fail("Failed to parse Athlinks page.")
	}

	var bibFromURL string
	if m := athlinksBibRE.FindStringSubmatch(in.URL); m != nil {
		bibFromURL = m[1]
	}

	raceName := firstNonEmpty(
		selectText(doc, `h1[class*="event"], h1[class*="race"], .event-name`),
		selectText(doc, "h1"),
		strings.TrimSpace(strings.SplitN(doc.Find("title").Text(), "|", 2)[0]),
	)

	raceDate := selectText(doc, `[class*="date"], [class*="Date"]`)

	runnerName := firstNonEmpty(
		selectText(doc, `[class*="athlete"], [class*="Athlete"], [class*="participant"]`),
		selectText(doc, "h2"),
	)

	netTime := firstNonEmpty(
		selectText(doc, `[class*="chip-time"], [class*="ChipTime"], [class*="net-time"]`),
		selectText(doc, `[class*="finish-time"], [class*="FinishTime"]`),
	)

	gunTime := selectText(doc, `[class*="gun-time"], [class*="GunTime"]`)

	bibNumber := firstNonEmpty(
		bibFromURL,
		nonDigitRE.ReplaceAllString(selectText(doc, `[class*="bib"], [class*="Bib"]`), ""),
	)

	distance := selectText(doc, `[class*="distance"], [class*="Distance"]`)
	pace := selectText(doc, `[class*="pace"], [class*="Pace"]`)
	position := selectText(doc, `[class*="overall-place"], [class*="OverallPlace"], [class*="place"]`)
	category := selectText(doc, `[class*="division"], [class*="Division"], [class*="age-group"]`)

	if netTime == "" && runnerName == "" {
		return types.Fail("Could not extract runner data from this Athlinks page.")
	}

	return types.Ok(&types.RaceData{
		RaceName:        firstNonEmpty(raceName, "Race"),
		RaceDate:        raceDate,
		RunnerName:      runnerName,
		BibNumber:       bibNumber,
		Distance:        distance,
		NetTime:         netTime,
		GunTime:         gunTime,
		Pace:            pace,
		OverallPosition: position,
		Category:        category,
		Platform:        "Athlinks",
	})
}
