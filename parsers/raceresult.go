package parsers

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"race-extractor/internal/types"
)

// RaceResultParser extracts an individual result from a my.raceresult.com
// page. Individual results are addressed by a URL hash; without one, a page
// full of result rows is a leaderboard.
type RaceResultParser struct{}

func (p *RaceResultParser) Platform() types.Platform { return types.PlatformRaceResult }

func (p *RaceResultParser) Parse(_ context.Context, in Input) types.ScrapeResult {
	doc := in.Doc
	if doc == nil {
		return types.Fail("Failed to parse RaceResult page.")
	}

	hasHash := false
	if u, err := url.Parse(in.URL); err == nil {
		hasHash = len(u.Fragment) > 3
	}

	// RaceResult embeds result data in JSON script blocks on rendered pages
	embedded := map[string]flexString{}
	doc.Find(`script[type="application/json"], script#result-data`).Each(func(_ int, s *goquery.Selection) {
		var parsed map[string]flexString
		if err := json.Unmarshal([]byte(s.Text()), &parsed); err != nil {
			return
		}
		if parsed["name"] != "" || parsed["Name"] != "" {
			embedded = parsed
		}
	})
	emb := func(keys ...string) string {
		for _, k := range keys {
			if v := embedded[k]; v != "" {
				return v.String()
			}
		}
		return ""
	}

	raceName := firstNonEmpty(
		emb("EventName", "event"),
		selectText(doc, "h1, .event-name, .race-name"),
		strings.TrimSpace(strings.SplitN(doc.Find("title").Text(), "|", 2)[0]),
	)

	raceDate := firstNonEmpty(
		emb("EventDate"),
		selectText(doc, ".event-date, .race-date"),
	)

	runnerName := firstNonEmpty(
		emb("Name", "name"),
		selectText(doc, ".participant-name, .runner-name, h2.name"),
	)

	netTime := firstNonEmpty(
		emb("NetTime", "FinishTime"),
		selectText(doc, `.net-time, .finish-time, [data-field="NetTime"]`),
	)

	bibNumber := firstNonEmpty(
		emb("BibNumber", "Bib"),
		selectText(doc, `.bib, .bib-number, [data-field="BibNumber"]`),
	)

	distance := firstNonEmpty(
		emb("Distance"),
		selectText(doc, ".distance, .race-distance"),
	)

	pace := firstNonEmpty(
		emb("Pace"),
		selectText(doc, `.pace, [data-field="Pace"]`),
	)

	position := firstNonEmpty(
		emb("PlaceTotal"),
		selectText(doc, `.place, .position, [data-field="Place"]`),
	)

	resultRowCount := doc.Find("table tbody tr, .result-row").Length()
	if resultRowCount > 10 && !hasHash && runnerName == "" && netTime == "" {
		return types.FailLeaderboard()
	}

	if netTime == "" && runnerName == "" {
		return types.Fail("Could not extract runner data from this RaceResult page.")
	}

	return types.Ok(&types.RaceData{
		RaceName:        firstNonEmpty(raceName, "Race"),
		RaceDate:        raceDate,
		RunnerName:      runnerName,
		BibNumber:       bibNumber,
		Distance:        distance,
		NetTime:         netTime,
		Pace:            pace,
		OverallPosition: position,
		Platform:        "RaceResult",
	})
}
