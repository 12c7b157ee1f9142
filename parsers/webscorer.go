package parsers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"race-extractor/internal/types"
)

// WebscorerParser extracts an individual result from a Webscorer page.
// Individual result URLs carry a racer/runnerid query parameter, or a name
// parameter, that pins down the right row in the results table.
type WebscorerParser struct{}

func (p *WebscorerParser) Platform() types.Platform { return types.PlatformWebscorer }

func (p *WebscorerParser) Parse(_ context.Context, in Input) types.ScrapeResult {
	doc := in.Doc
	if doc == nil {
		return types.Fail("Failed to parse Webscorer page.")
	}

	var racerID, nameParam string
	if u, err := url.Parse(in.URL); err == nil {
		q := u.Query()
		racerID = firstNonEmpty(q.Get("racer"), q.Get("runnerid"))
		nameParam = q.Get("name")
	}

	raceName := firstNonEmpty(
		selectText(doc, "h1.race-name, h1.race-title, #race-name, .race-header h1"),
		strings.TrimSpace(strings.SplitN(doc.Find("title").Text(), "-", 2)[0]),
		selectText(doc, "h1"),
	)

	raceDate := firstNonEmpty(
		selectText(doc, `.race-date, .event-date, [class*="date"]`),
		selectText(doc, "time"),
	)

	// Try to find the specific runner row
	var runnerRow *goquery.Selection
	if racerID != "" {
		runnerRow = doc.Find(fmt.Sprintf(`[data-racer="%s"], [data-runner="%s"], tr[id*="%s"]`, racerID, racerID, racerID))
	}
	if runnerRow == nil || runnerRow.Length() == 0 {
		runnerRow = doc.Find("tr.highlight, tr.selected, tr.current, .result-highlight, .my-result")
	}

	// Count result rows; many rows with no pinned runner means a leaderboard
	resultRows := doc.Find("table.results tr, table.result-table tr, .results-table tr").FilterFunction(
		func(_ int, row *goquery.Selection) bool {
			return row.Find("td").Length() > 2
		})
	if resultRows.Length() > 5 && runnerRow.Length() == 0 {
		return types.FailLeaderboard()
	}

	rowText := func(selector string) string {
		if runnerRow.Length() == 0 {
			return ""
		}
		return strings.TrimSpace(runnerRow.First().Find(selector).Text())
	}

	runnerName := firstNonEmpty(
		rowText(`td.name, td[data-field="name"], .runner-name`),
		nameParam,
		selectText(doc, ".runner-name, .participant-name, td.name"),
	)

	netTime := firstNonEmpty(
		rowText(`td.time, td[data-field="time"], .net-time`),
		selectText(doc, ".finish-time, .net-time, td.time"),
	)

	bibNumber := firstNonEmpty(
		rowText(`td.bib, td[data-field="bib"]`),
		selectText(doc, ".bib-number, td.bib"),
	)

	distance := firstNonEmpty(
		selectText(doc, `.race-distance, .distance, [class*="distance"]`),
		strings.TrimSpace(doc.Find("h2, h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return distanceWordRE.MatchString(s.Text())
		}).First().Text()),
	)

	pace := firstNonEmpty(
		rowText(`td.pace, td[data-field="pace"]`),
		selectText(doc, ".pace, td.pace"),
	)

	position := rowText("td.place, td.position, td:first-child")

	if netTime == "" && runnerName == "" {
		return types.Fail("Could not extract runner data from this Webscorer page.")
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
		Platform:        "Webscorer",
	})
}
