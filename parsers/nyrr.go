package parsers

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"race-extractor/internal/types"
	"race-extractor/utils"
)

// NYRRParser resolves a New York Road Runners result through the NYRR
// results API. The URL path carries the event code and bib. Runner data and
// event overview are fetched concurrently; the overview only enriches race
// name and date, so its failure never fails the request.
type NYRRParser struct {
	config *types.Config
	logger types.Logger
	http   *utils.HTTPClient
}

func NewNYRRParser(config *types.Config, logger types.Logger, httpClient *utils.HTTPClient) *NYRRParser {
	return &NYRRParser{config: config, logger: logger, http: httpClient}
}

func (p *NYRRParser) Platform() types.Platform { return types.PlatformNYRR }

var nyrrURLRE = regexp.MustCompile(`/event/([^/]+)/result/([^/?#]+)`)

type nyrrRunnerResponse struct {
	Success  bool          `json:"success"`
	Finisher *nyrrFinisher `json:"finisher"`
}

type nyrrFinisher struct {
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Bib                  flexString `json:"bib"`
	OverallTime          string     `json:"overallTime"`
	Pace                 string     `json:"pace"`
	Gender               string     `json:"gender"`
	OverallPlace         flexString `json:"overallPlace"`
	TotalFinishers       flexString `json:"totalFinishers"`
	GenderPlace          flexString `json:"genderPlace"`
	TotalGenderFinishers flexString `json:"totalGenderFinishers"`
}

type nyrrEventResponse struct {
	Name         string     `json:"name"`
	Date         flexString `json:"date"`
	DistanceName string     `json:"distanceName"`
	Distance     flexString `json:"distance"`
}

func (p *NYRRParser) Parse(ctx context.Context, in Input) types.ScrapeResult {
	m := nyrrURLRE.FindStringSubmatch(in.URL)
	if m == nil {
		return types.Fail("Could not parse NYRR result URL.")
	}
	eventCode, bib := m[1], m[2]

	headers := map[string]string{
		"Origin":  "https://results.nyrr.org",
		"Referer": "https://results.nyrr.org/",
	}

	var (
		wg        sync.WaitGroup
		runner    nyrrRunnerResponse
		runnerErr error
		event     nyrrEventResponse
		eventErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		runnerErr = p.http.PostJSON(ctx, p.config.NYRRAPIBase+"/runners/eventRunner", headers,
			map[string]string{"eventCode": eventCode, "bib": bib}, &runner)
	}()
	go func() {
		defer wg.Done()
		eventErr = p.http.PostJSON(ctx, p.config.NYRRAPIBase+"/events/overview", headers,
			map[string]string{"eventCode": eventCode}, &event)
	}()
	wg.Wait()

	if runnerErr != nil || !runner.Success {
		if runnerErr != nil {
			p.logger.Warnf("NYRR runner call failed: %v", runnerErr)
		}
		return types.Fail("Could not fetch your NYRR result. Please check the link.")
	}
	if runner.Finisher == nil {
		return types.Fail("No result found for this bib number.")
	}
	if eventErr != nil {
		p.logger.Debugf("NYRR event overview unavailable, continuing without it: %v", eventErr)
		event = nyrrEventResponse{}
	}

	fin := runner.Finisher

	raceName := event.Name
	if raceName == "" {
		raceName = "NYRR " + eventCode
	}
	raceDate := formatRaceDate(event.Date.String())
	distance := firstNonEmpty(event.DistanceName, event.Distance.String())

	runnerName := fin.FirstName
	if fin.LastName != "" {
		if runnerName != "" {
			runnerName += " "
		}
		runnerName += fin.LastName
	}

	if fin.OverallTime == "" && runnerName == "" {
		return types.Fail("Could not extract result data from this NYRR result.")
	}

	overallPos := position(fin.OverallPlace.String(), fin.TotalFinishers.String())
	genderPos := position(fin.GenderPlace.String(), fin.TotalGenderFinishers.String())

	category := ""
	switch fin.Gender {
	case "M":
		category = "Male"
	case "F":
		category = "Female"
	}

	return types.Ok(&types.RaceData{
		RaceName:         raceName,
		RaceDate:         raceDate,
		RunnerName:       runnerName,
		BibNumber:        firstNonEmpty(fin.Bib.String(), bib),
		Distance:         distance,
		NetTime:          fin.OverallTime,
		Pace:             fin.Pace,
		OverallPosition:  overallPos,
		CategoryPosition: genderPos,
		Category:         category,
		Platform:         "NYRR",
	})
}

// position renders "place/total", a bare place, or nothing.
func position(place, total string) string {
	if place == "" {
		return ""
	}
	if total != "" {
		return fmt.Sprintf("%s/%s", place, total)
	}
	return place
}
