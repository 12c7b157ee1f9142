package parsers

import (
	"context"
	"regexp"
	"strings"

	"race-extractor/internal/normalize"
	"race-extractor/internal/types"
)

// IfinishParser extracts an individual result from an iFinish page.
//
// The rendered page exposes no useful structure, only a stable sequence of
// text nodes: a provisional-results disclaimer, then race name, runner name,
// bib, and labeled stat lines where each value follows its label. The parser
// anchors on the disclaimer and reads fields positionally. This is brittle
// by design: it works only because the iFinish template is stable, and a
// template change will break it without a type error. The characterization
// tests pin the current template.
type IfinishParser struct{}

func (p *IfinishParser) Platform() types.Platform { return types.PlatformIfinish }

var (
	ifinishDistanceHintRE = regexp.MustCompile(`(?i)marathon|10k|5k|21k|42k`)
	ifinishGenderRE       = regexp.MustCompile(`(?i)^(male|female|m|f)$`)
	ifinishCategoryRE     = regexp.MustCompile(`(?i)^category\s*[-–]`)
	ifinishCategoryCutRE  = regexp.MustCompile(`(?i)^category\s*[-–]\s*`)
	ifinishRaceNameCutRE  = regexp.MustCompile(`\s*~\s*.+$`)
	ifinishNetTimeRE      = regexp.MustCompile(`(?i)^net time$`)
	ifinishGrossTimeRE    = regexp.MustCompile(`(?i)^gross time$`)
	ifinishNetPaceRE      = regexp.MustCompile(`(?i)net pace`)
	ifinishGrossPaceRE    = regexp.MustCompile(`(?i)gross pace`)
	ifinishOverallRankRE  = regexp.MustCompile(`(?i)^overall rank$`)
	ifinishGenderRankRE   = regexp.MustCompile(`(?i)^gender rank$`)
	ifinishPaceZeroRE     = regexp.MustCompile(`^0(\d:)`)
)

func (p *IfinishParser) Parse(_ context.Context, in Input) types.ScrapeResult {
	if in.Doc == nil {
		return types.Fail("Failed to parse iFinish page.")
	}
	lines := textLines(in.Doc)

	// Locate the anchor: the disclaimer line that always precedes the block
	startIdx := -1
	for i, l := range lines {
		if strings.Contains(l, "RESULTS ARE PROVISIONAL") || strings.Contains(l, "PROVISIONAL") {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		// Fallback: a long distance-bearing line sits right after the race name
		for i, l := range lines {
			if ifinishDistanceHintRE.MatchString(l) && len(l) > 15 {
				startIdx = i - 1
				break
			}
		}
	}
	if startIdx < 0 {
		return types.Fail("Could not locate result data on this iFinish page.")
	}

	resultLines := lines[startIdx+1:]
	lineAt := func(i int) string {
		if i >= 0 && i < len(resultLines) {
			return resultLines[i]
		}
		return ""
	}
	// findValue reads the line after the first line matching label
	findValue := func(label *regexp.Regexp) string {
		for i, l := range resultLines {
			if label.MatchString(l) {
				return lineAt(i + 1)
			}
		}
		return ""
	}
	findLine := func(match func(string) bool) string {
		for _, l := range resultLines {
			if match(l) {
				return l
			}
		}
		return ""
	}

	rawRaceName := lineAt(0)
	// Drop a trailing "~ HALF MARATHON" style suffix from the race name
	raceName := strings.TrimSpace(ifinishRaceNameCutRE.ReplaceAllString(rawRaceName, ""))
	if raceName == "" {
		raceName = rawRaceName
	}

	runnerName := lineAt(1)
	bibNumber := nonDigitRE.ReplaceAllString(lineAt(2), "")

	distanceLine := findLine(func(l string) bool { return normalize.Distance(l) != l })
	distance := normalize.Distance(rawRaceName)
	if distanceLine != "" {
		distance = normalize.Distance(distanceLine)
	}

	category := ""
	if catLine := findLine(func(l string) bool { return ifinishCategoryRE.MatchString(l) }); catLine != "" {
		category = strings.TrimSpace(ifinishCategoryCutRE.ReplaceAllString(catLine, ""))
	}
	if category == "" {
		if g := findLine(func(l string) bool { return ifinishGenderRE.MatchString(l) }); g != "" {
			category = g
		}
	}

	netTime := findValue(ifinishNetTimeRE)
	grossTime := findValue(ifinishGrossTimeRE)

	// Prefer net pace; fall back to gross pace. Strip leading zero: "05:01" → "5:01"
	paceRaw := firstNonEmpty(findValue(ifinishNetPaceRE), findValue(ifinishGrossPaceRE))
	pace := ifinishPaceZeroRE.ReplaceAllString(paceRaw, "$1")

	overallRank := findValue(ifinishOverallRankRE)
	genderRank := findValue(ifinishGenderRankRE)

	overallPosition := ""
	if overallRank != "" {
		overallPosition = overallRank
		if genderRank != "" {
			overallPosition = overallRank + " overall"
		}
	}

	if netTime == "" && runnerName == "" {
		return types.Fail("Could not extract result data from this iFinish page.")
	}

	return types.Ok(&types.RaceData{
		RaceName:        firstNonEmpty(raceName, "Race"),
		RaceDate:        "",
		RunnerName:      runnerName,
		BibNumber:       bibNumber,
		Distance:        distance,
		NetTime:         netTime,
		GunTime:         grossTime,
		Pace:            pace,
		OverallPosition: overallPosition,
		Category:        category,
		Platform:        "iFinish",
	})
}
