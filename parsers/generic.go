package parsers

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"race-extractor/ai"
	"race-extractor/internal/types"
)

// GenericParser handles the long tail of unknown timing platforms with
// layered confidence: structured label/value extraction, keyword
// classification, heading and structured-data hints, and finally an LLM
// extraction call when no explicitly labeled net time was found.
type GenericParser struct {
	logger    types.Logger
	extractor ai.Extractor // nil when no credential is configured
}

func NewGenericParser(logger types.Logger, extractor ai.Extractor) *GenericParser {
	return &GenericParser{logger: logger, extractor: extractor}
}

func (p *GenericParser) Platform() types.Platform { return types.PlatformGeneric }

const (
	msgNoAIFallback = "Could not extract race data from this page. Please ensure the link goes to your individual result, not the full leaderboard."
	msgAIFailed     = "Could not extract race data. Please try a direct link to your individual result."
	msgAINoResult   = "Could not find individual race result data on this page. Please make sure the URL links to your specific result — not the full race leaderboard."
)

var (
	genericPaceValueRE = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*(?:/km|per km|min/km|/mile|per mile|min/mi)`)
	genericDateRE      = regexp.MustCompile(`(?i)\b(\d{1,2}[/\-\s]\w+[/\-\s]\d{2,4}|\w+\s+\d{1,2},?\s+\d{4}|\d{4}-\d{2}-\d{2})\b`)
	labelCharsRE       = regexp.MustCompile(`[^a-z0-9\s]`)
	siblingLabelRE     = regexp.MustCompile(`(?i)official[\s_]?time|net[\s_]?time|chip[\s_]?time|gun[\s_]?time|finish[\s_]?time|total[\s_]?time|avg[\s_]?pace|overall|position|rank|bib`)
	headingNoiseRE     = regexp.MustCompile(`(?i)race|event|result|welcome|login|register`)
	digitRE            = regexp.MustCompile(`\d`)
	collapseLinesRE    = regexp.MustCompile(`\n{3,}`)

	netLabelRE       = regexp.MustCompile(`net|chip|finish|result|zeit|temps|tiempo|tempo|official`)
	gunLabelRE       = regexp.MustCompile(`gun|gross|clock|wall`)
	plainTimeLabelRE = regexp.MustCompile(`^time$|^finish time$|^race time$|^total time$`)
	bibLabelRE       = regexp.MustCompile(`^bib$|bib no|race no|start no|number|startnr|nr\.|dorsale`)
	distLabelRE      = regexp.MustCompile(`^distance$|^dist$|^km$|category distance`)
	nameLabelRE      = regexp.MustCompile(`^name$|^runner$|^athlete$|^participant$|^finisher$|^competitor$`)
	posLabelRE       = regexp.MustCompile(`^place$|^position$|^rank$|^overall$|^pos$|placement|overall place`)
	catLabelRE       = regexp.MustCompile(`^category$|^division$|^age group$|^gender$|^class$|cat\.`)
	paceLabelRE      = regexp.MustCompile(`pace|min/km|tempo medio|avg pace`)
	dateLabelRE      = regexp.MustCompile(`^date$|^race date$|event date`)
)

// labelValue is one extracted label/value pair, kept in document order so
// classification is deterministic and auditable.
type labelValue struct {
	label string
	value string
}

type pairSet struct {
	pairs []labelValue
	index map[string]int
}

func newPairSet() *pairSet {
	return &pairSet{index: make(map[string]int)}
}

func (ps *pairSet) set(label, value string) {
	if i, ok := ps.index[label]; ok {
		ps.pairs[i].value = value
		return
	}
	ps.index[label] = len(ps.pairs)
	ps.pairs = append(ps.pairs, labelValue{label: label, value: value})
}

func (ps *pairSet) has(label string) bool {
	_, ok := ps.index[label]
	return ok
}

// extractLabelValuePairs scans tables, definition lists, results-flavored
// containers and small sibling groups for label/value pairs.
func extractLabelValuePairs(doc *goquery.Document) *pairSet {
	ps := newPairSet()

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		label := labelCharsRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(cells.Eq(0).Text())), "")
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label != "" && value != "" && len(label) < 50 && len(value) < 100 {
			ps.set(label, value)
		}
	})

	doc.Find("dl dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(dt.Text()))
		dd := dt.Next()
		if !dd.Is("dd") {
			return
		}
		value := strings.TrimSpace(dd.Text())
		if label != "" && value != "" {
			ps.set(label, value)
		}
	})

	// Divs/spans with colon-separated label:value
	doc.Find(`[class*="result"], [class*="stat"], [class*="detail"], [class*="info"], [class*="field"], [class*="row"]`).Each(
		func(_ int, el *goquery.Selection) {
			text := strings.TrimSpace(el.Text())
			colonIdx := strings.Index(text, ":")
			if colonIdx <= 0 || colonIdx >= 35 || len(text) >= 120 {
				return
			}
			label := strings.ToLower(strings.TrimSpace(text[:colonIdx]))
			value := strings.TrimSpace(strings.SplitN(strings.TrimSpace(text[colonIdx+1:]), "\n", 2)[0])
			if label != "" && value != "" && len(value) < 80 {
				ps.set(label, value)
			}
		})

	// Sibling scan: recovers flex/grid card layouts where label and value are
	// separate children of a common parent, e.g.
	//   <div><span>OFFICIAL TIME</span><span>01:57:09</span></div>
	// Coupled to nothing but child count and label vocabulary, so it is the
	// loosest extractor here and never overrides a structured match.
	doc.Find("*").Each(func(_ int, container *goquery.Selection) {
		kids := container.Children()
		if kids.Length() < 2 || kids.Length() > 6 {
			return
		}
		kids.Each(func(_ int, kid *goquery.Selection) {
			// Only leaf kids can be labels; a composite kid's text is its
			// whole subtree and would fabricate label/value pairs out of
			// table rows already handled above.
			if kid.Children().Length() > 0 {
				return
			}
			kidText := strings.TrimSpace(kid.Text())
			if !siblingLabelRE.MatchString(kidText) || len(kidText) > 50 {
				return
			}
			label := strings.TrimSpace(labelCharsRE.ReplaceAllString(strings.ToLower(kidText), " "))
			if ps.has(label) {
				return
			}
			kids.EachWithBreak(func(_ int, sib *goquery.Selection) bool {
				if sib.Nodes[0] == kid.Nodes[0] {
					return true
				}
				val := strings.TrimSpace(sib.Text())
				if val != "" && len(val) < 80 {
					ps.set(label, val)
					return false
				}
				return true
			})
		})
	})

	return ps
}

// classifyPairs maps labels onto RaceData fields by keyword families.
// netTimeLabeled records whether the net time came from an explicitly
// labeled pair; an unlabeled fallback must not stop escalation to the LLM.
func classifyPairs(ps *pairSet) (data types.RaceData, netTimeLabeled bool) {
	var allTimes []string

	for _, pair := range ps.pairs {
		label, value := pair.label, pair.value

		if fullTimeRE.MatchString(value) {
			allTimes = append(allTimes, value)
		}

		if netLabelRE.MatchString(label) && fullTimeRE.MatchString(value) {
			data.NetTime = firstNonEmpty(fullTimeRE.FindString(value), value)
			netTimeLabeled = true
		}
		if gunLabelRE.MatchString(label) && fullTimeRE.MatchString(value) {
			data.GunTime = firstNonEmpty(fullTimeRE.FindString(value), value)
		}
		if plainTimeLabelRE.MatchString(label) && data.NetTime == "" && fullTimeRE.MatchString(value) {
			data.NetTime = firstNonEmpty(fullTimeRE.FindString(value), value)
		}
		if bibLabelRE.MatchString(label) {
			bib := labelCharsRE.ReplaceAllString(strings.ToLower(value), "")
			bib = strings.ReplaceAll(bib, " ", "")
			if len(bib) > 10 {
				bib = bib[:10]
			}
			data.BibNumber = bib
		}
		if distLabelRE.MatchString(label) {
			data.Distance = value
		}
		if nameLabelRE.MatchString(label) && data.RunnerName == "" && len(value) > 2 && len(value) < 60 {
			data.RunnerName = value
		}
		if posLabelRE.MatchString(label) {
			data.OverallPosition = value
		}
		if catLabelRE.MatchString(label) {
			if digitRE.MatchString(value) {
				data.CategoryPosition = value
			} else {
				data.Category = value
			}
		}
		if paceLabelRE.MatchString(label) || genericPaceValueRE.MatchString(value) {
			data.Pace = value
		}
		if dateLabelRE.MatchString(label) && genericDateRE.MatchString(value) {
			data.RaceDate = value
		}
	}

	// Last-resort fallback: pick the largest bare time as the finish time,
	// on the assumption that splits are always shorter than the total. A
	// relay leg whose reported split exceeds the finish time would fool
	// this, which is one reason an unlabeled match still escalates to the
	// LLM layer instead of being accepted.
	if data.NetTime == "" && len(allTimes) > 0 {
		largest, largestSecs := "", -1
		for _, v := range allTimes {
			secs := timeToSeconds(fullTimeRE.FindString(v))
			if secs > largestSecs {
				largest, largestSecs = v, secs
			}
		}
		data.NetTime = largest
	}

	return data, netTimeLabeled
}

func timeToSeconds(t string) int {
	parts := strings.Split(t, ":")
	secs := 0
	for _, p := range parts {
		n := 0
		for _, c := range p {
			if c < '0' || c > '9' {
				return -1
			}
			n = n*10 + int(c-'0')
		}
		secs = secs*60 + n
	}
	return secs
}

// ldEvent is the slice of schema.org Event/SportsEvent we care about.
type ldEvent struct {
	Type       string `json:"@type"`
	Name       string `json:"name"`
	Competitor struct {
		Name string `json:"name"`
	} `json:"competitor"`
}

func (p *GenericParser) Parse(ctx context.Context, in Input) types.ScrapeResult {
	doc := in.Doc
	if doc == nil {
		return types.Fail("Failed to parse this page.")
	}

	// Leaderboard check, unless the page pins one runner's row
	if isLeaderboard(doc) && highlightedRows(doc).Length() == 0 {
		return types.FailLeaderboard()
	}

	raceName := firstNonEmpty(
		selectText(doc, "h1"),
		strings.TrimSpace(splitTitle(doc.Find("title").Text())),
	)

	raceDate := selectText(doc, `[class*="date"], [class*="Date"], time`)
	if raceDate == "" {
		raceDate = genericDateRE.FindString(doc.Find("body").Text())
	}

	pairs := extractLabelValuePairs(doc)
	p.logger.Debugf("generic: extracted %d label/value pairs", len(pairs.pairs))
	for _, pair := range pairs.pairs {
		p.logger.Debugf("generic: pair %q = %q", pair.label, pair.value)
	}

	classified, netTimeLabeled := classifyPairs(pairs)

	// Runner name from a heading when no pair matched
	if classified.RunnerName == "" {
		doc.Find("h2, h3, h4").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if len(text) > 3 && len(text) < 60 && !headingNoiseRE.MatchString(text) {
				classified.RunnerName = text
				return false
			}
			return true
		})
	}

	// schema.org structured data can carry competitor and event names
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var ev ldEvent
		if err := json.Unmarshal([]byte(s.Text()), &ev); err != nil {
			return
		}
		if ev.Type != "SportsEvent" && ev.Type != "Event" {
			return
		}
		if classified.RunnerName == "" && ev.Competitor.Name != "" {
			classified.RunnerName = ev.Competitor.Name
		}
		if raceName == "" && ev.Name != "" {
			raceName = ev.Name
		}
	})

	p.logger.Debugf("generic: classified netTime=%q (labeled=%v) runner=%q", classified.NetTime, netTimeLabeled, classified.RunnerName)

	// Accept only a label-matched net time; an unlabeled largest-time guess
	// falls through to the LLM, which can read fields the pair extractor
	// missed.
	if classified.NetTime != "" && netTimeLabeled {
		return types.Ok(&types.RaceData{
			RaceName:         firstNonEmpty(raceName, "Race"),
			RaceDate:         firstNonEmpty(raceDate, classified.RaceDate),
			RunnerName:       classified.RunnerName,
			BibNumber:        classified.BibNumber,
			Distance:         classified.Distance,
			NetTime:          classified.NetTime,
			GunTime:          classified.GunTime,
			Pace:             classified.Pace,
			OverallPosition:  classified.OverallPosition,
			CategoryPosition: classified.CategoryPosition,
			Category:         classified.Category,
			Platform:         "Generic",
		})
	}

	return p.aiExtract(ctx, doc, in.URL)
}

// aiExtract delegates to the LLM layer with a cleaned, capped plain-text
// rendering of the page.
func (p *GenericParser) aiExtract(ctx context.Context, doc *goquery.Document, url string) types.ScrapeResult {
	if p.extractor == nil {
		return types.Fail(msgNoAIFallback)
	}

	pageText := extractCleanText(doc)
	p.logger.Debugf("generic: escalating to LLM with %d chars of page text", len(pageText))

	ex, err := p.extractor.Extract(ctx, pageText, url)
	if err != nil {
		p.logger.Warnf("LLM extraction failed: %v", err)
		return types.Fail(msgAIFailed)
	}

	if ex.IsLeaderboard {
		return types.FailLeaderboard()
	}
	if ex.NetTime == "" && ex.RunnerName == "" {
		return types.Fail(msgAINoResult)
	}

	return types.Ok(&types.RaceData{
		RaceName:         firstNonEmpty(ex.RaceName, "Race"),
		RaceDate:         ex.RaceDate,
		RunnerName:       ex.RunnerName,
		BibNumber:        ex.BibNumber.String(),
		Distance:         ex.Distance,
		NetTime:          ex.NetTime,
		GunTime:          ex.GunTime,
		Pace:             ex.Pace,
		OverallPosition:  ex.OverallPosition.String(),
		CategoryPosition: ex.CategoryPosition.String(),
		Category:         ex.Category,
		Platform:         "AI Extracted",
	})
}

// extractCleanText strips navigation and script noise and returns the page's
// leaf text lines, capped so the LLM prompt stays small.
func extractCleanText(doc *goquery.Document) string {
	doc.Find("nav, footer, header, script, style, select, option, .nav, .footer, .header, .menu, .sidebar, .ad, .cookie, .social, .share, .modal, iframe").Remove()

	var lines []string
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 {
			text := strings.TrimSpace(s.Text())
			if len(text) > 0 && len(text) < 200 {
				lines = append(lines, text)
			}
		}
	})

	text := strings.TrimSpace(collapseLinesRE.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
	if len(text) > 10000 {
		text = text[:10000]
	}
	return text
}

// splitTitle takes the leading segment of a page title before a separator.
func splitTitle(title string) string {
	if i := strings.IndexAny(title, "-|"); i >= 0 {
		return title[:i]
	}
	return title
}
