package parsers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"race-extractor/internal/normalize"
	"race-extractor/internal/types"
	"race-extractor/utils"
)

// SportstimingParser resolves a Sports Timing Solutions result through the
// provider's API. The result URL carries a base64-encoded JSON blob in its
// `q` parameter holding the event id and bib number; the API response wraps
// its JSON payload in another base64 layer and reports placements as named
// brackets (Overall, age groups, gender groups).
type SportstimingParser struct {
	config *types.Config
	logger types.Logger
	http   *utils.HTTPClient
}

func NewSportstimingParser(config *types.Config, logger types.Logger, httpClient *utils.HTTPClient) *SportstimingParser {
	return &SportstimingParser{config: config, logger: logger, http: httpClient}
}

func (p *SportstimingParser) Platform() types.Platform { return types.PlatformSportstiming }

// stsQuery is the payload decoded from the URL's q parameter. Providers have
// shipped several key spellings over time.
type stsQuery struct {
	EID       flexString `json:"e_id"`
	EventID   flexString `json:"eventId"`
	BibNo     flexString `json:"bibNo"`
	BibNo2    flexString `json:"bib_no"`
	Bib       flexString `json:"bib"`
	EName     string     `json:"e_name"`
	EventName string     `json:"eventName"`
}

type stsResponse struct {
	Data        json.RawMessage `json:"data"`
	Event       stsEvent        `json:"event"`
	Race        stsRace         `json:"race"`
	Participant stsParticipant  `json:"participant"`
	Brackets    []stsBracket    `json:"brackets"`
}

type stsEvent struct {
	Name string `json:"name"`
}

type stsRace struct {
	Name     string     `json:"name"`
	RaceDate flexString `json:"race_date"`
}

type stsParticipant struct {
	FullName  string     `json:"full_name"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	BibNo     flexString `json:"bibno"`
	Gender    string     `json:"gender"`
}

type stsBracket struct {
	BracketName         string     `json:"bracket_name"`
	FinishedTime        string     `json:"finished_time"`
	GunTime             string     `json:"gun_time"`
	BracketRank         flexString `json:"bracket_rank"`
	BracketParticipants flexString `json:"bracket_participants"`
}

var (
	stsDigitRE  = regexp.MustCompile(`\d`)
	stsGenderRE = regexp.MustCompile(`(?i)^(male|female|men|women)$`)
)

func (p *SportstimingParser) Parse(ctx context.Context, in Input) types.ScrapeResult {
	eventID, bibNo, raceName, failure := decodeSportstimingURL(in.URL)
	if failure != nil {
		return *failure
	}

	apiURL := fmt.Sprintf("%s/event/bib/result?event_id=%s&bibNo=%s", p.config.SportsTimingAPIBase, eventID, bibNo)
	headers := map[string]string{
		"Referer": "https://sportstimingsolutions.in/",
		"Origin":  "https://sportstimingsolutions.in",
	}

	var envelope stsResponse
	if err := p.http.GetJSON(ctx, apiURL, headers, &envelope); err != nil {
		p.logger.Warnf("sportstiming API call failed: %v", err)
		return types.Fail("Failed to fetch Sports Timing Solutions result.")
	}

	data := decodeSportstimingPayload(&envelope)

	runnerName := strings.TrimSpace(firstNonEmpty(
		data.Participant.FullName,
		strings.TrimSpace(data.Participant.FirstName+" "+data.Participant.LastName),
	))

	// The Overall bracket carries the finish times; other brackets only rank
	overall := findBracket(data.Brackets, func(b stsBracket) bool {
		return strings.EqualFold(strings.TrimSpace(b.BracketName), "overall")
	})
	if overall == nil && len(data.Brackets) > 0 {
		overall = &data.Brackets[0]
	}

	var netTime, gunTime string
	if overall != nil {
		netTime = strings.TrimSpace(overall.FinishedTime)
		gunTime = strings.TrimSpace(overall.GunTime)
	}

	if runnerName == "" && netTime == "" {
		return types.Fail("Could not extract result data from Sports Timing Solutions.")
	}

	ageBracket := findBracket(data.Brackets, func(b stsBracket) bool {
		return stsDigitRE.MatchString(b.BracketName)
	})
	genderBracket := findBracket(data.Brackets, func(b stsBracket) bool {
		return stsGenderRE.MatchString(strings.TrimSpace(b.BracketName))
	})

	category := ""
	switch {
	case ageBracket != nil:
		category = ageBracket.BracketName
	case genderBracket != nil:
		category = genderBracket.BracketName
	case data.Participant.Gender == "M":
		category = "Male"
	case data.Participant.Gender == "F":
		category = "Female"
	}

	catBracket := ageBracket
	if catBracket == nil {
		catBracket = genderBracket
	}

	distance := normalize.Distance(firstNonEmpty(data.Race.Name, raceName))

	return types.Ok(&types.RaceData{
		RaceName:         firstNonEmpty(data.Event.Name, raceName, "Race"),
		RaceDate:         formatRaceDate(data.Race.RaceDate.String()),
		RunnerName:       runnerName,
		BibNumber:        firstNonEmpty(data.Participant.BibNo.String(), bibNo),
		Distance:         distance,
		NetTime:          netTime,
		GunTime:          gunTime,
		OverallPosition:  bracketPosition(overall),
		Category:         category,
		CategoryPosition: bracketPosition(catBracket),
		Platform:         "Sports Timing Solutions",
	})
}

// decodeSportstimingURL unpacks the base64 q parameter into event id, bib
// number and event name. Decoding failure is terminal: without these the
// runner cannot be identified.
func decodeSportstimingURL(rawURL string) (eventID, bibNo, raceName string, failure *types.ScrapeResult) {
	fail := func(msg string) (string, string, string, *types.ScrapeResult) {
		f := types.Fail(msg)
		return "", "", "", &f
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fail("Invalid Sports Timing Solutions URL format.")
	}
	q := u.Query().Get("q")
	if q == "" {
		return fail("Missing q parameter in Sports Timing URL.")
	}

	decoded, err := base64.StdEncoding.DecodeString(q)
	if err != nil {
		if decoded, err = base64.RawStdEncoding.DecodeString(q); err != nil {
			return fail("Invalid Sports Timing Solutions URL format.")
		}
	}

	var query stsQuery
	if err := json.Unmarshal(decoded, &query); err != nil {
		return fail("Invalid Sports Timing Solutions URL format.")
	}

	eventID = firstNonEmpty(query.EID.String(), query.EventID.String())
	bibNo = firstNonEmpty(query.BibNo.String(), query.BibNo2.String(), query.Bib.String())
	raceName = firstNonEmpty(query.EName, query.EventName)
	if eventID == "" || bibNo == "" {
		return fail("Could not parse event ID or bib from URL.")
	}
	return eventID, bibNo, raceName, nil
}

// decodeSportstimingPayload unwraps the base64 "data" field the API wraps
// around its JSON body. A plain response passes through unchanged.
func decodeSportstimingPayload(envelope *stsResponse) *stsResponse {
	if len(envelope.Data) == 0 {
		return envelope
	}
	var encoded string
	if err := json.Unmarshal(envelope.Data, &encoded); err != nil {
		return envelope
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return envelope
	}
	var inner stsResponse
	if err := json.Unmarshal(raw, &inner); err != nil {
		return envelope
	}
	return &inner
}

func findBracket(brackets []stsBracket, match func(stsBracket) bool) *stsBracket {
	for i := range brackets {
		if match(brackets[i]) {
			return &brackets[i]
		}
	}
	return nil
}

// bracketPosition renders "rank / total", or a bare rank when the bracket
// size is unknown.
func bracketPosition(b *stsBracket) string {
	if b == nil || b.BracketRank == "" {
		return ""
	}
	if b.BracketParticipants != "" {
		return fmt.Sprintf("%s / %s", b.BracketRank, b.BracketParticipants)
	}
	return b.BracketRank.String()
}

var raceDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatRaceDate renders a provider timestamp as "January 2, 2006"; an
// unparseable date passes through raw.
func formatRaceDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range raceDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return raw
}
