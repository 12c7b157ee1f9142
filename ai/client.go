// Package ai wraps the LLM extraction call behind a small injected interface.
// The service is an optionally-absent collaborator: when no credential is
// configured the caller simply holds a nil Extractor and degrades to a typed
// "could not extract" failure.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"race-extractor/internal/types"
)

const (
	defaultModel = "claude-haiku-4-5-20251001"
	maxTokens    = 700
)

// ErrNoJSON means the model response contained no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in model response")

// Extraction is the strict output contract the model is instructed to fill.
type Extraction struct {
	RaceName         string     `json:"raceName"`
	RaceDate         string     `json:"raceDate"`
	RunnerName       string     `json:"runnerName"`
	BibNumber        flexString `json:"bibNumber"`
	Distance         string     `json:"distance"`
	NetTime          string     `json:"netTime"`
	GunTime          string     `json:"gunTime"`
	Pace             string     `json:"pace"`
	OverallPosition  flexString `json:"overallPosition"`
	CategoryPosition flexString `json:"categoryPosition"`
	Category         string     `json:"category"`
	IsLeaderboard    bool       `json:"isLeaderboard"`
}

// Extractor is the single operation the pipeline needs from the LLM service.
type Extractor interface {
	Extract(ctx context.Context, pageText, url string) (*Extraction, error)
}

// Client implements Extractor using the official Anthropic SDK.
type Client struct {
	client sdk.Client
	model  string
	logger types.Logger
}

// NewClient creates an extraction client. The caller is responsible for only
// constructing one when a credential exists.
func NewClient(apiKey string, logger types.Logger) *Client {
	return &Client{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  defaultModel,
		logger: logger,
	}
}

const promptTemplate = `Extract individual runner race result data from the page content below.

CRITICAL DISTINCTIONS:
- "raceName" = the name of the RACE/EVENT (e.g. "Mumbai Marathon 2025", "City 10K Run") — NOT a person's name
- "runnerName" = the name of the PERSON who ran (e.g. "John Smith", "Priya Patel") — looks like a human name, NOT a race name
- Race names contain words like: Marathon, Run, Race, Triathlon, km, K, 10K, Half, Full, Open, Championship, Cup
- Runner names are personal names (first + last name, sometimes all caps)
- "netTime"/"gunTime" = finish times in HH:MM:SS format (e.g. "1:45:23", "01:45:53")
- "pace" = per-km pace in MM:SS format (e.g. "5:02", "6:32") — NOT a full race time
- "overallPosition" = rank among all finishers, format "234" or "234/8920"
- If the page shows a TABLE with MANY runners, set isLeaderboard:true

Return ONLY valid JSON, no markdown:
{
  "raceName": string or null,
  "raceDate": string or null,
  "runnerName": string or null,
  "bibNumber": string or null,
  "distance": "distance with unit e.g. 21.1 KM, 42.2 KM, 10 KM",
  "netTime": "HH:MM:SS or null",
  "gunTime": "HH:MM:SS or null",
  "pace": "M:SS or MM:SS or null",
  "overallPosition": string or null,
  "categoryPosition": string or null,
  "category": string or null,
  "isLeaderboard": boolean
}

URL (may contain race/event info): %s

Page content:
%s`

// Extract issues a single completion request. One attempt per scrape, no
// retries.
func (c *Client) Extract(ctx context.Context, pageText, url string) (*Extraction, error) {
	prompt := fmt.Sprintf(promptTemplate, url, pageText)

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	c.logger.Debugf("model returned %d chars", len(text))
	return ParseExtraction(text)
}

var jsonObjectRE = regexp.MustCompile(`(?s)\{.*\}`)

// ParseExtraction pulls the first JSON object out of a model response,
// tolerating prose or markdown fences around it.
func ParseExtraction(text string) (*Extraction, error) {
	match := jsonObjectRE.FindString(text)
	if match == "" {
		return nil, ErrNoJSON
	}
	var ex Extraction
	if err := json.Unmarshal([]byte(match), &ex); err != nil {
		return nil, fmt.Errorf("malformed JSON in model response: %w", err)
	}
	return &ex, nil
}

// flexString tolerates the model emitting a number where a string belongs.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n == float64(int64(n)) {
		*f = flexString(fmt.Sprintf("%d", int64(n)))
	} else {
		*f = flexString(fmt.Sprintf("%v", n))
	}
	return nil
}

func (f flexString) String() string { return string(f) }
