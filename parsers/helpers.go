package parsers

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// distanceWordRE spots headings that talk about the race distance.
var distanceWordRE = regexp.MustCompile(`(?i)km|mile|marathon|half`)

var nonDigitRE = regexp.MustCompile(`\D`)

// selectText tries candidate selectors in priority order and returns the
// first non-empty trimmed text. This is the "best available signal" cascade
// used for nearly every field: it tolerates markup drift as long as one of
// the candidate locations survives.
func selectText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// firstNonEmpty returns the first non-empty string among candidates.
func firstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// textLines collects the trimmed text of every leaf element under body, in
// document order. Positional parsers scan these lines relative to an anchor.
func textLines(doc *goquery.Document) []string {
	var lines []string
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() == 0 {
			t := strings.TrimSpace(s.Text())
			if len(t) >= 2 && len(t) <= 200 {
				lines = append(lines, t)
			}
		}
	})
	return lines
}

// flexString unmarshals a JSON value that providers send as either a string,
// a number, null or a bool, always yielding its string form.
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
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			*f = flexString(fmt.Sprintf("%d", int64(t)))
		} else {
			*f = flexString(fmt.Sprintf("%v", t))
		}
	default:
		*f = flexString(fmt.Sprintf("%v", t))
	}
	return nil
}

func (f flexString) String() string { return string(f) }
