package parsers

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	fullTimeRE     = regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}\b`)
	splitsHeaderRE = regexp.MustCompile(`split|location|checkpoint|segment|lap`)
)

// leaderboardRowThreshold is the number of time-bearing rows above which a
// page is treated as a full results table rather than one runner's result.
const leaderboardRowThreshold = 8

// isLeaderboard reports whether the page looks like a full results table.
// Rows inside splits/checkpoint tables are excluded first: those are one
// runner's internal splits and must not inflate the count. Callers that can
// extract from a highlighted row apply that exception themselves.
func isLeaderboard(doc *goquery.Document) bool {
	var splitsNodes []*goquery.Selection
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var headers []string
		table.Find("thead th, thead td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})
		if splitsHeaderRE.MatchString(strings.Join(headers, " ")) {
			table.Find("tbody").Each(func(_ int, tbody *goquery.Selection) {
				splitsNodes = append(splitsNodes, tbody)
			})
		}
	})

	inSplits := func(row *goquery.Selection) bool {
		parent := row.Parent()
		if parent.Length() == 0 {
			return false
		}
		for _, tbody := range splitsNodes {
			if parent.Nodes[0] == tbody.Nodes[0] {
				return true
			}
		}
		return false
	}

	// Cell texts concatenate with no separator under Text(), which destroys
	// the word boundary before a time ("Runner Name2:31:33"), so match per
	// cell rather than against the whole row.
	rowHasTime := func(row *goquery.Selection) bool {
		cells := row.Find("td, th")
		if cells.Length() == 0 {
			return fullTimeRE.MatchString(row.Text())
		}
		found := false
		cells.EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if fullTimeRE.MatchString(cell.Text()) {
				found = true
				return false
			}
			return true
		})
		return found
	}

	timeRowCount := 0
	doc.Find(`table tbody tr, [class*="result-row"], [class*="runner-row"]`).Each(func(_ int, row *goquery.Selection) {
		if inSplits(row) {
			return
		}
		if rowHasTime(row) {
			timeRowCount++
		}
	})

	return timeRowCount > leaderboardRowThreshold
}

// highlightedRows finds rows the page marks as "your result", the common UI
// convention that turns a leaderboard page into an individual result page.
func highlightedRows(doc *goquery.Document) *goquery.Selection {
	return doc.Find(`tr.highlight, tr.active, tr.selected, .my-result, .current-runner, [class*="highlighted"]`)
}
