package parsers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resultTable(rows int) string {
	var b strings.Builder
	b.WriteString(`<table><tbody>`)
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, `<tr><td>%d</td><td>Runner %d</td><td>1:2%d:33</td></tr>`, i+1, i+1, i%10)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func TestIsLeaderboardManyTimeRows(t *testing.T) {
	doc := testDoc(t, `<html><body>`+resultTable(12)+`</body></html>`)
	assert.True(t, isLeaderboard(doc))
}

func TestIsLeaderboardFewRows(t *testing.T) {
	doc := testDoc(t, `<html><body>`+resultTable(3)+`</body></html>`)
	assert.False(t, isLeaderboard(doc))
}

func TestIsLeaderboardIgnoresSplitsTable(t *testing.T) {
	// One runner's page with a long checkpoint table: the splits rows carry
	// times but describe a single runner, not a leaderboard.
	var b strings.Builder
	b.WriteString(`<html><body><h2>Asha Rao</h2>`)
	b.WriteString(`<table><thead><tr><th>Split</th><th>Time</th></tr></thead><tbody>`)
	for i := 0; i < 15; i++ {
		fmt.Fprintf(&b, `<tr><td>%d km</td><td>0:%02d:10</td></tr>`, i+1, 5*(i+1)%60)
	}
	b.WriteString(`</tbody></table></body></html>`)

	doc := testDoc(t, b.String())
	assert.False(t, isLeaderboard(doc))
}

func TestIsLeaderboardUnspacedCellBoundaries(t *testing.T) {
	// A name cell directly followed by a time cell leaves no word boundary
	// in the concatenated row text; the time must still be counted.
	var b strings.Builder
	b.WriteString(`<html><body><table><tbody>`)
	for i := 0; i < 12; i++ {
		b.WriteString(`<tr><td>Runner Name</td><td>2:31:33</td></tr>`)
	}
	b.WriteString(`</tbody></table></body></html>`)

	doc := testDoc(t, b.String())
	assert.True(t, isLeaderboard(doc))
}

func TestIsLeaderboardCountsResultRowClasses(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, `<div class="result-row">Runner %d 1:30:0%d</div>`, i, i)
	}
	b.WriteString(`</body></html>`)

	doc := testDoc(t, b.String())
	assert.True(t, isLeaderboard(doc))
}

func TestHighlightedRows(t *testing.T) {
	doc := testDoc(t, `<html><body><table><tbody>
<tr><td>1</td></tr>
<tr class="highlight"><td>2</td></tr>
</tbody></table></body></html>`)
	assert.Equal(t, 1, highlightedRows(doc).Length())

	plain := testDoc(t, `<html><body><table><tbody><tr><td>1</td></tr></tbody></table></body></html>`)
	assert.Equal(t, 0, highlightedRows(plain).Length())
}
