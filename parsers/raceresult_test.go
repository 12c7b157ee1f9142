package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaceResultEmbeddedJSON(t *testing.T) {
	html := `<html><head><title>City Night Run | my.raceresult.com</title></head><body>
<script type="application/json">{"EventName":"City Night Run","EventDate":"2025-06-21","Name":"Maya Lin","NetTime":"1:23:45","Bib":789,"PlaceTotal":"15/300"}</script>
</body></html>`

	p := &RaceResultParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://my.raceresult.com/123456/results#1_ABCDE",
		Doc: testDoc(t, html),
	})

	require.True(t, result.Success)
	assert.Equal(t, "City Night Run", result.Data.RaceName)
	assert.Equal(t, "2025-06-21", result.Data.RaceDate)
	assert.Equal(t, "Maya Lin", result.Data.RunnerName)
	assert.Equal(t, "1:23:45", result.Data.NetTime)
	assert.Equal(t, "789", result.Data.BibNumber)
	assert.Equal(t, "15/300", result.Data.OverallPosition)
	assert.Equal(t, "RaceResult", result.Data.Platform)
}

func TestRaceResultDOMFallback(t *testing.T) {
	html := `<html><body>
<h1>Riverside Relay</h1>
<div class="participant-name">Tom Okafor</div>
<div class="net-time">0:48:02</div>
</body></html>`

	p := &RaceResultParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://my.raceresult.com/98765/results#2_XYZQW",
		Doc: testDoc(t, html),
	})

	require.True(t, result.Success)
	assert.Equal(t, "Tom Okafor", result.Data.RunnerName)
	assert.Equal(t, "0:48:02", result.Data.NetTime)
}

func TestRaceResultLeaderboardWithoutHash(t *testing.T) {
	html := `<html><body><table><tbody>`
	for i := 0; i < 12; i++ {
		html += `<tr><td>1</td><td>Runner</td><td>1:11:11</td></tr>`
	}
	html += `</tbody></table></body></html>`

	p := &RaceResultParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://my.raceresult.com/123456/results",
		Doc: testDoc(t, html),
	})

	assert.False(t, result.Success)
	assert.True(t, result.IsLeaderboardPage)
}

func TestRaceResultHashSuppressesLeaderboard(t *testing.T) {
	// Same table, but the URL hash addresses an individual; with nothing
	// extractable the failure is a plain parse failure, not a leaderboard.
	html := `<html><body><table><tbody>`
	for i := 0; i < 12; i++ {
		html += `<tr><td>1</td><td>Runner</td><td>1:11:11</td></tr>`
	}
	html += `</tbody></table></body></html>`

	p := &RaceResultParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://my.raceresult.com/123456/results#3_GHJKL",
		Doc: testDoc(t, html),
	})

	assert.False(t, result.Success)
	assert.False(t, result.IsLeaderboardPage)
	assert.Equal(t, "Could not extract runner data from this RaceResult page.", result.Error)
}
