package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Characterization fixture pinning the current iFinish template: a flat
// sequence of text nodes anchored by the provisional-results disclaimer.
const ifinishResultPage = `<html><body>
<span>** RESULTS ARE PROVISIONAL **</span>
<span>HYDERABAD RUNNERS CLUB ~ HALF MARATHON</span>
<span>ANIL KUMAR</span>
<span>BIB 2345</span>
<span>HALF MARATHON</span>
<span>Category - M40-44</span>
<span>Net Time</span>
<span>01:57:09</span>
<span>Gross Time</span>
<span>02:01:22</span>
<span>Net Pace</span>
<span>05:34</span>
<span>Overall Rank</span>
<span>123</span>
<span>Gender Rank</span>
<span>110</span>
</body></html>`

func TestIfinishPositionalExtraction(t *testing.T) {
	p := &IfinishParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://timing.ifinish.in/result/xyz",
		Doc: testDoc(t, ifinishResultPage),
	})

	require.True(t, result.Success)
	assert.Equal(t, "HYDERABAD RUNNERS CLUB", result.Data.RaceName)
	assert.Equal(t, "ANIL KUMAR", result.Data.RunnerName)
	assert.Equal(t, "2345", result.Data.BibNumber)
	assert.Equal(t, "21.1 KM", result.Data.Distance)
	assert.Equal(t, "01:57:09", result.Data.NetTime)
	assert.Equal(t, "02:01:22", result.Data.GunTime)
	assert.Equal(t, "5:34", result.Data.Pace)
	assert.Equal(t, "123 overall", result.Data.OverallPosition)
	assert.Equal(t, "M40-44", result.Data.Category)
	assert.Equal(t, "iFinish", result.Data.Platform)
}

func TestIfinishOverallRankWithoutGenderRank(t *testing.T) {
	html := `<html><body>
<span>** RESULTS ARE PROVISIONAL **</span>
<span>CITY RUN</span>
<span>RAVI SHARMA</span>
<span>BIB 101</span>
<span>Net Time</span>
<span>00:55:41</span>
<span>Overall Rank</span>
<span>48</span>
</body></html>`

	p := &IfinishParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://timing.ifinish.in/result/abc",
		Doc: testDoc(t, html),
	})

	require.True(t, result.Success)
	assert.Equal(t, "48", result.Data.OverallPosition)
}

func TestIfinishDistanceHintFallbackAnchor(t *testing.T) {
	// No disclaimer line; the anchor falls back to the line before a long
	// distance-bearing line.
	html := `<html><body>
<span>Welcome</span>
<span>SUNRISE MARATHON 2025</span>
<span>DEEPA NAIR</span>
<span>BIB 777</span>
<span>Net Time</span>
<span>04:12:55</span>
</body></html>`

	p := &IfinishParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://timing.ifinish.in/result/def",
		Doc: testDoc(t, html),
	})

	require.True(t, result.Success)
	assert.Equal(t, "SUNRISE MARATHON 2025", result.Data.RaceName)
	assert.Equal(t, "04:12:55", result.Data.NetTime)
	assert.Equal(t, "DEEPA NAIR", result.Data.RunnerName)
}

func TestIfinishNoAnchor(t *testing.T) {
	p := &IfinishParser{}
	result := p.Parse(context.Background(), Input{
		URL: "https://timing.ifinish.in/result/ghi",
		Doc: testDoc(t, `<html><body><span>unrelated page</span></body></html>`),
	})

	assert.False(t, result.Success)
	assert.Equal(t, "Could not locate result data on this iFinish page.", result.Error)
}
