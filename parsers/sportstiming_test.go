package parsers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race-extractor/internal/types"
	"race-extractor/utils"
)

func stsShareURL(t *testing.T, payload map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return "https://sportstimingsolutions.in/share.php?q=" + base64.StdEncoding.EncodeToString(raw)
}

const stsResultBody = `{
  "event": {"name": "Mumbai Marathon 2025"},
  "race": {"name": "Half Marathon", "race_date": "2025-01-19"},
  "participant": {"full_name": "Rohit Verma", "bibno": 4567, "gender": "M"},
  "brackets": [
    {"bracket_name": "Overall", "finished_time": "01:45:22", "gun_time": "01:47:01", "bracket_rank": 34, "bracket_participants": 1200},
    {"bracket_name": "30-34", "bracket_rank": 5, "bracket_participants": 100},
    {"bracket_name": "Male", "bracket_rank": 30, "bracket_participants": 900}
  ]
}`

func stsParser(t *testing.T, handler http.HandlerFunc) (*SportstimingParser, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	config := types.DefaultConfig()
	config.SportsTimingAPIBase = server.URL
	logger := testLogger()
	return NewSportstimingParser(config, logger, utils.NewHTTPClient(config, logger)), server.Close
}

func TestSportstimingResult(t *testing.T) {
	p, closeServer := stsParser(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/event/bib/result", r.URL.Path)
		assert.Equal(t, "123", r.URL.Query().Get("event_id"))
		assert.Equal(t, "4567", r.URL.Query().Get("bibNo"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(stsResultBody))
	})
	defer closeServer()

	result := p.Parse(context.Background(), Input{
		URL: stsShareURL(t, map[string]interface{}{"e_id": 123, "bibNo": "4567", "e_name": "Mumbai Marathon 2025"}),
	})

	require.True(t, result.Success)
	assert.Equal(t, "Mumbai Marathon 2025", result.Data.RaceName)
	assert.Equal(t, "January 19, 2025", result.Data.RaceDate)
	assert.Equal(t, "Rohit Verma", result.Data.RunnerName)
	assert.Equal(t, "4567", result.Data.BibNumber)
	assert.Equal(t, "21.1 KM", result.Data.Distance)
	assert.Equal(t, "01:45:22", result.Data.NetTime)
	assert.Equal(t, "01:47:01", result.Data.GunTime)
	assert.Equal(t, "34 / 1200", result.Data.OverallPosition)
	assert.Equal(t, "30-34", result.Data.Category)
	assert.Equal(t, "5 / 100", result.Data.CategoryPosition)
	assert.Equal(t, "Sports Timing Solutions", result.Data.Platform)
}

func TestSportstimingBase64WrappedPayload(t *testing.T) {
	wrapped, err := json.Marshal(map[string]string{
		"data": base64.StdEncoding.EncodeToString([]byte(stsResultBody)),
	})
	require.NoError(t, err)

	p, closeServer := stsParser(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(wrapped)
	})
	defer closeServer()

	result := p.Parse(context.Background(), Input{
		URL: stsShareURL(t, map[string]interface{}{"e_id": 123, "bibNo": "4567"}),
	})

	require.True(t, result.Success)
	assert.Equal(t, "01:45:22", result.Data.NetTime)
	assert.Equal(t, "Rohit Verma", result.Data.RunnerName)
}

func TestSportstimingGenderCategoryFallback(t *testing.T) {
	body := `{
  "event": {"name": "Dawn 10K"},
  "participant": {"full_name": "Sara Iyer", "bibno": "9", "gender": "F"},
  "brackets": [{"bracket_name": "Overall", "finished_time": "00:51:03", "bracket_rank": "12"}]
}`
	p, closeServer := stsParser(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
	defer closeServer()

	result := p.Parse(context.Background(), Input{
		URL: stsShareURL(t, map[string]interface{}{"eventId": "55", "bib": "9"}),
	})

	require.True(t, result.Success)
	assert.Equal(t, "Female", result.Data.Category)
	assert.Equal(t, "12", result.Data.OverallPosition)
}

func TestSportstimingURLDecodeFailures(t *testing.T) {
	p := NewSportstimingParser(types.DefaultConfig(), testLogger(), nil)
	missingIDs := stsShareURL(t, map[string]interface{}{"e_name": "Some Race"})

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"missing q", "https://sportstimingsolutions.in/share.php", "Missing q parameter in Sports Timing URL."},
		{"bad base64", "https://sportstimingsolutions.in/share.php?q=%21%21%21", "Invalid Sports Timing Solutions URL format."},
		{"missing ids", missingIDs, "Could not parse event ID or bib from URL."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(context.Background(), Input{URL: tt.url})
			assert.False(t, result.Success)
			assert.Equal(t, tt.want, result.Error)
		})
	}
}

func TestSportstimingAPIFailure(t *testing.T) {
	p, closeServer := stsParser(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeServer()

	result := p.Parse(context.Background(), Input{
		URL: stsShareURL(t, map[string]interface{}{"e_id": "1", "bibNo": "2"}),
	})

	assert.False(t, result.Success)
	assert.Equal(t, "Failed to fetch Sports Timing Solutions result.", result.Error)
}
