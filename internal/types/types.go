package types

import "time"

// Platform identifies which timing provider a URL belongs to. Detection is a
// total function: anything unrecognized maps to PlatformGeneric.
type Platform string

const (
	PlatformWebscorer    Platform = "webscorer"
	PlatformRaceResult   Platform = "raceresult"
	PlatformAthlinks     Platform = "athlinks"
	PlatformIfinish      Platform = "ifinish"
	PlatformSportstiming Platform = "sportstiming"
	PlatformNYRR         Platform = "nyrr"
	PlatformGeneric      Platform = "generic"
)

// RaceData is the normalized record extracted from one individual result page.
type RaceData struct {
	RaceName         string `json:"raceName"`
	RaceDate         string `json:"raceDate"`
	RunnerName       string `json:"runnerName"`
	BibNumber        string `json:"bibNumber"`
	Distance         string `json:"distance"`
	NetTime          string `json:"netTime"`
	GunTime          string `json:"gunTime,omitempty"`
	Pace             string `json:"pace,omitempty"`
	OverallPosition  string `json:"overallPosition,omitempty"`
	CategoryPosition string `json:"categoryPosition,omitempty"`
	Category         string `json:"category,omitempty"`
	Platform         string `json:"platform"`
}

// ScrapeResult is the sole contract every parser and the orchestrator return.
// There is no partial success: either Data holds a complete minimum-viable
// record (a net time or a runner name) or Error explains the failure.
type ScrapeResult struct {
	Success           bool      `json:"success"`
	Data              *RaceData `json:"data,omitempty"`
	Error             string    `json:"error,omitempty"`
	IsLeaderboardPage bool      `json:"isLeaderboardPage,omitempty"`
	Hint              string    `json:"hint,omitempty"`
}

// Ok wraps a complete record in a successful result.
func Ok(data *RaceData) ScrapeResult {
	return ScrapeResult{Success: true, Data: data}
}

// Fail builds a typed failure with a human-readable message.
func Fail(message string) ScrapeResult {
	return ScrapeResult{Success: false, Error: message}
}

// FailLeaderboard marks the distinguishable "full results table" failure
// subtype. The orchestrator rewrites its message into consistent user copy.
func FailLeaderboard() ScrapeResult {
	return ScrapeResult{Success: false, IsLeaderboardPage: true, Error: "leaderboard"}
}

// Config holds the tunables for one scraper instance.
type Config struct {
	FetchTimeout   time.Duration // lightweight HTTP GET budget
	BrowserTimeout time.Duration // full headless render budget
	SettleDelay    time.Duration // extra wait after load for late-loading widgets
	UserAgent      string        // mobile UA; at least one provider blocks non-browser agents

	// API bases are configurable so tests can point them at a local server.
	SportsTimingAPIBase string
	NYRRAPIBase         string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		FetchTimeout:        15 * time.Second,
		BrowserTimeout:      25 * time.Second,
		SettleDelay:         2 * time.Second,
		UserAgent:           "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		SportsTimingAPIBase: "https://sportstimingsolutions.in/frontend/api",
		NYRRAPIBase:         "https://rmsprodapi.nyrr.org/api/v2",
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
