package scraper

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"race-extractor/internal/types"
	"race-extractor/utils"
)

func testLogger() types.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type stubHTTP struct {
	html  string
	err   error
	calls int
}

func (s *stubHTTP) Get(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.html, s.err
}

type stubBrowser struct {
	html  string
	err   error
	calls int
}

func (s *stubBrowser) Render(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.html, s.err
}

func contentPage(body string) string {
	return `<html><body><p>` + body + `</p><p>` + strings.Repeat("Race results and standings for all participants. ", 20) + `</p></body></html>`
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		platform types.Platform
		want     FetchMode
	}{
		{types.PlatformWebscorer, FetchStatic},
		{types.PlatformAthlinks, FetchStatic},
		{types.PlatformRaceResult, FetchBrowser},
		{types.PlatformIfinish, FetchBrowser},
		{types.PlatformSportstiming, FetchNone},
		{types.PlatformNYRR, FetchNone},
		{types.PlatformGeneric, FetchAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StrategyFor(tt.platform), "platform %s", tt.platform)
	}
}

func TestFetchNoneSkipsNetwork(t *testing.T) {
	http := &stubHTTP{}
	browser := &stubBrowser{}
	f := NewFetcher(testLogger(), http, browser)

	html, err := f.Fetch(context.Background(), "https://example.com", FetchNone)
	require.NoError(t, err)
	assert.Empty(t, html)
	assert.Zero(t, http.calls)
	assert.Zero(t, browser.calls)
}

func TestFetchAutoKeepsGoodStaticHTML(t *testing.T) {
	http := &stubHTTP{html: contentPage("Jane Doe finished in 1:42:10")}
	browser := &stubBrowser{}
	f := NewFetcher(testLogger(), http, browser)

	html, err := f.Fetch(context.Background(), "https://example.com", FetchAuto)
	require.NoError(t, err)
	assert.Contains(t, html, "1:42:10")
	assert.Zero(t, browser.calls)
}

func TestFetchAutoUpgradesJSShell(t *testing.T) {
	http := &stubHTTP{html: `<html><body><div id="app"></div></body></html>`}
	browser := &stubBrowser{html: contentPage("rendered content 1:42:10")}
	f := NewFetcher(testLogger(), http, browser)

	html, err := f.Fetch(context.Background(), "https://example.com", FetchAuto)
	require.NoError(t, err)
	assert.Contains(t, html, "rendered content")
	assert.Equal(t, 1, browser.calls)
}

func TestFetchAutoDegradesWhenBrowserFails(t *testing.T) {
	shell := `<html><body><div id="app">loading</div></body></html>`
	http := &stubHTTP{html: shell}
	browser := &stubBrowser{err: errors.New("chrome not found")}
	f := NewFetcher(testLogger(), http, browser)

	html, err := f.Fetch(context.Background(), "https://example.com", FetchAuto)
	require.NoError(t, err)
	assert.Equal(t, shell, html)
}

func TestFetchAutoPreservesFetchErrorKind(t *testing.T) {
	// When both paths fail, the typed static-fetch error wins: it carries
	// the user-facing category copy the render error lacks.
	unreachable := &utils.FetchError{Kind: utils.FetchUnreachable}
	http := &stubHTTP{err: unreachable}
	browser := &stubBrowser{err: errors.New("chrome not found")}
	f := NewFetcher(testLogger(), http, browser)

	_, err := f.Fetch(context.Background(), "https://example.com", FetchAuto)
	var fe *utils.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, utils.FetchUnreachable, fe.Kind)
}

func TestFetchBrowserFallsBackToStatic(t *testing.T) {
	http := &stubHTTP{html: contentPage("static fallback")}
	browser := &stubBrowser{err: errors.New("chrome not found")}
	f := NewFetcher(testLogger(), http, browser)

	html, err := f.Fetch(context.Background(), "https://example.com", FetchBrowser)
	require.NoError(t, err)
	assert.Contains(t, html, "static fallback")
	assert.Equal(t, 1, http.calls)
}

func TestLooksLikeJSShell(t *testing.T) {
	assert.True(t, looksLikeJSShell(`<html><body><div id="root"></div></body></html>`))
	assert.False(t, looksLikeJSShell(contentPage("plenty of real visible result text")))

	// Unexpanded template placeholders on an otherwise full page
	templated := `<html><body><p>` + strings.Repeat("Race results listing. ", 40) + `</p>` +
		strings.Repeat(`<span>{{runner.name}}</span>`, 6) + `</body></html>`
	assert.True(t, looksLikeJSShell(templated))

	// Template literals inside an inline script bundle are not visible text
	// and must not flag a content-rich page
	bundled := `<html><body><p>` + strings.Repeat("Race results listing. ", 40) + `</p>` +
		`<script>var tpl = "{{a}}{{b}}{{c}}{{d}}{{e}}{{f}}";</script></body></html>`
	assert.False(t, looksLikeJSShell(bundled))

	// A thin page asking for JavaScript
	jsNotice := `<html><body><p>Please enable JavaScript to view race results.</p><p>` +
		strings.Repeat("filler text ", 60) + `</p></body></html>`
	assert.True(t, looksLikeJSShell(jsNotice))
}
