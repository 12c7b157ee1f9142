package utils

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"race-extractor/internal/types"
)

// FetchErrorKind distinguishes fetch failures so the caller can give the user
// different guidance for each.
type FetchErrorKind int

const (
	// FetchBlocked covers HTTP 401/403: login walls and bot blocking.
	FetchBlocked FetchErrorKind = iota
	// FetchUnreachable covers DNS failure and refused connections.
	FetchUnreachable
	// FetchDown covers timeouts, 5xx and everything else.
	FetchDown
)

// FetchError is the typed failure surfaced for every network problem.
type FetchError struct {
	Kind FetchErrorKind
	Err  error
}

func (e *FetchError) Error() string { return e.Message() }
func (e *FetchError) Unwrap() error { return e.Err }

// Message returns the user-facing copy for this failure category.
func (e *FetchError) Message() string {
	switch e.Kind {
	case FetchBlocked:
		return "This page requires login or is blocking automated access."
	case FetchUnreachable:
		return "Could not reach this website. Please check the URL."
	default:
		return "Failed to fetch the page. The site may be temporarily down."
	}
}

// classifyFetchError maps a transport error onto the fetch taxonomy.
func classifyFetchError(err error) *FetchError {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return &FetchError{Kind: FetchUnreachable, Err: err}
	}
	return &FetchError{Kind: FetchDown, Err: err}
}

// HTTPClient is the lightweight fetch path: a plain GET with browser-like
// headers, used whenever a page does not need client-side rendering.
type HTTPClient struct {
	client *http.Client
	config *types.Config
	logger types.Logger
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *types.Config, logger types.Logger) *HTTPClient {
	client := &http.Client{
		Timeout: config.FetchTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			// Body decompression is handled below so brotli works too.
			DisableCompression: true,
		},
	}

	return &HTTPClient{
		client: client,
		config: config,
		logger: logger,
	}
}

// Get fetches a page and returns the decoded body. Failures come back as a
// *FetchError carrying the user-facing category.
func (h *HTTPClient) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	h.logger.Debugf("GET %s", url)
	resp, err := h.client.Do(req)
	if err != nil {
		return "", classifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &FetchError{Kind: FetchBlocked, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Kind: FetchDown, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return "", &FetchError{Kind: FetchDown, Err: err}
	}

	h.logger.Debugf("retrieved %d bytes from %s", len(body), url)
	return string(body), nil
}

// GetJSON performs a GET against a provider API and unmarshals the response.
// Extra headers carry provider-specific Referer/Origin requirements.
func (h *HTTPClient) GetJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.doJSON(req, out)
}

// PostJSON performs a JSON POST against a provider API and unmarshals the
// response.
func (h *HTTPClient) PostJSON(ctx context.Context, url string, headers map[string]string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.doJSON(req, out)
}

func (h *HTTPClient) doJSON(req *http.Request, out interface{}) error {
	h.logger.Debugf("%s %s", req.Method, req.URL)
	resp, err := h.client.Do(req)
	if err != nil {
		return classifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Kind: FetchDown, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := decodeBody(resp)
	if err != nil {
		return &FetchError{Kind: FetchDown, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode API response: %w", err)
	}
	return nil
}

// decodeBody reads the response body, decompressing gzip or brotli payloads.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
