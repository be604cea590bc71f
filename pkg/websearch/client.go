// Package websearch is a client for a Google Custom Search-style JSON API.
package websearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// ErrQuotaExceeded is returned when the provider reports that the daily
// query quota is exhausted.
var ErrQuotaExceeded = eris.New("websearch: quota exceeded")

// Client performs web search operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest holds the parameters of a single search call.
type SearchRequest struct {
	Query string
	// Country is an ISO 3166-1 alpha-2 code used for geolocation and
	// country-restrict hints. Empty means no hint.
	Country string
	// DateRestrict limits results by page publish age, e.g. "m6".
	// Empty means no restriction.
	DateRestrict string
	// Num is the number of results to request (provider max 10).
	Num int
}

// SearchResponse is the provider's result page.
type SearchResponse struct {
	Items []Item `json:"items"`
}

// Item is a single search result.
type Item struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey   string
	engineID string
	baseURL  string
	http     *http.Client
}

// NewClient creates a web search client for the given API key and custom
// search engine ID.
func NewClient(apiKey, engineID string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", sr.Query)
	if sr.Country != "" {
		cc := strings.ToLower(sr.Country)
		q.Set("gl", cc)
		q.Set("cr", "country"+strings.ToUpper(cc))
	}
	if sr.DateRestrict != "" {
		q.Set("dateRestrict", sr.DateRestrict)
	}
	if sr.Num > 0 {
		if sr.Num > 10 {
			sr.Num = 10
		}
		q.Set("num", strconv.Itoa(sr.Num))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: read response")
	}

	if resp.StatusCode != http.StatusOK {
		if isQuotaStatus(resp.StatusCode, respBody) {
			return nil, ErrQuotaExceeded
		}
		return nil, eris.Errorf("websearch: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "websearch: unmarshal response")
	}

	return &result, nil
}

// isQuotaStatus reports whether an error response means quota exhaustion.
// The provider uses 429, and also 403 with a rate/quota reason code.
func isQuotaStatus(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	if status != http.StatusForbidden {
		return false
	}
	var ae apiError
	if err := json.Unmarshal(body, &ae); err != nil {
		return false
	}
	for _, e := range ae.Error.Errors {
		switch e.Reason {
		case "rateLimitExceeded", "dailyLimitExceeded", "quotaExceeded", "userRateLimitExceeded":
			return true
		}
	}
	return strings.Contains(strings.ToLower(ae.Error.Message), "quota")
}
