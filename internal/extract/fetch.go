package extract

import (
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Page is a fetched event page. HTML keeps the raw body for structured
// markup parsing; Text is the stripped plaintext the heuristic tier works on.
type Page struct {
	URL        string
	Title      string
	HTML       []byte
	Text       string
	StatusCode int
}

// Fetcher retrieves pages for the local extraction tiers.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// httpFetcher fetches HTML via net/http. Free, no API calls.
type httpFetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with sensible defaults.
func NewFetcher(timeout time.Duration) Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; EventBot/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: get")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("fetch: status %d for %s", resp.StatusCode, targetURL)
	}
	if len(body) < 100 {
		return nil, eris.Errorf("fetch: empty page %s", targetURL)
	}

	return &Page{
		URL:        targetURL,
		Title:      extractTitle(body),
		HTML:       body,
		Text:       stripHTML(string(body)),
		StatusCode: resp.StatusCode,
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

// stripHTML removes scripts/styles/nav/footer, strips tags, decodes entities,
// and collapses whitespace. The result is plaintext suitable for the
// heuristic regex tier.
func stripHTML(html string) string {
	// Remove script, style, nav, footer blocks entirely.
	for _, tag := range []string{"script", "style", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	// Strip remaining HTML tags.
	tagRe := regexp.MustCompile(`<[^>]+>`)
	html = tagRe.ReplaceAllString(html, " ")

	// Decode common HTML entities.
	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	// Collapse whitespace: multiple spaces → single, multiple newlines → double.
	spaceRe := regexp.MustCompile(`[ \t]+`)
	html = spaceRe.ReplaceAllString(html, " ")

	nlRe := regexp.MustCompile(`\n{3,}`)
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
