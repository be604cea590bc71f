package extract

import (
	"net/url"
	"strings"

	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/internal/normalize"
)

// stubRecord synthesizes a minimal record for a URL when every tier failed.
// Downstream code indexes extraction results positionally, so a requested
// URL must always yield a record, however thin.
func stubRecord(target Target) *model.EventRecord {
	rec := &model.EventRecord{
		SourceURL: target.URL,
		Title:     titleFromURL(target.URL),
	}
	if u, err := url.Parse(target.URL); err == nil {
		rec.Country = normalize.CountryForTLD(u.Hostname())
	}
	return rec
}

// titleFromURL derives a readable title from the last meaningful path
// segment, falling back to the hostname.
func titleFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		// Skip file extensions and index pages.
		seg = strings.TrimSuffix(seg, ".html")
		seg = strings.TrimSuffix(seg, ".php")
		if seg == "" || seg == "index" || seg == "en" || seg == "de" {
			continue
		}
		seg = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(seg)
		return strings.TrimSpace(seg)
	}

	return strings.TrimPrefix(u.Hostname(), "www.")
}
