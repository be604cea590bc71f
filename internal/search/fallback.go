package search

import (
	_ "embed"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/stagesignal/event-cli/internal/model"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type curatedEvent struct {
	Title    string   `yaml:"title"`
	Link     string   `yaml:"link"`
	Snippet  string   `yaml:"snippet"`
	Country  string   `yaml:"country"`
	Keywords []string `yaml:"keywords"`
}

func loadCurated() []curatedEvent {
	var events []curatedEvent
	if err := yaml.Unmarshal(fallbackYAML, &events); err != nil {
		zap.L().Error("search: failed to parse curated fallback table", zap.Error(err))
		return nil
	}
	return events
}

// curatedHits filters the curated table by query keywords and country and
// returns the matches as search hits. A country match counts; so does any
// query token appearing in the event's keywords, title, or snippet. When
// nothing matches, the whole table is returned so the caller never sees an
// empty degraded result.
func curatedHits(curated []curatedEvent, query, country string, limit int) []model.SearchHit {
	tokens := strings.Fields(strings.ToLower(query))
	country = strings.ToLower(strings.TrimSpace(country))

	var matched []curatedEvent
	for _, ev := range curated {
		if matches(ev, tokens, country) {
			matched = append(matched, ev)
		}
	}
	if len(matched) == 0 {
		matched = curated
	}

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	hits := make([]model.SearchHit, 0, len(matched))
	for _, ev := range matched {
		hits = append(hits, model.SearchHit{Title: ev.Title, Link: ev.Link, Snippet: ev.Snippet})
	}
	return hits
}

func matches(ev curatedEvent, tokens []string, country string) bool {
	if country != "" && ev.Country == country {
		return true
	}
	haystack := strings.ToLower(ev.Title + " " + ev.Snippet + " " + strings.Join(ev.Keywords, " "))
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		if strings.Contains(haystack, tok) {
			return true
		}
	}
	return false
}
