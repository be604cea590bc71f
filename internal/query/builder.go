// Package query composes web search queries for event discovery. A query
// starts from the user's free text (or a configured base query), then picks
// up a handful of industry terms, a localized event vocabulary for the
// target country, the current year, and configured exclusion terms as
// negative operators.
package query

import (
	_ "embed"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/stagesignal/event-cli/internal/config"
)

//go:embed lexicon.yaml
var lexiconYAML []byte

const (
	// maxLen is the hard cap on a composed query. Search providers
	// silently mangle longer queries.
	maxLen = 200

	// maxIndustryTerms bounds how many configured industry terms are
	// appended. Beyond a few the query dilutes instead of sharpening.
	maxIndustryTerms = 3

	defaultQuery = "conference"
)

// Builder composes search query strings from industry configuration.
type Builder struct {
	cfg     config.IndustryConfig
	lexicon map[string]string

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewBuilder creates a Builder. The locale lexicon is loaded from the
// embedded table; a corrupt table is logged and degrades to English-only.
func NewBuilder(cfg config.IndustryConfig) *Builder {
	lexicon := map[string]string{}
	if err := yaml.Unmarshal(lexiconYAML, &lexicon); err != nil {
		zap.L().Error("query: failed to parse locale lexicon", zap.Error(err))
	}
	return &Builder{cfg: cfg, lexicon: lexicon, nowFunc: time.Now}
}

// Build composes a single query string for the given free text and country
// code. It never fails: with no free text and no configuration it returns
// a generic default.
func (b *Builder) Build(freeText, country string) string {
	root := strings.TrimSpace(freeText)
	if root == "" {
		root = strings.TrimSpace(b.cfg.BaseQuery)
	}
	if root == "" {
		root = defaultQuery
	}

	parts := []string{root}
	seen := map[string]bool{}
	for _, w := range strings.Fields(root) {
		seen[strings.ToLower(w)] = true
	}

	added := 0
	for _, term := range b.cfg.IndustryTerms {
		if added >= maxIndustryTerms {
			break
		}
		term = strings.TrimSpace(term)
		if term == "" || seen[strings.ToLower(term)] {
			continue
		}
		parts = append(parts, term)
		seen[strings.ToLower(term)] = true
		added++
	}

	for _, w := range strings.Fields(b.eventTerms(country)) {
		if seen[strings.ToLower(w)] {
			continue
		}
		parts = append(parts, w)
		seen[strings.ToLower(w)] = true
	}

	year := b.nowFunc().Format("2006")
	if !seen[year] {
		parts = append(parts, year)
	}

	// Exclusions go last so the length cap trims them before anything that
	// sharpens the query.
	for _, term := range b.cfg.ExcludeTerms {
		term = strings.TrimSpace(term)
		if term == "" || seen[strings.ToLower(term)] {
			continue
		}
		parts = append(parts, excludeToken(term))
		seen[strings.ToLower(term)] = true
	}

	return truncate(strings.Join(parts, " "), maxLen)
}

// excludeToken formats a term as a search-engine exclusion, quoting
// multi-word terms so the minus binds the whole phrase.
func excludeToken(term string) string {
	if strings.ContainsAny(term, " \t") {
		return `-"` + term + `"`
	}
	return "-" + term
}

// eventTerms returns the localized event vocabulary for a country code,
// falling back to English.
func (b *Builder) eventTerms(country string) string {
	if terms, ok := b.lexicon[strings.ToLower(strings.TrimSpace(country))]; ok {
		return terms
	}
	return b.lexicon["en"]
}

// truncate cuts s to at most n bytes, backing up to the previous word
// boundary so the query never ends mid-word or mid-rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}
