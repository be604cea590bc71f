// Package normalize cleans extracted event fields, canonicalizes dates and
// countries, and scores record confidence.
package normalize

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
	bulletRe = regexp.MustCompile(`^[\s\p{Pd}•·*>|:;,.]+|[\s•·*>|:;,]+$`)
)

// CleanText decodes HTML entities, strips tags, collapses whitespace, and
// trims bullet/punctuation artifacts off the edges.
func CleanText(s string) string {
	s = html.UnescapeString(s)
	s = tagRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	s = bulletRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// cityNoise marks values that leaked into a city field from surrounding
// copy: job titles, topic vocabulary, full sentences.
var cityNoise = regexp.MustCompile(`(?i)\b(director|manager|officer|speaker|keynote|session|agenda|register|ticket|online|virtual|webinar|digital|innovation|strategy|solutions)\b`)

const maxCityLen = 40

// CleanCity cleans a city value and rejects implausible ones: too long,
// containing digits, or carrying job-title/topic vocabulary. Rejected
// values are nulled rather than kept — a wrong city is worse than none.
func CleanCity(s string) string {
	s = CleanText(s)
	if s == "" || len(s) > maxCityLen {
		return ""
	}
	if strings.ContainsAny(s, "0123456789@/") {
		return ""
	}
	if cityNoise.MatchString(s) {
		return ""
	}
	return s
}

// placeholderTitles match generic or error-page titles that should cost an
// event record confidence.
var placeholderTitles = regexp.MustCompile(`(?i)^\s*(event|untitled( event)?|home|welcome)\s*$`)

var errorTitles = regexp.MustCompile(`(?i)(404|not found|page not found|error)`)
