package relevance

import (
	"regexp"
	"strings"

	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
)

// The keyword heuristic is the only safety net when no classifier is
// configured or a classification batch cannot be parsed, so its vocabulary
// is a stable contract: it must catch common multilingual event terms and
// date tokens. Extend it, don't shrink it.

// eventVocab covers event nouns in English, German, French, Spanish, and
// Italian. Matched case-insensitively as whole words.
var eventVocab = regexp.MustCompile(`(?i)\b(conference|summit|expo|exhibition|convention|symposium|forum|trade\s*(fair|show)|workshop|seminar|konferenz|tagung|kongress|messe|fachmesse|salon|congr[eè]s|conf[ée]rence|conferencia|congreso|feria|conferenza|congresso|fiera)\b`)

// dateToken matches year mentions and common numeric date shapes that event
// listings carry in titles and snippets.
var dateToken = regexp.MustCompile(`\b(20\d{2}|\d{1,2}\.\d{1,2}\.\d{2,4}|\d{1,2}/\d{1,2}/\d{2,4})\b`)

// negativeSignals marks pages that mention events only incidentally.
var negativeSignals = regexp.MustCompile(`(?i)\b(wikipedia|dictionary|definition|what is|how to|job|career|hiring|salary|course|tutorial|template)\b`)

// heuristicClassify scores a search hit with keyword and date-token
// matching. An event term plus either a date token or a configured industry
// term counts as an event; negative signals veto.
func heuristicClassify(hit model.SearchHit, cfg config.IndustryConfig) model.ClassificationDecision {
	text := hit.Title + " " + hit.Snippet
	decision := model.ClassificationDecision{ItemHash: model.HashHit(hit.Title, hit.Link)}

	if negativeSignals.MatchString(text) {
		decision.Reason = "heuristic: negative signal"
		decision.Confidence = 0.6
		return decision
	}

	hasVocab := eventVocab.MatchString(text)
	if !hasVocab {
		decision.Reason = "heuristic: no event vocabulary"
		decision.Confidence = 0.5
		return decision
	}

	hasDate := dateToken.MatchString(text)
	hasIndustry := containsAnyTerm(text, cfg.IndustryTerms)

	if hasDate || hasIndustry {
		decision.IsEvent = true
		decision.Confidence = 0.7
		decision.Reason = "heuristic: event vocabulary with date or industry term"
		return decision
	}

	// Vocabulary alone is weak but still worth keeping: curated fallback
	// titles and sparse snippets often carry no date.
	decision.IsEvent = true
	decision.Confidence = 0.5
	decision.Reason = "heuristic: event vocabulary only"
	return decision
}

func containsAnyTerm(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
