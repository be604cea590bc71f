package normalize

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/stagesignal/event-cli/internal/model"
)

// Scorer normalizes extracted records and assigns confidence scores.
type Scorer struct {
	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{nowFunc: time.Now}
}

// NormalizeEvent cleans an event record's fields in place: entity decoding,
// tag stripping, date truncation to YYYY-MM-DD, country code expansion, and
// city plausibility checks.
func (s *Scorer) NormalizeEvent(rec *model.EventRecord) {
	rec.Title = CleanText(rec.Title)
	rec.StartsAt = ToISODate(rec.StartsAt)
	rec.EndsAt = ToISODate(rec.EndsAt)
	rec.City = CleanCity(rec.City)
	rec.Country = CountryName(CleanText(rec.Country))
	rec.Venue = CleanText(rec.Venue)
	rec.Organizer = CleanText(rec.Organizer)

	topics := rec.Topics[:0]
	for _, t := range rec.Topics {
		if t = CleanText(t); t != "" {
			topics = append(topics, t)
		}
	}
	rec.Topics = topics

	for i := range rec.Speakers {
		s.normalizeSpeaker(&rec.Speakers[i])
	}
}

func (s *Scorer) normalizeSpeaker(sp *model.SpeakerRecord) {
	sp.Name = CleanText(sp.Name)
	sp.Org = CleanText(sp.Org)
	sp.Title = CleanText(sp.Title)
	sp.Bio = CleanText(sp.Bio)
}

// ScoreEvent computes an event record's confidence in [0,1]. Each concrete,
// plausible field adds a fixed increment; junk titles subtract.
func (s *Scorer) ScoreEvent(rec *model.EventRecord) float64 {
	score := 0.3

	if rec.StartsAt != "" {
		score += 0.2
		if s.inSaneWindow(rec.StartsAt) {
			score += 0.05
		}
	}
	if rec.City != "" {
		score += 0.1
	}
	if rec.Country != "" {
		score += 0.05
	}
	if rec.Venue != "" {
		score += 0.1
	}
	if rec.Organizer != "" {
		score += 0.05
	}
	if len(rec.Topics) > 0 {
		score += 0.05
	}
	if len(rec.Speakers) > 0 {
		score += 0.1
	}

	if placeholderTitles.MatchString(rec.Title) || rec.Title == "" {
		score -= 0.2
	}
	if errorTitles.MatchString(rec.Title) {
		score -= 0.3
	}

	return clamp(score)
}

// placeholderNames are stand-ins for a speaker yet to be announced.
var placeholderNames = regexp.MustCompile(`(?i)^\s*(tba|tbd|speaker|n/?a)\s*\.?\s*$`)

var nameCharsRe = regexp.MustCompile(`^[\p{L}\p{M}\s.'\-]+$`)

// ScoreSpeaker computes a speaker record's confidence in [0,1]. Placeholder
// names ("TBA", "TBD", "speaker") floor the score at 0.1 regardless of other
// fields.
func (s *Scorer) ScoreSpeaker(sp *model.SpeakerRecord) float64 {
	if len(strings.TrimSpace(sp.Name)) < 2 || placeholderNames.MatchString(sp.Name) {
		return 0.1
	}

	score := 0.3
	if len(strings.Fields(sp.Name)) >= 2 {
		score += 0.15
	}
	if nameCharsRe.MatchString(sp.Name) {
		score += 0.05
	}
	if sp.Org != "" {
		score += 0.15
	}
	if sp.Title != "" {
		score += 0.1
	}
	if sp.ProfileURL != "" {
		score += 0.05
	}
	if sp.Bio != "" {
		score += 0.05
	}
	return clamp(score)
}

// Score normalizes a batch of event records in place and assigns event and
// speaker confidences. Nothing is dropped: callers that merge duplicates need
// the scored low-confidence records too.
func (s *Scorer) Score(events []model.EventRecord) {
	for i := range events {
		s.NormalizeEvent(&events[i])
		for j := range events[i].Speakers {
			events[i].Speakers[j].Confidence = s.ScoreSpeaker(&events[i].Speakers[j])
		}
		events[i].Confidence = s.ScoreEvent(&events[i])
	}
}

// Finalize normalizes and scores a batch of event records, drops events and
// speakers below the confidence floor, and sorts the rest by confidence
// descending with ties broken by start-date presence. Speakers are floored
// before the event is scored, so a record whose only speakers are
// placeholders does not keep the speaker bonus.
func (s *Scorer) Finalize(events []model.EventRecord, floor float64) []model.EventRecord {
	var out []model.EventRecord
	for i := range events {
		rec := events[i]
		s.NormalizeEvent(&rec)

		var speakers []model.SpeakerRecord
		for j := range rec.Speakers {
			sp := rec.Speakers[j]
			sp.Confidence = s.ScoreSpeaker(&sp)
			if sp.Confidence < floor {
				continue
			}
			speakers = append(speakers, sp)
		}
		rec.Speakers = speakers

		rec.Confidence = s.ScoreEvent(&rec)
		if rec.Confidence < floor {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].StartsAt != "" && out[j].StartsAt == ""
	})
	return out
}

// inSaneWindow reports whether an ISO date falls within -1/+2 years of now.
// Dates far outside that window are usually parse artifacts.
func (s *Scorer) inSaneWindow(isoDate string) bool {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return false
	}
	now := s.nowFunc()
	return t.After(now.AddDate(-1, 0, 0)) && t.Before(now.AddDate(2, 0, 0))
}

// clamp bounds a score to [0,1] and rounds to two decimals so that equal
// increment sums compare equal regardless of accumulation order.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return math.Round(v*100) / 100
}
