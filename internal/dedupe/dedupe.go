// Package dedupe merges duplicate speaker and event records produced by
// extracting overlapping pages. Merging is order-independent: fields come
// from whichever duplicate carries them with higher confidence.
package dedupe

import (
	"strings"

	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/internal/normalize"
)

// Deduper clusters and merges records, recomputing confidence on merges.
type Deduper struct {
	scorer *normalize.Scorer
}

// New creates a Deduper.
func New(scorer *normalize.Scorer) *Deduper {
	return &Deduper{scorer: scorer}
}

// Speakers merges duplicate speakers. Two records are duplicates when their
// names fuzzy-match and their organizations are compatible.
func (d *Deduper) Speakers(speakers []model.SpeakerRecord) []model.SpeakerRecord {
	var merged []model.SpeakerRecord
	for _, sp := range speakers {
		found := false
		for i := range merged {
			if namesMatch(merged[i].Name, sp.Name) && orgsCompatible(merged[i].Org, sp.Org) {
				merged[i] = d.mergeSpeakers(merged[i], sp)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, sp)
		}
	}
	return merged
}

// Events merges duplicate events: same normalized source URL, or
// fuzzy-matching titles with compatible start dates. Speaker lists of
// merged events are themselves deduplicated.
func (d *Deduper) Events(events []model.EventRecord) []model.EventRecord {
	var merged []model.EventRecord
	for _, ev := range events {
		found := false
		for i := range merged {
			if sameEvent(&merged[i], &ev) {
				merged[i] = d.mergeEvents(merged[i], ev)
				found = true
				break
			}
		}
		if !found {
			ev.Speakers = d.Speakers(ev.Speakers)
			merged = append(merged, ev)
		}
	}
	return merged
}

func sameEvent(a, b *model.EventRecord) bool {
	if model.NormalizeURL(a.SourceURL) == model.NormalizeURL(b.SourceURL) {
		return true
	}
	if a.StartsAt != "" && b.StartsAt != "" && a.StartsAt != b.StartsAt {
		return false
	}
	fa, fb := fold(a.Title), fold(b.Title)
	if fa == "" || fb == "" {
		return false
	}
	return fa == fb || strings.Contains(fa, fb) || strings.Contains(fb, fa)
}

func (d *Deduper) mergeSpeakers(a, b model.SpeakerRecord) model.SpeakerRecord {
	out := model.SpeakerRecord{
		Name:           pickField(a.Name, a.Confidence, b.Name, b.Confidence),
		Org:            pickField(a.Org, a.Confidence, b.Org, b.Confidence),
		Title:          pickField(a.Title, a.Confidence, b.Title, b.Confidence),
		ProfileURL:     pickField(a.ProfileURL, a.Confidence, b.ProfileURL, b.Confidence),
		SourceURL:      pickField(a.SourceURL, a.Confidence, b.SourceURL, b.Confidence),
		Bio:            pickField(a.Bio, a.Confidence, b.Bio, b.Confidence),
		ExpertiseAreas: unionStrings(a.ExpertiseAreas, b.ExpertiseAreas),
	}
	out.Confidence = d.scorer.ScoreSpeaker(&out)
	return out
}

func (d *Deduper) mergeEvents(a, b model.EventRecord) model.EventRecord {
	out := model.EventRecord{
		SourceURL:         pickField(a.SourceURL, a.Confidence, b.SourceURL, b.Confidence),
		Title:             pickField(a.Title, a.Confidence, b.Title, b.Confidence),
		StartsAt:          pickField(a.StartsAt, a.Confidence, b.StartsAt, b.Confidence),
		EndsAt:            pickField(a.EndsAt, a.Confidence, b.EndsAt, b.Confidence),
		City:              pickField(a.City, a.Confidence, b.City, b.Confidence),
		Country:           pickField(a.Country, a.Confidence, b.Country, b.Confidence),
		Venue:             pickField(a.Venue, a.Confidence, b.Venue, b.Confidence),
		Organizer:         pickField(a.Organizer, a.Confidence, b.Organizer, b.Confidence),
		Topics:            unionStrings(a.Topics, b.Topics),
		Sponsors:          unionStrings(a.Sponsors, b.Sponsors),
		ParticipatingOrgs: unionStrings(a.ParticipatingOrgs, b.ParticipatingOrgs),
		Partners:          unionStrings(a.Partners, b.Partners),
		Competitors:       unionStrings(a.Competitors, b.Competitors),
		Speakers:          d.Speakers(append(append([]model.SpeakerRecord{}, a.Speakers...), b.Speakers...)),
	}
	out.Confidence = d.scorer.ScoreEvent(&out)
	return out
}

// pickField chooses between two values of one scalar field: any non-empty
// value beats empty, higher confidence wins a conflict, and ties fall back
// to the longer then lexicographically smaller value so the result does not
// depend on merge order.
func pickField(a string, confA float64, b string, confB float64) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	case confA > confB:
		return a
	case confB > confA:
		return b
	case len(a) != len(b):
		if len(a) > len(b) {
			return a
		}
		return b
	case a <= b:
		return a
	default:
		return b
	}
}

// unionStrings merges two lists dropping case-insensitive duplicates,
// keeping first-seen casing.
func unionStrings(a, b []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range append(append([]string{}, a...), b...) {
		key := fold(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
