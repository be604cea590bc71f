// Package enrich adds best-effort speaker background research on top of
// acquired events. Failures never propagate: an unenriched speaker is a
// valid speaker.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/pkg/perplexity"
)

const speakerPrompt = `Research the conference speaker "%s"%s%s.
Return a valid JSON object with these fields:
- bio: string (2-3 sentence professional background, empty string if the person cannot be identified)
- expertise_areas: array of strings (up to 5 topics the person is known for)

Return only the JSON object, nothing else.`

type speakerProfile struct {
	Bio            string   `json:"bio"`
	ExpertiseAreas []string `json:"expertise_areas"`
}

// Enricher researches the highest-confidence speakers of a result set.
type Enricher struct {
	client      perplexity.Client
	maxSpeakers int
}

// New creates an Enricher. A nil client disables enrichment entirely.
func New(client perplexity.Client, cfg config.ResearchConfig) *Enricher {
	max := cfg.MaxSpeakers
	if max <= 0 {
		max = 5
	}
	return &Enricher{client: client, maxSpeakers: max}
}

// Enrich fills Bio and ExpertiseAreas for the top speakers across all events,
// mutating the records in place. Speakers already enriched are skipped. Every
// failure is logged and swallowed.
func (e *Enricher) Enrich(ctx context.Context, events []model.EventRecord) {
	if e.client == nil {
		return
	}

	type ref struct {
		event, speaker int
	}
	var candidates []ref
	for i := range events {
		for j := range events[i].Speakers {
			sp := &events[i].Speakers[j]
			if sp.Bio != "" || strings.TrimSpace(sp.Name) == "" {
				continue
			}
			candidates = append(candidates, ref{event: i, speaker: j})
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return events[candidates[a].event].Speakers[candidates[a].speaker].Confidence >
			events[candidates[b].event].Speakers[candidates[b].speaker].Confidence
	})
	if len(candidates) > e.maxSpeakers {
		candidates = candidates[:e.maxSpeakers]
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for _, c := range candidates {
		sp := &events[c.event].Speakers[c.speaker]
		eventTitle := events[c.event].Title
		g.Go(func() error {
			profile, err := e.research(gctx, sp, eventTitle)
			if err != nil {
				zap.L().Warn("enrich: speaker research failed",
					zap.String("speaker", sp.Name), zap.Error(err))
				return nil
			}
			if profile.Bio != "" {
				sp.Bio = profile.Bio
			}
			if len(profile.ExpertiseAreas) > 0 {
				sp.ExpertiseAreas = profile.ExpertiseAreas
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Enricher) research(ctx context.Context, sp *model.SpeakerRecord, eventTitle string) (*speakerProfile, error) {
	var orgPart, eventPart string
	if sp.Org != "" {
		orgPart = fmt.Sprintf(" from %q", sp.Org)
	}
	if eventTitle != "" {
		eventPart = fmt.Sprintf(", speaking at %q", eventTitle)
	}

	answer, err := e.client.Research(ctx, fmt.Sprintf(speakerPrompt, sp.Name, orgPart, eventPart))
	if err != nil {
		return nil, err
	}

	var profile speakerProfile
	if err := json.Unmarshal([]byte(cleanJSON(answer)), &profile); err != nil {
		return nil, eris.Wrap(err, "enrich: parse profile json")
	}
	return &profile, nil
}

// cleanJSON extracts a JSON object from text that may contain markdown code
// fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
