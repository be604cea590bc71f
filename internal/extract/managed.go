package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/internal/resilience"
	"github.com/stagesignal/event-cli/pkg/firecrawl"
)

const extractPrompt = `Extract the industry event described on this page. Return the event title, start and end dates (ISO YYYY-MM-DD), city, country, venue, organizer, topics, and any listed speakers with their organization and job title. Omit fields that are not on the page.`

// extractSchema constrains the managed service's output to the shape of
// managedPayload.
var extractSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "title": {"type": "string"},
    "start_date": {"type": "string"},
    "end_date": {"type": "string"},
    "city": {"type": "string"},
    "country": {"type": "string"},
    "venue": {"type": "string"},
    "organizer": {"type": "string"},
    "topics": {"type": "array", "items": {"type": "string"}},
    "speakers": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "org": {"type": "string"},
          "title": {"type": "string"}
        }
      }
    }
  }
}`)

// managedPayload mirrors extractSchema.
type managedPayload struct {
	Title     string   `json:"title"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
	Venue     string   `json:"venue"`
	Organizer string   `json:"organizer"`
	Topics    []string `json:"topics"`
	Speakers  []struct {
		Name  string `json:"name"`
		Org   string `json:"org"`
		Title string `json:"title"`
	} `json:"speakers"`
}

// managedStrategy submits URLs to the external extraction service. A
// circuit breaker guards it: when the service keeps failing, the chain
// skips straight to the heuristic tier instead of paying a full
// submit-and-poll round trip per URL.
type managedStrategy struct {
	client       firecrawl.Client
	breaker      *resilience.CircuitBreaker
	pollInterval time.Duration
	pollTimeout  time.Duration
}

// NewManagedStrategy creates the managed extraction tier. client may be nil
// when no service credential is configured; the tier then reports itself
// unavailable for every URL.
func NewManagedStrategy(client firecrawl.Client, breaker *resilience.CircuitBreaker, pollInterval, pollTimeout time.Duration) Strategy {
	return &managedStrategy{
		client:       client,
		breaker:      breaker,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

func (m *managedStrategy) Name() string { return "managed_service" }

func (m *managedStrategy) Attempt(ctx context.Context, target Target, _ *Page) (*model.EventRecord, error) {
	if m.client == nil {
		return nil, eris.New("managed_service: not configured")
	}

	return resilience.ExecuteVal(ctx, m.breaker, func(ctx context.Context) (*model.EventRecord, error) {
		return m.extract(ctx, target)
	})
}

func (m *managedStrategy) extract(ctx context.Context, target Target) (*model.EventRecord, error) {
	resp, err := m.client.StartExtract(ctx, firecrawl.ExtractRequest{
		URLs:   []string{target.URL},
		Prompt: extractPrompt,
		Schema: extractSchema,
	})
	if err != nil {
		return nil, err
	}

	status, err := firecrawl.PollExtract(ctx, m.client, resp.ID,
		firecrawl.WithPollInterval(m.pollInterval),
		firecrawl.WithPollTimeout(m.pollTimeout),
	)
	if err != nil {
		return nil, err
	}

	var payload managedPayload
	if err := json.Unmarshal(status.Data, &payload); err != nil {
		return nil, eris.Wrap(err, "managed_service: decode payload")
	}
	if payload.Title == "" && payload.StartDate == "" && payload.City == "" {
		zap.L().Debug("extract: managed service returned empty payload", zap.String("url", target.URL))
		return nil, nil
	}

	rec := &model.EventRecord{
		SourceURL: target.URL,
		Title:     payload.Title,
		StartsAt:  payload.StartDate,
		EndsAt:    payload.EndDate,
		City:      payload.City,
		Country:   payload.Country,
		Venue:     payload.Venue,
		Organizer: payload.Organizer,
		Topics:    payload.Topics,
	}
	for _, sp := range payload.Speakers {
		if sp.Name == "" {
			continue
		}
		rec.Speakers = append(rec.Speakers, model.SpeakerRecord{
			Name:      sp.Name,
			Org:       sp.Org,
			Title:     sp.Title,
			SourceURL: target.URL,
		})
	}
	return rec, nil
}
