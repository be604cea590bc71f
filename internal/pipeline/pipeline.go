// Package pipeline orchestrates the acquisition stages: query building,
// search, relevance filtering, extraction, scoring, deduplication, and
// speaker enrichment. A run always produces a result; degraded stages
// surface through the provider name and the trace, never as errors.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/dedupe"
	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/internal/normalize"
	"github.com/stagesignal/event-cli/internal/query"
	"github.com/stagesignal/event-cli/internal/search"
)

// Searcher produces candidate hits for a request.
type Searcher interface {
	Search(ctx context.Context, req model.AcquireRequest) *search.Result
}

// Classifier keeps the hits that plausibly describe events.
type Classifier interface {
	Filter(ctx context.Context, hits []model.SearchHit) []model.SearchHit
	Flush()
}

// Extractor turns candidate URLs into event records.
type Extractor interface {
	Extract(ctx context.Context, urls []string, locale string) ([]model.EventRecord, []model.TraceStep)
}

// Enricher researches speaker backgrounds in place.
type Enricher interface {
	Enrich(ctx context.Context, events []model.EventRecord)
}

// Pipeline wires the acquisition stages together.
type Pipeline struct {
	cfg      *config.Config
	builder  *query.Builder
	searcher Searcher
	filter   Classifier
	extract  Extractor
	scorer   *normalize.Scorer
	deduper  *dedupe.Deduper
	enricher Enricher
}

// New creates a Pipeline with all stage dependencies.
func New(
	cfg *config.Config,
	builder *query.Builder,
	searcher Searcher,
	filter Classifier,
	extractor Extractor,
	scorer *normalize.Scorer,
	deduper *dedupe.Deduper,
	enricher Enricher,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		builder:  builder,
		searcher: searcher,
		filter:   filter,
		extract:  extractor,
		scorer:   scorer,
		deduper:  deduper,
		enricher: enricher,
	}
}

// Acquire runs the full pipeline for one request.
func (p *Pipeline) Acquire(ctx context.Context, req model.AcquireRequest) *model.AcquisitionResult {
	runID := uuid.NewString()
	log := zap.L().With(zap.String("run_id", runID), zap.String("query", req.Query))
	start := time.Now()
	log.Info("pipeline: starting acquisition")

	built := req
	built.Query = p.builder.Build(req.Query, req.Country)
	log.Debug("pipeline: built query", zap.String("built_query", built.Query))

	searchRes := p.searcher.Search(ctx, built)
	log.Info("pipeline: search complete",
		zap.String("provider", searchRes.Provider), zap.Int("hits", len(searchRes.Hits)))

	kept := p.filter.Filter(ctx, searchRes.Hits)
	p.filter.Flush()
	log.Info("pipeline: relevance filter complete",
		zap.Int("kept", len(kept)), zap.Int("dropped", len(searchRes.Hits)-len(kept)))

	events, trace := p.extract.Extract(ctx, candidateLinks(kept), strings.ToLower(req.Country))

	// Records are normalized and scored before deduplication so duplicates
	// extracted with differently formatted dates cluster, and so the merge
	// policy can prefer higher-confidence field values. The floor and the
	// final sort apply after merging.
	p.scorer.Score(events)
	events = p.deduper.Events(events)
	events = p.scorer.Finalize(events, p.cfg.Pipeline.ConfidenceFloor)

	p.enricher.Enrich(ctx, events)

	log.Info("pipeline: acquisition complete",
		zap.Int("events", len(events)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &model.AcquisitionResult{
		RunID:    runID,
		Provider: searchRes.Provider,
		Events:   events,
		Trace:    trace,
	}
}

// candidateLinks returns the hit links with duplicates (after URL
// normalization) removed, preserving first-seen order.
func candidateLinks(hits []model.SearchHit) []string {
	seen := make(map[string]struct{}, len(hits))
	var links []string
	for _, hit := range hits {
		norm := model.NormalizeURL(hit.Link)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		links = append(links, hit.Link)
	}
	return links
}
