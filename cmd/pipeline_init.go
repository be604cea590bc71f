package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/dedupe"
	"github.com/stagesignal/event-cli/internal/enrich"
	"github.com/stagesignal/event-cli/internal/extract"
	"github.com/stagesignal/event-cli/internal/normalize"
	"github.com/stagesignal/event-cli/internal/pipeline"
	"github.com/stagesignal/event-cli/internal/query"
	"github.com/stagesignal/event-cli/internal/relevance"
	"github.com/stagesignal/event-cli/internal/resilience"
	"github.com/stagesignal/event-cli/internal/search"
	"github.com/stagesignal/event-cli/internal/store"
	anthropicpkg "github.com/stagesignal/event-cli/pkg/anthropic"
	"github.com/stagesignal/event-cli/pkg/firecrawl"
	"github.com/stagesignal/event-cli/pkg/perplexity"
	"github.com/stagesignal/event-cli/pkg/websearch"
)

// pipelineEnv holds the store, cache, and assembled pipeline used by the
// acquire and serve commands.
type pipelineEnv struct {
	Store    store.KV
	Cache    *cache.Service
	Pipeline *pipeline.Pipeline
	Filter   *relevance.Filter
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Filter != nil {
		pe.Filter.Flush()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline opens the store and builds the full acquisition pipeline.
// Every external client is optional: a missing search key falls back to the
// curated set, a missing Anthropic key to heuristic classification, and a
// missing Firecrawl key simply skips the managed extraction tier. Callers
// should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	kv, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	cacheSvc := cache.New(kv, cfg.Cache.MemoryCapacity)

	var searchClient websearch.Client
	if cfg.Search.Key != "" && cfg.Search.EngineID != "" {
		opts := []websearch.Option{}
		if cfg.Search.BaseURL != "" {
			opts = append(opts, websearch.WithBaseURL(cfg.Search.BaseURL))
		}
		searchClient = websearch.NewClient(cfg.Search.Key, cfg.Search.EngineID, opts...)
	} else {
		zap.L().Warn("search provider not configured, every run will use the curated fallback")
	}

	var aiClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		aiClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
	} else {
		zap.L().Warn("anthropic not configured, relevance filtering will be heuristic only")
	}

	var fcClient firecrawl.Client
	if cfg.Firecrawl.Key != "" {
		fcOpts := []firecrawl.Option{}
		if cfg.Firecrawl.BaseURL != "" {
			fcOpts = append(fcOpts, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		}
		fcClient = firecrawl.NewClient(cfg.Firecrawl.Key, fcOpts...)
	}

	var pplxClient perplexity.Client
	if cfg.Research.Key != "" {
		pplxOpts := []perplexity.Option{}
		if cfg.Research.BaseURL != "" {
			pplxOpts = append(pplxOpts, perplexity.WithBaseURL(cfg.Research.BaseURL))
		}
		if cfg.Research.Model != "" {
			pplxOpts = append(pplxOpts, perplexity.WithModel(cfg.Research.Model))
		}
		pplxClient = perplexity.NewClient(cfg.Research.Key, pplxOpts...)
	}

	facade := search.NewFacade(searchClient, cacheSvc, cfg.Search)
	filter := relevance.NewFilter(aiClient, cacheSvc, cfg.Anthropic, cfg.Filter, cfg.Industry)

	breaker := resilience.NewCircuitBreaker(cfg.Extract.BreakerTrips, time.Duration(cfg.Extract.BreakerResetS)*time.Second)
	strategies := []extract.Strategy{extract.NewSchemaOrgStrategy()}
	if fcClient != nil {
		strategies = append(strategies, extract.NewManagedStrategy(
			fcClient,
			breaker,
			time.Duration(cfg.Firecrawl.PollIntervalSecs)*time.Second,
			time.Duration(cfg.Firecrawl.PollTimeoutSecs)*time.Second,
		))
	}
	strategies = append(strategies, extract.NewHeuristicStrategy())

	fetcher := extract.NewFetcher(time.Duration(cfg.Extract.FetchTimeoutS) * time.Second)
	extractor := extract.NewPipeline(cacheSvc, fetcher, cfg.Extract, strategies...)

	scorer := normalize.NewScorer()

	p := pipeline.New(
		cfg,
		query.NewBuilder(cfg.Industry),
		facade,
		filter,
		extractor,
		scorer,
		dedupe.New(scorer),
		enrich.New(pplxClient, cfg.Research),
	)

	return &pipelineEnv{
		Store:    kv,
		Cache:    cacheSvc,
		Pipeline: p,
		Filter:   filter,
	}, nil
}
