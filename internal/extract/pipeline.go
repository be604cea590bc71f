package extract

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
)

const tierStub = "stub"

// cachedExtraction is the per-URL cache payload: the record plus the tier
// that produced it, so warm runs can report the original tier in the trace.
type cachedExtraction struct {
	Tier   string            `json:"tier"`
	Record model.EventRecord `json:"record"`
}

// hostPacer enforces a minimum gap between requests to the same host,
// independent of the global concurrency bound.
type hostPacer struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	gap      time.Duration
}

func newHostPacer(gap time.Duration) *hostPacer {
	return &hostPacer{
		limiters: make(map[string]*rate.Limiter),
		gap:      gap,
	}
}

func (p *hostPacer) wait(ctx context.Context, host string) error {
	if p.gap <= 0 || host == "" {
		return nil
	}
	p.mu.Lock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.gap), 1)
		p.limiters[host] = l
	}
	p.mu.Unlock()
	return l.Wait(ctx)
}

// Pipeline runs the tier chain over candidate URLs with bounded
// concurrency, per-host pacing, and a no-TTL per-URL cache.
type Pipeline struct {
	cache      *cache.Service
	fetcher    Fetcher
	strategies []Strategy
	pacer      *hostPacer
	cfg        config.ExtractConfig
}

// NewPipeline creates an extraction Pipeline. strategies run in order for
// each URL; the stub tier is built in and always terminal.
func NewPipeline(c *cache.Service, fetcher Fetcher, cfg config.ExtractConfig, strategies ...Strategy) *Pipeline {
	return &Pipeline{
		cache:      c,
		fetcher:    fetcher,
		strategies: strategies,
		pacer:      newHostPacer(time.Duration(cfg.HostGapMS) * time.Millisecond),
		cfg:        cfg,
	}
}

// Extract processes up to MaxURLs candidates and returns one record per
// requested URL, in input order, with a trace step per URL. It never
// returns an error: per-URL failures degrade to stub records.
func (p *Pipeline) Extract(ctx context.Context, urls []string, locale string) ([]model.EventRecord, []model.TraceStep) {
	if max := p.cfg.MaxURLs; max > 0 && len(urls) > max {
		zap.L().Info("extract: truncating candidate set",
			zap.Int("requested", len(urls)), zap.Int("max", max))
		urls = urls[:max]
	}

	records := make([]model.EventRecord, len(urls))
	trace := make([]model.TraceStep, len(urls))

	concurrency := p.cfg.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, rawURL := range urls {
		g.Go(func() error {
			start := time.Now()
			rec, tier, cached := p.extractOne(gCtx, Target{URL: rawURL, Locale: locale})
			records[i] = *rec
			trace[i] = model.TraceStep{
				URL:        rawURL,
				Tier:       tier,
				Cached:     cached,
				DurationMS: time.Since(start).Milliseconds(),
			}
			return nil
		})
	}
	_ = g.Wait()

	return records, trace
}

// extractOne resolves a single URL: cache, then the tier chain, then the
// stub. Any panic or tier error is contained to this URL.
func (p *Pipeline) extractOne(ctx context.Context, target Target) (rec *model.EventRecord, tier string, cached bool) {
	key := cache.NSExtract + model.NormalizeURL(target.URL)

	if payload, ok := p.cache.Get(ctx, key); ok {
		var ce cachedExtraction
		if err := json.Unmarshal(payload, &ce); err == nil {
			return &ce.Record, ce.Tier, true
		}
		zap.L().Warn("extract: corrupt cached record, re-extracting", zap.String("key", key))
	}

	defer func() {
		// A panic in a tier must not take down the batch; the URL
		// degrades to a stub like any other failure.
		if r := recover(); r != nil {
			zap.L().Error("extract: tier panicked",
				zap.String("url", target.URL), zap.Any("panic", r))
			rec, tier = stubRecord(target), tierStub
			p.persist(ctx, key, rec, tier)
		}
	}()

	if err := p.pacer.wait(ctx, model.HostOf(target.URL)); err != nil {
		rec, tier = stubRecord(target), tierStub
		p.persist(ctx, key, rec, tier)
		return rec, tier, false
	}

	page, err := p.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		zap.L().Debug("extract: local fetch failed, page-less tiers only",
			zap.String("url", target.URL), zap.Error(err))
	}

	for _, s := range p.strategies {
		candidate, err := s.Attempt(ctx, target, page)
		if err != nil {
			zap.L().Debug("extract: tier failed, trying next",
				zap.String("tier", s.Name()),
				zap.String("url", target.URL),
				zap.Error(err))
			continue
		}
		if candidate == nil {
			continue
		}
		if candidate.Rich() {
			p.persist(ctx, key, candidate, s.Name())
			return candidate, s.Name(), false
		}
		// Thin result: remember it, but give later tiers a chance.
		if rec == nil {
			rec, tier = candidate, s.Name()
		}
	}

	if rec == nil {
		rec, tier = stubRecord(target), tierStub
	}
	p.persist(ctx, key, rec, tier)
	return rec, tier, false
}

// persist writes the extraction to the per-URL cache with no TTL: page
// content changes slowly relative to product needs, and stubs are cached
// too so repeated runs never re-pay a failed chain.
func (p *Pipeline) persist(ctx context.Context, key string, rec *model.EventRecord, tier string) {
	payload, err := json.Marshal(cachedExtraction{Tier: tier, Record: *rec})
	if err != nil {
		return
	}
	p.cache.Set(ctx, key, payload, 0)
}
