// Package search fronts the external web search provider. Callers always
// get a result set: when the provider is over quota or unreachable, a
// curated table of well-known events stands in, flagged by provider name.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/internal/resilience"
	"github.com/stagesignal/event-cli/pkg/websearch"
)

// Provider names reported in results.
const (
	ProviderGoogleCSE = "google_cse"
	ProviderCurated   = "fallback_curated"
)

// Result is what the facade hands the pipeline.
type Result struct {
	Provider string            `json:"provider"`
	Hits     []model.SearchHit `json:"hits"`
}

// Facade wraps the search client with quota probing, curated fallback, and
// a short-TTL result cache.
type Facade struct {
	client  websearch.Client
	cache   *cache.Service
	cfg     config.SearchConfig
	retry   resilience.RetryConfig
	curated []curatedEvent

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewFacade creates a Facade around the given search client.
func NewFacade(client websearch.Client, c *cache.Service, cfg config.SearchConfig) *Facade {
	return &Facade{
		client:  client,
		cache:   c,
		cfg:     cfg,
		retry:   resilience.DefaultRetryConfig(),
		curated: loadCurated(),
		nowFunc: time.Now,
	}
}

// Search returns candidate hits for the request. It never returns an error:
// every failure mode degrades to the curated fallback set.
func (f *Facade) Search(ctx context.Context, req model.AcquireRequest) *Result {
	num := req.ResultCount
	if num <= 0 {
		num = f.cfg.ResultCount
	}

	key := cache.NSSearch + requestHash(req, num)
	if payload, ok := f.cache.Get(ctx, key); ok {
		var res Result
		if err := json.Unmarshal(payload, &res); err == nil {
			zap.L().Debug("search: cache hit", zap.String("key", key))
			return &res
		}
		zap.L().Warn("search: corrupt cached result, refetching", zap.String("key", key))
	}

	if !f.probe(ctx, req.Query) {
		return &Result{
			Provider: ProviderCurated,
			Hits:     curatedHits(f.curated, req.Query, req.Country, num),
		}
	}

	resp, err := resilience.DoVal(ctx, f.retry, "websearch", func(ctx context.Context) (*websearch.SearchResponse, error) {
		return f.client.Search(ctx, websearch.SearchRequest{
			Query:        req.Query,
			Country:      req.Country,
			DateRestrict: f.dateRestrict(req.DateFrom, req.DateTo),
			Num:          num,
		})
	})
	if err != nil {
		zap.L().Warn("search: provider query failed, serving curated fallback", zap.Error(err))
		return &Result{
			Provider: ProviderCurated,
			Hits:     curatedHits(f.curated, req.Query, req.Country, num),
		}
	}

	hits := make([]model.SearchHit, 0, len(resp.Items))
	for _, it := range resp.Items {
		hits = append(hits, model.SearchHit{Title: it.Title, Link: it.Link, Snippet: it.Snippet})
	}
	res := &Result{Provider: ProviderGoogleCSE, Hits: hits}

	if payload, err := json.Marshal(res); err == nil {
		ttl := time.Duration(f.cfg.CacheTTLHrs) * time.Hour
		f.cache.Set(ctx, key, payload, ttl)
	}
	return res
}

// probe issues a minimal one-result request to detect quota exhaustion and
// transport failures before spending the real query.
func (f *Facade) probe(ctx context.Context, query string) bool {
	if f.client == nil {
		zap.L().Info("search: no provider configured, serving curated set")
		return false
	}
	timeout := time.Duration(f.cfg.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := f.client.Search(probeCtx, websearch.SearchRequest{Query: query, Num: 1})
	if err != nil {
		zap.L().Warn("search: probe failed, provider unavailable", zap.Error(err))
		return false
	}
	return true
}

// dateRestrict converts a past date window into the provider's
// publish-age hint ("dN"/"mN"). The provider filters by page publish date,
// which says nothing useful about future events, so future windows get no
// hint at all.
func (f *Facade) dateRestrict(from, to string) string {
	if from == "" || to == "" {
		return ""
	}
	fromT, err := time.Parse("2006-01-02", from)
	if err != nil {
		return ""
	}
	toT, err := time.Parse("2006-01-02", to)
	if err != nil {
		return ""
	}

	now := f.nowFunc()
	if !toT.Before(now) {
		return ""
	}

	age := now.Sub(fromT)
	days := int(age.Hours()/24) + 1
	if days <= 31 {
		return fmt.Sprintf("d%d", days)
	}
	months := days/30 + 1
	return fmt.Sprintf("m%d", months)
}

func requestHash(req model.AcquireRequest, num int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s|%d", req.Query, req.Country, req.DateFrom, req.DateTo, num)))
	return fmt.Sprintf("%x", h)
}
