// Package relevance filters raw search hits down to ones that plausibly
// describe real industry events. Decisions come from an AI classifier when
// credentials are configured, a keyword heuristic otherwise. A durable
// decision cache is consulted either way but only classifier verdicts are
// persisted.
package relevance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/pkg/anthropic"
)

const classifySystemPrompt = `You classify web search results. For each numbered item, decide whether it announces or lists a real-world industry event (conference, trade fair, summit, expo, congress) with an identifiable occurrence — not a news article, directory, job posting, or generic explainer. Respond with ONLY a JSON array, one object per item: [{"index": <n>, "is_event": <bool>, "reason": "<short>", "confidence": <0.0-1.0>}]`

const defaultBatchSize = 5

// Filter screens search hits for event relevance.
type Filter struct {
	client   anthropic.Client
	cache    *cache.Service
	aiCfg    config.AnthropicConfig
	industry config.IndustryConfig

	dropRe *regexp.Regexp
	banned map[string]bool

	// wg tracks asynchronous decision-cache write-backs.
	wg sync.WaitGroup
}

// NewFilter creates a Filter. client may be nil when no classifier
// credential is configured; the keyword heuristic then decides everything.
func NewFilter(client anthropic.Client, c *cache.Service, aiCfg config.AnthropicConfig, fCfg config.FilterConfig, industry config.IndustryConfig) *Filter {
	var dropRe *regexp.Regexp
	if fCfg.DropPattern != "" {
		var err error
		dropRe, err = regexp.Compile(fCfg.DropPattern)
		if err != nil {
			zap.L().Error("relevance: invalid drop pattern, titles will not be pre-filtered",
				zap.String("pattern", fCfg.DropPattern), zap.Error(err))
		}
	}

	banned := make(map[string]bool, len(fCfg.BannedHosts))
	for _, h := range fCfg.BannedHosts {
		banned[strings.ToLower(strings.TrimSpace(h))] = true
	}

	return &Filter{
		client:   client,
		cache:    c,
		aiCfg:    aiCfg,
		industry: industry,
		dropRe:   dropRe,
		banned:   banned,
	}
}

// Filter returns the subset of hits judged to describe real events,
// preserving input order. It never fails: classifier errors degrade to the
// keyword heuristic.
func (f *Filter) Filter(ctx context.Context, hits []model.SearchHit) []model.SearchHit {
	if len(hits) == 0 {
		return nil
	}

	keep := make([]bool, len(hits))

	// The drop regex and ban list apply to every item, cached verdicts
	// included: a page that has turned into an error page since it was
	// classified must not ride back in on its old positive decision.
	var candidates []int
	for i, hit := range hits {
		if f.hardDropped(hit) {
			continue
		}
		candidates = append(candidates, i)
	}

	// Cached decisions.
	keys := make([]string, 0, len(candidates))
	keyFor := make(map[string]int, len(candidates))
	for _, i := range candidates {
		k := cache.NSDecision + model.HashHit(hits[i].Title, hits[i].Link)
		keys = append(keys, k)
		keyFor[k] = i
	}
	cached := f.cache.MultiGet(ctx, keys)

	var undecided []int
	for _, k := range keys {
		i := keyFor[k]
		payload, ok := cached[k]
		if !ok {
			undecided = append(undecided, i)
			continue
		}
		var d model.ClassificationDecision
		if err := json.Unmarshal(payload, &d); err != nil {
			zap.L().Warn("relevance: corrupt cached decision", zap.String("key", k))
			undecided = append(undecided, i)
			continue
		}
		keep[i] = d.IsEvent
	}

	zap.L().Debug("relevance: decision cache consulted",
		zap.Int("total", len(hits)),
		zap.Int("cached", len(candidates)-len(undecided)),
		zap.Int("undecided", len(undecided)),
	)

	if len(undecided) > 0 {
		if f.client == nil {
			f.decideHeuristically(hits, undecided, keep)
		} else {
			f.decideWithClassifier(ctx, hits, undecided, keep)
		}
	}

	var out []model.SearchHit
	for i, hit := range hits {
		if keep[i] {
			out = append(out, hit)
		}
	}
	return out
}

// Flush waits for pending decision-cache write-backs. Call once per run,
// after the last Filter call.
func (f *Filter) Flush() {
	f.wg.Wait()
}

// hardDropped applies the title-drop regex and banned-host set.
func (f *Filter) hardDropped(hit model.SearchHit) bool {
	if f.dropRe != nil && f.dropRe.MatchString(hit.Title) {
		zap.L().Debug("relevance: title matched drop pattern", zap.String("title", hit.Title))
		return true
	}
	if u, err := url.Parse(hit.Link); err == nil {
		host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
		if f.banned[host] || f.banned[strings.ToLower(u.Hostname())] {
			zap.L().Debug("relevance: banned host", zap.String("host", host))
			return true
		}
	}
	return false
}

// decideHeuristically is the keyword fallback. Its verdicts are never
// written to the decision cache: a negative taken while the classifier was
// unavailable would otherwise suppress re-classification forever.
func (f *Filter) decideHeuristically(hits []model.SearchHit, undecided []int, keep []bool) {
	for _, i := range undecided {
		d := heuristicClassify(hits[i], f.industry)
		keep[i] = d.IsEvent
	}
}

func (f *Filter) decideWithClassifier(ctx context.Context, hits []model.SearchHit, undecided []int, keep []bool) {
	batchSize := f.aiCfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for start := 0; start < len(undecided); start += batchSize {
		end := start + batchSize
		if end > len(undecided) {
			end = len(undecided)
		}
		batch := undecided[start:end]

		verdicts, err := f.classifyBatch(ctx, hits, batch)
		if err != nil {
			zap.L().Warn("relevance: classifier batch failed, falling back to heuristic",
				zap.Int("batch_size", len(batch)), zap.Error(err))
			f.decideHeuristically(hits, batch, keep)
			continue
		}

		decisions := make([]model.ClassificationDecision, 0, len(batch))
		for pos, i := range batch {
			d := verdicts[pos]
			d.ItemHash = model.HashHit(hits[i].Title, hits[i].Link)
			keep[i] = d.IsEvent
			decisions = append(decisions, d)
		}
		f.writeBack(ctx, decisions)
	}
}

// classifyBatch sends one batch to the classifier and parses the verdicts.
// The returned slice is positionally aligned with batch.
func (f *Filter) classifyBatch(ctx context.Context, hits []model.SearchHit, batch []int) ([]model.ClassificationDecision, error) {
	var sb strings.Builder
	for pos, i := range batch {
		fmt.Fprintf(&sb, "%d. Title: %s\n   URL: %s\n   Snippet: %s\n\n", pos, hits[i].Title, hits[i].Link, hits[i].Snippet)
	}

	resp, err := f.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     f.aiCfg.Model,
		MaxTokens: 1024,
		System:    anthropic.BuildCachedSystemBlocks(classifySystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: sb.String()},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(f.aiCfg.Model, "relevance")

	var text string
	for _, b := range resp.Content {
		if b.Type == "text" {
			text += b.Text
		}
	}

	var parsed []struct {
		Index      int     `json:"index"`
		IsEvent    bool    `json:"is_event"`
		Reason     string  `json:"reason"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(extractJSONArray(text)), &parsed); err != nil {
		return nil, err
	}

	verdicts := make([]model.ClassificationDecision, len(batch))
	for i := range verdicts {
		verdicts[i] = model.ClassificationDecision{Reason: "classifier: no verdict returned"}
	}
	for _, p := range parsed {
		if p.Index < 0 || p.Index >= len(batch) {
			continue
		}
		verdicts[p.Index] = model.ClassificationDecision{
			IsEvent:    p.IsEvent,
			Reason:     p.Reason,
			Confidence: p.Confidence,
		}
	}
	return verdicts, nil
}

// writeBack persists decisions to the durable cache without blocking the
// pipeline. Failures are the cache layer's to log.
func (f *Filter) writeBack(ctx context.Context, decisions []model.ClassificationDecision) {
	if len(decisions) == 0 {
		return
	}
	entries := make(map[string][]byte, len(decisions))
	for _, d := range decisions {
		payload, err := json.Marshal(d)
		if err != nil {
			continue
		}
		entries[cache.NSDecision+d.ItemHash] = payload
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.cache.MultiSet(context.WithoutCancel(ctx), entries, 0)
	}()
}

// extractJSONArray pulls the outermost JSON array out of classifier text,
// which sometimes arrives wrapped in prose or code fences.
func extractJSONArray(s string) string {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
