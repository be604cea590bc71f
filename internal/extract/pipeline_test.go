package extract

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
)

// memKV is an in-memory store.KV for pipeline tests.
type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Upsert(_ context.Context, key string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = payload
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) DeleteByPattern(_ context.Context, _ string) (int, error) { return 0, nil }
func (m *memKV) Count(_ context.Context, _ string) (int, error)           { return 0, nil }
func (m *memKV) PurgeExpired(_ context.Context) (int, error)              { return 0, nil }
func (m *memKV) Close() error                                             { return nil }

// stubFetcher returns canned pages by URL; URLs without a page fail.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]*Page
	calls int
}

func (f *stubFetcher) Fetch(_ context.Context, url string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if p, ok := f.pages[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("fetch: status 503 for %s", url)
}

// countingStrategy wraps results with a call counter.
type countingStrategy struct {
	mu      sync.Mutex
	name    string
	results map[string]*model.EventRecord
	err     error
	calls   int
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) Attempt(_ context.Context, target Target, _ *Page) (*model.EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results[target.URL], nil
}

func newTestPipeline(kv *memKV, fetcher Fetcher, strategies ...Strategy) *Pipeline {
	return NewPipeline(cache.New(kv, 100), fetcher,
		config.ExtractConfig{MaxURLs: 15, MaxConcurrent: 4, HostGapMS: 0},
		strategies...)
}

func TestExtract_EveryURLYieldsARecord(t *testing.T) {
	// No pages fetch, no strategies succeed: everything must stub.
	failing := &countingStrategy{name: "managed_service", err: fmt.Errorf("down")}
	p := newTestPipeline(newMemKV(), &stubFetcher{}, failing)

	urls := []string{
		"https://dead.example.de/messe-logistik",
		"https://also-dead.example.com/expo/2026",
	}
	records, trace := p.Extract(context.Background(), urls, "de")

	require.Len(t, records, 2)
	require.Len(t, trace, 2)
	for i, rec := range records {
		assert.Equal(t, urls[i], rec.SourceURL)
		assert.NotEmpty(t, rec.Title, "stub must synthesize a title")
		assert.Equal(t, tierStub, trace[i].Tier)
	}
	assert.Equal(t, "messe logistik", records[0].Title)
	assert.Equal(t, "Germany", records[0].Country, "ccTLD guess")
}

func TestExtract_ResultsInInputOrder(t *testing.T) {
	rich := &countingStrategy{name: "structured_markup", results: map[string]*model.EventRecord{
		"https://a.example.com/1": {SourceURL: "https://a.example.com/1", Title: "A", City: "Hamburg"},
		"https://b.example.com/2": {SourceURL: "https://b.example.com/2", Title: "B", City: "Berlin"},
		"https://c.example.com/3": {SourceURL: "https://c.example.com/3", Title: "C", City: "Munich"},
	}}
	p := newTestPipeline(newMemKV(), &stubFetcher{}, rich)

	urls := []string{"https://a.example.com/1", "https://b.example.com/2", "https://c.example.com/3"}
	records, _ := p.Extract(context.Background(), urls, "")

	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Title)
	assert.Equal(t, "B", records[1].Title)
	assert.Equal(t, "C", records[2].Title)
}

func TestExtract_WarmCacheSkipsTiers(t *testing.T) {
	kv := newMemKV()
	managed := &countingStrategy{name: "managed_service", results: map[string]*model.EventRecord{
		"https://expo.example.com/event": {SourceURL: "https://expo.example.com/event", Title: "Expo", City: "Vienna"},
	}}
	p := newTestPipeline(kv, &stubFetcher{}, managed)

	urls := []string{"https://expo.example.com/event"}

	first, trace1 := p.Extract(context.Background(), urls, "")
	require.Equal(t, 1, managed.calls)
	assert.False(t, trace1[0].Cached)

	second, trace2 := p.Extract(context.Background(), urls, "")
	assert.Equal(t, 1, managed.calls, "warm run must not re-attempt the managed tier")
	assert.True(t, trace2[0].Cached)
	assert.Equal(t, "managed_service", trace2[0].Tier, "trace reports the original tier")
	assert.Equal(t, first[0], second[0])
}

func TestExtract_StubIsCachedToo(t *testing.T) {
	kv := newMemKV()
	failing := &countingStrategy{name: "managed_service", err: fmt.Errorf("down")}
	p := newTestPipeline(kv, &stubFetcher{}, failing)

	urls := []string{"https://dead.example.com/conf"}
	p.Extract(context.Background(), urls, "")
	require.Equal(t, 1, failing.calls)

	_, trace := p.Extract(context.Background(), urls, "")
	assert.Equal(t, 1, failing.calls, "cached stub must prevent re-attempts")
	assert.True(t, trace[0].Cached)
	assert.Equal(t, tierStub, trace[0].Tier)
}

func TestExtract_RichResultStopsChain(t *testing.T) {
	first := &countingStrategy{name: "structured_markup", results: map[string]*model.EventRecord{
		"https://x.example.com": {SourceURL: "https://x.example.com", Title: "X", StartsAt: "2026-05-01"},
	}}
	second := &countingStrategy{name: "managed_service"}
	p := newTestPipeline(newMemKV(), &stubFetcher{}, first, second)

	records, trace := p.Extract(context.Background(), []string{"https://x.example.com"}, "")

	assert.Equal(t, "structured_markup", trace[0].Tier)
	assert.Equal(t, "2026-05-01", records[0].StartsAt)
	assert.Zero(t, second.calls, "a rich result must stop the chain")
}

func TestExtract_ThinResultFallsThroughButSurvives(t *testing.T) {
	// First tier returns a title-only record, second tier finds nothing:
	// the thin record wins over the stub.
	thin := &countingStrategy{name: "structured_markup", results: map[string]*model.EventRecord{
		"https://y.example.com": {SourceURL: "https://y.example.com", Title: "Thin Event"},
	}}
	empty := &countingStrategy{name: "heuristic_regex"}
	p := newTestPipeline(newMemKV(), &stubFetcher{}, thin, empty)

	records, trace := p.Extract(context.Background(), []string{"https://y.example.com"}, "")

	assert.Equal(t, 1, empty.calls, "thin results must not stop the chain")
	assert.Equal(t, "structured_markup", trace[0].Tier)
	assert.Equal(t, "Thin Event", records[0].Title)
}

func TestExtract_TruncatesToMaxURLs(t *testing.T) {
	failing := &countingStrategy{name: "managed_service", err: fmt.Errorf("down")}
	kv := newMemKV()
	p := NewPipeline(cache.New(kv, 100), &stubFetcher{},
		config.ExtractConfig{MaxURLs: 2, MaxConcurrent: 4}, failing)

	urls := []string{
		"https://1.example.com/a",
		"https://2.example.com/b",
		"https://3.example.com/c",
	}
	records, _ := p.Extract(context.Background(), urls, "")

	assert.Len(t, records, 2)
}

func TestExtract_PerURLFailureDoesNotAbortBatch(t *testing.T) {
	panicky := &panicStrategy{panicURL: "https://boom.example.com/x"}
	rich := &countingStrategy{name: "structured_markup", results: map[string]*model.EventRecord{
		"https://ok.example.com/y": {SourceURL: "https://ok.example.com/y", Title: "OK", City: "Paris"},
	}}
	p := newTestPipeline(newMemKV(), &stubFetcher{}, panicky, rich)

	urls := []string{"https://boom.example.com/x", "https://ok.example.com/y"}
	records, trace := p.Extract(context.Background(), urls, "")

	require.Len(t, records, 2)
	assert.Equal(t, tierStub, trace[0].Tier, "panicking URL degrades to stub")
	assert.Equal(t, "OK", records[1].Title, "other URLs are unaffected")
}

// panicStrategy panics for one URL and finds nothing otherwise.
type panicStrategy struct {
	panicURL string
}

func (s *panicStrategy) Name() string { return "panicky" }

func (s *panicStrategy) Attempt(_ context.Context, target Target, _ *Page) (*model.EventRecord, error) {
	if target.URL == s.panicURL {
		panic("tier bug")
	}
	return nil, nil
}
