package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagesignal/event-cli/internal/cache"
	"github.com/stagesignal/event-cli/internal/config"
	"github.com/stagesignal/event-cli/internal/model"
	"github.com/stagesignal/event-cli/pkg/websearch"
)

// fakeSearchClient scripts provider behavior per call.
type fakeSearchClient struct {
	mu       sync.Mutex
	calls    []websearch.SearchRequest
	probeErr error
	queryErr error
	items    []websearch.Item
}

func (f *fakeSearchClient) Search(_ context.Context, req websearch.SearchRequest) (*websearch.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)

	if req.Num == 1 { // probe
		if f.probeErr != nil {
			return nil, f.probeErr
		}
		return &websearch.SearchResponse{}, nil
	}
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &websearch.SearchResponse{Items: f.items}, nil
}

// memKV is an in-memory store.KV for facade tests.
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

func newTestFacade(client websearch.Client) *Facade {
	f := NewFacade(client, cache.New(newMemKV(), 100), config.SearchConfig{
		ResultCount: 10,
		CacheTTLHrs: 6,
	})
	f.retry.MaxAttempts = 1
	return f
}

func TestSearch_ProviderSuccess(t *testing.T) {
	client := &fakeSearchClient{items: []websearch.Item{
		{Title: "LogiCon 2026", Link: "https://logicon.example.com", Snippet: "Logistics event."},
	}}
	f := newTestFacade(client)

	res := f.Search(context.Background(), model.AcquireRequest{Query: "logistics conference", Country: "de"})

	assert.Equal(t, ProviderGoogleCSE, res.Provider)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "LogiCon 2026", res.Hits[0].Title)
}

func TestSearch_QuotaProbeFailsOverToCurated(t *testing.T) {
	client := &fakeSearchClient{probeErr: websearch.ErrQuotaExceeded}
	f := newTestFacade(client)

	res := f.Search(context.Background(), model.AcquireRequest{Query: "logistics", Country: "de"})

	assert.Equal(t, ProviderCurated, res.Provider)
	assert.NotEmpty(t, res.Hits)
	// Only the probe was issued; the real query was never spent.
	assert.Len(t, client.calls, 1)
}

func TestSearch_QueryFailureFallsBackToCurated(t *testing.T) {
	client := &fakeSearchClient{queryErr: assert.AnError}
	f := newTestFacade(client)

	res := f.Search(context.Background(), model.AcquireRequest{Query: "tech summit", Country: "us"})

	assert.Equal(t, ProviderCurated, res.Provider)
	assert.NotEmpty(t, res.Hits)
}

func TestSearch_CuratedFilteredByCountry(t *testing.T) {
	client := &fakeSearchClient{probeErr: websearch.ErrQuotaExceeded}
	f := newTestFacade(client)

	res := f.Search(context.Background(), model.AcquireRequest{Query: "unmatchablequeryterm", Country: "de"})

	require.NotEmpty(t, res.Hits)
	for _, h := range res.Hits {
		assert.NotEmpty(t, h.Title)
	}
}

func TestSearch_SecondCallServedFromCache(t *testing.T) {
	client := &fakeSearchClient{items: []websearch.Item{
		{Title: "Expo", Link: "https://expo.example.com"},
	}}
	f := newTestFacade(client)
	req := model.AcquireRequest{Query: "expo", Country: "fr"}

	first := f.Search(context.Background(), req)
	callsAfterFirst := len(client.calls)
	second := f.Search(context.Background(), req)

	assert.Equal(t, first, second)
	assert.Len(t, client.calls, callsAfterFirst, "cached call must not touch the provider")
}

func TestDateRestrict(t *testing.T) {
	f := newTestFacade(&fakeSearchClient{})
	f.nowFunc = func() time.Time { return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		from string
		to   string
		want string
	}{
		{"future window gets no hint", "2026-09-01", "2026-09-30", ""},
		{"window spanning now gets no hint", "2026-06-01", "2026-07-01", ""},
		{"recent past window in days", "2026-06-01", "2026-06-10", "d15"},
		{"older past window in months", "2025-10-01", "2025-12-31", "m9"},
		{"missing window", "", "", ""},
		{"unparseable dates", "soonish", "later", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.dateRestrict(tt.from, tt.to))
		})
	}
}
