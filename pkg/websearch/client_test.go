package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("key"))
		assert.Equal(t, "test-cx", q.Get("cx"))
		assert.Equal(t, "logistics conference 2026", q.Get("q"))
		assert.Equal(t, "de", q.Get("gl"))
		assert.Equal(t, "countryDE", q.Get("cr"))
		assert.Equal(t, "m6", q.Get("dateRestrict"))
		assert.Equal(t, "10", q.Get("num"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{
			Items: []Item{
				{Title: "LogiCon 2026", Link: "https://logicon.example.com", Snippet: "The logistics event of the year."},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{
		Query:        "logistics conference 2026",
		Country:      "de",
		DateRestrict: "m6",
		Num:          10,
	})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "LogiCon 2026", resp.Items[0].Title)
	assert.Equal(t, "https://logicon.example.com", resp.Items[0].Link)
}

func TestSearch_OmitsEmptyHints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("gl"))
		assert.False(t, q.Has("cr"))
		assert.False(t, q.Has("dateRestrict"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{Query: "expo"})

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
}

func TestSearch_QuotaExceeded429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Quota exceeded"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "expo"})

	assert.True(t, errors.Is(err, ErrQuotaExceeded))
}

func TestSearch_QuotaExceeded403Reason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"Daily Limit Exceeded","errors":[{"reason":"dailyLimitExceeded"}]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "expo"})

	assert.True(t, errors.Is(err, ErrQuotaExceeded))
}

func TestSearch_Forbidden_NotQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","errors":[{"reason":"forbidden"}]}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client := NewClient("bad-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "expo"})

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrQuotaExceeded))
	assert.Contains(t, err.Error(), "403")
}

func TestSearch_NumClampedToProviderMax(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("num"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(SearchResponse{})
	}))
	defer srv.Close()

	client := NewClient("test-key", "test-cx", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "expo", Num: 25})

	require.NoError(t, err)
}
