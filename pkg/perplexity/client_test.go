package perplexity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar", req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 0.0001)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "Who is Jane Doe?", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck
		w.Write([]byte(`{
			"id": "resp-1",
			"choices": [{"message": {"role": "assistant", "content": "Keynote speaker on logistics."}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 17}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	answer, err := client.Research(context.Background(), "Who is Jane Doe?")
	require.NoError(t, err)
	assert.Equal(t, "Keynote speaker on logistics.", answer)
}

func TestResearch_Options(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient("test-key",
		WithBaseURL(server.URL), WithModel("sonar-pro"), WithTemperature(0.7), WithMaxTokens(256))

	_, err := client.Research(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "sonar-pro", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.0001)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 256, *got.MaxTokens)
}

func TestResearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "invalid api key"}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))

	_, err := client.Research(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestResearch_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))

	_, err := client.Research(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty completion")
}
