package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestServer(t *testing.T, status int, handle func(req embedRequest) any) (*httptest.Server, *[]embedRequest) {
	t.Helper()
	var requests []embedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(handle(req))
	}))
	t.Cleanup(srv.Close)

	return srv, &requests
}

func TestEmbedderMapsIndexesBackToPositions(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, func(req embedRequest) any {
		// Return data out of order to check index handling.
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(len(req.Input[i])), 0.5},
			})
		}
		return map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		}
	})

	e, err := NewEmbedder(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/"}, zap.NewNop())
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"go", "", "python"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	assert.Equal(t, []float32{2, 0.5}, vectors[0])
	assert.Empty(t, vectors[1])
	assert.Equal(t, []float32{6, 0.5}, vectors[2])

	require.Len(t, *requests, 1)
	assert.Equal(t, []string{"go", "python"}, (*requests)[0].Input)
	assert.Equal(t, DefaultModel, (*requests)[0].Model)
}

func TestEmbedderSkipsRequestWhenAllEmpty(t *testing.T) {
	srv, requests := newTestServer(t, http.StatusOK, func(embedRequest) any { return nil })

	e, err := NewEmbedder(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/"}, zap.NewNop())
	require.NoError(t, err)

	vectors, err := e.Embed(context.Background(), []string{"", " "})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Empty(t, *requests)
}

func TestEmbedderReturnsAPIErrors(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusBadRequest, func(embedRequest) any {
		return map[string]any{"error": map[string]any{"message": "bad input", "type": "invalid_request_error"}}
	})

	e, err := NewEmbedder(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1/"}, zap.NewNop())
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"go"})
	assert.Error(t, err)
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	_, err := NewEmbedder(Config{}, zap.NewNop())
	assert.Error(t, err)
}
