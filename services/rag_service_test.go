package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokufrage/dokufrage/config"
	"github.com/dokufrage/dokufrage/models"
)

func TestCollectSourcesDedupesByFilename(t *testing.T) {
	chunks := []retrievedChunk{
		{Filename: "a.txt", Score: 0.9},
		{Filename: "b.txt", Score: 0.8},
		{Filename: "a.txt", Score: 0.7},
		{Filename: "c.txt", Score: 0.6},
	}

	sources := collectSources(chunks, 5)
	require.Len(t, sources, 3)
	assert.Equal(t, "a.txt", sources[0].Filename)
	assert.Equal(t, 0.9, sources[0].Score, "first (best) score per document wins")
	assert.Equal(t, "b.txt", sources[1].Filename)
	assert.Equal(t, "c.txt", sources[2].Filename)
}

func TestCollectSourcesCapsAtMax(t *testing.T) {
	chunks := []retrievedChunk{
		{Filename: "a.txt", Score: 0.9},
		{Filename: "b.txt", Score: 0.8},
		{Filename: "c.txt", Score: 0.7},
	}
	sources := collectSources(chunks, 2)
	assert.Len(t, sources, 2)
}

func TestCollectSourcesSkipsMissingFilename(t *testing.T) {
	chunks := []retrievedChunk{
		{Filename: "", Score: 0.9},
		{Filename: "a.txt", Score: 0.8},
	}
	sources := collectSources(chunks, 5)
	require.Len(t, sources, 1)
	assert.Equal(t, "a.txt", sources[0].Filename)
}

func TestBuildContextIncludesOrigin(t *testing.T) {
	chunks := []retrievedChunk{
		{Filename: "geo.txt", Text: "Paris ist die Hauptstadt von Frankreich."},
	}
	got := buildContext(chunks, 1000)
	assert.Equal(t, "Aus geo.txt: Paris ist die Hauptstadt von Frankreich.", got)
}

func TestBuildContextTruncatesAtParagraphBoundary(t *testing.T) {
	chunks := []retrievedChunk{
		{Filename: "a.txt", Text: strings.Repeat("x", 100)},
		{Filename: "b.txt", Text: strings.Repeat("y", 100)},
		{Filename: "c.txt", Text: strings.Repeat("z", 100)},
	}
	got := buildContext(chunks, 250)
	assert.Contains(t, got, "Aus a.txt:")
	assert.Contains(t, got, "Aus b.txt:")
	assert.NotContains(t, got, "Aus c.txt:", "third paragraph exceeds the budget")
	assert.LessOrEqual(t, len(got), 250)
}

func TestEmbedText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req models.OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text:v1.5", req.Model)
		assert.Equal(t, "hallo", req.Prompt)
		json.NewEncoder(w).Encode(models.OllamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer ts.Close()

	svc := NewRAGService(ts.Client(), nil, nil, &config.Config{
		OllamaURL:      ts.URL,
		EmbeddingModel: "nomic-embed-text:v1.5",
	})

	embedding, err := svc.EmbedText(context.Background(), "hallo")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, embedding)
}

func TestEmbedTextNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer ts.Close()

	svc := NewRAGService(ts.Client(), nil, nil, &config.Config{OllamaURL: ts.URL})

	_, err := svc.EmbedText(context.Background(), "hallo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-200")
}

func TestAskServesCachedAnswerWithoutBackend(t *testing.T) {
	// No embedding server is running; only the cache can answer.
	svc := NewRAGService(&http.Client{Timeout: time.Second}, nil, nil, &config.Config{
		OllamaURL:         "http://127.0.0.1:1",
		EnableAnswerCache: true,
		CacheTTL:          time.Hour,
		MaxSources:        5,
	}).(*ragServiceImpl)

	svc.cache.put("Was ist die Hauptstadt?", "Paris", []models.Source{{Filename: "geo.txt", Score: 0.873}})

	answer, sources, err := svc.Ask(context.Background(), "Was ist die Hauptstadt?")
	require.NoError(t, err)
	assert.Equal(t, "Paris", answer)
	require.Len(t, sources, 1)
	assert.Equal(t, "geo.txt", sources[0].Filename)
}
