package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokufrage/dokufrage/models"
)

func TestAskBlankQuestionNeverIssuesRequest(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer ts.Close()

	c := New(ts.URL)
	for _, question := range []string{"", "   ", "\t\n  "} {
		resp, err := c.Ask(context.Background(), question)
		assert.ErrorIs(t, err, ErrEmptyQuestion)
		assert.Nil(t, resp)
	}
	assert.Equal(t, int32(0), requests.Load(), "no network request may be issued for a blank question")
}

func TestAskTrimsQuestionBeforeSending(t *testing.T) {
	var got models.AskRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(models.AskResponse{Success: true, Answer: "ok"})
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.Ask(context.Background(), "  Was ist die Hauptstadt?  ")
	require.NoError(t, err)
	assert.Equal(t, "Was ist die Hauptstadt?", got.Question)
}

func TestAskSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ask", r.URL.Path)
		json.NewEncoder(w).Encode(models.AskResponse{
			Success: true,
			Answer:  "Paris",
			Sources: []models.Source{{Filename: "geo.txt", Score: 0.873}},
		})
	}))
	defer ts.Close()

	resp, err := New(ts.URL).Ask(context.Background(), "Hauptstadt von Frankreich?")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Paris", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "geo.txt (Relevanz: 87.3%)", FormatSource(resp.Sources[0]))
}

func TestAskApplicationFailureIsNotATransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.AskResponse{Success: false, Message: "no index"})
	}))
	defer ts.Close()

	resp, err := New(ts.URL).Ask(context.Background(), "irgendwas")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "no index", resp.Message)
}

func TestAskTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused

	_, err := New(ts.URL).Ask(context.Background(), "irgendwas")
	assert.Error(t, err)
}

func TestAskParseFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	_, err := New(ts.URL).Ask(context.Background(), "irgendwas")
	assert.Error(t, err)
}

func TestIndexDocuments(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        models.IndexResponse
		wantSuccess bool
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			body:        models.IndexResponse{Success: true, Message: "12 Chunks aus 3 Dokumenten erfolgreich indexiert"},
			wantSuccess: true,
		},
		{
			name:        "no documents",
			status:      http.StatusNotFound,
			body:        models.IndexResponse{Success: false, Message: "Keine Dokumente im Dokumentenverzeichnis gefunden"},
			wantSuccess: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/index-documents", r.URL.Path)
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer ts.Close()

			resp, err := New(ts.URL).IndexDocuments(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			assert.Equal(t, tt.body.Message, resp.Message)
		})
	}
}

func TestIndexDocumentsTransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	_, err := New(ts.URL).IndexDocuments(context.Background())
	assert.Error(t, err)
}
