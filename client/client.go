// Package client talks to the Dokufrage HTTP API. It carries the view-side
// rules of the two flows: input validation before a question is sent, and
// the distinction between application-level failures (success=false with a
// message) and transport failures.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dokufrage/dokufrage/models"
)

// ErrEmptyQuestion is returned by Ask when the question is blank after
// trimming. No request is issued in that case.
var ErrEmptyQuestion = errors.New("question must not be empty")

// Client issues requests against a running Dokufrage server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 5 * time.Minute, // indexing and generation are slow
		},
	}
}

// IndexDocuments triggers a full rebuild of the document index. A response
// body with success=false is not an error; the server's message explains
// the failure. Errors are only returned for transport or parse problems.
func (c *Client) IndexDocuments(ctx context.Context) (*models.IndexResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/index-documents", nil)
	if err != nil {
		return nil, fmt.Errorf("could not create index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("index request failed: %w", err)
	}
	defer resp.Body.Close()

	var result models.IndexResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse index response: %w", err)
	}
	return &result, nil
}

// Ask sends a question and returns the server's answer. The question is
// trimmed first; a blank question returns ErrEmptyQuestion without issuing
// a request. As with IndexDocuments, success=false is reported through the
// response, not as an error.
func (c *Client) Ask(ctx context.Context, question string) (*models.AskResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	body, err := json.Marshal(models.AskRequest{Question: question})
	if err != nil {
		return nil, fmt.Errorf("could not marshal ask request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/ask", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create ask request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ask request failed: %w", err)
	}
	defer resp.Body.Close()

	var result models.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not parse ask response: %w", err)
	}
	return &result, nil
}
