// Package importapi posts built node maps to the downstream import API.
package importapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dgallion1/atlasgen/internal/doctree"
	"github.com/dgallion1/atlasgen/internal/pipeline"
)

// Client communicates with the import API.
type Client struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewClient(url, apiKey string) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Name identifies the client as a pipeline sink.
func (c *Client) Name() string { return "import-api" }

// Deliver posts the node map of out. It satisfies pipeline.Sink.
func (c *Client) Deliver(ctx context.Context, out *pipeline.Output, _ []pipeline.Artifact) error {
	return c.PostNodeMap(ctx, out.ByKey)
}

// PostNodeMap sends the flat node map, keyed by slug key, as one JSON body.
// Rate limiting and server errors come back as *pipeline.RetryableError.
func (c *Client) PostNodeMap(ctx context.Context, nodes map[string]*doctree.Node) error {
	body, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("marshal node map: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post node map: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &pipeline.RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return fmt.Errorf("post node map: status %d: %s", resp.StatusCode, string(respBody))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
