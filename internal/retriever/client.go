package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrIndexUnavailable is returned when the requested index is missing or cannot be loaded
var ErrIndexUnavailable = errors.New("embedding index unavailable")

// Client talks to the similarity-search service that serves the prebuilt embedding indexes
type Client struct {
	baseURL    string
	httpClient *http.Client
	topK       int
}

// NewClient creates a new retriever client
func NewClient(baseURL string, timeout time.Duration, topK int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		topK: topK,
	}
}

// Search returns the passages of index most similar to query, in rank order
func (c *Client) Search(ctx context.Context, index, query string) ([]Document, error) {
	jsonData, err := json.Marshal(searchRequest{Index: index, Query: query, K: c.topK})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	searchURL := fmt.Sprintf("%s/search", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", searchURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("index %q: %w", index, ErrIndexUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("retriever returned status %d: %s", resp.StatusCode, string(body))
	}

	return parseDocuments(body)
}

// HealthCheck verifies that the index is loaded and searchable
func (c *Client) HealthCheck(ctx context.Context, index string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthURL := fmt.Sprintf("%s/indexes/%s", c.baseURL, url.PathEscape(index))
	req, err := http.NewRequestWithContext(ctx, "GET", healthURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("retriever is unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("index %q: %w", index, ErrIndexUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("retriever returned status %d for index %q: %s", resp.StatusCode, index, string(body))
	}
	return nil
}

// parseDocuments reads the documents array. Metadata is loosely typed: page
// may be a number, a digit string, "unknown" or missing.
func parseDocuments(body []byte) ([]Document, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse search response: invalid JSON")
	}
	docs := gjson.GetBytes(body, "documents")
	if !docs.IsArray() {
		return nil, fmt.Errorf("failed to parse search response: missing documents array")
	}

	var out []Document
	for _, d := range docs.Array() {
		doc := Document{
			Text:  d.Get("page_content").String(),
			Page:  parsePage(d.Get("metadata.page")),
			Score: d.Get("score").Float(),
		}
		if src := d.Get("metadata.source"); src.Exists() && src.Type == gjson.String {
			s := src.String()
			doc.Source = &s
		}
		out = append(out, doc)
	}
	return out, nil
}

func parsePage(v gjson.Result) *int {
	switch v.Type {
	case gjson.Number:
		if v.Num < 0 || v.Num != float64(int(v.Num)) {
			return nil
		}
		p := int(v.Num)
		return &p
	case gjson.String:
		p, err := strconv.Atoi(strings.TrimSpace(v.Str))
		if err != nil || p < 0 {
			return nil
		}
		return &p
	}
	return nil
}
