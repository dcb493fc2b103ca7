package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client submits extracted article text to the analysis API. The call is a
// single unauthenticated POST/response round trip; retry and timeout policy
// belong to the caller's context and the injected HTTP client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Analyze POSTs the text to <base>/analyze and decodes the structured result.
// Backend-reported errors surface with their original message so the CLI can
// show the user what the service rejected.
func (c *Client) Analyze(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return nil, fmt.Errorf("missing analysis base url")
	}
	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err == nil && ae.Error != "" {
			return nil, fmt.Errorf("analysis API: %s (status %d)", ae.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("analysis API status: %d", resp.StatusCode)
	}

	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &out, nil
}
