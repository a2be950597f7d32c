package sensorpush

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux i686) AppleWebKit/537.17 (KHTML, like Gecko) Chrome/24.0.1312.27 Safari/537.17"

// Perform a POST request with JSON payload and return the raw response body.
// A nil payload is sent as an empty JSON object.
func (c *Client) postJSON(ctx context.Context, path string, payload map[string]any, token string) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	c.log.Debug("sending request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Bool("authenticated", token != ""),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeRequest(path, "error", time.Since(start))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	observeRequest(path, strconv.Itoa(resp.StatusCode), time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug("received response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
	)

	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, data)
	}
	return data, nil
}

// Build an APIError from an error body
func apiError(status int, body []byte) *APIError {
	var resp struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err == nil && (resp.Message != "" || resp.Type != "") {
		return &APIError{StatusCode: status, Type: resp.Type, Message: resp.Message}
	}
	return &APIError{StatusCode: status, Message: truncate(body, 100)}
}

// Truncate byte slice
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}

// Shorten a secret for logging
func redact(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
