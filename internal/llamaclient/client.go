// Package llamaclient is a thin HTTP client for a local llama-server:
// health probing, the router-mode model management endpoints and
// streaming chat completions.
package llamaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// healthTimeout caps a single health probe so a wedged server cannot
// stall the caller's poll loop.
const healthTimeout = 2 * time.Second

// StatusError reports a non-2xx answer from the server with the
// message extracted from its error body.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llama-server http %d: %s", e.Code, e.Message)
}

// StatusCode exposes the upstream status so HTTP layers can forward it.
func (e *StatusError) StatusCode() int { return e.Code }

// Client talks to one llama-server at a time; the base URL is passed
// per call because the supervisor decides which process is current.
type Client struct {
	httpClient *http.Client
	log        zerolog.Logger
}

// New builds a client with a tuned transport. The http.Client timeout
// is intentionally 0: every request carries a context deadline instead,
// which keeps long streaming responses alive.
func New(log zerolog.Logger) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Transport: tr, Timeout: 0},
		log:        log,
	}
}

// Health reports whether the server answers GET /health with a 2xx.
// llama-server returns 503 while a model is still loading.
func (c *Client) Health(ctx context.Context, baseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, join(baseURL, "/health"), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
	return nil
}

// ModelInfo is one entry of the router-mode model listing.
type ModelInfo struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// Loaded reports whether the server considers the model resident.
func (m ModelInfo) Loaded() bool {
	return strings.EqualFold(m.State, "loaded")
}

// ListModels fetches GET /models. Server builds differ in envelope and
// field names, so both {"models": [...]} and {"data": [...]} are
// accepted, with id falling back to "model" or "name".
func (c *Client) ListModels(ctx context.Context, baseURL string) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, join(baseURL, "/models"), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	var envelope struct {
		Models []json.RawMessage `json:"models"`
		Data   []json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode models list: %w", err)
	}
	raw := envelope.Models
	if len(raw) == 0 {
		raw = envelope.Data
	}
	models := make([]ModelInfo, 0, len(raw))
	for _, r := range raw {
		var entry struct {
			ID     string `json:"id"`
			Model  string `json:"model"`
			Name   string `json:"name"`
			State  string `json:"state"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(r, &entry); err != nil {
			c.log.Warn().Err(err).Msg("skipping unparseable model entry")
			continue
		}
		id := entry.ID
		if id == "" {
			id = entry.Model
		}
		if id == "" {
			id = entry.Name
		}
		if id == "" {
			continue
		}
		state := entry.State
		if state == "" {
			state = entry.Status
		}
		models = append(models, ModelInfo{ID: id, State: state})
	}
	return models, nil
}

// LoadModel asks a router-mode server to load a model.
func (c *Client) LoadModel(ctx context.Context, baseURL, model string) error {
	return c.postModelOp(ctx, baseURL, "/models/load", model)
}

// UnloadModel asks a router-mode server to unload a model.
func (c *Client) UnloadModel(ctx context.Context, baseURL, model string) error {
	return c.postModelOp(ctx, baseURL, "/models/unload", model)
}

func (c *Client) postModelOp(ctx context.Context, baseURL, path, model string) error {
	body, _ := json.Marshal(map[string]string{"model": model})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, join(baseURL, path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return nil
}

func statusError(resp *http.Response) *StatusError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Message: parseServerError(b)}
}

// parseServerError digs a readable message out of a llama-server error
// body, which is usually {"error": {"message": ..., "code": ...}}.
func parseServerError(raw []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
			Type    string `json:"type"`
		}
		if err := json.Unmarshal(envelope.Error, &obj); err == nil && obj.Message != "" {
			if obj.Code != 0 {
				return fmt.Sprintf("server error (%d): %s", obj.Code, obj.Message)
			}
			return obj.Message
		}
		var msg string
		if err := json.Unmarshal(envelope.Error, &msg); err == nil && msg != "" {
			return msg
		}
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "no error body"
	}
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

func join(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
