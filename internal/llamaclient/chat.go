package llamaclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ChatMessage is one turn of an OpenAI-style conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for POST /v1/chat/completions.
type ChatRequest struct {
	Model         string        `json:"model,omitempty"`
	Messages      []ChatMessage `json:"messages"`
	MaxTokens     int           `json:"max_tokens,omitempty"`
	Temperature   float64       `json:"temperature,omitempty"`
	TopP          float64       `json:"top_p,omitempty"`
	TopK          int           `json:"top_k,omitempty"`
	MinP          float64       `json:"min_p,omitempty"`
	RepeatPenalty float64       `json:"repeat_penalty,omitempty"`
	Seed          int64         `json:"seed,omitempty"`
	Stream        bool          `json:"stream"`
	// CachePrompt keeps the server-side prompt cache warm so follow-up
	// requests reuse shared prefixes.
	CachePrompt bool `json:"cache_prompt"`
	// ChatTemplateKwargs passes template toggles such as enable_thinking
	// through to the server's prompt renderer.
	ChatTemplateKwargs map[string]any `json:"chat_template_kwargs,omitempty"`
}

// Delta is one streamed fragment. Thinking models interleave reasoning
// with answer text; exactly one of the two fields is set per fragment.
type Delta struct {
	Content   string
	Reasoning string
}

// ChatResult is the accumulated completion after the stream ends.
type ChatResult struct {
	Content      string
	Reasoning    string
	FinishReason string
}

type chatStreamChunk struct {
	Error   json.RawMessage `json:"error"`
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// ChatStream posts a streaming chat completion and invokes onDelta for
// every fragment. onDelta may be nil; returning an error from it aborts
// the stream and surfaces that error.
func (c *Client) ChatStream(ctx context.Context, baseURL string, creq ChatRequest, onDelta func(Delta) error) (ChatResult, error) {
	creq.Stream = true
	body, err := json.Marshal(creq)
	if err != nil {
		return ChatResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, join(baseURL, "/v1/chat/completions"), bytes.NewReader(body))
	if err != nil {
		return ChatResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ChatResult{}, ctx.Err()
		}
		return ChatResult{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ChatResult{}, statusError(resp)
	}

	var (
		result    ChatResult
		content   strings.Builder
		reasoning strings.Builder
	)
	emit := func(d Delta) error {
		if onDelta == nil {
			return nil
		}
		return onDelta(d)
	}
	r := bufio.NewReader(resp.Body)
	for {
		line, readErr := r.ReadString('\n')
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			// heartbeat or blank separator
		case strings.HasPrefix(line, "data:"):
			data := strings.TrimSpace(line[len("data:"):])
			if data == "[DONE]" {
				readErr = io.EOF
				break
			}
			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				if !strings.HasPrefix(data, ":") {
					c.log.Warn().Str("chunk", truncate(data, 100)).Msg("unparseable stream chunk")
				}
				break
			}
			if len(chunk.Error) > 0 {
				return result, &StatusError{Code: resp.StatusCode, Message: parseServerError([]byte(data))}
			}
			for _, choice := range chunk.Choices {
				if rc := choice.Delta.ReasoningContent; rc != "" {
					reasoning.WriteString(rc)
					if err := emit(Delta{Reasoning: rc}); err != nil {
						return result, err
					}
				}
				if tc := choice.Delta.Content; tc != "" {
					content.WriteString(tc)
					if err := emit(Delta{Content: tc}); err != nil {
						return result, err
					}
				}
				if fr := choice.FinishReason; fr != "" {
					result.FinishReason = fr
				}
			}
		case strings.HasPrefix(line, "{") && strings.Contains(line, `"error"`):
			// Mid-stream errors arrive as bare JSON lines.
			var probe struct {
				Error json.RawMessage `json:"error"`
			}
			if err := json.Unmarshal([]byte(line), &probe); err == nil && len(probe.Error) > 0 {
				return result, &StatusError{Code: resp.StatusCode, Message: parseServerError([]byte(line))}
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, readErr
		}
	}

	result.Content = strings.TrimSpace(content.String())
	result.Reasoning = strings.TrimSpace(reasoning.String())
	if result.Content == "" && result.Reasoning == "" {
		return result, errors.New("no response received from server (model may have failed to load)")
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
