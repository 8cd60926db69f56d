package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"llamactl/internal/llamaclient"
	"llamactl/pkg/types"
)

// Sampling defaults applied when the request leaves a knob at zero.
const (
	defaultMaxTokens     = 2048
	defaultTemperature   = 0.7
	defaultTopP          = 0.9
	defaultTopK          = 40
	defaultMinP          = 0.05
	defaultRepeatPenalty = 1.1
)

// promptChunk is one NDJSON line of a streamed completion. Exactly one
// of Token and Thinking is set until the final line, which carries the
// accumulated results and Done=true.
type promptChunk struct {
	Token        string `json:"token,omitempty"`
	Thinking     string `json:"thinking,omitempty"`
	Done         bool   `json:"done,omitempty"`
	Response     string `json:"response,omitempty"`
	ThinkingFull string `json:"thinking_full,omitempty"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
	Error        string `json:"error,omitempty"`
}

// handlePrompt godoc
// @Summary  Run a chat completion against the managed server
// @Description  Streams NDJSON token lines when stream is true, else
// @Description  returns one buffered JSON object.
// @Tags     prompt
// @Accept   json
// @Produce  json
// @Param    request body types.PromptRequest true "prompt and sampling parameters"
// @Success  200 {object} types.PromptResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  404 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /api/prompt [post]
func (a *api) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req types.PromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	endpoint, running := a.svc.Endpoint()
	if !running {
		writeJSONError(w, http.StatusConflict, "server not running")
		return
	}

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if promptTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, time.Duration(promptTimeout)*time.Second)
		defer tcancel()
	}

	// Router mode: resolve the user's reference against the server's
	// model list and hold the model for the duration of the request.
	var model string
	if a.svc.Status().Mode == types.ModeRouter {
		if strings.TrimSpace(req.Model) == "" {
			writeJSONError(w, http.StatusBadRequest, "model is required in router mode")
			return
		}
		model = a.resolveServerModel(ctx, endpoint, req.Model)
		release, err := a.svc.AcquireModel(ctx, model)
		if err != nil {
			writeError(w, err)
			return
		}
		defer release()
	}

	creq := buildChatRequest(req, model)
	lvl := requestLogLevel(r)
	start := time.Now()
	if lvl >= LevelInfo {
		logPromptStart(r, model, req.Stream)
	}

	if req.Stream {
		a.streamPrompt(w, r, ctx, creq, model, lvl, start)
		return
	}

	result, err := a.chat.ChatStream(ctx, endpoint, creq, nil)
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		writeError(w, err)
		logPromptEnd(r, lvl, errorStatus(err), start, err)
		return
	}
	writeJSON(w, types.PromptResponse{
		Response:     result.Content,
		Thinking:     result.Reasoning,
		Model:        model,
		FinishReason: result.FinishReason,
		DurationMs:   time.Since(start).Milliseconds(),
	})
	logPromptEnd(r, lvl, http.StatusOK, start, nil)
}

// streamPrompt forwards deltas as NDJSON lines ending with a summary
// line. Once a line went out the status is committed, so later errors
// become a trailing error line instead of a status rewrite.
func (a *api) streamPrompt(w http.ResponseWriter, r *http.Request, ctx context.Context, creq llamaclient.ChatRequest, model string, lvl LogLevel, start time.Time) {
	endpoint, _ := a.svc.Endpoint()
	w.Header().Set("Content-Type", "application/x-ndjson")
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	out := io.Writer(w)
	if lvl >= LevelDebug {
		out = io.MultiWriter(w, &promptLineWriter{})
	}
	enc := json.NewEncoder(out)

	wrote := false
	emit := func(c promptChunk) error {
		if err := enc.Encode(c); err != nil {
			return err
		}
		wrote = true
		if flush != nil {
			flush()
		}
		return nil
	}

	result, err := a.chat.ChatStream(ctx, endpoint, creq, func(d llamaclient.Delta) error {
		return emit(promptChunk{Token: d.Content, Thinking: d.Reasoning})
	})
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		if !wrote {
			writeError(w, err)
		} else {
			_ = emit(promptChunk{Done: true, Error: err.Error()})
		}
		logPromptEnd(r, lvl, errorStatus(err), start, err)
		return
	}
	_ = emit(promptChunk{
		Done:         true,
		Response:     result.Content,
		ThinkingFull: result.Reasoning,
		Model:        model,
		FinishReason: result.FinishReason,
		DurationMs:   time.Since(start).Milliseconds(),
	})
	logPromptEnd(r, lvl, http.StatusOK, start, nil)
}

func buildChatRequest(req types.PromptRequest, model string) llamaclient.ChatRequest {
	creq := llamaclient.ChatRequest{
		Model:         model,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		TopK:          req.TopK,
		MinP:          req.MinP,
		RepeatPenalty: req.RepeatPenalty,
		Seed:          req.Seed,
		CachePrompt:   req.KeepContext,
	}
	if creq.MaxTokens == 0 {
		creq.MaxTokens = defaultMaxTokens
	}
	if creq.Temperature == 0 {
		creq.Temperature = defaultTemperature
	}
	if creq.TopP == 0 {
		creq.TopP = defaultTopP
	}
	if creq.TopK == 0 {
		creq.TopK = defaultTopK
	}
	if creq.MinP == 0 {
		creq.MinP = defaultMinP
	}
	if creq.RepeatPenalty == 0 {
		creq.RepeatPenalty = defaultRepeatPenalty
	}
	if req.SystemPrompt != "" {
		creq.Messages = append(creq.Messages, llamaclient.ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	creq.Messages = append(creq.Messages, llamaclient.ChatMessage{Role: "user", Content: req.Prompt})
	if req.EnableThinking != nil {
		creq.ChatTemplateKwargs = map[string]any{"enable_thinking": *req.EnableThinking}
	}
	return creq
}

// resolveServerModel maps a user reference (id, filename or path) onto
// the id the server knows. Unresolvable references pass through
// trimmed, so the server's own error reaches the caller.
func (a *api) resolveServerModel(ctx context.Context, endpoint, ref string) string {
	candidates := modelCandidates(ref)
	infos, err := a.chat.ListModels(ctx, endpoint)
	if err != nil {
		return candidates[0]
	}
	known := make(map[string]bool, len(infos))
	for _, info := range infos {
		known[info.ID] = true
	}
	for _, c := range candidates {
		if known[c] {
			return c
		}
	}
	return candidates[0]
}

// modelCandidates lists the ids a reference could mean, most specific
// first: the trimmed reference, its basename and its directory name.
func modelCandidates(ref string) []string {
	ref = strings.TrimSpace(ref)
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(strings.TrimSuffix(ref, ".gguf"))
	add(ref)
	base := filepath.Base(ref)
	add(strings.TrimSuffix(base, ".gguf"))
	if dir := filepath.Base(filepath.Dir(ref)); dir != "." && dir != string(filepath.Separator) {
		add(dir)
	}
	return out
}

func logPromptStart(r *http.Request, model string, stream bool) {
	if zlog == nil {
		log.Printf("prompt start path=%s model=%s stream=%v", r.URL.Path, model, stream)
		return
	}
	ev := zlog.Info().Str("path", r.URL.Path).Str("model", model).Bool("stream", stream)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg("prompt start")
}

func logPromptEnd(r *http.Request, lvl LogLevel, status int, start time.Time, err error) {
	if lvl < LevelInfo {
		return
	}
	if zlog == nil {
		log.Printf("prompt end status=%d dur=%s err=%v", status, time.Since(start), err)
		return
	}
	ev := zlog.Info().Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("prompt end")
}
