package types

// StartServerRequest asks the supervisor for a llama-server running the
// given model in single mode. Optional fields fall back to the defaults
// documented on ServerConfig; pointer fields distinguish "omitted" from
// an explicit zero.
type StartServerRequest struct {
	// Model file to serve: an identifier from GET /api/models/local or an
	// absolute .gguf path.
	// example: tinyllama-q4.gguf
	Model string `json:"model" example:"tinyllama-q4.gguf"`
	// Context window in tokens.
	// example: 4096
	ContextSize int `json:"context_size,omitempty" example:"4096"`
	// GPU layers to offload. Omitted means all layers, 0 means CPU only.
	// example: 999
	GPULayers *int `json:"gpu_layers,omitempty" example:"999"`
	// Main GPU index.
	// example: 0
	MainGPU int `json:"main_gpu,omitempty" example:"0"`
	// VRAM split across GPUs, e.g. "3,1".
	TensorSplit string `json:"tensor_split,omitempty"`
	// Bind port for the managed server.
	// example: 8080
	Port int `json:"port,omitempty" example:"8080"`
	// CPU threads. Zero or omitted means auto.
	Threads int `json:"threads,omitempty"`
	// Prompt processing batch size.
	// example: 512
	BatchSize int `json:"batch_size,omitempty" example:"512"`
	// Enable flash attention.
	FlashAttention bool `json:"flash_attention,omitempty"`
	// Disable mmap.
	NoMmap bool `json:"no_mmap,omitempty"`
	// Seconds to wait for readiness. Omitted means 60, zero or negative
	// waits until the process becomes ready or exits.
	// example: 60
	TimeoutSeconds *int `json:"timeout_seconds,omitempty" example:"60"`
}

// StartRouterRequest asks the supervisor for a llama-server in router
// mode serving the configured models directory.
type StartRouterRequest struct {
	// Models directory override. Empty uses the directory the daemon was
	// started with.
	ModelsDir string `json:"models_dir,omitempty"`
	// Context window in tokens, applied to all loaded models.
	// example: 4096
	ContextSize int `json:"context_size,omitempty" example:"4096"`
	// GPU layers to offload. Omitted means all layers, 0 means CPU only.
	// example: 999
	GPULayers *int `json:"gpu_layers,omitempty" example:"999"`
	// Main GPU index.
	// example: 0
	MainGPU int `json:"main_gpu,omitempty" example:"0"`
	// Maximum models resident at once before LRU eviction.
	// example: 4
	MaxModels int `json:"models_max,omitempty" example:"4"`
	// Bind port for the managed server.
	// example: 8080
	Port int `json:"port,omitempty" example:"8080"`
	// CPU threads. Zero or omitted means auto.
	Threads int `json:"threads,omitempty"`
	// Prompt processing batch size.
	// example: 512
	BatchSize int `json:"batch_size,omitempty" example:"512"`
	// Enable flash attention.
	FlashAttention bool `json:"flash_attention,omitempty"`
	// Load models on first request. Omitted means true.
	Autoload *bool `json:"models_autoload,omitempty"`
	// Seconds to wait for readiness. Omitted means 60, zero or negative
	// waits until the process becomes ready or exits.
	// example: 60
	TimeoutSeconds *int `json:"timeout_seconds,omitempty" example:"60"`
}

// StartResponse reports the outcome of a start request.
type StartResponse struct {
	// Lifecycle state after the call (running on success).
	// example: running
	State string `json:"state" example:"running"`
	// Mode of the managed server.
	// example: single
	Mode string `json:"mode" example:"single"`
	// Base URL of the managed server.
	// example: http://127.0.0.1:8080
	Endpoint string `json:"endpoint" example:"http://127.0.0.1:8080"`
	// OS process ID of the managed server.
	// example: 12345
	PID int `json:"pid" example:"12345"`
	// True when a healthy server with an equivalent config was reused
	// instead of launching a new process.
	// example: false
	Reused bool `json:"reused" example:"false"`
}

// StopResponse is returned by POST /api/server/stop.
type StopResponse struct {
	// Lifecycle state after the call (always stopped).
	// example: stopped
	State string `json:"state" example:"stopped"`
	// True when a process was actually terminated, false when there was
	// nothing to stop.
	// example: true
	Stopped bool `json:"stopped" example:"true"`
}

// ResidentModel describes one model tracked as loaded on a router-mode
// server.
type ResidentModel struct {
	// Server-side model identifier.
	// example: tinyllama-q4
	ID string `json:"id" example:"tinyllama-q4"`
	// Residency state: loaded, loading or unloading.
	// example: loaded
	State string `json:"state" example:"loaded"`
	// When the model became resident (unix seconds).
	// example: 1700000000
	LoadedAtUnix int64 `json:"loaded_at_unix" example:"1700000000"`
	// Last time the model served or was claimed for a request (unix
	// seconds).
	// example: 1700000060
	LastAccessUnix int64 `json:"last_access_unix" example:"1700000060"`
	// Requests currently holding the model.
	// example: 0
	Inflight int `json:"inflight" example:"0"`
}

// StatusResponse is returned by GET /api/server/status.
type StatusResponse struct {
	// Lifecycle state: stopped, starting, running or error.
	// example: running
	State string `json:"state" example:"running"`
	// Mode of the current config: single or router. Empty when no config
	// is held.
	// example: single
	Mode string `json:"mode,omitempty" example:"single"`
	// Base URL of the managed server while running.
	// example: http://127.0.0.1:8080
	Endpoint string `json:"endpoint,omitempty" example:"http://127.0.0.1:8080"`
	// OS process ID of the managed server while running.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Seconds since the managed process became ready.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds,omitempty" example:"3600"`
	// Config the server was started with (normalized). Nil when stopped.
	Config *ServerConfig `json:"config,omitempty"`
	// Last startup or crash error observed.
	LastError string `json:"last_error,omitempty"`
	// Models resident on the server (router mode).
	Models []ResidentModel `json:"models,omitempty"`
	// Number of resident models (router mode).
	// example: 2
	ResidentCount int `json:"resident_count,omitempty" example:"2"`
	// Resident model cap (router mode).
	// example: 4
	MaxModels int `json:"max_models,omitempty" example:"4"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ModelsResponse wraps the router-mode residency listing.
type ModelsResponse struct {
	// Models resident on the managed server.
	Models []ResidentModel `json:"models"`
	// Resident model cap.
	// example: 4
	MaxModels int `json:"max_models" example:"4"`
}

// LocalModelsResponse wraps the on-disk model listing.
type LocalModelsResponse struct {
	// Directory that was scanned.
	// example: /home/user/models/LLM/gguf
	Dir string `json:"dir" example:"/home/user/models/LLM/gguf"`
	// Models discovered on disk.
	Models []Model `json:"models"`
}

// ModelRequest names a model for load/unload/ensure operations.
type ModelRequest struct {
	// Server-side model identifier.
	// example: tinyllama-q4
	Model string `json:"model" example:"tinyllama-q4"`
}

// PromptRequest is a chat completion forwarded to the managed server.
type PromptRequest struct {
	// Required user prompt.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Optional system prompt prepended to the conversation.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Model to answer with (router mode). Empty uses whatever the server
	// is running.
	// example: tinyllama-q4
	Model string `json:"model,omitempty" example:"tinyllama-q4"`
	// If true, stream tokens as NDJSON lines; otherwise buffer the full
	// completion into one JSON response.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Maximum number of new tokens.
	// example: 2048
	MaxTokens int `json:"max_tokens,omitempty" example:"2048"`
	// Sampling temperature.
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling cutoff.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Minimum token probability relative to the best candidate.
	// example: 0.05
	MinP float64 `json:"min_p,omitempty" example:"0.05"`
	// Repeat penalty.
	// example: 1.1
	RepeatPenalty float64 `json:"repeat_penalty,omitempty" example:"1.1"`
	// Random seed; 0 or omitted lets the server choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Keep the server-side prompt cache warm between requests.
	KeepContext bool `json:"keep_context,omitempty"`
	// Toggle the model's thinking block. Omitted leaves the server
	// template default in place.
	EnableThinking *bool `json:"enable_thinking,omitempty"`
}

// PromptResponse is the buffered (non-streaming) completion result.
type PromptResponse struct {
	// Generated text with any thinking block stripped.
	Response string `json:"response"`
	// Reasoning emitted by thinking models, if any.
	Thinking string `json:"thinking,omitempty"`
	// Model that produced the completion.
	// example: tinyllama-q4
	Model string `json:"model,omitempty" example:"tinyllama-q4"`
	// Why generation stopped (stop, length, ...).
	// example: stop
	FinishReason string `json:"finish_reason,omitempty" example:"stop"`
	// Wall-clock generation time in milliseconds.
	// example: 1520
	DurationMs int64 `json:"duration_ms" example:"1520"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
