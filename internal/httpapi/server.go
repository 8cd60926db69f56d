package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamactl/internal/llamaclient"
	"llamactl/internal/supervisor"
	"llamactl/pkg/types"
)

// Service is the supervisor surface the HTTP API layer needs.
type Service interface {
	EnsureStarted(ctx context.Context, cfg types.ServerConfig, timeout time.Duration) (supervisor.StartResult, error)
	Stop(ctx context.Context) bool
	Status() types.StatusResponse
	EnsureModelLoaded(ctx context.Context, model string) error
	LoadModel(ctx context.Context, model string) error
	UnloadModel(ctx context.Context, model string) error
	RefreshModels(ctx context.Context) ([]types.ResidentModel, error)
	AcquireModel(ctx context.Context, model string) (func(), error)
	Endpoint() (string, bool)
}

// Catalog lists and resolves models on disk.
type Catalog interface {
	Scan(dir string) ([]types.Model, error)
	Resolve(dir, ref string) (types.Model, error)
}

// Streamer talks to the managed llama-server for completions and model
// listings.
type Streamer interface {
	ChatStream(ctx context.Context, baseURL string, req llamaclient.ChatRequest, onDelta func(llamaclient.Delta) error) (llamaclient.ChatResult, error)
	ListModels(ctx context.Context, baseURL string) ([]llamaclient.ModelInfo, error)
}

// Deps carries everything NewMux wires into handlers.
type Deps struct {
	Service   Service
	Catalog   Catalog
	Chat      Streamer
	ModelsDir string
}

type api struct {
	svc       Service
	cat       Catalog
	chat      Streamer
	modelsDir string
}

func NewMux(d Deps) http.Handler {
	a := &api{svc: d.Service, cat: d.Catalog, chat: d.Chat, modelsDir: d.ModelsDir}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/server/start", a.handleStartServer)
		r.Post("/server/router", a.handleStartRouter)
		r.Post("/server/stop", a.handleStopServer)
		r.Get("/server/status", a.handleStatus)

		r.Get("/models", a.handleListModels)
		r.Post("/models/load", a.handleLoadModel)
		r.Post("/models/unload", a.handleUnloadModel)
		r.Post("/models/ensure", a.handleEnsureModel)
		r.Get("/models/local", a.handleLocalModels)

		r.Post("/prompt", a.handlePrompt)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", a.handleReady)

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSON enforces content type and body size, then decodes into v.
// On failure it writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}

// startTimeout maps the request's timeout_seconds onto the supervisor's
// wait: omitted means the default, zero or negative means wait as long
// as the process lives.
func startTimeout(sec *int) time.Duration {
	if sec == nil {
		return supervisor.DefaultStartTimeout
	}
	if *sec <= 0 {
		return 0
	}
	return time.Duration(*sec) * time.Second
}

// gpuLayers maps the request's gpu_layers onto the config: omitted
// offloads everything, negative is clamped to CPU only.
func gpuLayers(n *int) int {
	if n == nil {
		return types.DefaultGPULayers
	}
	if *n < 0 {
		return 0
	}
	return *n
}

// handleStartServer godoc
// @Summary  Start a single-model llama-server
// @Tags     server
// @Accept   json
// @Produce  json
// @Param    request body types.StartServerRequest true "launch parameters"
// @Success  200 {object} types.StartResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /api/server/start [post]
func (a *api) handleStartServer(w http.ResponseWriter, r *http.Request) {
	var req types.StartServerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	m, err := a.cat.Resolve(a.modelsDir, req.Model)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	cfg := types.ServerConfig{
		ModelPath:      m.Path,
		ProjPath:       m.ProjPath,
		Port:           req.Port,
		ContextSize:    req.ContextSize,
		GPULayers:      gpuLayers(req.GPULayers),
		MainGPU:        req.MainGPU,
		TensorSplit:    req.TensorSplit,
		Threads:        req.Threads,
		BatchSize:      req.BatchSize,
		FlashAttention: req.FlashAttention,
		NoMmap:         req.NoMmap,
	}
	a.startAndRespond(w, r, cfg, startTimeout(req.TimeoutSeconds))
}

// handleStartRouter godoc
// @Summary  Start llama-server in router mode
// @Tags     server
// @Accept   json
// @Produce  json
// @Param    request body types.StartRouterRequest true "launch parameters"
// @Success  200 {object} types.StartResponse
// @Failure  400 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Failure  503 {object} types.ErrorResponse
// @Router   /api/server/router [post]
func (a *api) handleStartRouter(w http.ResponseWriter, r *http.Request) {
	var req types.StartRouterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir := req.ModelsDir
	if dir == "" {
		dir = a.modelsDir
	}
	autoload := true
	if req.Autoload != nil {
		autoload = *req.Autoload
	}
	cfg := types.ServerConfig{
		Router:         true,
		ModelsDir:      dir,
		Port:           req.Port,
		ContextSize:    req.ContextSize,
		GPULayers:      gpuLayers(req.GPULayers),
		MainGPU:        req.MainGPU,
		Threads:        req.Threads,
		BatchSize:      req.BatchSize,
		FlashAttention: req.FlashAttention,
		MaxModels:      req.MaxModels,
		Autoload:       autoload,
	}
	a.startAndRespond(w, r, cfg, startTimeout(req.TimeoutSeconds))
}

func (a *api) startAndRespond(w http.ResponseWriter, r *http.Request, cfg types.ServerConfig, timeout time.Duration) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res, err := a.svc.EnsureStarted(ctx, cfg, timeout)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, types.StartResponse{
		State:    string(supervisor.StateRunning),
		Mode:     cfg.Mode(),
		Endpoint: res.Endpoint,
		PID:      res.PID,
		Reused:   res.Reused,
	})
}

// handleStopServer godoc
// @Summary  Stop the managed llama-server
// @Tags     server
// @Produce  json
// @Success  200 {object} types.StopResponse
// @Router   /api/server/stop [post]
func (a *api) handleStopServer(w http.ResponseWriter, r *http.Request) {
	stopped := a.svc.Stop(r.Context())
	writeJSON(w, types.StopResponse{
		State:   string(supervisor.StateStopped),
		Stopped: stopped,
	})
}

// handleStatus godoc
// @Summary  Lifecycle state of the managed llama-server
// @Tags     server
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /api/server/status [get]
func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, a.svc.Status())
}

// handleListModels godoc
// @Summary  Models resident on the router-mode server
// @Tags     models
// @Produce  json
// @Success  200 {object} types.ModelsResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /api/models [get]
func (a *api) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := a.svc.RefreshModels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, types.ModelsResponse{
		Models:    models,
		MaxModels: a.svc.Status().MaxModels,
	})
}

func (a *api) modelOp(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	var req types.ModelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	if err := op(r.Context(), req.Model); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"model": req.Model, "ok": true})
}

// handleLoadModel godoc
// @Summary  Load a model on the router-mode server
// @Tags     models
// @Accept   json
// @Produce  json
// @Param    request body types.ModelRequest true "model id"
// @Success  200 {object} map[string]any
// @Failure  409 {object} types.ErrorResponse
// @Failure  429 {object} types.ErrorResponse
// @Router   /api/models/load [post]
func (a *api) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	a.modelOp(w, r, a.svc.LoadModel)
}

// handleUnloadModel godoc
// @Summary  Unload a model from the router-mode server
// @Tags     models
// @Accept   json
// @Produce  json
// @Param    request body types.ModelRequest true "model id"
// @Success  200 {object} map[string]any
// @Failure  409 {object} types.ErrorResponse
// @Router   /api/models/unload [post]
func (a *api) handleUnloadModel(w http.ResponseWriter, r *http.Request) {
	a.modelOp(w, r, a.svc.UnloadModel)
}

// handleEnsureModel godoc
// @Summary  Ensure a model is resident, evicting if needed
// @Tags     models
// @Accept   json
// @Produce  json
// @Param    request body types.ModelRequest true "model id"
// @Success  200 {object} map[string]any
// @Failure  404 {object} types.ErrorResponse
// @Failure  409 {object} types.ErrorResponse
// @Router   /api/models/ensure [post]
func (a *api) handleEnsureModel(w http.ResponseWriter, r *http.Request) {
	a.modelOp(w, r, a.svc.EnsureModelLoaded)
}

// handleLocalModels godoc
// @Summary  Models available on disk
// @Tags     models
// @Produce  json
// @Success  200 {object} types.LocalModelsResponse
// @Router   /api/models/local [get]
func (a *api) handleLocalModels(w http.ResponseWriter, r *http.Request) {
	models, err := a.cat.Scan(a.modelsDir)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, types.LocalModelsResponse{Dir: a.modelsDir, Models: models})
}

// handleReady reports whether the managed server is serving.
func (a *api) handleReady(w http.ResponseWriter, r *http.Request) {
	st := a.svc.Status()
	if st.State == string(supervisor.StateRunning) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(st.State))
}
