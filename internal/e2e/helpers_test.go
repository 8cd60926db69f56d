package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llamactl/internal/httpapi"
	"llamactl/internal/llamaclient"
	"llamactl/internal/registry"
	"llamactl/internal/supervisor"
	"llamactl/pkg/types"
)

// createTempModelsDir creates a temporary directory populated with empty
// .gguf files and returns the directory path and the list of model IDs
// (filenames).
func createTempModelsDir(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("GGUF"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir, names
}

// pickFreePort reserves an ephemeral port and releases it for the fake
// server to claim.
func pickFreePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// fakeServer emulates the llama-server HTTP surface on a real socket:
// health, router-mode model management and streaming chat completions.
// It doubles as the supervisor's process handle.
type fakeServer struct {
	pid   int
	known []string
	ln    net.Listener

	mu      sync.Mutex
	loaded  map[string]bool
	exited  bool
	exitErr error
	done    chan struct{}
}

func (p *fakeServer) PID() int              { return p.pid }
func (p *fakeServer) Done() <-chan struct{} { return p.done }
func (p *fakeServer) OutputTail() string    { return "" }

func (p *fakeServer) ExitErr() error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.exitErr
	default:
		return nil
	}
}

func (p *fakeServer) Terminate(grace, killWait time.Duration) error {
	p.kill(nil)
	return nil
}

// kill ends the fake process; tests call it directly to simulate a
// crash.
func (p *fakeServer) kill(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.exitErr = err
	p.ln.Close()
	close(p.done)
}

func (p *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/models", p.handleModels)
	mux.HandleFunc("/models/load", p.handleModelOp(true))
	mux.HandleFunc("/models/unload", p.handleModelOp(false))
	mux.HandleFunc("/v1/chat/completions", p.handleChat)
	return mux
}

func (p *fakeServer) handleModels(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID    string `json:"id"`
		State string `json:"state"`
	}
	p.mu.Lock()
	models := make([]entry, 0, len(p.known))
	seen := map[string]bool{}
	for _, id := range p.known {
		state := "unloaded"
		if p.loaded[id] {
			state = "loaded"
		}
		models = append(models, entry{ID: id, State: state})
		seen[id] = true
	}
	for id := range p.loaded {
		if !seen[id] {
			models = append(models, entry{ID: id, State: "loaded"})
		}
	}
	p.mu.Unlock()
	json.NewEncoder(w).Encode(map[string]any{"models": models})
}

func (p *fakeServer) handleModelOp(load bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Model == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"model is required"}}`))
			return
		}
		p.mu.Lock()
		if load {
			p.loaded[req.Model] = true
		} else {
			delete(p.loaded, req.Model)
		}
		p.mu.Unlock()
		w.Write([]byte(`{"success":true}`))
	}
}

func (p *fakeServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	for _, tok := range []string{"Deep ", "blue ", "sea."} {
		chunk, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{"delta": map[string]string{"content": tok}}},
		})
		fmt.Fprintf(w, "data: %s\n\n", chunk)
	}
	fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
	fmt.Fprint(w, "data: [DONE]\n\n")
}

// fakeLauncher binds the requested port and serves the fake llama-server
// surface there, so the port pre-flight, the readiness probe and chat
// forwarding all run against real sockets.
type fakeLauncher struct {
	mu      sync.Mutex
	nextPID int
	procs   []*fakeServer
}

func (l *fakeLauncher) Launch(bin string, args []string) (supervisor.Proc, error) {
	addr := net.JoinHostPort(argValue(args, "--host"), argValue(args, "--port"))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.nextPID++
	pid := 40000 + l.nextPID
	l.mu.Unlock()
	p := &fakeServer{
		pid:    pid,
		known:  ggufNames(argValue(args, "--models")),
		ln:     ln,
		loaded: make(map[string]bool),
		done:   make(chan struct{}),
	}
	go func() {
		http.Serve(ln, p.handler())
		p.kill(nil)
	}()
	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()
	return p, nil
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.procs)
}

func (l *fakeLauncher) lastProc() *fakeServer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.procs) == 0 {
		return nil
	}
	return l.procs[len(l.procs)-1]
}

func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// ggufNames lists the *.gguf files of a router-mode models directory so
// the fake can report them as discoverable but unloaded.
func ggufNames(dir string) []string {
	if dir == "" {
		return nil
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range ents {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".gguf") {
			names = append(names, e.Name())
		}
	}
	return names
}

// quietLister keeps orphan sweeps away from real host processes.
type quietLister struct{}

func (quietLister) ListCandidates(ctx context.Context, binary string) ([]supervisor.OrphanRecord, error) {
	return nil, nil
}
func (quietLister) ForceKill(pid int) error { return nil }

// newAPIServer wires the supervisor behind the HTTP mux the way the
// serve command does, with the process layer faked out.
func newAPIServer(t *testing.T, modelsDir string) (*httptest.Server, *fakeLauncher) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	httpapi.SetLogger(logger)
	fl := &fakeLauncher{}
	client := llamaclient.New(logger)
	sup := supervisor.New(supervisor.Config{
		Binary:        "llama-server",
		ProbeInterval: 5 * time.Millisecond,
		GraceTimeout:  200 * time.Millisecond,
		KillTimeout:   200 * time.Millisecond,
		DrainTimeout:  100 * time.Millisecond,
		Launcher:      fl,
		Lister:        quietLister{},
		Client:        client,
		Scanner:       registry.NewGGUFScanner(),
		Logger:        logger,
	})
	t.Cleanup(sup.Close)
	mux := httpapi.NewMux(httpapi.Deps{
		Service:   sup,
		Catalog:   registry.NewGGUFScanner(),
		Chat:      client,
		ModelsDir: modelsDir,
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, fl
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// startSingle starts a single-model server on a fresh port and fails the
// test on anything but success.
func startSingle(t *testing.T, srv *httptest.Server, model string) types.StartResponse {
	t.Helper()
	port := pickFreePort(t)
	resp, body := httpPostJSON(t, srv.URL+"/api/server/start",
		[]byte(fmt.Sprintf(`{"model":%q,"port":%d,"gpu_layers":0,"timeout_seconds":10}`, model, port)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status=%d body=%s", resp.StatusCode, string(body))
	}
	var out types.StartResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("start json: %v body=%s", err, string(body))
	}
	return out
}

// startRouter starts a router-mode server over the daemon's models
// directory with the given residency cap.
func startRouter(t *testing.T, srv *httptest.Server, maxModels int) types.StartResponse {
	t.Helper()
	port := pickFreePort(t)
	resp, body := httpPostJSON(t, srv.URL+"/api/server/router",
		[]byte(fmt.Sprintf(`{"models_max":%d,"port":%d,"gpu_layers":0,"timeout_seconds":10}`, maxModels, port)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start router: status=%d body=%s", resp.StatusCode, string(body))
	}
	var out types.StartResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("start router json: %v body=%s", err, string(body))
	}
	return out
}

func listModels(t *testing.T, srv *httptest.Server) types.ModelsResponse {
	t.Helper()
	resp, body := httpGet(t, srv.URL+"/api/models")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/api/models status=%d body=%s", resp.StatusCode, string(body))
	}
	var out types.ModelsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("/api/models json: %v body=%s", err, string(body))
	}
	return out
}

func mustModelOp(t *testing.T, srv *httptest.Server, op, model string) {
	t.Helper()
	resp, body := httpPostJSON(t, srv.URL+"/api/models/"+op,
		[]byte(fmt.Sprintf(`{"model":%q}`, model)))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("%s %s: status=%d body=%s", op, model, resp.StatusCode, string(body))
	}
}
