package supervisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llamactl/internal/llamaclient"
)

// routerStub emulates the model endpoints of a router-mode
// llama-server.
type routerStub struct {
	mu       sync.Mutex
	loaded   map[string]bool
	loads    []string
	unloads  []string
	failLoad map[string]bool
}

func newRouterStub() *routerStub {
	return &routerStub{loaded: map[string]bool{}, failLoad: map[string]bool{}}
}

func (st *routerStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/models/load", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		st.mu.Lock()
		defer st.mu.Unlock()
		if st.failLoad[body.Model] {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "load failed"}})
			return
		}
		st.loaded[body.Model] = true
		st.loads = append(st.loads, body.Model)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/models/unload", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		st.mu.Lock()
		defer st.mu.Unlock()
		delete(st.loaded, body.Model)
		st.unloads = append(st.unloads, body.Model)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		st.mu.Lock()
		defer st.mu.Unlock()
		var models []map[string]string
		for id := range st.loaded {
			models = append(models, map[string]string{"id": id, "state": "loaded"})
		}
		json.NewEncoder(w).Encode(map[string]any{"models": models})
	})
	return mux
}

func (st *routerStub) loadCalls() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string(nil), st.loads...)
}

func (st *routerStub) unloadCalls() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string(nil), st.unloads...)
}

func newTestRegistry(t *testing.T, st *routerStub, max int, autoload bool) *modelRegistry {
	t.Helper()
	srv := httptest.NewServer(st.handler())
	t.Cleanup(srv.Close)
	return newModelRegistry(registryConfig{
		endpoint:     srv.URL,
		maxModels:    max,
		autoload:     autoload,
		drainTimeout: 100 * time.Millisecond,
		client:       llamaclient.New(zerolog.Nop()),
		log:          zerolog.Nop(),
		publisher:    noopPublisher{},
	})
}

func residentIDs(r *modelRegistry) []string {
	var ids []string
	for _, m := range r.snapshot() {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestEnsureLoadedAutoloads(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 2, true)

	if err := r.ensureLoaded(context.Background(), "a"); err != nil {
		t.Fatalf("ensureLoaded: %v", err)
	}
	if got := st.loadCalls(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("load calls = %v, want [a]", got)
	}
	// Already resident: touch, no second server call.
	if err := r.ensureLoaded(context.Background(), "a"); err != nil {
		t.Fatalf("second ensureLoaded: %v", err)
	}
	if got := st.loadCalls(); len(got) != 1 {
		t.Fatalf("resident model should not be reloaded: %v", got)
	}
}

func TestEnsureLoadedEvictsLeastRecentlyUsed(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 2, true)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := r.ensureLoaded(ctx, id); err != nil {
			t.Fatalf("load %s: %v", id, err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	// Touch a so b becomes the LRU.
	if err := r.ensureLoaded(ctx, "a"); err != nil {
		t.Fatalf("touch a: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if err := r.ensureLoaded(ctx, "c"); err != nil {
		t.Fatalf("load c: %v", err)
	}
	if got := st.unloadCalls(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unload calls = %v, want [b]", got)
	}
	if got := residentIDs(r); len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("resident = %v, want [a c]", got)
	}
}

func TestEnsureLoadedWithAutoloadOff(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 2, false)

	err := r.ensureLoaded(context.Background(), "a")
	if !IsModelNotLoaded(err) {
		t.Fatalf("want model not loaded, got %v", err)
	}
	if got := st.loadCalls(); len(got) != 0 {
		t.Fatalf("autoload off must not load: %v", got)
	}
}

func TestExplicitLoadAtCapacity(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 1, true)
	ctx := context.Background()

	if err := r.load(ctx, "a"); err != nil {
		t.Fatalf("load a: %v", err)
	}
	err := r.load(ctx, "b")
	if !IsCapacityExceeded(err) {
		t.Fatalf("want capacity exceeded, got %v", err)
	}
	if got := st.unloadCalls(); len(got) != 0 {
		t.Fatalf("explicit load must never evict: %v", got)
	}
}

func TestLoadFailureLeavesNoResident(t *testing.T) {
	st := newRouterStub()
	st.failLoad["a"] = true
	r := newTestRegistry(t, st, 2, true)

	if err := r.load(context.Background(), "a"); err == nil {
		t.Fatalf("load should surface the server error")
	}
	if got := residentIDs(r); len(got) != 0 {
		t.Fatalf("failed load left residue: %v", got)
	}
}

func TestUnloadNonResidentIsNoop(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 2, true)

	if err := r.unload(context.Background(), "ghost"); err != nil {
		t.Fatalf("unload of non-resident model: %v", err)
	}
	if got := st.unloadCalls(); len(got) != 0 {
		t.Fatalf("no server call expected: %v", got)
	}
}

func TestUnloadDrainsInflight(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 2, true)
	ctx := context.Background()

	if err := r.ensureLoaded(ctx, "a"); err != nil {
		t.Fatalf("load a: %v", err)
	}
	release := r.pin("a")
	go func() {
		time.Sleep(30 * time.Millisecond)
		release()
	}()

	start := time.Now()
	if err := r.unload(ctx, "a"); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("unload should have waited for the in-flight request")
	}
	if got := residentIDs(r); len(got) != 0 {
		t.Fatalf("resident after unload: %v", got)
	}
}

func TestUnloadForcesAfterDrainTimeout(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 2, true)
	ctx := context.Background()

	if err := r.ensureLoaded(ctx, "a"); err != nil {
		t.Fatalf("load a: %v", err)
	}
	r.pin("a") // never released

	if err := r.unload(ctx, "a"); err != nil {
		t.Fatalf("forced unload: %v", err)
	}
	if got := residentIDs(r); len(got) != 0 {
		t.Fatalf("resident after forced unload: %v", got)
	}
}

func TestPinShieldsFromEviction(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 1, true)
	ctx := context.Background()

	if err := r.ensureLoaded(ctx, "a"); err != nil {
		t.Fatalf("load a: %v", err)
	}
	release := r.pin("a")

	err := r.ensureLoaded(ctx, "b")
	if !IsCapacityExceeded(err) {
		t.Fatalf("pinned model must not be evicted, got %v", err)
	}

	release()
	release() // release is idempotent

	if err := r.ensureLoaded(ctx, "b"); err != nil {
		t.Fatalf("load b after release: %v", err)
	}
	if got := st.unloadCalls(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("unload calls = %v, want [a]", got)
	}
}

func TestRefreshAdoptsServerTruth(t *testing.T) {
	st := newRouterStub()
	r := newTestRegistry(t, st, 4, true)
	ctx := context.Background()

	if err := r.ensureLoaded(ctx, "a"); err != nil {
		t.Fatalf("load a: %v", err)
	}
	// Server truth diverges: a is gone, b appeared.
	st.mu.Lock()
	delete(st.loaded, "a")
	st.loaded["b"] = true
	st.mu.Unlock()

	if err := r.refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := residentIDs(r); len(got) != 1 || got[0] != "b" {
		t.Fatalf("resident = %v, want [b]", got)
	}
}

func TestRouterOpsRequireRouterMode(t *testing.T) {
	l := newFakeLauncher()
	s := newTestSupervisor(t, l)

	if err := s.EnsureModelLoaded(context.Background(), "a"); !IsNotRunning(err) {
		t.Fatalf("want not running, got %v", err)
	}

	if _, err := s.EnsureStarted(context.Background(), singleConfig(t), 2*time.Second); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.EnsureModelLoaded(context.Background(), "a"); !IsWrongMode(err) {
		t.Fatalf("want wrong mode, got %v", err)
	}
	if _, err := s.RefreshModels(context.Background()); !IsWrongMode(err) {
		t.Fatalf("want wrong mode, got %v", err)
	}
}

func TestSupervisorRouterLifecycle(t *testing.T) {
	st := newRouterStub()
	l := newFakeLauncher()
	l.modelMux = st.handler()
	s := newTestSupervisor(t, l)
	ctx := context.Background()

	if _, err := s.EnsureStarted(ctx, routerConfig(t), 2*time.Second); err != nil {
		t.Fatalf("start router: %v", err)
	}

	if err := s.EnsureModelLoaded(ctx, "a"); err != nil {
		t.Fatalf("ensure model: %v", err)
	}
	stStatus := s.Status()
	if stStatus.ResidentCount != 1 || stStatus.MaxModels != 2 {
		t.Fatalf("status residency: %+v", stStatus)
	}
	if len(stStatus.Models) != 1 || stStatus.Models[0].ID != "a" {
		t.Fatalf("status models: %+v", stStatus.Models)
	}

	release, err := s.AcquireModel(ctx, "a")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	if err := s.UnloadModel(ctx, "a"); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if got := s.Status().ResidentCount; got != 0 {
		t.Fatalf("resident count after unload = %d, want 0", got)
	}

	models, err := s.RefreshModels(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(models) != 0 {
		t.Fatalf("refresh after unload = %+v, want none", models)
	}
}
