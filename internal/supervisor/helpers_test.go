package supervisor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"llamactl/pkg/types"
)

// pickFreePort reserves an ephemeral port and releases it for the fake
// server to claim. The gap between release and claim is harmless at
// test scale.
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

// fakeProc stands in for a spawned llama-server. When backed by a
// listener it serves HTTP until it "exits".
type fakeProc struct {
	pid     int
	tail    string
	ln      net.Listener
	healthy atomic.Bool

	mu      sync.Mutex
	exited  bool
	exitErr error
	done    chan struct{}
}

func (p *fakeProc) PID() int              { return p.pid }
func (p *fakeProc) Done() <-chan struct{} { return p.done }

func (p *fakeProc) ExitErr() error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.exitErr
	default:
		return nil
	}
}

func (p *fakeProc) OutputTail() string { return p.tail }

func (p *fakeProc) Terminate(grace, killWait time.Duration) error {
	p.exit(nil)
	return nil
}

func (p *fakeProc) exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.exitErr = err
	if p.ln != nil {
		p.ln.Close()
	}
	close(p.done)
}

// launch behaviors
const (
	behaveHealthy = iota
	// behaveCrash exits immediately without ever listening.
	behaveCrash
	// behaveHang stays alive but never answers health probes.
	behaveHang
)

// fakeLauncher spawns fakeProcs that really bind the requested port, so
// the pre-flight port check and the readiness probe behave as they
// would against llama-server.
type fakeLauncher struct {
	behavior int
	// readyAfter delays the first passing health probe.
	readyAfter time.Duration
	// failWith, when set, is returned from Launch itself.
	failWith error
	// modelMux, when set, serves everything except /health.
	modelMux http.Handler

	mu       sync.Mutex
	nextPID  int
	launches [][]string
	procs    []*fakeProc
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{nextPID: 1000}
}

func (l *fakeLauncher) Launch(bin string, args []string) (Proc, error) {
	if l.failWith != nil {
		return nil, l.failWith
	}
	l.mu.Lock()
	l.nextPID++
	pid := l.nextPID
	l.launches = append(l.launches, args)
	l.mu.Unlock()

	p := &fakeProc{pid: pid, done: make(chan struct{})}
	p.healthy.Store(true)
	switch l.behavior {
	case behaveCrash:
		p.tail = "error while loading model"
		p.exit(&fakeExitError{code: 1})
		l.record(p)
		return p, nil
	case behaveHang:
		l.record(p)
		return p, nil
	}

	addr := net.JoinHostPort(argValue(args, "--host"), argValue(args, "--port"))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	p.ln = ln
	notBefore := time.Now().Add(l.readyAfter)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if !p.healthy.Load() || time.Now().Before(notBefore) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	if l.modelMux != nil {
		mux.Handle("/", l.modelMux)
	}
	go http.Serve(ln, mux)
	l.record(p)
	return p, nil
}

func (l *fakeLauncher) record(p *fakeProc) {
	l.mu.Lock()
	l.procs = append(l.procs, p)
	l.mu.Unlock()
}

func (l *fakeLauncher) launchCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launches)
}

func (l *fakeLauncher) lastProc() *fakeProc {
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

type fakeExitError struct{ code int }

func (e *fakeExitError) Error() string { return "exit status " + strconv.Itoa(e.code) }

// fakeLister feeds canned process records to the orphan sweeper.
type fakeLister struct {
	mu     sync.Mutex
	recs   []OrphanRecord
	err    error
	killed []int
}

func (l *fakeLister) ListCandidates(ctx context.Context, binary string) ([]OrphanRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]OrphanRecord(nil), l.recs...), l.err
}

func (l *fakeLister) ForceKill(pid int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.killed = append(l.killed, pid)
	for i, rec := range l.recs {
		if rec.PID == pid {
			l.recs = append(l.recs[:i], l.recs[i+1:]...)
			break
		}
	}
	return nil
}

func newTestSupervisor(t *testing.T, l *fakeLauncher) *Supervisor {
	t.Helper()
	return newTestSupervisorWith(t, l, &fakeLister{}, noopPublisher{})
}

func newTestSupervisorWith(t *testing.T, l *fakeLauncher, lister ProcessLister, pub EventPublisher) *Supervisor {
	t.Helper()
	s := New(Config{
		Binary:        "llama-server",
		ProbeInterval: 5 * time.Millisecond,
		GraceTimeout:  50 * time.Millisecond,
		KillTimeout:   50 * time.Millisecond,
		DrainTimeout:  100 * time.Millisecond,
		Launcher:      l,
		Lister:        lister,
		Logger:        zerolog.Nop(),
		Publisher:     pub,
	})
	t.Cleanup(func() { s.Stop(context.Background()) })
	return s
}

// singleConfig builds a valid single-model config around a temp model
// file and a free port.
func singleConfig(t *testing.T) types.ServerConfig {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.gguf")
	if err := os.WriteFile(path, []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return types.ServerConfig{
		ModelPath: path,
		Host:      "127.0.0.1",
		Port:      pickFreePort(t),
		GPULayers: 999,
	}
}

// routerConfig builds a valid router config around a temp models dir
// and a free port.
func routerConfig(t *testing.T) types.ServerConfig {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.gguf"), []byte("GGUF"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return types.ServerConfig{
		Router:    true,
		ModelsDir: dir,
		Host:      "127.0.0.1",
		Port:      pickFreePort(t),
		GPULayers: 999,
		MaxModels: 2,
		Autoload:  true,
	}
}
