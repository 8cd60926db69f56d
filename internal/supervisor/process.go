package supervisor

import (
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// tailLimit bounds captured process output to what fits in an error
// message.
const tailLimit = 4096

// Proc is a handle on a spawned server process.
type Proc interface {
	// PID of the process.
	PID() int
	// Done is closed once the process has exited.
	Done() <-chan struct{}
	// ExitErr returns the exit error after Done is closed, nil before.
	ExitErr() error
	// OutputTail returns the last few KiB of combined stdout+stderr.
	OutputTail() string
	// Terminate asks the process to exit, escalating to a hard kill
	// after grace. It returns once the exit is confirmed or killWait
	// elapses after the kill.
	Terminate(grace, killWait time.Duration) error
}

// Launcher spawns server processes. The exec-backed implementation is
// the default; tests substitute their own.
type Launcher interface {
	Launch(bin string, args []string) (Proc, error)
}

type execLauncher struct {
	log zerolog.Logger
}

// NewExecLauncher returns the Launcher used outside tests.
func NewExecLauncher(log zerolog.Logger) Launcher {
	return &execLauncher{log: log}
}

func (l *execLauncher) Launch(bin string, args []string) (Proc, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, binaryNotFoundError{bin: bin}
	}
	cmd := exec.Command(path, args...)
	tail := newTailWriter(tailLimit)
	cmd.Stdout = tail
	cmd.Stderr = tail
	setProcAttrs(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", path, err)
	}
	attachProcess(cmd.Process)
	p := &execProc{cmd: cmd, tail: tail, done: make(chan struct{})}
	go func() {
		p.exitErr = cmd.Wait()
		close(p.done)
	}()
	l.log.Debug().Int("pid", cmd.Process.Pid).Str("bin", path).Strs("args", args).Msg("spawned llama-server")
	return p, nil
}

// execProc wraps an exec.Cmd. Wait is called exactly once, by the
// goroutine the launcher started; exitErr is published by closing done.
type execProc struct {
	cmd     *exec.Cmd
	tail    *tailWriter
	done    chan struct{}
	exitErr error
}

func (p *execProc) PID() int              { return p.cmd.Process.Pid }
func (p *execProc) Done() <-chan struct{} { return p.done }

func (p *execProc) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

func (p *execProc) OutputTail() string { return p.tail.String() }

func (p *execProc) Terminate(grace, killWait time.Duration) error {
	select {
	case <-p.done:
		return nil
	default:
	}
	signalTerm(p.cmd.Process)
	if waitClosed(p.done, grace) {
		return nil
	}
	signalKill(p.cmd.Process)
	if waitClosed(p.done, killWait) {
		return nil
	}
	return fmt.Errorf("process %d did not exit after kill", p.PID())
}

func waitClosed(done <-chan struct{}, d time.Duration) bool {
	if d <= 0 {
		d = time.Millisecond
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// tailWriter keeps the last limit bytes written. The exec pipe copier
// writes from its own goroutine, so access is mutex'd.
type tailWriter struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func newTailWriter(limit int) *tailWriter {
	return &tailWriter{limit: limit}
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if len(w.buf) > w.limit {
		w.buf = w.buf[len(w.buf)-w.limit:]
	}
	return len(p), nil
}

func (w *tailWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.buf)
}

func defaultBinaryName() string {
	if runtime.GOOS == "windows" {
		return "llama-server.exe"
	}
	return "llama-server"
}

// exitDetail renders a Wait error for diagnostics.
func exitDetail(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}
