package supervisor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"llamactl/internal/common/fsutil"
	"llamactl/pkg/types"
)

// EnsureStarted makes sure a healthy llama-server matching cfg is
// running and returns its endpoint. A healthy server with an equal
// fingerprint is reused as-is; anything else is stopped and replaced.
// timeout bounds the readiness wait; <= 0 waits until the process
// becomes ready or exits.
//
// Calls are serialized. A concurrent call with the same fingerprint
// joins the in-flight attempt and shares its outcome; one with a
// different fingerprint is rejected instead of queueing a restart
// behind a launch it would immediately undo.
func (s *Supervisor) EnsureStarted(ctx context.Context, cfg types.ServerConfig, timeout time.Duration) (StartResult, error) {
	norm, err := s.validateConfig(cfg)
	if err != nil {
		return StartResult{}, err
	}
	fp := FingerprintOf(norm)

	if res, joined, err := s.joinAttempt(ctx, fp); joined {
		return res, err
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if res, ok := s.reuseRunning(ctx, fp); ok {
		return res, nil
	}
	return s.startLocked(ctx, norm, fp, timeout)
}

// validateConfig normalizes cfg and rejects what can be rejected
// before any process action.
func (s *Supervisor) validateConfig(cfg types.ServerConfig) (types.ServerConfig, error) {
	n := normalizeConfig(cfg)
	if n.Port < 1 || n.Port > 65535 {
		return n, ErrConfigInvalid("port %d out of range 1-65535", n.Port)
	}
	if n.Router {
		if n.ModelsDir == "" {
			return n, ErrConfigInvalid("router mode requires a models directory")
		}
		if !fsutil.IsDir(n.ModelsDir) {
			return n, ErrConfigInvalid("models directory does not exist: %s", n.ModelsDir)
		}
		if s.cfg.Scanner != nil {
			models, err := s.cfg.Scanner.Scan(n.ModelsDir)
			if err != nil {
				return n, ErrConfigInvalid("models directory unreadable: %v", err)
			}
			if len(models) == 0 {
				return n, ErrConfigInvalid("no models found in %s", n.ModelsDir)
			}
		}
		return n, nil
	}
	if n.ModelPath == "" {
		return n, ErrConfigInvalid("no model specified")
	}
	if !fsutil.PathExists(n.ModelPath) {
		return n, ErrConfigInvalid("model not found: %s", n.ModelPath)
	}
	if n.ProjPath != "" && !fsutil.PathExists(n.ProjPath) {
		return n, ErrConfigInvalid("projector not found: %s", n.ProjPath)
	}
	return n, nil
}

// joinAttempt resolves the call against an in-flight start, if any.
func (s *Supervisor) joinAttempt(ctx context.Context, fp Fingerprint) (StartResult, bool, error) {
	s.mu.RLock()
	att := s.attempt
	s.mu.RUnlock()
	if att == nil {
		return StartResult{}, false, nil
	}
	if att.fp != fp {
		return StartResult{}, true, startInProgressError{}
	}
	select {
	case <-att.done:
		return att.res, true, att.err
	case <-ctx.Done():
		return StartResult{}, true, ctx.Err()
	}
}

// reuseRunning reports whether the current process satisfies fp. A
// dead process discovered here is recorded as crashed and the caller
// falls through to a fresh start.
func (s *Supervisor) reuseRunning(ctx context.Context, fp Fingerprint) (StartResult, bool) {
	s.mu.RLock()
	state, cur, proc, endpoint := s.state, s.fp, s.proc, s.endpoint
	s.mu.RUnlock()
	if state != StateRunning || proc == nil || cur != fp {
		return StartResult{}, false
	}
	select {
	case <-proc.Done():
		s.recordCrash(proc)
		return StartResult{}, false
	default:
	}
	if err := s.client.Health(ctx, endpoint); err != nil {
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("existing server unhealthy; restarting")
		return StartResult{}, false
	}
	s.log.Info().Str("endpoint", endpoint).Str("fingerprint", fp.Short()).Msg("reusing running llama-server")
	s.publish(Event{Name: EventServerReused, Fields: map[string]any{"endpoint": endpoint}})
	metricStarts.WithLabelValues("reused").Inc()
	return StartResult{Endpoint: endpoint, PID: proc.PID(), Reused: true}, true
}

// startLocked replaces whatever is there with a fresh process for norm.
// Callers hold opMu.
func (s *Supervisor) startLocked(ctx context.Context, norm types.ServerConfig, fp Fingerprint, timeout time.Duration) (StartResult, error) {
	if s.stopCurrentLocked() {
		metricRestarts.Inc()
	}
	// Leftovers of a crashed host would hold the port; clear them before
	// the pre-flight check.
	s.sweepOrphansLocked(ctx)
	if err := checkPortFree(norm.Host, norm.Port); err != nil {
		return StartResult{}, err
	}

	attempt := &startAttempt{id: uuid.NewString(), fp: fp, done: make(chan struct{})}
	actx, cancel := context.WithCancel(ctx)
	attempt.cancel = cancel
	defer cancel()

	s.mu.Lock()
	s.attempt = attempt
	s.mu.Unlock()

	res, err := s.runStart(actx, attempt, norm, fp, timeout)

	attempt.res, attempt.err = res, err
	s.mu.Lock()
	s.attempt = nil
	s.mu.Unlock()
	close(attempt.done)
	return res, err
}

func (s *Supervisor) runStart(ctx context.Context, attempt *startAttempt, norm types.ServerConfig, fp Fingerprint, timeout time.Duration) (StartResult, error) {
	endpoint := "http://" + net.JoinHostPort(norm.Host, strconv.Itoa(norm.Port))
	s.log.Info().
		Str("mode", norm.Mode()).
		Str("endpoint", endpoint).
		Str("fingerprint", fp.Short()).
		Str("attempt", attempt.id).
		Msg("starting llama-server")

	proc, err := s.cfg.Launcher.Launch(s.cfg.Binary, commandArgs(norm))
	if err != nil {
		s.failStart(err)
		return StartResult{}, err
	}

	s.mu.Lock()
	s.state = StateStarting
	s.active = &norm
	s.fp = fp
	s.proc = proc
	s.endpoint = endpoint
	s.lastErr = ""
	s.router = nil
	s.mu.Unlock()
	s.publish(Event{Name: EventServerStarting, Fields: map[string]any{
		"mode": norm.Mode(), "endpoint": endpoint, "pid": proc.PID(), "attempt": attempt.id,
	}})

	probeStart := time.Now()
	outcome := s.waitReady(ctx, endpoint, timeout, proc.Done())
	metricProbeDuration.Observe(time.Since(probeStart).Seconds())

	switch outcome {
	case probeReady:
		s.mu.Lock()
		s.state = StateRunning
		s.readyAt = time.Now()
		if norm.Router {
			s.router = newModelRegistry(registryConfig{
				endpoint:     endpoint,
				maxModels:    norm.MaxModels,
				autoload:     norm.Autoload,
				drainTimeout: s.cfg.DrainTimeout,
				client:       s.client,
				log:          s.log,
				publisher:    s.publisher,
			})
		}
		s.mu.Unlock()
		s.log.Info().Int("pid", proc.PID()).Dur("took", time.Since(probeStart)).Msg("llama-server ready")
		s.publish(Event{Name: EventServerReady, Fields: map[string]any{"endpoint": endpoint, "pid": proc.PID()}})
		metricStarts.WithLabelValues("started").Inc()
		return StartResult{Endpoint: endpoint, PID: proc.PID()}, nil

	case probeExited:
		err := processCrashedError{detail: exitDetail(proc.ExitErr()), tail: proc.OutputTail()}
		s.failStart(err)
		return StartResult{}, err

	case probeTimedOut:
		s.terminate(proc)
		err := startupTimeoutError{timeout: timeout.String(), tail: proc.OutputTail()}
		s.failStart(err)
		return StartResult{}, err

	default: // probeCanceled
		s.terminate(proc)
		cause := ctx.Err()
		if cause == nil {
			cause = context.Canceled
		}
		s.failStart(fmt.Errorf("start aborted: %w", cause))
		return StartResult{}, cause
	}
}

// failStart moves the supervisor to Error with err as the diagnostic.
// The attempted config, when one was recorded, stays visible in status.
func (s *Supervisor) failStart(err error) {
	s.mu.Lock()
	s.state = StateError
	s.lastErr = err.Error()
	s.proc = nil
	s.endpoint = ""
	s.router = nil
	s.readyAt = time.Time{}
	s.mu.Unlock()
	s.log.Error().Err(err).Msg("llama-server failed to start")
	s.publish(Event{Name: EventServerFailed, Fields: map[string]any{"error": err.Error()}})
	metricStarts.WithLabelValues("error").Inc()
}

// recordCrash moves a dead process into the Error state, keeping the
// config for diagnostics. Callers must not hold mu.
func (s *Supervisor) recordCrash(proc Proc) {
	cerr := processCrashedError{detail: exitDetail(proc.ExitErr()), tail: proc.OutputTail()}
	s.mu.Lock()
	if s.proc != proc {
		// Already replaced by a later operation.
		s.mu.Unlock()
		return
	}
	s.state = StateError
	s.lastErr = cerr.Error()
	s.proc = nil
	s.endpoint = ""
	s.router = nil
	s.readyAt = time.Time{}
	s.mu.Unlock()
	s.log.Error().Str("detail", cerr.detail).Msg("llama-server exited unexpectedly")
	s.publish(Event{Name: EventServerCrashed, Fields: map[string]any{"detail": cerr.detail}})
	metricCrashes.Inc()
}

// checkAlive records a crash if the managed process died since the
// last look. Lifecycle reads and registry operations call this first
// so a dead server is never reported as Running.
func (s *Supervisor) checkAlive() {
	s.mu.RLock()
	state, proc := s.state, s.proc
	s.mu.RUnlock()
	if state == StateRunning && proc != nil {
		select {
		case <-proc.Done():
			s.recordCrash(proc)
		default:
		}
	}
}

// checkPortFree binds and releases the configured address so a foreign
// listener surfaces as PortInUse rather than a startup timeout.
func checkPortFree(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return portInUseError{addr: addr}
	}
	ln.Close()
	return nil
}
