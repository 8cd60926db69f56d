package supervisor

import (
	"context"
	"time"
)

// Stop terminates the managed server if one is live and always leaves
// the supervisor Stopped, clearing any Error state. A start attempt
// still probing is aborted first. Returns true when a live process was
// actually terminated.
func (s *Supervisor) Stop(ctx context.Context) bool {
	s.mu.Lock()
	if att := s.attempt; att != nil {
		att.cancel()
	}
	s.mu.Unlock()

	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.stopCurrentLocked()
}

// stopCurrentLocked tears down the current process, if any, and resets
// every snapshot field to the Stopped shape. Callers hold opMu.
func (s *Supervisor) stopCurrentLocked() bool {
	s.mu.RLock()
	proc, endpoint := s.proc, s.endpoint
	s.mu.RUnlock()

	stopped := false
	if proc != nil {
		select {
		case <-proc.Done():
			// Already dead; just clean up the book-keeping.
		default:
			s.terminate(proc)
			stopped = true
		}
	}

	s.mu.Lock()
	s.state = StateStopped
	s.active = nil
	s.fp = ""
	s.proc = nil
	s.endpoint = ""
	s.router = nil
	s.readyAt = time.Time{}
	s.lastErr = ""
	s.mu.Unlock()

	if stopped {
		metricStops.Inc()
		s.publish(Event{Name: EventServerStopped, Fields: map[string]any{"endpoint": endpoint}})
		s.log.Info().Str("endpoint", endpoint).Msg("llama-server stopped")
	}
	return stopped
}

// terminate stops proc, escalating per the configured grace and kill
// windows. Errors are logged, not returned: once we have escalated to
// kill there is nothing useful a caller could do with them.
func (s *Supervisor) terminate(proc Proc) {
	if proc == nil {
		return
	}
	select {
	case <-proc.Done():
		return
	default:
	}
	s.log.Info().Int("pid", proc.PID()).Msg("terminating llama-server")
	if err := proc.Terminate(s.cfg.GraceTimeout, s.cfg.KillTimeout); err != nil {
		s.log.Warn().Err(err).Int("pid", proc.PID()).Msg("process did not confirm exit")
	}
}
