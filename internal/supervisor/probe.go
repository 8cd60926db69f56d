package supervisor

import (
	"context"
	"time"
)

type probeOutcome int

const (
	probeReady probeOutcome = iota
	probeTimedOut
	probeExited
	probeCanceled
)

// waitReady polls GET /health until the server answers, the process
// exits, the deadline passes or ctx is canceled; timeout <= 0 waits for
// as long as the process lives. Exit and cancellation are checked
// before each probe so a crashed spawn is reported as a crash, not a
// timeout.
func (s *Supervisor) waitReady(ctx context.Context, endpoint string, timeout time.Duration, exited <-chan struct{}) probeOutcome {
	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-exited:
			return probeExited
		case <-ctx.Done():
			return probeCanceled
		default:
		}
		if err := s.client.Health(ctx, endpoint); err == nil {
			return probeReady
		}
		select {
		case <-exited:
			return probeExited
		case <-ctx.Done():
			return probeCanceled
		case <-deadline:
			return probeTimedOut
		case <-ticker.C:
		}
	}
}
