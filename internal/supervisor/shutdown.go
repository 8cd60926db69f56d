package supervisor

import "context"

// ShutdownNotifier invokes registered hooks when the hosting process
// is shutting down.
type ShutdownNotifier interface {
	OnShutdown(func())
}

// RegisterCleanup arranges for the supervised server to be stopped and
// stragglers swept when the host process exits.
func (s *Supervisor) RegisterCleanup(n ShutdownNotifier) {
	n.OnShutdown(func() { s.Close() })
}

// Close stops the supervised server and sweeps orphans. Safe to call
// more than once; only the first call does work.
func (s *Supervisor) Close() {
	s.closeOnce.Do(func() {
		ctx := context.Background()
		s.Stop(ctx)
		s.SweepOrphans(ctx)
	})
}
