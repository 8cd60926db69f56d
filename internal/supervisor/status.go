package supervisor

import (
	"time"

	"llamactl/pkg/types"
)

// Status reports a point-in-time snapshot. The managed process is not
// probed beyond a cheap liveness check: a process found dead here is
// recorded as crashed before the snapshot is taken, so a dead server
// never reports Running.
func (s *Supervisor) Status() types.StatusResponse {
	s.checkAlive()

	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := types.StatusResponse{
		State:          string(s.state),
		Endpoint:       s.endpoint,
		LastError:      s.lastErr,
		ServerTimeUnix: time.Now().Unix(),
	}
	if s.active != nil {
		cfg := *s.active
		resp.Config = &cfg
		resp.Mode = cfg.Mode()
	}
	if s.proc != nil {
		resp.PID = s.proc.PID()
	}
	if s.state == StateRunning && !s.readyAt.IsZero() {
		resp.UptimeSeconds = int64(time.Since(s.readyAt).Seconds())
	}
	if r := s.router; r != nil {
		resp.Models = r.snapshot()
		resp.ResidentCount = len(resp.Models)
		resp.MaxModels = r.max
	}
	return resp
}
