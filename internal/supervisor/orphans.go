package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// OrphanRecord describes one process that looks like a llama-server
// instance: its pid and the signature (command line or executable
// name) it was matched on.
type OrphanRecord struct {
	PID       int
	Signature string
}

// ProcessLister finds candidate llama-server processes on the host.
// Implementations are per-platform; tests substitute a fake.
type ProcessLister interface {
	// ListCandidates returns processes whose executable matches binary.
	ListCandidates(ctx context.Context, binary string) ([]OrphanRecord, error)
	// ForceKill terminates pid immediately, without a grace period.
	ForceKill(pid int) error
}

// SweepOrphans kills llama-server processes this supervisor does not
// own, typically left behind by a previous run that died uncleanly.
// It returns the number of processes killed. Scan failures are logged
// and reported as zero kills; a sweep must never block startup.
func (s *Supervisor) SweepOrphans(ctx context.Context) int {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.sweepOrphansLocked(ctx)
}

func (s *Supervisor) sweepOrphansLocked(ctx context.Context) int {
	s.mu.RLock()
	tracked := 0
	if s.proc != nil {
		tracked = s.proc.PID()
	}
	s.mu.RUnlock()

	recs, err := s.cfg.Lister.ListCandidates(ctx, s.cfg.Binary)
	if err != nil {
		s.log.Warn().Err(err).Msg("orphan scan failed")
		return 0
	}

	killed := 0
	for _, rec := range selectOrphans(recs, s.cfg.Binary, tracked, os.Getpid()) {
		if err := s.cfg.Lister.ForceKill(rec.PID); err != nil {
			s.log.Warn().Err(err).Int("pid", rec.PID).Msg("failed to kill orphan")
			continue
		}
		killed++
		metricOrphansKilled.Inc()
		s.publish(Event{Name: EventOrphanKilled, Fields: map[string]any{
			"pid":       rec.PID,
			"signature": rec.Signature,
		}})
		s.log.Info().Int("pid", rec.PID).Str("signature", rec.Signature).Msg("killed orphaned server process")
	}
	return killed
}

// selectOrphans filters candidate records down to processes that match
// the binary name and are not on the exclude list (the tracked child
// and the supervisor itself).
func selectOrphans(recs []OrphanRecord, binary string, exclude ...int) []OrphanRecord {
	base := strings.TrimSuffix(filepath.Base(binary), ".exe")
	var out []OrphanRecord
	for _, rec := range recs {
		if rec.PID <= 0 {
			continue
		}
		if !matchesBinary(rec.Signature, base) {
			continue
		}
		skip := false
		for _, pid := range exclude {
			if rec.PID == pid && pid > 0 {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// matchesBinary reports whether a process signature names the given
// executable. Signatures may be a bare name, a full path, or a whole
// command line; only the executable token counts, so a process that
// merely mentions the name in its arguments does not match.
func matchesBinary(signature, base string) bool {
	sig := strings.ToLower(strings.TrimSpace(signature))
	base = strings.ToLower(base)
	if sig == "" {
		return false
	}
	if sig == base || sig == base+".exe" {
		return true
	}
	token := sig
	if i := strings.IndexAny(sig, " \t"); i >= 0 {
		token = sig[:i]
	}
	token = strings.TrimSuffix(filepath.Base(token), ".exe")
	return token == base
}
