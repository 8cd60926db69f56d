//go:build linux

package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// procLister walks /proc directly. Cheaper and more portable across
// minimal containers than shelling out to pgrep.
type procLister struct{}

func newPlatformLister() ProcessLister {
	return procLister{}
}

func (procLister) ListCandidates(ctx context.Context, binary string) ([]OrphanRecord, error) {
	base := strings.TrimSuffix(filepath.Base(binary), ".exe")
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var out []OrphanRecord
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			// Process exited between ReadDir and here.
			continue
		}
		if strings.TrimSpace(string(comm)) != base {
			continue
		}
		out = append(out, OrphanRecord{PID: pid, Signature: readCmdline(e.Name(), base)})
	}
	return out, nil
}

// readCmdline returns the process command line with NUL separators
// replaced by spaces, falling back to the comm name when unreadable.
func readCmdline(pidDir, fallback string) string {
	raw, err := os.ReadFile(filepath.Join("/proc", pidDir, "cmdline"))
	if err != nil || len(raw) == 0 {
		return fallback
	}
	line := strings.ReplaceAll(string(raw), "\x00", " ")
	return strings.TrimSpace(line)
}

func (procLister) ForceKill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
