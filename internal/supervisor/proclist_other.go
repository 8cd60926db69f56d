//go:build unix && !linux

package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// pgrepLister shells out to pgrep on Unixes without a /proc worth
// parsing (macOS, the BSDs).
type pgrepLister struct{}

func newPlatformLister() ProcessLister {
	return pgrepLister{}
}

func (pgrepLister) ListCandidates(ctx context.Context, binary string) ([]OrphanRecord, error) {
	base := strings.TrimSuffix(filepath.Base(binary), ".exe")
	out, err := exec.CommandContext(ctx, "pgrep", "-x", base).Output()
	if err != nil {
		// Exit status 1 means no matches, not a failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, err
	}
	var recs []OrphanRecord
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err != nil || pid <= 0 {
			continue
		}
		recs = append(recs, OrphanRecord{PID: pid, Signature: base})
	}
	return recs, nil
}

func (pgrepLister) ForceKill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
