//go:build windows

package supervisor

import (
	"context"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

// snapshotLister enumerates processes via the toolhelp snapshot API.
type snapshotLister struct{}

func newPlatformLister() ProcessLister {
	return snapshotLister{}
}

func (snapshotLister) ListCandidates(ctx context.Context, binary string) ([]OrphanRecord, error) {
	base := strings.TrimSuffix(filepath.Base(binary), ".exe")
	want := strings.ToLower(base) + ".exe"

	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, err
	}
	var out []OrphanRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := windows.UTF16ToString(entry.ExeFile[:])
		if strings.ToLower(name) == want {
			out = append(out, OrphanRecord{PID: int(entry.ProcessID), Signature: name})
		}
		if err := windows.Process32Next(snap, &entry); err != nil {
			break
		}
	}
	return out, nil
}

func (snapshotLister) ForceKill(pid int) error {
	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.TerminateProcess(h, 1)
}
