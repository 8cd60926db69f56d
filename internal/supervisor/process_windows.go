//go:build windows

package supervisor

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	createNewProcessGroup = 0x00000200
	createNoWindow        = 0x08000000
)

// setProcAttrs hides the console window; the server is a background
// service of the editor, not a terminal program.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNewProcessGroup | createNoWindow,
	}
}

var (
	jobOnce   sync.Once
	jobHandle windows.Handle
)

// ensureJob creates one kill-on-close job object for the whole daemon.
// Every spawned server is assigned to it, so even a SIGKILL'd host
// takes its servers down with it.
func ensureJob() windows.Handle {
	jobOnce.Do(func() {
		h, err := windows.CreateJobObject(nil, nil)
		if err != nil {
			return
		}
		info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
			BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
				LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
			},
		}
		_, err = windows.SetInformationJobObject(
			h,
			windows.JobObjectExtendedLimitInformation,
			uintptr(unsafe.Pointer(&info)),
			uint32(unsafe.Sizeof(info)),
		)
		if err != nil {
			windows.CloseHandle(h)
			return
		}
		jobHandle = h
	})
	return jobHandle
}

// attachProcess puts the child into the daemon job object. Best-effort:
// a failure leaves the child unmanaged but running.
func attachProcess(p *os.Process) {
	job := ensureJob()
	if job == 0 {
		return
	}
	h, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(p.Pid))
	if err != nil {
		return
	}
	defer windows.CloseHandle(h)
	_ = windows.AssignProcessToJobObject(job, h)
}

// Windows has no graceful signal for console-less children; both steps
// are a hard TerminateProcess, matching the kill escalation elsewhere.
func signalTerm(p *os.Process) { _ = p.Kill() }
func signalKill(p *os.Process) { _ = p.Kill() }
