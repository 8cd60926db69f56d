//go:build unix

package supervisor

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcAttrs places the child in its own process group so Terminate
// can signal the whole tree; llama-server may fork helpers.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// attachProcess is a no-op on unix; exit cleanup is handled by the
// shutdown hook.
func attachProcess(p *os.Process) {}

func signalTerm(p *os.Process) {
	if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err != nil {
		_ = p.Signal(syscall.SIGTERM)
	}
}

func signalKill(p *os.Process) {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		_ = p.Kill()
	}
}
