package supervisor

import (
	"context"

	"llamactl/pkg/types"
)

// State represents the lifecycle state of the managed server.
type State string

const (
	StateStopped  State = "stopped"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateError    State = "error"
)

// StartResult reports how an EnsureStarted call was satisfied.
type StartResult struct {
	// Endpoint is the base URL of the healthy server.
	Endpoint string
	// PID of the managed process.
	PID int
	// Reused is true when a healthy server with an equivalent config
	// satisfied the request without launching a new process.
	Reused bool
}

// startAttempt tracks one in-flight launch so that concurrent
// EnsureStarted calls with the same fingerprint can share its outcome
// and Stop can abort it. done is closed exactly once, after res and err
// are final.
type startAttempt struct {
	id     string
	fp     Fingerprint
	cancel context.CancelFunc
	done   chan struct{}
	res    StartResult
	err    error
}

// ModelScanner discovers models in a directory. It is used to validate
// router-mode configs before launch.
type ModelScanner interface {
	Scan(dir string) ([]types.Model, error)
}
