package supervisor

import "fmt"

// configInvalidError signals a rejected launch config for 400 mapping.
type configInvalidError struct{ msg string }

func (e configInvalidError) Error() string { return "invalid config: " + e.msg }

// ErrConfigInvalid constructs a configInvalidError.
func ErrConfigInvalid(format string, args ...any) error {
	return configInvalidError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigInvalid reports whether err indicates a config rejected before
// launch (return 400).
func IsConfigInvalid(err error) bool {
	_, ok := err.(configInvalidError)
	return ok
}

// startupTimeoutError signals a process that never became ready in time.
type startupTimeoutError struct {
	timeout string
	tail    string
}

func (e startupTimeoutError) Error() string {
	if e.tail == "" {
		return "server did not become ready within " + e.timeout
	}
	return "server did not become ready within " + e.timeout + "; output tail: " + e.tail
}

// IsStartupTimeout reports whether err indicates a readiness deadline hit.
func IsStartupTimeout(err error) bool {
	_, ok := err.(startupTimeoutError)
	return ok
}

// processCrashedError signals a managed process that exited on its own.
type processCrashedError struct {
	detail string
	tail   string
}

func (e processCrashedError) Error() string {
	msg := "server process exited: " + e.detail
	if e.tail != "" {
		msg += "; output tail: " + e.tail
	}
	return msg
}

// IsProcessCrashed reports whether err indicates an unexpected process exit.
func IsProcessCrashed(err error) bool {
	_, ok := err.(processCrashedError)
	return ok
}

// portInUseError signals a bind port already taken by another process.
type portInUseError struct{ addr string }

func (e portInUseError) Error() string {
	return "port already in use: " + e.addr
}

// IsPortInUse reports whether err indicates a failed pre-flight port check
// (return 409).
func IsPortInUse(err error) bool {
	_, ok := err.(portInUseError)
	return ok
}

// startInProgressError signals a concurrent start with a different config
// while an attempt is still resolving (return 409).
type startInProgressError struct{}

func (startInProgressError) Error() string {
	return "another start with a different config is in progress"
}

// IsStartInProgress reports whether err indicates a conflicting concurrent
// start attempt.
func IsStartInProgress(err error) bool {
	_, ok := err.(startInProgressError)
	return ok
}

// notRunningError signals a registry or stop-time operation without a
// running server (return 409).
type notRunningError struct{ op string }

func (e notRunningError) Error() string { return e.op + ": server not running" }

// IsNotRunning reports whether err indicates the server is not running.
func IsNotRunning(err error) bool {
	_, ok := err.(notRunningError)
	return ok
}

// wrongModeError signals a router-only operation against a single-model
// server (return 409).
type wrongModeError struct{ op string }

func (e wrongModeError) Error() string {
	return e.op + ": server is not in router mode"
}

// IsWrongMode reports whether err indicates a mode mismatch.
func IsWrongMode(err error) bool {
	_, ok := err.(wrongModeError)
	return ok
}

// modelNotLoadedError signals a request for a model that is not resident
// and will not be loaded automatically (return 404).
type modelNotLoadedError struct{ id string }

func (e modelNotLoadedError) Error() string { return "model not loaded: " + e.id }

// ErrModelNotLoaded constructs a modelNotLoadedError.
func ErrModelNotLoaded(id string) error { return modelNotLoadedError{id: id} }

// IsModelNotLoaded reports whether err indicates a non-resident model.
func IsModelNotLoaded(err error) bool {
	_, ok := err.(modelNotLoadedError)
	return ok
}

// capacityExceededError signals that the resident cap is reached and no
// idle victim can be evicted (return 429).
type capacityExceededError struct {
	id  string
	max int
}

func (e capacityExceededError) Error() string {
	return fmt.Sprintf("cannot load %s: %d models resident and none evictable", e.id, e.max)
}

// IsCapacityExceeded reports whether err indicates the resident model cap.
func IsCapacityExceeded(err error) bool {
	_, ok := err.(capacityExceededError)
	return ok
}

// binaryNotFoundError signals a missing llama-server executable so the
// HTTP layer can return 503 with install guidance instead of 500.
type binaryNotFoundError struct{ bin string }

func (e binaryNotFoundError) Error() string {
	return e.bin + " not found. Install llama.cpp and make sure " + e.bin +
		" is on PATH (https://github.com/ggml-org/llama.cpp)"
}

// IsBinaryNotFound reports whether err indicates a missing llama-server
// binary.
func IsBinaryNotFound(err error) bool {
	_, ok := err.(binaryNotFoundError)
	return ok
}
