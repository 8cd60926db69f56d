// Package supervisor owns the lifecycle of a single local llama-server
// process: reuse-or-restart decisions, readiness probing, graceful
// shutdown and, in router mode, the resident model registry. It is
// structured into small files by concern:
//
//   - supervisor.go: core Supervisor type, constructor, simple getters.
//   - config.go: Config tunables and package defaults; New applies defaults.
//   - types.go: lifecycle states, StartResult, start attempt bookkeeping.
//   - errors.go: error types and helpers (IsConfigInvalid, IsPortInUse, ...).
//   - fingerprint.go: config normalization, fingerprinting and argv building.
//   - ensure.go: EnsureStarted (reuse, restart, launch, probe, join).
//   - stop.go: Stop and process teardown.
//   - status.go: Status snapshot with lazy crash detection.
//   - probe.go: readiness polling against /health.
//   - process.go: Launcher/Proc abstraction and the exec-backed launcher.
//   - process_unix.go / process_windows.go: process-group kill and the
//     kill-on-close job object.
//   - router.go: resident model registry with LRU eviction (router mode).
//   - orphans.go: orphan discovery/kill via the ProcessLister capability.
//   - proclist_linux.go / proclist_other.go / proclist_windows.go: default
//     ProcessLister per platform.
//   - shutdown.go: Close and host shutdown-hook registration.
//   - events.go / eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus counters and gauges.
//
// External packages should treat this package as the orchestration layer
// and use public methods only (EnsureStarted, Stop, Status, SweepOrphans,
// the model registry operations and Close). Internal types are subject to
// change.
package supervisor
