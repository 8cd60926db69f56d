package supervisor

// Event represents a supervisor lifecycle event.
// Minimal and stable: name + model ID and optional fields via key/values.
type Event struct {
	Name    string
	ModelID string
	Fields  map[string]any
}

// Event names published by the supervisor.
const (
	EventServerStarting = "server_starting"
	EventServerReady    = "server_ready"
	EventServerReused   = "server_reused"
	EventServerStopped  = "server_stopped"
	EventServerFailed   = "server_failed"
	EventServerCrashed  = "server_crashed"
	EventModelLoaded    = "model_loaded"
	EventModelUnloaded  = "model_unloaded"
	EventModelEvicted   = "model_evicted"
	EventOrphanKilled   = "orphan_killed"
)

// EventPublisher receives events from the supervisor. Implementations
// should be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
