package supervisor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"llamactl/internal/llamaclient"
	"llamactl/pkg/types"
)

// Supervisor manages at most one llama-server process. All mutating
// operations are serialized on opMu; mu guards the snapshot fields so
// Status never waits behind a slow launch or teardown.
type Supervisor struct {
	cfg       Config
	log       zerolog.Logger
	client    *llamaclient.Client
	publisher EventPublisher

	// opMu serializes EnsureStarted, Stop, SweepOrphans and registry
	// mutations end to end.
	opMu sync.Mutex

	// mu guards everything below. Hold it only for short sections; no
	// I/O under mu.
	mu       sync.RWMutex
	state    State
	active   *types.ServerConfig
	fp       Fingerprint
	proc     Proc
	endpoint string
	readyAt  time.Time
	lastErr  string
	attempt  *startAttempt
	router   *modelRegistry

	closeOnce sync.Once
}

// New constructs a Supervisor, applying package defaults for unset
// Config fields.
func New(cfg Config) *Supervisor {
	cfg = cfg.withDefaults()
	return &Supervisor{
		cfg:       cfg,
		log:       cfg.Logger,
		client:    cfg.Client,
		publisher: cfg.Publisher,
		state:     StateStopped,
	}
}

// Endpoint returns the base URL of the managed server and whether one
// is currently running.
func (s *Supervisor) Endpoint() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint, s.state == StateRunning
}

// State returns the current lifecycle state without probing anything.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Mode reports the mode of the active config, or "" when none is held.
func (s *Supervisor) Mode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ""
	}
	return s.active.Mode()
}

func (s *Supervisor) publish(e Event) {
	if s.publisher != nil {
		s.publisher.Publish(e)
	}
}
