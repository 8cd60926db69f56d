package supervisor

import (
	"time"

	"github.com/rs/zerolog"

	"llamactl/internal/llamaclient"
)

// DefaultStartTimeout bounds readiness waiting when the caller does not
// choose a timeout of its own.
const DefaultStartTimeout = 60 * time.Second

// Defaults applied when corresponding Config fields are unset.
const (
	defaultProbeInterval = 1 * time.Second
	defaultGraceTimeout  = 5 * time.Second
	defaultKillTimeout   = 3 * time.Second
	defaultDrainTimeout  = 5 * time.Second
)

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	// Binary is the llama-server executable: a bare name resolved via
	// PATH or an explicit path. Empty picks the platform default.
	Binary string
	// ProbeInterval is the pause between readiness probes.
	ProbeInterval time.Duration
	// GraceTimeout is how long a terminated process gets to exit before
	// it is killed.
	GraceTimeout time.Duration
	// KillTimeout is how long to wait for the exit to be confirmed after
	// a kill.
	KillTimeout time.Duration
	// DrainTimeout is how long an explicit unload waits for in-flight
	// requests on the model to finish.
	DrainTimeout time.Duration

	// Launcher spawns processes; nil uses exec.Command.
	Launcher Launcher
	// Lister enumerates candidate orphan processes; nil uses the
	// platform default.
	Lister ProcessLister
	// Client talks to the managed server; nil builds one.
	Client *llamaclient.Client
	// Scanner validates router-mode model directories; nil skips the
	// non-empty check and only requires the directory to exist.
	Scanner ModelScanner

	Logger    zerolog.Logger
	Publisher EventPublisher
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = defaultBinaryName()
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = defaultProbeInterval
	}
	if c.GraceTimeout <= 0 {
		c.GraceTimeout = defaultGraceTimeout
	}
	if c.KillTimeout <= 0 {
		c.KillTimeout = defaultKillTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Launcher == nil {
		c.Launcher = NewExecLauncher(c.Logger)
	}
	if c.Lister == nil {
		c.Lister = newPlatformLister()
	}
	if c.Client == nil {
		c.Client = llamaclient.New(c.Logger)
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
