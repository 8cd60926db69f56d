package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llamactl/internal/common/fsutil"
	"llamactl/internal/config"
	"llamactl/internal/httpapi"
	"llamactl/internal/llamaclient"
	"llamactl/internal/registry"
	"llamactl/internal/supervisor"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "llamactl:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "llamactl",
		Short:         "Supervise a local llama-server and expose a management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSweepCmd(), newVersionCmd())
	return root
}

func newServeCmd() *cobra.Command {
	// Flags with environment variable defaults
	defaultAddr := ":8090"
	if v := os.Getenv("LLAMACTL_ADDR"); v != "" {
		defaultAddr = v
	}

	var (
		cfgPath string
		flags   config.Config
		corsCSV string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and supervise llama-server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags
			cfg.CORSOrigins = splitCSV(corsCSV)
			if cfgPath != "" {
				fileCfg, err := config.Load(cfgPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = mergeConfig(fileCfg, cfg, cmd)
			}
			return runServe(cfg)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "Path to a YAML, JSON or TOML config file")
	cmd.Flags().StringVar(&flags.Addr, "addr", defaultAddr, "HTTP listen address, e.g. :8090 (defaults LLAMACTL_ADDR)")
	cmd.Flags().StringVar(&flags.ModelsDir, "models-dir", "~/models/LLM/gguf", "Directory to scan for *.gguf model files")
	cmd.Flags().StringVar(&flags.LlamaBin, "llama-bin", "", "llama-server binary name or path (default: resolved from PATH)")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug|info|warn|error")
	cmd.Flags().Int64Var(&flags.PromptTimeoutSeconds, "prompt-timeout", 0, "Per-prompt timeout in seconds (0=none)")
	cmd.Flags().Int64Var(&flags.MaxBodyBytes, "max-body-bytes", 1<<20, "Maximum accepted request body size in bytes")
	cmd.Flags().IntVar(&flags.GraceSeconds, "grace-seconds", 5, "Seconds a stopping llama-server gets before it is killed")
	cmd.Flags().IntVar(&flags.DrainSeconds, "drain-seconds", 5, "Seconds an unload waits for in-flight prompts to finish")
	cmd.Flags().BoolVar(&flags.CORSEnabled, "cors", false, "Enable CORS for browser frontends")
	cmd.Flags().StringVar(&corsCSV, "cors-origins", "", "Comma-separated allowed CORS origins (empty=any)")
	return cmd
}

// mergeConfig overlays file values onto flag values. A flag the user set
// explicitly wins over the file; otherwise a non-zero file value wins over
// the flag default.
func mergeConfig(file, flags config.Config, cmd *cobra.Command) config.Config {
	out := flags
	changed := cmd.Flags().Changed
	if !changed("addr") && file.Addr != "" {
		out.Addr = file.Addr
	}
	if !changed("models-dir") && file.ModelsDir != "" {
		out.ModelsDir = file.ModelsDir
	}
	if !changed("llama-bin") && file.LlamaBin != "" {
		out.LlamaBin = file.LlamaBin
	}
	if !changed("log-level") && file.LogLevel != "" {
		out.LogLevel = file.LogLevel
	}
	if !changed("prompt-timeout") && file.PromptTimeoutSeconds != 0 {
		out.PromptTimeoutSeconds = file.PromptTimeoutSeconds
	}
	if !changed("max-body-bytes") && file.MaxBodyBytes != 0 {
		out.MaxBodyBytes = file.MaxBodyBytes
	}
	if !changed("grace-seconds") && file.GraceSeconds != 0 {
		out.GraceSeconds = file.GraceSeconds
	}
	if !changed("drain-seconds") && file.DrainSeconds != 0 {
		out.DrainSeconds = file.DrainSeconds
	}
	if !changed("cors") && file.CORSEnabled {
		out.CORSEnabled = true
	}
	if !changed("cors-origins") && len(file.CORSOrigins) > 0 {
		out.CORSOrigins = file.CORSOrigins
	}
	return out
}

func runServe(cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)

	modelsDir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("resolve models dir: %w", err)
	}

	scanner := registry.NewGGUFScanner()
	if models, err := scanner.Scan(modelsDir); err != nil {
		logger.Warn().Err(err).Str("dir", modelsDir).Msg("model scan failed")
	} else {
		logger.Info().Int("count", len(models)).Str("dir", modelsDir).Msg("local models discovered")
	}

	client := llamaclient.New(logger)
	sup := supervisor.New(supervisor.Config{
		Binary:       cfg.LlamaBin,
		GraceTimeout: time.Duration(cfg.GraceSeconds) * time.Second,
		DrainTimeout: time.Duration(cfg.DrainSeconds) * time.Second,
		Client:       client,
		Scanner:      scanner,
		Logger:       logger,
	})

	// Reclaim llama-server processes a previous run left behind.
	if n := sup.SweepOrphans(context.Background()); n > 0 {
		logger.Info().Int("count", n).Msg("swept orphaned llama-server processes")
	}

	notifier := &signalNotifier{}
	sup.RegisterCleanup(notifier)

	// Streaming prompts hang off this context; cancelling it lets
	// srv.Shutdown finish instead of waiting out open streams.
	baseCtx, cancelStreams := context.WithCancel(context.Background())
	defer cancelStreams()

	httpapi.SetLogger(logger)
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetPromptTimeoutSeconds(cfg.PromptTimeoutSeconds)
	if cfg.CORSEnabled {
		httpapi.SetCORSOptions(true, cfg.CORSOrigins,
			[]string{"GET", "POST", "OPTIONS"},
			[]string{"Accept", "Content-Type", "X-Log-Level"})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Service:   sup,
		Catalog:   scanner,
		Chat:      client,
		ModelsDir: modelsDir,
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("models_dir", modelsDir).Msg("llamactl listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	cancelStreams()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	notifier.fire()
	return nil
}

// signalNotifier collects shutdown hooks and runs them once the serve
// loop is past HTTP shutdown.
type signalNotifier struct{ hooks []func() }

func (n *signalNotifier) OnShutdown(f func()) { n.hooks = append(n.hooks, f) }

func (n *signalNotifier) fire() {
	for _, f := range n.hooks {
		f()
	}
}

func newSweepCmd() *cobra.Command {
	var llamaBin string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Kill orphaned llama-server processes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			sup := supervisor.New(supervisor.Config{
				Binary: llamaBin,
				Logger: newLogger("info"),
			})
			n := sup.SweepOrphans(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "swept %d orphaned process(es)\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&llamaBin, "llama-bin", "", "llama-server binary name or path (default: resolved from PATH)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the llamactl version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "llamactl", version)
		},
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// splitCSV splits a comma-separated flag value, trimming whitespace and
// dropping empty entries. Returns nil for an empty input.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
