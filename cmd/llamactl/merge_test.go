package main

import (
	"testing"

	"llamactl/internal/config"
)

func TestMergeConfigPrecedence(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.Flags().Set("addr", ":7777"); err != nil { t.Fatalf("set addr: %v", err) }
	if err := cmd.Flags().Set("cors", "true"); err != nil { t.Fatalf("set cors: %v", err) }

	flags := config.Config{Addr: ":7777", ModelsDir: "~/models/LLM/gguf", LogLevel: "info", CORSEnabled: true}
	file := config.Config{Addr: ":9999", ModelsDir: "/srv/models", PromptTimeoutSeconds: 90, GraceSeconds: 10}

	got := mergeConfig(file, flags, cmd)
	// Explicitly set flags win over the file.
	if got.Addr != ":7777" { t.Fatalf("addr = %q, want :7777", got.Addr) }
	if !got.CORSEnabled { t.Fatalf("cors should stay enabled") }
	// File values replace untouched flag defaults.
	if got.ModelsDir != "/srv/models" { t.Fatalf("models dir = %q, want /srv/models", got.ModelsDir) }
	if got.PromptTimeoutSeconds != 90 { t.Fatalf("prompt timeout = %d, want 90", got.PromptTimeoutSeconds) }
	if got.GraceSeconds != 10 { t.Fatalf("grace = %d, want 10", got.GraceSeconds) }
	// Fields the file leaves at zero keep the flag default.
	if got.LogLevel != "info" { t.Fatalf("log level = %q, want info", got.LogLevel) }
}

func TestMergeConfigFileOnly(t *testing.T) {
	cmd := newServeCmd()
	flags := config.Config{Addr: ":8090", LogLevel: "info"}
	file := config.Config{Addr: ":9000", LogLevel: "debug", CORSEnabled: true, CORSOrigins: []string{"http://localhost:5173"}}

	got := mergeConfig(file, flags, cmd)
	if got.Addr != ":9000" { t.Fatalf("addr = %q, want :9000", got.Addr) }
	if got.LogLevel != "debug" { t.Fatalf("log level = %q, want debug", got.LogLevel) }
	if !got.CORSEnabled { t.Fatalf("cors should be enabled from file") }
	if len(got.CORSOrigins) != 1 || got.CORSOrigins[0] != "http://localhost:5173" { t.Fatalf("origins = %v", got.CORSOrigins) }
}
