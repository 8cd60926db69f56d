package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by flag defaults in the
// serve command.
type Config struct {
	Addr                 string   `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir            string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LlamaBin             string   `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	LogLevel             string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	PromptTimeoutSeconds int64    `json:"prompt_timeout_seconds" yaml:"prompt_timeout_seconds" toml:"prompt_timeout_seconds"`
	MaxBodyBytes         int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	GraceSeconds         int      `json:"grace_seconds" yaml:"grace_seconds" toml:"grace_seconds"`
	DrainSeconds         int      `json:"drain_seconds" yaml:"drain_seconds" toml:"drain_seconds"`
	CORSEnabled          bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins          []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
