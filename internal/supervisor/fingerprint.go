package supervisor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"llamactl/pkg/types"
)

// Fingerprint identifies a normalized launch config. Two configs with
// equal fingerprints render identical llama-server command lines, so a
// healthy server started from one satisfies a request for the other.
type Fingerprint string

// Short returns a log-friendly prefix of the fingerprint.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// normalizeConfig canonicalizes a config so that spellings of "use the
// default" collide: defaults are filled in, mode-irrelevant fields are
// cleared, and negative counts fall back to auto.
func normalizeConfig(cfg types.ServerConfig) types.ServerConfig {
	if cfg.Host == "" {
		cfg.Host = types.DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = types.DefaultPort
	}
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = types.DefaultContextSize
	}
	if cfg.Threads < 0 {
		cfg.Threads = 0
	}
	if cfg.BatchSize < 0 {
		cfg.BatchSize = 0
	}
	cfg.TensorSplit = strings.TrimSpace(cfg.TensorSplit)
	if cfg.Router {
		cfg.ModelPath = ""
		cfg.ProjPath = ""
		if cfg.MaxModels <= 0 {
			cfg.MaxModels = types.DefaultMaxModels
		}
	} else {
		cfg.ModelsDir = ""
		cfg.MaxModels = 0
		cfg.Autoload = false
	}
	return cfg
}

// FingerprintOf normalizes cfg and hashes every launch-relevant field.
// Sampling parameters never feed the fingerprint: they vary per request
// and must not force a restart.
func FingerprintOf(cfg types.ServerConfig) Fingerprint {
	n := normalizeConfig(cfg)
	var b strings.Builder
	field := func(k, v string) {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
		b.WriteByte('\n')
	}
	field("mode", n.Mode())
	field("model", n.ModelPath)
	field("proj", n.ProjPath)
	field("models_dir", n.ModelsDir)
	field("host", n.Host)
	field("port", strconv.Itoa(n.Port))
	field("ctx", strconv.Itoa(n.ContextSize))
	field("ngl", strconv.Itoa(n.GPULayers))
	field("main_gpu", strconv.Itoa(n.MainGPU))
	field("tensor_split", n.TensorSplit)
	field("threads", strconv.Itoa(n.Threads))
	field("batch", strconv.Itoa(n.BatchSize))
	field("flash_attn", strconv.FormatBool(n.FlashAttention))
	field("no_mmap", strconv.FormatBool(n.NoMmap))
	field("models_max", strconv.Itoa(n.MaxModels))
	field("autoload", strconv.FormatBool(n.Autoload))
	sum := sha256.Sum256([]byte(b.String()))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// commandArgs renders the argv for a normalized config. Every flag here
// must feed FingerprintOf, otherwise two different launches could be
// mistaken for each other.
func commandArgs(n types.ServerConfig) []string {
	var args []string
	if n.Router {
		args = append(args, "--models", n.ModelsDir)
	} else {
		args = append(args, "-m", n.ModelPath)
		if n.ProjPath != "" {
			args = append(args, "--mmproj", n.ProjPath)
		}
	}
	args = append(args,
		"--host", n.Host,
		"--port", strconv.Itoa(n.Port),
		"-c", strconv.Itoa(n.ContextSize),
		"-ngl", strconv.Itoa(n.GPULayers),
		"--main-gpu", strconv.Itoa(n.MainGPU),
	)
	if n.TensorSplit != "" {
		args = append(args, "--tensor-split", n.TensorSplit)
	}
	if n.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(n.Threads))
	}
	if n.BatchSize > 0 {
		args = append(args, "-b", strconv.Itoa(n.BatchSize))
	}
	if n.FlashAttention {
		args = append(args, "-fa")
	}
	if n.NoMmap {
		args = append(args, "--no-mmap")
	}
	if n.Router {
		args = append(args, "--models-max", strconv.Itoa(n.MaxModels))
		if !n.Autoload {
			args = append(args, "--no-models-autoload")
		}
	}
	return args
}
