// Package registry discovers GGUF model files on disk.
//
// A models directory holds plain *.gguf files and, for vision models,
// subdirectories bundling a primary model with an mmproj projector:
//
//	models/LLM/gguf/tinyllama-q4.gguf
//	models/LLM/gguf/qwen2.5-vl/qwen2.5-vl-7b-q4_k_m.gguf
//	models/LLM/gguf/qwen2.5-vl/mmproj-F16.gguf
//
// Plain files are identified by file name, bundles by directory name.
// mmproj files never appear as models in their own right.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"llamactl/internal/common/fsutil"
	"llamactl/pkg/types"
)

// minModelSize rejects files too small to be a real GGUF model.
const minModelSize = 1 << 20

// Scanner discovers models in a directory tree one level deep.
type Scanner struct{}

// NewGGUFScanner returns a scanner for *.gguf model files.
func NewGGUFScanner() *Scanner {
	return &Scanner{}
}

// Scan lists the models under dir, sorted by ID. A leading '~' in dir
// is expanded to the user's home directory.
func (s *Scanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			if m, ok := scanBundle(filepath.Join(abs, e.Name())); ok {
				m.ID = e.Name()
				m.Name = e.Name()
				models = append(models, m)
			}
			continue
		}
		name := e.Name()
		if !isGGUF(name) || isProjector(name) {
			continue
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      strings.TrimSuffix(name, filepath.Ext(name)),
			Path:      filepath.Join(abs, name),
			SizeBytes: fsutil.FileSize(filepath.Join(abs, name)),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// Resolve maps a user-supplied model reference to a discovered model.
// The reference may be a model ID from Scan, a file name with or
// without the .gguf extension, or an absolute path.
func (s *Scanner) Resolve(dir, ref string) (types.Model, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return types.Model{}, fmt.Errorf("no model specified")
	}
	if filepath.IsAbs(ref) {
		if !fsutil.PathExists(ref) {
			return types.Model{}, fmt.Errorf("model not found: %s", ref)
		}
		return types.Model{
			ID:        filepath.Base(ref),
			Name:      strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref)),
			Path:      ref,
			SizeBytes: fsutil.FileSize(ref),
		}, nil
	}
	models, err := s.Scan(dir)
	if err != nil {
		return types.Model{}, err
	}
	for _, m := range models {
		if m.ID == ref || m.ID == ref+".gguf" || strings.TrimSuffix(m.ID, ".gguf") == ref {
			return m, nil
		}
	}
	return types.Model{}, fmt.Errorf("model not found: %s (expected location: %s)", ref, dir)
}

// Validate checks that a resolved model points at a plausible GGUF
// file: present, the right extension and at least 1 MiB.
func (s *Scanner) Validate(m types.Model) error {
	if m.Path == "" {
		return fmt.Errorf("no model specified")
	}
	if !isGGUF(m.Path) {
		return fmt.Errorf("model must be a .gguf file: %s", m.ID)
	}
	if !fsutil.PathExists(m.Path) {
		return fmt.Errorf("model not found: %s", m.Path)
	}
	if size := fsutil.FileSize(m.Path); size < minModelSize {
		return fmt.Errorf("model file appears too small (%d bytes): %s", size, m.ID)
	}
	return nil
}

// scanBundle inspects a model subdirectory. The largest non-projector
// gguf becomes the primary file; an mmproj file, when present, marks
// the bundle as a vision model.
func scanBundle(dir string) (types.Model, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.Model{}, false
	}
	var m types.Model
	for _, e := range entries {
		if e.IsDir() || !isGGUF(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if isProjector(e.Name()) {
			if m.ProjPath == "" {
				m.ProjPath = p
			}
			continue
		}
		if size := fsutil.FileSize(p); size > m.SizeBytes {
			m.Path = p
			m.SizeBytes = size
		}
	}
	if m.Path == "" {
		return types.Model{}, false
	}
	m.Vision = m.ProjPath != ""
	return m, true
}

func isGGUF(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".gguf")
}

func isProjector(name string) bool {
	return strings.Contains(strings.ToLower(filepath.Base(name)), "mmproj")
}
