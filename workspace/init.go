// Package workspace scaffolds new C4 workspaces.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/c4/parser"
)

// DefaultName is used when Init is given no workspace name.
const DefaultName = "my-architecture"

// ErrAlreadyInitialized is returned when the directory already has a manifest.
var ErrAlreadyInitialized = errors.New("workspace already initialized (c4.mod.yaml exists)")

// DefaultInclude is the include list written into new manifests.
var DefaultInclude = []string{
	"shared/*.yaml",
	"systems/*/system.yaml",
	"systems/*/containers.yaml",
	"systems/*/relationships.yaml",
	"systems/*/flows/*.yaml",
	"deployments/*.yaml",
}

// Options controls what Init creates.
type Options struct {
	// Name is the workspace name; DefaultName if empty.
	Name string
	// Minimal creates only the manifest, _schema and shared.
	Minimal bool
	// Example writes a sample model. Ignored when Minimal is set.
	Example bool
	Logger  *slog.Logger
}

// Result lists what Init created, relative to the workspace directory.
type Result struct {
	Name  string
	Dirs  []string
	Files []string
}

// Init creates a workspace in dir. It refuses to touch a directory that
// already contains a manifest.
func Init(dir string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	manifestPath := filepath.Join(dir, parser.ManifestFile)
	if _, err := os.Stat(manifestPath); err == nil {
		return nil, ErrAlreadyInitialized
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat manifest: %w", err)
	}

	res := &Result{Name: name}

	dirs := []string{"_schema", "shared"}
	if !opts.Minimal {
		dirs = append(dirs, "systems/example", "deployments")
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, filepath.FromSlash(d)), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", d, err)
		}
		res.Dirs = append(res.Dirs, d)
	}

	manifest, err := yaml.Marshal(&parser.Manifest{
		Version: "1.0",
		Name:    name,
		Include: DefaultInclude,
	})
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, manifest, 0644); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", parser.ManifestFile, err)
	}
	res.Files = append(res.Files, parser.ManifestFile)

	if !opts.Minimal && opts.Example {
		for _, f := range exampleFiles {
			path := filepath.Join(dir, filepath.FromSlash(f.path))
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory for %s: %w", f.path, err)
			}
			if err := os.WriteFile(path, []byte(f.content), 0644); err != nil {
				return nil, fmt.Errorf("failed to create %s: %w", f.path, err)
			}
			res.Files = append(res.Files, f.path)
		}
	}

	logger.Info("Initialized workspace",
		"name", name,
		"dir", dir,
		"files", len(res.Files))
	return res, nil
}
