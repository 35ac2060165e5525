package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/c4/model"
)

// Loader reads a workspace manifest and its fragments into a Model.
//
// A Loader is bound to one root directory. Load may be called repeatedly;
// each call produces a fresh Model. A Loader is not safe for concurrent Load
// calls.
type Loader struct {
	rootDir  string
	logger   *slog.Logger
	manifest *Manifest
	errors   []*FragmentError
}

// NewLoader creates a loader for the workspace at rootDir.
func NewLoader(rootDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{rootDir: rootDir, logger: logger}
}

// Load is shorthand for NewLoader(rootDir, nil).Load().
func Load(rootDir string) (*model.Model, error) {
	return NewLoader(rootDir, nil).Load()
}

// RootDir returns the workspace root directory.
func (l *Loader) RootDir() string { return l.rootDir }

// Manifest returns the manifest read by the last Load or LoadManifest, or nil.
func (l *Loader) Manifest() *Manifest { return l.manifest }

// Errors returns the fragment errors recorded by the last Load.
func (l *Loader) Errors() []*FragmentError { return l.errors }

// Load reads the manifest, every included fragment, and builds the model
// indices. Any fragment error fails the whole load with a *LoadError; a
// manifest failure returns a *ManifestError; a duplicate full path returns
// the *model.DuplicateElementError from BuildIndexes.
//
// Include patterns are expanded in manifest order. A file matched by more
// than one pattern is loaded once, at its first match, so overlapping
// patterns never cause duplicate-element errors on their own.
func (l *Loader) Load() (*model.Model, error) {
	l.errors = nil

	if err := l.LoadManifest(filepath.Join(l.rootDir, ManifestFile)); err != nil {
		return nil, err
	}

	m := model.New()
	seen := make(map[string]bool)
	files := 0

	for _, pattern := range l.manifest.Include {
		matches, err := l.FindFiles(pattern)
		if err != nil {
			l.errors = append(l.errors, &FragmentError{
				File: pattern,
				Err:  fmt.Errorf("%w: expand pattern: %v", ErrInvalidFragment, err),
			})
			continue
		}
		if len(matches) == 0 {
			l.logger.Debug("Include pattern matched no files", "pattern", pattern)
		}

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			files++
			l.loadFragment(m, path)
		}
	}

	if len(l.errors) > 0 {
		l.logger.Debug("Workspace load failed",
			"root", l.rootDir,
			"errors", len(l.errors))
		return nil, &LoadError{Errors: l.errors}
	}

	for k, v := range l.manifest.Options {
		m.Options[k] = v
	}

	if err := m.BuildIndexes(); err != nil {
		return nil, err
	}

	stats := m.Stats()
	l.logger.Info("Loaded workspace",
		"name", l.manifest.Name,
		"files", files,
		"persons", stats.Persons,
		"systems", stats.Systems,
		"containers", stats.Containers,
		"components", stats.Components,
		"relationships", stats.Relationships)

	return m, nil
}

// LoadManifest reads and validates the manifest at path.
func (l *Loader) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ManifestError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}

	var mf Manifest
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return &ManifestError{Path: path, Err: fmt.Errorf("invalid YAML: %w", err)}
	}
	if mf.Version == "" {
		return &ManifestError{Path: path, Err: errors.New("missing version field")}
	}
	if mf.Name == "" {
		return &ManifestError{Path: path, Err: errors.New("missing name field")}
	}

	l.manifest = &mf
	return nil
}

// FindFiles expands an include pattern and returns the matching file paths.
// Relative patterns are joined onto the root directory, so "../shared/*.yaml"
// reaches outside it; absolute patterns are used as is. "**" matches any
// number of directories. Only regular files are returned.
func (l *Loader) FindFiles(pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, fmt.Errorf("glob %q: %w", pattern, doublestar.ErrBadPattern)
	}

	full := filepath.FromSlash(pattern)
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.rootDir, full)
	}

	matches, err := doublestar.FilepathGlob(full, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	return matches, nil
}

// ReadFragment parses one fragment file into its typed form. A file with
// several YAML documents yields their collections concatenated in document
// order.
func ReadFragment(path string) (*Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrInvalidFragment, err)
	}

	var f Fragment
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for doc := 1; ; doc++ {
		var part Fragment
		if err := dec.Decode(&part); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: invalid YAML (document %d): %v", ErrInvalidFragment, doc, err)
		}
		f.append(&part)
	}
	return &f, nil
}

// loadFragment appends the records of one file to m. Bad records are dropped
// individually and recorded as fragment errors.
func (l *Loader) loadFragment(m *model.Model, path string) {
	f, err := ReadFragment(path)
	if err != nil {
		l.errors = append(l.errors, &FragmentError{File: path, Err: err})
		return
	}

	ctx := ContextFromPath(l.rootDir, path)
	l.logger.Debug("Loading fragment", "path", path, "system", ctx.SystemID)

	drop := func(id string, cause error) {
		l.errors = append(l.errors, &FragmentError{File: path, ElementID: id, Err: cause})
	}

	for _, p := range f.Persons {
		if p.ID == "" {
			drop("", fmt.Errorf("person %q: %w", p.Name, ErrMissingID))
			continue
		}
		p.ElementType = model.ElementTypePerson
		m.Persons = append(m.Persons, p)
	}

	for _, s := range f.Systems {
		if s.ID == "" {
			drop("", fmt.Errorf("system %q: %w", s.Name, ErrMissingID))
			continue
		}
		s.ElementType = model.ElementTypeSystem
		m.Systems = append(m.Systems, s)
	}

	for _, c := range f.Containers {
		if c.ID == "" {
			drop("", fmt.Errorf("container %q: %w", c.Name, ErrMissingID))
			continue
		}
		c.ElementType = model.ElementTypeContainer
		if c.SystemID == "" {
			c.SystemID = ctx.SystemID
		}
		if c.SystemID == "" {
			drop(c.ID, fmt.Errorf("container has no system context: %w", ErrMissingContext))
			continue
		}
		m.Containers = append(m.Containers, c)
	}

	for _, c := range f.Components {
		if c.ID == "" {
			drop("", fmt.Errorf("component %q: %w", c.Name, ErrMissingID))
			continue
		}
		c.ElementType = model.ElementTypeComponent
		if c.SystemID == "" {
			c.SystemID = ctx.SystemID
		}
		if c.ContainerID == "" {
			c.ContainerID = ctx.ContainerID
		}
		if c.SystemID == "" || c.ContainerID == "" {
			drop(c.ID, fmt.Errorf("component missing system/container context: %w", ErrMissingContext))
			continue
		}
		m.Components = append(m.Components, c)
	}

	m.Relationships = append(m.Relationships, f.Relationships...)
	m.Flows = append(m.Flows, f.Flows...)
	m.Deployments = append(m.Deployments, f.Deployments...)
}
