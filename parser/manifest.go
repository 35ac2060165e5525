// Package parser loads a C4 workspace from disk, resolves references across
// the merged model, and writes single-field edits back to fragment files.
package parser

import (
	"path/filepath"
	"strings"

	"github.com/c360studio/c4/model"
)

// ManifestFile is the name of the workspace manifest at the root directory.
const ManifestFile = "c4.mod.yaml"

// Manifest is the workspace root file naming the model and its fragments.
type Manifest struct {
	Version string            `yaml:"version" json:"version"`
	Name    string            `yaml:"name" json:"name"`
	Schema  string            `yaml:"schema,omitempty" json:"schema,omitempty"`
	Include []string          `yaml:"include,omitempty" json:"include,omitempty"`
	Imports map[string]Import `yaml:"imports,omitempty" json:"imports,omitempty"`
	Options map[string]any    `yaml:"options,omitempty" json:"options,omitempty"`
}

// Import declares an external model source. Imports are carried through
// unprocessed.
type Import struct {
	Source string `yaml:"source" json:"source"`
	Ref    string `yaml:"ref,omitempty" json:"ref,omitempty"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Fragment is the typed view of one included YAML file. Any subset of the
// collections may be present.
type Fragment struct {
	Persons       []model.Person         `yaml:"persons,omitempty"`
	Systems       []model.SoftwareSystem `yaml:"systems,omitempty"`
	Containers    []model.Container      `yaml:"containers,omitempty"`
	Components    []model.Component      `yaml:"components,omitempty"`
	Relationships []model.Relationship   `yaml:"relationships,omitempty"`
	Flows         []model.Flow           `yaml:"flows,omitempty"`
	Deployments   []model.Deployment     `yaml:"deployments,omitempty"`
}

func (f *Fragment) append(o *Fragment) {
	f.Persons = append(f.Persons, o.Persons...)
	f.Systems = append(f.Systems, o.Systems...)
	f.Containers = append(f.Containers, o.Containers...)
	f.Components = append(f.Components, o.Components...)
	f.Relationships = append(f.Relationships, o.Relationships...)
	f.Flows = append(f.Flows, o.Flows...)
	f.Deployments = append(f.Deployments, o.Deployments...)
}

// Contains reports whether the fragment declares an element of kind t with
// the given bare id.
func (f *Fragment) Contains(id string, t model.ElementType) bool {
	switch t {
	case model.ElementTypePerson:
		for i := range f.Persons {
			if f.Persons[i].ID == id {
				return true
			}
		}
	case model.ElementTypeSystem:
		for i := range f.Systems {
			if f.Systems[i].ID == id {
				return true
			}
		}
	case model.ElementTypeContainer:
		for i := range f.Containers {
			if f.Containers[i].ID == id {
				return true
			}
		}
	case model.ElementTypeComponent:
		for i := range f.Components {
			if f.Components[i].ID == id {
				return true
			}
		}
	}
	return false
}

// FileContext is the hierarchy context inferred from a fragment's location.
type FileContext struct {
	FilePath    string
	SystemID    string
	ContainerID string
}

// ContextFromPath infers hierarchy context from path relative to rootDir.
// The segment following the first "systems" segment becomes SystemID.
// ContainerID is never inferred; components must name their container.
func ContextFromPath(rootDir, path string) FileContext {
	ctx := FileContext{FilePath: path}

	rel, err := filepath.Rel(rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ctx
	}

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for i, seg := range segments {
		if seg == "systems" && i+1 < len(segments) {
			ctx.SystemID = segments[i+1]
			break
		}
	}
	return ctx
}
