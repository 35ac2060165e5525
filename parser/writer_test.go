package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/c4/model"
)

const writerData = `# Shared actors
persons:
  - id: user
    name: End User # shown on diagrams
    description: Buys things
  - id: admin
    name: Admin
systems:
  - id: api
    name: API System
`

func newLoadedWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	root := writeWorkspace(t, map[string]string{
		ManifestFile:      basicManifest,
		"data/model.yaml": writerData,
		"systems/api/containers.yaml": `
containers:
  - id: web
    name: Web
`,
	})
	l := NewLoader(root, nil)
	_, err := l.Load()
	require.NoError(t, err)
	return NewWriter(l, nil), root
}

func TestFindElementFile(t *testing.T) {
	w, root := newLoadedWriter(t)

	path, err := w.FindElementFile("admin", model.ElementTypePerson)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "data", "model.yaml"), path)

	path, err = w.FindElementFile("web", model.ElementTypeContainer)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "systems", "api", "containers.yaml"), path)

	_, err = w.FindElementFile("web", model.ElementTypePerson)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrElementNotFound), "kind is part of the lookup")

	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "web", we.ElementID)

	_, err = w.FindElementFile("web", model.ElementType("widget"))
	assert.Error(t, err)
}

func TestFindElementFile_ManifestNotLoaded(t *testing.T) {
	w := NewWriter(NewLoader(t.TempDir(), nil), nil)

	_, err := w.FindElementFile("user", model.ElementTypePerson)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrManifestNotLoaded))
}

func TestUpdateElement_OverwritesField(t *testing.T) {
	w, root := newLoadedWriter(t)
	file := filepath.Join(root, "data", "model.yaml")

	require.NoError(t, w.UpdateElement("user", model.ElementTypePerson, map[string]any{
		"name": "Customer",
	}))

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	f, err := ReadFragment(file)
	require.NoError(t, err, "output is still a valid fragment")
	require.Len(t, f.Persons, 2)
	assert.Equal(t, "Customer", f.Persons[0].Name)
	assert.Equal(t, "Buys things", f.Persons[0].Description)
	assert.Equal(t, "Admin", f.Persons[1].Name, "other records unchanged")
	require.Len(t, f.Systems, 1)
	assert.Equal(t, "API System", f.Systems[0].Name)

	assert.Contains(t, string(data), "# Shared actors")
	assert.Contains(t, string(data), "# shown on diagrams")

	m, err := Load(root)
	require.NoError(t, err, "workspace still loads")
	e, ok := m.GetElement("user")
	require.True(t, ok)
	assert.Equal(t, "Customer", e.Base().Name)
}

func TestUpdateElement_AddsNewFields(t *testing.T) {
	w, root := newLoadedWriter(t)

	require.NoError(t, w.UpdateElement("web", model.ElementTypeContainer, map[string]any{
		"description": "Storefront",
		"technology":  "React",
		"tags":        []string{"frontend"},
	}))

	f, err := ReadFragment(filepath.Join(root, "systems", "api", "containers.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Containers, 1)
	c := f.Containers[0]
	assert.Equal(t, "Web", c.Name)
	assert.Equal(t, "Storefront", c.Description)
	assert.Equal(t, model.Technology{"React"}, c.Technology)
	assert.Equal(t, []string{"frontend"}, c.Tags)
}

func TestUpdateElement_NoTempFilesLeft(t *testing.T) {
	w, root := newLoadedWriter(t)
	require.NoError(t, w.UpdateElement("api", model.ElementTypeSystem, map[string]any{"name": "Gateway"}))

	entries, err := os.ReadDir(filepath.Join(root, "data"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "model.yaml", entries[0].Name())
}

func TestUpdateElement_Errors(t *testing.T) {
	w, root := newLoadedWriter(t)
	file := filepath.Join(root, "data", "model.yaml")
	before, err := os.ReadFile(file)
	require.NoError(t, err)

	err = w.UpdateElement("nobody", model.ElementTypePerson, map[string]any{"name": "X"})
	assert.True(t, errors.Is(err, ErrElementNotFound))

	err = w.UpdateElement("user", model.ElementTypeSystem, map[string]any{"name": "X"})
	assert.True(t, errors.Is(err, ErrElementNotFound), "wrong kind")

	after, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed updates leave the file untouched")
}

func TestUpdateElement_MultiDocumentFile(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		ManifestFile: basicManifest,
		"data/model.yaml": `persons:
  - id: user
    name: User
---
# second document
systems:
  - id: other
    name: Other
`,
	})
	l := NewLoader(root, nil)
	m, err := l.Load()
	require.NoError(t, err)
	assert.True(t, m.HasElement("other"), "later documents are loaded")
	w := NewWriter(l, nil)

	require.NoError(t, w.UpdateElement("user", model.ElementTypePerson, map[string]any{"name": "X"}))
	require.NoError(t, w.UpdateElement("other", model.ElementTypeSystem, map[string]any{"name": "Y"}))

	data, err := os.ReadFile(filepath.Join(root, "data", "model.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "---")
	assert.Contains(t, string(data), "# second document")

	docs, err := decodeDocuments(data)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	f, err := ReadFragment(filepath.Join(root, "data", "model.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Persons, 1)
	require.Len(t, f.Systems, 1)
	assert.Equal(t, "X", f.Persons[0].Name)
	assert.Equal(t, "Y", f.Systems[0].Name)
}

func TestUpdateInDocuments(t *testing.T) {
	parse := func(t *testing.T, src string) []*yaml.Node {
		t.Helper()
		docs, err := decodeDocuments([]byte(src))
		require.NoError(t, err)
		return docs
	}

	_, err := decodeDocuments([]byte(""))
	require.NoError(t, err)
	err = updateInDocuments(nil, "user", "persons", map[string]any{"name": "X"})
	assert.True(t, errors.Is(err, ErrUnexpectedShape), "empty file")

	docs := parse(t, `systems: []
---
persons:
  - id: other
`)
	err = updateInDocuments(docs, "user", "persons", map[string]any{"name": "X"})
	assert.True(t, errors.Is(err, ErrElementNotFound), "got %v", err)

	docs = parse(t, `persons: nobody
---
systems: []
`)
	err = updateInDocuments(docs, "user", "persons", map[string]any{"name": "X"})
	assert.True(t, errors.Is(err, ErrUnexpectedShape), "got %v", err)
}

func TestUpdateInTree_Shapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"root sequence", "- a\n- b\n", ErrUnexpectedShape},
		{"collection missing", "systems: []\n", ErrElementNotFound},
		{"collection scalar", "persons: nobody\n", ErrUnexpectedShape},
		{"id missing", "persons:\n  - id: other\n", ErrElementNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc yaml.Node
			require.NoError(t, yaml.Unmarshal([]byte(tt.doc), &doc))
			err := updateInTree(&doc, "user", "persons", map[string]any{"name": "X"})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
