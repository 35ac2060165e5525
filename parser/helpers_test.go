package parser

import (
	"os"
	"path/filepath"
	"testing"
)

// writeWorkspace creates files (relative path → content) under a temp root.
func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

const basicManifest = `
version: "1.0"
name: "test-workspace"
include:
  - "data/*.yaml"
  - "systems/**/*.yaml"
options:
  showMinimap: true
`

const basicData = `
persons:
  - id: "user"
    name: "End User"
    description: "User of the system"
    tags: ["external"]
systems:
  - id: "api"
    name: "API System"
    description: "Backend API"
`
