// Package export serializes a built model to files: JSON and YAML for
// tooling, Turtle and N-Triples for loading the architecture into an RDF
// store.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatJSON produces model.json, the form served by the dev server.
	FormatJSON Format = "json"

	// FormatYAML produces model.yaml.
	FormatYAML Format = "yaml"

	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	Name        Format
	MIMEType    string
	FileName    string
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		FileName:    "model.json",
		Description: "Merged model as indented JSON",
	},
	FormatYAML: {
		Name:        FormatYAML,
		MIMEType:    "application/yaml",
		FileName:    "model.yaml",
		Description: "Merged model as a single YAML document",
	},
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		FileName:    "model.ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		FileName:    "model.nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// Formats returns every supported format name, sorted.
func Formats() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// ParseFormats converts names (case-insensitive, surrounding blanks ignored)
// into formats, dropping duplicates. An unknown name is an error.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]bool)
	out := make([]Format, 0, len(names))
	for _, name := range names {
		f := Format(strings.ToLower(strings.TrimSpace(name)))
		if f == "" {
			continue
		}
		if _, ok := FormatRegistry[f]; !ok {
			return nil, fmt.Errorf("unsupported format %q (supported: %s)", name, strings.Join(Formats(), ", "))
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}
