package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/c4/model"
)

// Exporter writes a built model into an output directory.
type Exporter struct {
	model     *model.Model
	outputDir string
	baseIRI   string
	logger    *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithBaseIRI sets the IRI prefix for RDF subjects.
func WithBaseIRI(iri string) Option {
	return func(e *Exporter) { e.baseIRI = iri }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) { e.logger = logger }
}

// NewExporter creates an exporter for m writing under outputDir.
func NewExporter(m *model.Model, outputDir string, opts ...Option) *Exporter {
	e := &Exporter{model: m, outputDir: outputDir}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Export creates the output directory and writes one file per format,
// returning the written paths in format order. It stops at the first
// failure.
func (e *Exporter) Export(formats ...Format) ([]string, error) {
	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	written := make([]string, 0, len(formats))
	for _, f := range formats {
		info, ok := GetFormatInfo(f)
		if !ok {
			return written, fmt.Errorf("unsupported format: %s", f)
		}

		data, err := e.Render(f)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", f, err)
		}

		path := filepath.Join(e.outputDir, info.FileName)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", info.FileName, err)
		}
		e.logger.Debug("Exported model", "format", f, "path", path, "bytes", len(data))
		written = append(written, path)
	}
	return written, nil
}

// Render serializes the model in format f without touching the filesystem.
func (e *Exporter) Render(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(e.model)
	case FormatYAML:
		return YAML(e.model)
	case FormatTurtle:
		return []byte(BuildGraph(e.model, e.baseIRI).Turtle()), nil
	case FormatNTriples:
		return []byte(BuildGraph(e.model, e.baseIRI).NTriples()), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", f)
	}
}

// JSON encodes m as two-space indented JSON with a trailing newline. Only the
// collections and options are emitted; every collection (and every flow's
// steps) is an array. m is not modified.
func JSON(m *model.Model) ([]byte, error) {
	data, err := json.MarshalIndent(m.Normalized(), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAML encodes m as a single YAML document.
func YAML(m *model.Model) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m.Normalized()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
