package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/c4/model"
)

// Writer applies field-level edits to the fragment file that declares an
// element. It edits the file's YAML node tree rather than the typed model,
// so comments, key order and unknown keys survive the round trip.
//
// The Writer never touches an in-memory Model; reload to observe edits.
// Writes to different files may run concurrently. Writes to the same file
// are not synchronized here and must be serialized by the caller.
type Writer struct {
	loader *Loader
	logger *slog.Logger
}

// NewWriter creates a writer that locates files through loader's manifest.
func NewWriter(loader *Loader, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{loader: loader, logger: logger}
}

// FindElementFile returns the first included file whose kind collection
// declares an element with the bare id. Include patterns are scanned in
// manifest order.
func (w *Writer) FindElementFile(id string, kind model.ElementType) (string, error) {
	mf := w.loader.Manifest()
	if mf == nil {
		return "", &WriteError{ElementID: id, Err: ErrManifestNotLoaded}
	}
	if !kind.Valid() {
		return "", &WriteError{ElementID: id, Err: fmt.Errorf("unknown element type %q", kind)}
	}

	for _, pattern := range mf.Include {
		matches, err := w.loader.FindFiles(pattern)
		if err != nil {
			return "", &WriteError{ElementID: id, Err: err}
		}
		for _, path := range matches {
			f, err := ReadFragment(path)
			if err != nil {
				return "", &WriteError{ElementID: id, File: path, Err: err}
			}
			if f.Contains(id, kind) {
				return path, nil
			}
		}
	}

	return "", &WriteError{
		ElementID: id,
		Err:       fmt.Errorf("%w: no %s %q in any included file", ErrElementNotFound, kind, id),
	}
}

// UpdateElement merges fields into the element's mapping: existing keys are
// overwritten in place and new keys appended. The file is rewritten once,
// atomically, or not at all.
func (w *Writer) UpdateElement(id string, kind model.ElementType, fields map[string]any) error {
	path, err := w.FindElementFile(id, kind)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &WriteError{ElementID: id, File: path, Err: fmt.Errorf("read: %w", err)}
	}

	docs, err := decodeDocuments(data)
	if err != nil {
		return &WriteError{ElementID: id, File: path, Err: fmt.Errorf("parse YAML: %w", err)}
	}

	if err := updateInDocuments(docs, id, kind.Collection(), fields); err != nil {
		return &WriteError{ElementID: id, File: path, Err: err}
	}

	out, err := encodeDocuments(docs)
	if err != nil {
		return &WriteError{ElementID: id, File: path, Err: fmt.Errorf("encode YAML: %w", err)}
	}

	if err := writeFileAtomic(path, out); err != nil {
		return &WriteError{ElementID: id, File: path, Err: err}
	}

	w.logger.Debug("Updated element",
		"id", id,
		"type", kind,
		"file", path,
		"fields", len(fields))
	return nil
}

// decodeDocuments parses every YAML document in data.
func decodeDocuments(data []byte) ([]*yaml.Node, error) {
	var docs []*yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, err
		}
		docs = append(docs, &doc)
	}
}

// updateInDocuments applies the edit to the first document that declares the
// element. Other documents are left as decoded. When no document matches,
// the first error that is not ErrElementNotFound wins.
func updateInDocuments(docs []*yaml.Node, id, collection string, fields map[string]any) error {
	if len(docs) == 0 {
		return fmt.Errorf("%w: empty document", ErrUnexpectedShape)
	}

	var notFound, other error
	for _, doc := range docs {
		err := updateInTree(doc, id, collection, fields)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrElementNotFound):
			notFound = err
		case other == nil:
			other = err
		}
	}
	if other != nil {
		return other
	}
	return notFound
}

// updateInTree finds collection[*] with id == id under the document root and
// merges fields into it.
func updateInTree(doc *yaml.Node, id, collection string, fields map[string]any) error {
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return fmt.Errorf("%w: empty document", ErrUnexpectedShape)
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: expected mapping at root", ErrUnexpectedShape)
	}

	seq := mappingValue(root, collection)
	if seq == nil {
		return fmt.Errorf("%w: collection %s not found", ErrElementNotFound, collection)
	}
	if seq.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: collection %s is not a sequence", ErrUnexpectedShape, collection)
	}

	for _, item := range seq.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		if idNode := mappingValue(item, "id"); idNode != nil && idNode.Kind == yaml.ScalarNode && idNode.Value == id {
			return mergeFields(item, fields)
		}
	}

	return fmt.Errorf("%w: %s %q not found in document", ErrElementNotFound, collection, id)
}

// mappingValue returns the value node for key in a mapping node, or nil.
func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if k := m.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func mergeFields(m *yaml.Node, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var value yaml.Node
		if err := value.Encode(fields[key]); err != nil {
			return fmt.Errorf("encode field %s: %w", key, err)
		}

		if existing := mappingValue(m, key); existing != nil {
			// Keep comments attached to the old value.
			value.HeadComment = existing.HeadComment
			value.LineComment = existing.LineComment
			value.FootComment = existing.FootComment
			*existing = value
			continue
		}

		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}
	return nil
}

// encodeDocuments re-encodes docs in order; the encoder separates them
// with "---".
func encodeDocuments(docs []*yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeFileAtomic replaces path with data via a temp file in the same
// directory, keeping the original file mode.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
