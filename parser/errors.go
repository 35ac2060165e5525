package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification with errors.Is.
var (
	// ErrManifest marks a missing, unparsable or incomplete manifest.
	ErrManifest = errors.New("invalid manifest")

	// ErrInvalidFragment marks a fragment file that could not be read or parsed.
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrMissingContext marks a container or component whose ancestry could
	// not be determined from the record or the file location.
	ErrMissingContext = errors.New("missing hierarchy context")

	// ErrMissingID marks an element declared without an id.
	ErrMissingID = errors.New("missing id")

	// ErrManifestNotLoaded is returned by the Writer before any Load.
	ErrManifestNotLoaded = errors.New("manifest not loaded")

	// ErrElementNotFound is returned when no fragment declares the element.
	ErrElementNotFound = errors.New("element not found")

	// ErrUnexpectedShape is returned when a fragment's YAML tree does not
	// have the expected mapping/sequence layout.
	ErrUnexpectedShape = errors.New("unexpected document shape")
)

// ManifestError is a fatal manifest failure. Load returns no model.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// Is reports whether target is ErrManifest.
func (e *ManifestError) Is(target error) bool { return target == ErrManifest }

// FragmentError is a recoverable problem in one fragment file. ElementID is
// empty when the whole file was rejected.
type FragmentError struct {
	File      string
	ElementID string
	Err       error
}

func (e *FragmentError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf("%s: %q: %v", e.File, e.ElementID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FragmentError) Unwrap() error { return e.Err }

// LoadError aggregates every FragmentError of a failed Load. Each cause is
// reachable through errors.As.
type LoadError struct {
	Errors []*FragmentError
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse errors: %d errors encountered", len(e.Errors))
	for _, fe := range e.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(fe.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual fragment errors.
func (e *LoadError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, fe := range e.Errors {
		errs[i] = fe
	}
	return errs
}

// WriteError describes a failed Writer operation. No file is modified when a
// WriteError is returned.
type WriteError struct {
	ElementID string
	File      string
	Err       error
}

func (e *WriteError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("update %s in %s: %v", e.ElementID, e.File, e.Err)
	}
	return fmt.Sprintf("update %s: %v", e.ElementID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
