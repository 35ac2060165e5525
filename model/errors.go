package model

import "errors"

// ErrDuplicateElement is matched by errors.Is for any DuplicateElementError.
var ErrDuplicateElement = errors.New("duplicate element")

// DuplicateElementError reports two elements that share a full path.
type DuplicateElementError struct {
	Path string
}

func (e *DuplicateElementError) Error() string {
	return "duplicate element ID: " + e.Path
}

// Is reports whether target is ErrDuplicateElement.
func (e *DuplicateElementError) Is(target error) bool {
	return target == ErrDuplicateElement
}
