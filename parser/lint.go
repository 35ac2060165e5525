package parser

import (
	"fmt"

	"github.com/c360studio/c4/model"
)

// Lint reports non-fatal quality findings that Resolve does not cover:
// elements without a display name and flows without steps. Callers decide
// whether warnings fail a build.
func Lint(m *model.Model) []ValidationError {
	warnings := make([]ValidationError, 0)

	for _, e := range m.AllElements() {
		if e.Base().Name == "" {
			warnings = append(warnings, ValidationError{
				Path:    e.FullPath(),
				Message: fmt.Sprintf("%s has no name", e.Kind()),
			})
		}
	}

	for _, f := range m.Flows {
		if len(f.Steps) == 0 {
			warnings = append(warnings, ValidationError{
				Path:    "flow." + f.ID,
				Message: "flow has no steps",
			})
		}
	}

	return warnings
}
