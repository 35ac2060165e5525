package parser

import (
	"fmt"
	"strings"

	"github.com/c360studio/c4/model"
)

// minSuggestionScore is the shortest common prefix that yields a suggestion.
const minSuggestionScore = 2

// ValidationError is one unresolved or invalid reference in a built model.
// Path labels where the reference was found, e.g. "flow.checkout.step.2.to".
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

func (e ValidationError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Resolver validates every reference of an indexed model.
type Resolver struct {
	model  *model.Model
	errors []ValidationError
}

// NewResolver creates a resolver over m. m must already be indexed.
func NewResolver(m *model.Model) *Resolver {
	return &Resolver{model: m}
}

// Resolve is shorthand for NewResolver(m).Resolve().
func Resolve(m *model.Model) []ValidationError {
	return NewResolver(m).Resolve()
}

// Resolve runs every check and returns all findings in a stable order:
// relationships, flow steps, deployment instances, container parents,
// component parents. It never stops at the first finding.
func (r *Resolver) Resolve() []ValidationError {
	r.errors = make([]ValidationError, 0)

	for _, rel := range r.model.Relationships {
		r.validateRef(rel.From, fmt.Sprintf("relationship.from(%s)", rel.From))
		r.validateRef(rel.To, fmt.Sprintf("relationship.to(%s)", rel.To))
	}

	for _, flow := range r.model.Flows {
		for _, step := range flow.Steps {
			r.validateRef(step.From, fmt.Sprintf("flow.%s.step.%d.from", flow.ID, step.Seq))
			r.validateRef(step.To, fmt.Sprintf("flow.%s.step.%d.to", flow.ID, step.Seq))
		}
	}

	for i := range r.model.Deployments {
		dep := &r.model.Deployments[i]
		for j := range dep.Nodes {
			dep.Nodes[j].Walk(func(node *model.DeploymentNode) {
				for _, inst := range node.Instances {
					r.validateRef(inst.Container, fmt.Sprintf("deployment.%s.node.%s.instance", dep.ID, node.ID))
				}
			})
		}
	}

	for i := range r.model.Containers {
		c := &r.model.Containers[i]
		if !r.model.HasElement(c.SystemID) {
			r.errors = append(r.errors, ValidationError{
				Path:    c.FullPath(),
				Message: fmt.Sprintf("container references unknown system '%s'", c.SystemID),
			})
		}
	}

	for i := range r.model.Components {
		c := &r.model.Components[i]
		if parent := c.ParentPath(); !r.model.HasElement(parent) {
			r.errors = append(r.errors, ValidationError{
				Path:    c.FullPath(),
				Message: fmt.Sprintf("component references unknown container '%s'", parent),
			})
		}
	}

	return r.errors
}

func (r *Resolver) validateRef(ref, label string) {
	if ref == "" {
		r.errors = append(r.errors, ValidationError{Path: label, Message: "empty reference"})
		return
	}
	if r.model.HasElement(ref) {
		return
	}

	msg := fmt.Sprintf("unresolved reference '%s'", ref)
	if suggestion, ok := r.FindSimilar(ref); ok {
		msg += fmt.Sprintf(" (did you mean '%s'?)", suggestion)
	}
	r.errors = append(r.errors, ValidationError{Path: label, Message: msg})
}

// FindSimilar suggests the full path of the element whose bare id shares the
// longest common prefix with the last dotted segment of ref. A prefix shorter
// than two bytes yields no suggestion; on ties the first element in
// AllElements order wins.
//
// Only truncations and trailing typos are caught. Transpositions, mid-word
// insertions and leading typos score zero or near zero.
func (r *Resolver) FindSimilar(ref string) (string, bool) {
	last := ref
	if i := strings.LastIndex(ref, "."); i >= 0 {
		last = ref[i+1:]
	}

	best, bestScore := "", 0
	for _, e := range r.model.AllElements() {
		score := commonPrefixLen(last, e.Base().ID)
		if score > bestScore && score >= minSuggestionScore {
			best, bestScore = e.FullPath(), score
		}
	}
	return best, best != ""
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
