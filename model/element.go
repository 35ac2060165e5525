// Package model defines the C4 architecture model: element records, the flat
// Model container, and the derived lookup indices built over it.
package model

import "fmt"

// ElementType identifies one of the four addressable element kinds.
type ElementType string

const (
	ElementTypePerson    ElementType = "person"
	ElementTypeSystem    ElementType = "system"
	ElementTypeContainer ElementType = "container"
	ElementTypeComponent ElementType = "component"
)

// ElementTypes lists the element kinds in index-build order.
var ElementTypes = []ElementType{
	ElementTypePerson,
	ElementTypeSystem,
	ElementTypeContainer,
	ElementTypeComponent,
}

// Collection returns the fragment key that holds elements of this kind.
func (t ElementType) Collection() string {
	switch t {
	case ElementTypePerson:
		return "persons"
	case ElementTypeSystem:
		return "systems"
	case ElementTypeContainer:
		return "containers"
	case ElementTypeComponent:
		return "components"
	default:
		return ""
	}
}

// Valid reports whether t is one of the known element kinds.
func (t ElementType) Valid() bool {
	return t.Collection() != ""
}

// ParseElementType converts a string such as "container" into an ElementType.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown element type: %s", s)
	}
	return t, nil
}

// BaseElement holds the fields shared by every element kind.
type BaseElement struct {
	ID          string         `json:"id" yaml:"id"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Element is the capability set shared by persons, systems, containers and
// components. Implementations are pointer types backed by the Model's slices.
type Element interface {
	// Base returns the shared identity and descriptive fields.
	Base() *BaseElement
	// Kind returns the element type.
	Kind() ElementType
	// FullPath returns the globally unique dotted path of the element.
	FullPath() string
}

// Person is a human actor. Its full path is its id.
type Person struct {
	BaseElement `yaml:",inline"`
	ElementType ElementType `json:"type" yaml:"type,omitempty"`
}

func (p *Person) Base() *BaseElement { return &p.BaseElement }
func (p *Person) Kind() ElementType  { return ElementTypePerson }
func (p *Person) FullPath() string   { return p.ID }

// SoftwareSystem is a top-level system. Its full path is its id.
type SoftwareSystem struct {
	BaseElement `yaml:",inline"`
	ElementType ElementType `json:"type" yaml:"type,omitempty"`
	External    *bool       `json:"external,omitempty" yaml:"external,omitempty"`
}

func (s *SoftwareSystem) Base() *BaseElement { return &s.BaseElement }
func (s *SoftwareSystem) Kind() ElementType  { return ElementTypeSystem }
func (s *SoftwareSystem) FullPath() string   { return s.ID }

// IsExternal reports whether the system is marked external.
func (s *SoftwareSystem) IsExternal() bool {
	return s.External != nil && *s.External
}

// Container is a deployable unit inside a system: "{systemId}.{id}".
type Container struct {
	BaseElement `yaml:",inline"`
	ElementType ElementType `json:"type" yaml:"type,omitempty"`
	Technology  Technology  `json:"technology,omitempty" yaml:"technology,omitempty"`
	SystemID    string      `json:"systemId" yaml:"systemId,omitempty"`
}

func (c *Container) Base() *BaseElement { return &c.BaseElement }
func (c *Container) Kind() ElementType  { return ElementTypeContainer }
func (c *Container) FullPath() string   { return c.SystemID + "." + c.ID }

// ParentPath returns the full path of the owning system.
func (c *Container) ParentPath() string { return c.SystemID }

// Component lives inside a container: "{systemId}.{containerId}.{id}".
type Component struct {
	BaseElement `yaml:",inline"`
	ElementType ElementType `json:"type" yaml:"type,omitempty"`
	Technology  Technology  `json:"technology,omitempty" yaml:"technology,omitempty"`
	SystemID    string      `json:"systemId" yaml:"systemId,omitempty"`
	ContainerID string      `json:"containerId" yaml:"containerId,omitempty"`
}

func (c *Component) Base() *BaseElement { return &c.BaseElement }
func (c *Component) Kind() ElementType  { return ElementTypeComponent }
func (c *Component) FullPath() string {
	return c.SystemID + "." + c.ContainerID + "." + c.ID
}

// ParentPath returns the full path of the owning container.
func (c *Component) ParentPath() string { return c.SystemID + "." + c.ContainerID }

// Relationship is a directed dependency between two element paths. The
// endpoints are not required to exist until the model is resolved.
type Relationship struct {
	From        string         `json:"from" yaml:"from"`
	To          string         `json:"to" yaml:"to"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Technology  Technology     `json:"technology,omitempty" yaml:"technology,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// FlowStep is one ordered interaction of a Flow.
type FlowStep struct {
	Seq         int        `json:"seq" yaml:"seq"`
	From        string     `json:"from" yaml:"from"`
	To          string     `json:"to" yaml:"to"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Technology  Technology `json:"technology,omitempty" yaml:"technology,omitempty"`
}

// Flow is a named, ordered sequence of steps, kept in declaration order.
type Flow struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []FlowStep `json:"steps" yaml:"steps"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// ContainerInstance places a container (by full path) on a deployment node.
type ContainerInstance struct {
	Container  string         `json:"container" yaml:"container"`
	Replicas   *int           `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// DeploymentNode is a node in a deployment tree.
type DeploymentNode struct {
	ID         string              `json:"id" yaml:"id"`
	Name       string              `json:"name" yaml:"name"`
	Technology Technology          `json:"technology,omitempty" yaml:"technology,omitempty"`
	Children   []DeploymentNode    `json:"children,omitempty" yaml:"children,omitempty"`
	Instances  []ContainerInstance `json:"instances,omitempty" yaml:"instances,omitempty"`
	Properties map[string]any      `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Walk calls fn for the node and then for every descendant, depth first.
func (n *DeploymentNode) Walk(fn func(*DeploymentNode)) {
	fn(n)
	for i := range n.Children {
		n.Children[i].Walk(fn)
	}
}

// Deployment describes one environment as a tree of nodes.
type Deployment struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Nodes       []DeploymentNode `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}
