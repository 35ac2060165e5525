package model

// elementRef locates an element inside the Model's typed slices.
type elementRef struct {
	kind ElementType
	idx  int
}

// Model is the merged architecture model.
//
// The exported slices are authoritative. The unexported indices are derived
// from them by BuildIndexes and are rebuilt wholesale, never patched. After
// BuildIndexes a Model is treated as read-only and is safe for concurrent
// readers.
type Model struct {
	Persons       []Person         `json:"persons" yaml:"persons"`
	Systems       []SoftwareSystem `json:"systems" yaml:"systems"`
	Containers    []Container      `json:"containers" yaml:"containers"`
	Components    []Component      `json:"components" yaml:"components"`
	Relationships []Relationship   `json:"relationships" yaml:"relationships"`
	Flows         []Flow           `json:"flows" yaml:"flows"`
	Deployments   []Deployment     `json:"deployments" yaml:"deployments"`
	Options       map[string]any   `json:"options" yaml:"options"`

	byPath   map[string]elementRef
	byType   map[ElementType][]string
	byTag    map[string][]string
	children map[string][]string
	outgoing map[string][]int
	incoming map[string][]int
}

// New returns an empty model with non-nil collections.
func New() *Model {
	m := &Model{}
	m.EnsureNonNilSlices()
	return m
}

// EnsureNonNilSlices replaces nil collections with empty ones so the model
// always encodes every key as a JSON array (or object for options).
func (m *Model) EnsureNonNilSlices() {
	if m.Persons == nil {
		m.Persons = []Person{}
	}
	if m.Systems == nil {
		m.Systems = []SoftwareSystem{}
	}
	if m.Containers == nil {
		m.Containers = []Container{}
	}
	if m.Components == nil {
		m.Components = []Component{}
	}
	if m.Relationships == nil {
		m.Relationships = []Relationship{}
	}
	if m.Flows == nil {
		m.Flows = []Flow{}
	}
	if m.Deployments == nil {
		m.Deployments = []Deployment{}
	}
	if m.Options == nil {
		m.Options = map[string]any{}
	}
}

// Normalized returns a shallow copy of m for encoding: nil collections become
// empty and every flow has a non-nil Steps slice. m itself is not modified,
// and slices are only copied when something in them has to change.
func (m *Model) Normalized() *Model {
	c := *m
	c.EnsureNonNilSlices()
	for i := range c.Flows {
		if c.Flows[i].Steps != nil {
			continue
		}
		flows := make([]Flow, len(c.Flows))
		copy(flows, c.Flows)
		for j := range flows {
			if flows[j].Steps == nil {
				flows[j].Steps = []FlowStep{}
			}
		}
		c.Flows = flows
		break
	}
	return &c
}

// indexer accumulates index entries for one BuildIndexes call.
type indexer struct {
	byPath   map[string]elementRef
	byType   map[ElementType][]string
	byTag    map[string][]string
	children map[string][]string
}

func (ix *indexer) add(path string, ref elementRef, tags []string, parent string) error {
	if _, exists := ix.byPath[path]; exists {
		return &DuplicateElementError{Path: path}
	}
	ix.byPath[path] = ref
	ix.byType[ref.kind] = append(ix.byType[ref.kind], path)
	for _, tag := range tags {
		ix.byTag[tag] = append(ix.byTag[tag], path)
	}
	if parent != "" {
		ix.children[parent] = append(ix.children[parent], path)
	}
	return nil
}

// BuildIndexes rebuilds every derived index from the element slices.
// Elements are scanned persons, systems, containers, components; the first
// full path seen twice aborts with a *DuplicateElementError and leaves the
// previous indices untouched.
func (m *Model) BuildIndexes() error {
	ix := &indexer{
		byPath:   make(map[string]elementRef),
		byType:   make(map[ElementType][]string),
		byTag:    make(map[string][]string),
		children: make(map[string][]string),
	}

	for i := range m.Persons {
		p := &m.Persons[i]
		if err := ix.add(p.FullPath(), elementRef{ElementTypePerson, i}, p.Tags, ""); err != nil {
			return err
		}
	}
	for i := range m.Systems {
		s := &m.Systems[i]
		if err := ix.add(s.FullPath(), elementRef{ElementTypeSystem, i}, s.Tags, ""); err != nil {
			return err
		}
	}
	for i := range m.Containers {
		c := &m.Containers[i]
		if err := ix.add(c.FullPath(), elementRef{ElementTypeContainer, i}, c.Tags, c.ParentPath()); err != nil {
			return err
		}
	}
	for i := range m.Components {
		c := &m.Components[i]
		if err := ix.add(c.FullPath(), elementRef{ElementTypeComponent, i}, c.Tags, c.ParentPath()); err != nil {
			return err
		}
	}

	outgoing := make(map[string][]int)
	incoming := make(map[string][]int)
	for i, r := range m.Relationships {
		outgoing[r.From] = append(outgoing[r.From], i)
		incoming[r.To] = append(incoming[r.To], i)
	}

	m.byPath = ix.byPath
	m.byType = ix.byType
	m.byTag = ix.byTag
	m.children = ix.children
	m.outgoing = outgoing
	m.incoming = incoming
	return nil
}

func (m *Model) resolve(ref elementRef) Element {
	switch ref.kind {
	case ElementTypePerson:
		return &m.Persons[ref.idx]
	case ElementTypeSystem:
		return &m.Systems[ref.idx]
	case ElementTypeContainer:
		return &m.Containers[ref.idx]
	case ElementTypeComponent:
		return &m.Components[ref.idx]
	}
	return nil
}

// GetElement returns the element with the given full path.
func (m *Model) GetElement(path string) (Element, bool) {
	ref, ok := m.byPath[path]
	if !ok {
		return nil, false
	}
	return m.resolve(ref), true
}

// HasElement reports whether path names an indexed element.
func (m *Model) HasElement(path string) bool {
	_, ok := m.byPath[path]
	return ok
}

func (m *Model) elementsAt(paths []string) []Element {
	if len(paths) == 0 {
		return nil
	}
	out := make([]Element, 0, len(paths))
	for _, p := range paths {
		if e, ok := m.GetElement(p); ok {
			out = append(out, e)
		}
	}
	return out
}

// GetElementsByType returns all elements of a kind in declaration order.
func (m *Model) GetElementsByType(t ElementType) []Element {
	return m.elementsAt(m.byType[t])
}

// GetElementsByTag returns all elements carrying tag.
func (m *Model) GetElementsByTag(tag string) []Element {
	return m.elementsAt(m.byTag[tag])
}

// GetChildren returns the direct children of the element at path: the
// containers of a system, or the components of a container.
func (m *Model) GetChildren(path string) []Element {
	return m.elementsAt(m.children[path])
}

func (m *Model) relationshipsAt(indices []int) []*Relationship {
	if len(indices) == 0 {
		return nil
	}
	out := make([]*Relationship, 0, len(indices))
	for _, i := range indices {
		out = append(out, &m.Relationships[i])
	}
	return out
}

// GetOutgoingRelationships returns the relationships whose from is path.
func (m *Model) GetOutgoingRelationships(path string) []*Relationship {
	return m.relationshipsAt(m.outgoing[path])
}

// GetIncomingRelationships returns the relationships whose to is path.
func (m *Model) GetIncomingRelationships(path string) []*Relationship {
	return m.relationshipsAt(m.incoming[path])
}

// AllElements returns every person, system, container and component, in
// that order and in declaration order within each kind.
func (m *Model) AllElements() []Element {
	out := make([]Element, 0, len(m.Persons)+len(m.Systems)+len(m.Containers)+len(m.Components))
	for i := range m.Persons {
		out = append(out, &m.Persons[i])
	}
	for i := range m.Systems {
		out = append(out, &m.Systems[i])
	}
	for i := range m.Containers {
		out = append(out, &m.Containers[i])
	}
	for i := range m.Components {
		out = append(out, &m.Components[i])
	}
	return out
}

// Stats counts the entries of each collection.
type Stats struct {
	Persons       int `json:"persons"`
	Systems       int `json:"systems"`
	Containers    int `json:"containers"`
	Components    int `json:"components"`
	Relationships int `json:"relationships"`
	Flows         int `json:"flows"`
	Deployments   int `json:"deployments"`
}

// Stats returns the collection sizes of the model.
func (m *Model) Stats() Stats {
	return Stats{
		Persons:       len(m.Persons),
		Systems:       len(m.Systems),
		Containers:    len(m.Containers),
		Components:    len(m.Components),
		Relationships: len(m.Relationships),
		Flows:         len(m.Flows),
		Deployments:   len(m.Deployments),
	}
}
