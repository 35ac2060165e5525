package export

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/c360studio/c4/model"
)

const (
	// Namespace is the IRI prefix of the c4 vocabulary.
	Namespace = "https://c4model.com/ontology#"

	// DefaultBaseIRI prefixes every subject minted for a model.
	DefaultBaseIRI = "urn:c4:"

	rdfNS  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	rdfsNS = "http://www.w3.org/2000/01/rdf-schema#"
	xsdNS  = "http://www.w3.org/2001/XMLSchema#"
	dcNS   = "http://purl.org/dc/terms/"
)

// Vocabulary terms.
const (
	ClassPerson            = Namespace + "Person"
	ClassSoftwareSystem    = Namespace + "SoftwareSystem"
	ClassContainer         = Namespace + "Container"
	ClassComponent         = Namespace + "Component"
	ClassRelationship      = Namespace + "Relationship"
	ClassFlow              = Namespace + "Flow"
	ClassFlowStep          = Namespace + "FlowStep"
	ClassDeployment        = Namespace + "Deployment"
	ClassDeploymentNode    = Namespace + "DeploymentNode"
	ClassContainerInstance = Namespace + "ContainerInstance"

	PredicateType        = rdfNS + "type"
	PredicateLabel       = rdfsNS + "label"
	PredicateIdentifier  = dcNS + "identifier"
	PredicateDescription = dcNS + "description"
	PredicateTag         = Namespace + "tag"
	PredicateTechnology  = Namespace + "technology"
	PredicateExternal    = Namespace + "external"
	PredicateParent      = Namespace + "parent"
	PredicateSource      = Namespace + "source"
	PredicateDestination = Namespace + "destination"
	PredicateStep        = Namespace + "step"
	PredicateSequence    = Namespace + "sequence"
	PredicateNode        = Namespace + "node"
	PredicateChild       = Namespace + "child"
	PredicateInstance    = Namespace + "instance"
	PredicateInstanceOf  = Namespace + "instanceOf"
	PredicateReplicas    = Namespace + "replicas"
)

// IRI is an object that serializes as a resource reference instead of a
// literal.
type IRI string

// Triple is one predicate-object pair of a subject.
type Triple struct {
	Predicate string
	Object    any
}

// Subject is an RDF resource with its type and outgoing triples.
type Subject struct {
	IRI     string
	Type    string
	Triples []Triple
}

// Graph is the RDF view of a model: one subject per element, relationship,
// flow, flow step, deployment, node and container instance, in model order.
type Graph struct {
	BaseIRI  string
	Subjects []Subject
}

// BuildGraph maps m onto the c4 vocabulary. Relationships are reified so
// their description and technology can be kept. An empty baseIRI selects
// DefaultBaseIRI.
func BuildGraph(m *model.Model, baseIRI string) *Graph {
	if baseIRI == "" {
		baseIRI = DefaultBaseIRI
	}
	b := &graphBuilder{g: &Graph{BaseIRI: baseIRI}}

	for i := range m.Persons {
		b.element(&m.Persons[i], ClassPerson, nil)
	}
	for i := range m.Systems {
		s := &m.Systems[i]
		var extra []Triple
		if s.External != nil {
			extra = append(extra, Triple{PredicateExternal, *s.External})
		}
		b.element(s, ClassSoftwareSystem, extra)
	}
	for i := range m.Containers {
		c := &m.Containers[i]
		extra := b.technology(c.Technology)
		extra = append(extra, Triple{PredicateParent, b.elementIRI(c.SystemID)})
		b.element(c, ClassContainer, extra)
	}
	for i := range m.Components {
		c := &m.Components[i]
		extra := b.technology(c.Technology)
		extra = append(extra, Triple{PredicateParent, b.elementIRI(c.ParentPath())})
		b.element(c, ClassComponent, extra)
	}

	for i, rel := range m.Relationships {
		s := Subject{
			IRI:  string(b.iri("relationship", fmt.Sprint(i))),
			Type: ClassRelationship,
			Triples: []Triple{
				{PredicateSource, b.elementIRI(rel.From)},
				{PredicateDestination, b.elementIRI(rel.To)},
			},
		}
		if rel.Description != "" {
			s.Triples = append(s.Triples, Triple{PredicateDescription, rel.Description})
		}
		s.Triples = append(s.Triples, b.technology(rel.Technology)...)
		s.Triples = append(s.Triples, tags(rel.Tags)...)
		b.add(s)
	}

	for _, flow := range m.Flows {
		b.flow(flow)
	}
	for i := range m.Deployments {
		b.deployment(&m.Deployments[i])
	}

	return b.g
}

type graphBuilder struct {
	g *Graph
}

func (b *graphBuilder) add(s Subject) {
	b.g.Subjects = append(b.g.Subjects, s)
}

// iri joins escaped segments onto the base IRI.
func (b *graphBuilder) iri(segments ...string) IRI {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return IRI(b.g.BaseIRI + strings.Join(escaped, "/"))
}

func (b *graphBuilder) elementIRI(path string) IRI {
	return b.iri("element", path)
}

func (b *graphBuilder) element(e model.Element, class string, extra []Triple) {
	base := e.Base()
	s := Subject{
		IRI:  string(b.elementIRI(e.FullPath())),
		Type: class,
		Triples: []Triple{
			{PredicateIdentifier, e.FullPath()},
		},
	}
	if base.Name != "" {
		s.Triples = append(s.Triples, Triple{PredicateLabel, base.Name})
	}
	if base.Description != "" {
		s.Triples = append(s.Triples, Triple{PredicateDescription, base.Description})
	}
	s.Triples = append(s.Triples, extra...)
	s.Triples = append(s.Triples, tags(base.Tags)...)
	b.add(s)
}

func (b *graphBuilder) technology(t model.Technology) []Triple {
	out := make([]Triple, 0, len(t))
	for _, tech := range t {
		out = append(out, Triple{PredicateTechnology, tech})
	}
	return out
}

func tags(ts []string) []Triple {
	out := make([]Triple, 0, len(ts))
	for _, tag := range ts {
		out = append(out, Triple{PredicateTag, tag})
	}
	return out
}

func (b *graphBuilder) flow(flow model.Flow) {
	flowIRI := b.iri("flow", flow.ID)
	s := Subject{IRI: string(flowIRI), Type: ClassFlow, Triples: []Triple{{PredicateIdentifier, flow.ID}}}
	if flow.Name != "" {
		s.Triples = append(s.Triples, Triple{PredicateLabel, flow.Name})
	}
	if flow.Description != "" {
		s.Triples = append(s.Triples, Triple{PredicateDescription, flow.Description})
	}
	s.Triples = append(s.Triples, tags(flow.Tags)...)

	steps := make([]Subject, 0, len(flow.Steps))
	for _, step := range flow.Steps {
		stepIRI := b.iri("flow", flow.ID, "step", fmt.Sprint(step.Seq))
		s.Triples = append(s.Triples, Triple{PredicateStep, stepIRI})

		st := Subject{
			IRI:  string(stepIRI),
			Type: ClassFlowStep,
			Triples: []Triple{
				{PredicateSequence, step.Seq},
				{PredicateSource, b.elementIRI(step.From)},
				{PredicateDestination, b.elementIRI(step.To)},
			},
		}
		if step.Description != "" {
			st.Triples = append(st.Triples, Triple{PredicateDescription, step.Description})
		}
		st.Triples = append(st.Triples, b.technology(step.Technology)...)
		steps = append(steps, st)
	}

	b.add(s)
	for _, st := range steps {
		b.add(st)
	}
}

func (b *graphBuilder) deployment(dep *model.Deployment) {
	s := Subject{
		IRI:     string(b.iri("deployment", dep.ID)),
		Type:    ClassDeployment,
		Triples: []Triple{{PredicateIdentifier, dep.ID}},
	}
	if dep.Name != "" {
		s.Triples = append(s.Triples, Triple{PredicateLabel, dep.Name})
	}
	if dep.Description != "" {
		s.Triples = append(s.Triples, Triple{PredicateDescription, dep.Description})
	}
	for i := range dep.Nodes {
		s.Triples = append(s.Triples, Triple{PredicateNode, b.nodeIRI(dep.ID, nil, &dep.Nodes[i])})
	}
	b.add(s)

	for i := range dep.Nodes {
		b.node(dep.ID, nil, &dep.Nodes[i])
	}
}

// nodeIRI nests node ids under their ancestors so equal ids in different
// branches stay distinct.
func (b *graphBuilder) nodeIRI(depID string, ancestors []string, node *model.DeploymentNode) IRI {
	segments := append([]string{"deployment", depID, "node"}, ancestors...)
	return b.iri(append(segments, node.ID)...)
}

func (b *graphBuilder) node(depID string, ancestors []string, node *model.DeploymentNode) {
	nodeIRI := b.nodeIRI(depID, ancestors, node)
	s := Subject{IRI: string(nodeIRI), Type: ClassDeploymentNode, Triples: []Triple{{PredicateIdentifier, node.ID}}}
	if node.Name != "" {
		s.Triples = append(s.Triples, Triple{PredicateLabel, node.Name})
	}
	s.Triples = append(s.Triples, b.technology(node.Technology)...)

	path := append(append([]string{}, ancestors...), node.ID)
	for i := range node.Children {
		s.Triples = append(s.Triples, Triple{PredicateChild, b.nodeIRI(depID, path, &node.Children[i])})
	}

	instances := make([]Subject, 0, len(node.Instances))
	for i, inst := range node.Instances {
		instIRI := IRI(string(nodeIRI) + "/instance/" + fmt.Sprint(i))
		s.Triples = append(s.Triples, Triple{PredicateInstance, instIRI})

		is := Subject{
			IRI:     string(instIRI),
			Type:    ClassContainerInstance,
			Triples: []Triple{{PredicateInstanceOf, b.elementIRI(inst.Container)}},
		}
		if inst.Replicas != nil {
			is.Triples = append(is.Triples, Triple{PredicateReplicas, *inst.Replicas})
		}
		instances = append(instances, is)
	}

	b.add(s)
	for _, is := range instances {
		b.add(is)
	}
	for i := range node.Children {
		b.node(depID, path, &node.Children[i])
	}
}

// Prefixes returns the namespace prefixes used when writing Turtle.
func (g *Graph) Prefixes() map[string]string {
	return map[string]string{
		"rdf":  rdfNS,
		"rdfs": rdfsNS,
		"xsd":  xsdNS,
		"dc":   dcNS,
		"c4":   Namespace,
	}
}

// Turtle serializes the graph as Turtle.
func (g *Graph) Turtle() string {
	w := NewTurtleWriter(g.Prefixes())
	w.WritePrefixes()
	for _, s := range g.Subjects {
		w.WriteSubject(s.IRI)
		w.WriteType(s.Type, len(s.Triples) == 0)
		for i, t := range s.Triples {
			w.WritePredicate(t.Predicate, t.Object, i == len(s.Triples)-1)
		}
		w.WriteBlank()
	}
	return w.String()
}

// NTriples serializes the graph as N-Triples.
func (g *Graph) NTriples() string {
	w := NewNTriplesWriter()
	for _, s := range g.Subjects {
		w.WriteTypeTriple(s.IRI, s.Type)
		for _, t := range s.Triples {
			w.WriteTriple(s.IRI, t.Predicate, t.Object)
		}
	}
	return w.String()
}

// TurtleWriter writes RDF in Turtle format, abbreviating IRIs with the
// configured prefixes where the local name allows it.
type TurtleWriter struct {
	prefixes map[string]string
	order    []string
	sb       strings.Builder
}

// NewTurtleWriter creates a Turtle writer with the given prefixes.
func NewTurtleWriter(prefixes map[string]string) *TurtleWriter {
	w := &TurtleWriter{prefixes: make(map[string]string, len(prefixes))}
	for p, iri := range prefixes {
		w.SetPrefix(p, iri)
	}
	return w
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	if _, ok := w.prefixes[prefix]; !ok {
		w.order = append(w.order, prefix)
		sort.Strings(w.order)
	}
	w.prefixes[prefix] = iri
}

// WritePrefixes writes prefix declarations in prefix order.
func (w *TurtleWriter) WritePrefixes() {
	for _, prefix := range w.order {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", prefix, w.prefixes[prefix]))
	}
	w.sb.WriteString("\n")
}

// WriteSubject starts a new subject block.
func (w *TurtleWriter) WriteSubject(iri string) {
	w.sb.WriteString(w.compact(iri) + "\n")
}

// WriteType writes a type assertion.
func (w *TurtleWriter) WriteType(typeIRI string, last bool) {
	w.sb.WriteString(fmt.Sprintf("    a %s%s\n", w.compact(typeIRI), terminator(last)))
}

// WritePredicate writes a predicate-object pair.
func (w *TurtleWriter) WritePredicate(predicateIRI string, object any, last bool) {
	obj := formatObject(object)
	if iri, ok := object.(IRI); ok {
		obj = w.compact(string(iri))
	}
	w.sb.WriteString(fmt.Sprintf("    %s %s%s\n", w.compact(predicateIRI), obj, terminator(last)))
}

// WriteBlank writes a blank line for readability.
func (w *TurtleWriter) WriteBlank() {
	w.sb.WriteString("\n")
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

// compact returns prefix:local when iri starts with a known namespace and
// the remainder is a plain local name, and <iri> otherwise.
func (w *TurtleWriter) compact(iri string) string {
	for _, prefix := range w.order {
		ns := w.prefixes[prefix]
		if local, ok := strings.CutPrefix(iri, ns); ok && isLocalName(local) {
			return prefix + ":" + local
		}
	}
	return "<" + iri + ">"
}

func isLocalName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '_' || r == '-'):
		default:
			return false
		}
	}
	return true
}

func terminator(last bool) string {
	if last {
		return " ."
	}
	return " ;"
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteTriple writes a single triple.
func (w *NTriplesWriter) WriteTriple(subject, predicate string, object any) {
	w.sb.WriteString(fmt.Sprintf("<%s> <%s> %s .\n", subject, predicate, formatObjectNTriples(object)))
}

// WriteTypeTriple writes a type assertion triple.
func (w *NTriplesWriter) WriteTypeTriple(subject, typeIRI string) {
	w.sb.WriteString(fmt.Sprintf("<%s> <%s> <%s> .\n", subject, PredicateType, typeIRI))
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

// formatObject formats an object value for Turtle output.
func formatObject(obj any) string {
	switch v := obj.(type) {
	case IRI:
		return fmt.Sprintf("<%s>", v)
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^xsd:integer", v)
	case float32, float64:
		return fmt.Sprintf("\"%g\"^^xsd:decimal", v)
	case bool:
		return fmt.Sprintf("\"%t\"^^xsd:boolean", v)
	default:
		return fmt.Sprintf("\"%s\"", escapeString(fmt.Sprint(v)))
	}
}

// formatObjectNTriples formats an object value for N-Triples output.
func formatObjectNTriples(obj any) string {
	switch v := obj.(type) {
	case IRI:
		return fmt.Sprintf("<%s>", v)
	case string:
		return fmt.Sprintf("\"%s\"", escapeString(v))
	case int, int32, int64:
		return fmt.Sprintf("\"%d\"^^<%sinteger>", v, xsdNS)
	case float32, float64:
		return fmt.Sprintf("\"%g\"^^<%sdecimal>", v, xsdNS)
	case bool:
		return fmt.Sprintf("\"%t\"^^<%sboolean>", v, xsdNS)
	default:
		return fmt.Sprintf("\"%s\"", escapeString(fmt.Sprint(v)))
	}
}

// escapeString escapes special characters in strings for RDF serialization.
func escapeString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	return s
}
