package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPerson(id string, tags ...string) Person {
	return Person{BaseElement: BaseElement{ID: id, Name: id + " Name", Tags: tags}}
}

func testSystem(id string, tags ...string) SoftwareSystem {
	return SoftwareSystem{BaseElement: BaseElement{ID: id, Name: id + " System", Tags: tags}}
}

func testContainer(systemID, id string, tags ...string) Container {
	return Container{
		BaseElement: BaseElement{ID: id, Name: id + " Container", Tags: tags},
		SystemID:    systemID,
	}
}

func testComponent(systemID, containerID, id string) Component {
	return Component{
		BaseElement: BaseElement{ID: id, Name: id + " Component"},
		SystemID:    systemID,
		ContainerID: containerID,
	}
}

func sampleModel(t *testing.T) *Model {
	t.Helper()
	m := New()
	m.Persons = append(m.Persons, testPerson("user", "external"))
	m.Systems = append(m.Systems, testSystem("api", "core"), testSystem("billing"))
	m.Containers = append(m.Containers,
		testContainer("api", "web", "core"),
		testContainer("api", "db"),
	)
	m.Components = append(m.Components,
		testComponent("api", "web", "auth"),
		testComponent("api", "web", "router"),
	)
	m.Relationships = append(m.Relationships,
		Relationship{From: "user", To: "api.web"},
		Relationship{From: "api.web", To: "api.db"},
		Relationship{From: "api.web.auth", To: "api.db"},
	)
	require.NoError(t, m.BuildIndexes())
	return m
}

func TestFullPath(t *testing.T) {
	p := testPerson("user")
	s := testSystem("api")
	c := testContainer("api", "web")
	comp := testComponent("api", "web", "auth")

	assert.Equal(t, "user", p.FullPath())
	assert.Equal(t, "api", s.FullPath())
	assert.Equal(t, "api.web", c.FullPath())
	assert.Equal(t, "api.web.auth", comp.FullPath())
	assert.Equal(t, "api.web", comp.ParentPath())
}

func TestBuildIndexes_GetElement(t *testing.T) {
	m := sampleModel(t)

	for _, path := range []string{"user", "api", "billing", "api.web", "api.db", "api.web.auth", "api.web.router"} {
		e, ok := m.GetElement(path)
		require.True(t, ok, "expected %s to be indexed", path)
		assert.Equal(t, path, e.FullPath())
	}

	e, ok := m.GetElement("api.web.auth")
	require.True(t, ok)
	assert.Equal(t, ElementTypeComponent, e.Kind())
	assert.Equal(t, "auth", e.Base().ID)

	_, ok = m.GetElement("missing")
	assert.False(t, ok)
	_, ok = m.GetElement("web")
	assert.False(t, ok, "bare container id is not a full path")
}

func TestBuildIndexes_ByTypeAndTag(t *testing.T) {
	m := sampleModel(t)

	systems := m.GetElementsByType(ElementTypeSystem)
	require.Len(t, systems, 2)
	assert.Equal(t, "api", systems[0].FullPath())
	assert.Equal(t, "billing", systems[1].FullPath())

	core := m.GetElementsByTag("core")
	require.Len(t, core, 2)
	assert.Equal(t, "api", core[0].FullPath())
	assert.Equal(t, "api.web", core[1].FullPath())

	assert.Empty(t, m.GetElementsByTag("nope"))
}

func TestBuildIndexes_Children(t *testing.T) {
	m := sampleModel(t)

	containers := m.GetChildren("api")
	require.Len(t, containers, 2)
	assert.Equal(t, "api.web", containers[0].FullPath())
	assert.Equal(t, "api.db", containers[1].FullPath())

	components := m.GetChildren("api.web")
	require.Len(t, components, 2)
	assert.Equal(t, "api.web.auth", components[0].FullPath())

	assert.Empty(t, m.GetChildren("billing"))
	assert.Empty(t, m.GetChildren("user"))
}

func TestBuildIndexes_Relationships(t *testing.T) {
	m := sampleModel(t)

	out := m.GetOutgoingRelationships("api.web")
	require.Len(t, out, 1)
	assert.Equal(t, "api.db", out[0].To)

	in := m.GetIncomingRelationships("api.db")
	require.Len(t, in, 2)
	assert.Equal(t, "api.web", in[0].From)
	assert.Equal(t, "api.web.auth", in[1].From)

	assert.Empty(t, m.GetOutgoingRelationships("api.db"))
	assert.Empty(t, m.GetIncomingRelationships("nowhere"))
}

func TestBuildIndexes_Duplicate(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Model)
		path  string
	}{
		{
			name: "person and system share id",
			setup: func(m *Model) {
				m.Persons = append(m.Persons, testPerson("shared"))
				m.Systems = append(m.Systems, testSystem("shared"))
			},
			path: "shared",
		},
		{
			name: "two containers in one system",
			setup: func(m *Model) {
				m.Systems = append(m.Systems, testSystem("api"))
				m.Containers = append(m.Containers, testContainer("api", "web"), testContainer("api", "web"))
			},
			path: "api.web",
		},
		{
			name: "component collides with nothing but itself",
			setup: func(m *Model) {
				m.Components = append(m.Components, testComponent("a", "b", "c"), testComponent("a", "b", "c"))
			},
			path: "a.b.c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.setup(m)
			err := m.BuildIndexes()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDuplicateElement))

			var dup *DuplicateElementError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.path, dup.Path)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestBuildIndexes_DuplicateKeepsPreviousIndex(t *testing.T) {
	m := sampleModel(t)
	m.Persons = append(m.Persons, testPerson("user"))

	require.Error(t, m.BuildIndexes())
	_, ok := m.GetElement("api.web")
	assert.True(t, ok)
}

func TestBuildIndexes_Rebuild(t *testing.T) {
	m := sampleModel(t)
	m.Systems = m.Systems[:1]
	require.NoError(t, m.BuildIndexes())

	_, ok := m.GetElement("billing")
	assert.False(t, ok)
	assert.Len(t, m.GetElementsByType(ElementTypeSystem), 1)
}

func TestAllElements_Order(t *testing.T) {
	m := sampleModel(t)
	var paths []string
	for _, e := range m.AllElements() {
		paths = append(paths, e.FullPath())
	}
	assert.Equal(t, []string{"user", "api", "billing", "api.web", "api.db", "api.web.auth", "api.web.router"}, paths)
}

func TestUnindexedModel(t *testing.T) {
	m := New()
	_, ok := m.GetElement("anything")
	assert.False(t, ok)
	assert.Nil(t, m.GetChildren("anything"))
	assert.Nil(t, m.GetOutgoingRelationships("anything"))
}

func TestModelJSON(t *testing.T) {
	m := sampleModel(t)
	ext := true
	m.Systems[1].External = &ext
	m.Options["showMinimap"] = true

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"persons", "systems", "containers", "components", "relationships", "flows", "deployments", "options"} {
		assert.Contains(t, raw, key)
	}
	assert.Len(t, raw, 8, "indices must not be serialized")

	flows, ok := raw["flows"].([]any)
	require.True(t, ok, "empty collections encode as arrays")
	assert.Empty(t, flows)

	containers := raw["containers"].([]any)
	first := containers[0].(map[string]any)
	assert.Equal(t, "web", first["id"])
	assert.Equal(t, "api", first["systemId"])
}

func TestNormalized(t *testing.T) {
	m := &Model{
		Persons: []Person{testPerson("user")},
		Flows: []Flow{
			{ID: "empty"},
			{ID: "full", Steps: []FlowStep{{Seq: 1, From: "a", To: "b"}}},
		},
	}

	n := m.Normalized()
	assert.NotNil(t, n.Systems)
	assert.NotNil(t, n.Options)
	assert.Equal(t, []FlowStep{}, n.Flows[0].Steps)
	assert.Len(t, n.Flows[1].Steps, 1)
	assert.Equal(t, "user", n.Persons[0].ID)

	assert.Nil(t, m.Systems, "original collections untouched")
	assert.Nil(t, m.Options)
	assert.Nil(t, m.Flows[0].Steps, "original flows untouched")
}

func TestParseElementType(t *testing.T) {
	for _, et := range ElementTypes {
		got, err := ParseElementType(string(et))
		require.NoError(t, err)
		assert.Equal(t, et, got)
		assert.NotEmpty(t, et.Collection())
	}

	_, err := ParseElementType("relationship")
	assert.Error(t, err)
	assert.Equal(t, "components", ElementTypeComponent.Collection())
}

func TestStats(t *testing.T) {
	m := sampleModel(t)
	s := m.Stats()
	assert.Equal(t, 1, s.Persons)
	assert.Equal(t, 2, s.Systems)
	assert.Equal(t, 2, s.Containers)
	assert.Equal(t, 2, s.Components)
	assert.Equal(t, 3, s.Relationships)
	assert.Zero(t, s.Flows)
}
