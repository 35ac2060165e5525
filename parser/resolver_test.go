package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/c4/model"
)

func newIndexedModel(t *testing.T, build func(m *model.Model)) *model.Model {
	t.Helper()
	m := model.New()
	build(m)
	require.NoError(t, m.BuildIndexes())
	return m
}

func person(id string) model.Person {
	return model.Person{BaseElement: model.BaseElement{ID: id, Name: id}}
}

func system(id string) model.SoftwareSystem {
	return model.SoftwareSystem{BaseElement: model.BaseElement{ID: id, Name: id}}
}

func TestResolve_Clean(t *testing.T) {
	m := newIndexedModel(t, func(m *model.Model) {
		m.Persons = append(m.Persons, person("user"))
		m.Systems = append(m.Systems, system("shop"))
		m.Containers = append(m.Containers, model.Container{
			BaseElement: model.BaseElement{ID: "web", Name: "Web"}, SystemID: "shop",
		})
		m.Relationships = append(m.Relationships, model.Relationship{From: "user", To: "shop.web"})
	})

	errs := Resolve(m)
	assert.NotNil(t, errs)
	assert.Empty(t, errs)
}

func TestResolve_UnresolvedWithSuggestion(t *testing.T) {
	m := newIndexedModel(t, func(m *model.Model) {
		m.Persons = append(m.Persons, person("user"))
		m.Systems = append(m.Systems, system("system-b"))
		m.Relationships = append(m.Relationships, model.Relationship{From: "user", To: "system-a"})
	})

	errs := Resolve(m)
	require.Len(t, errs, 1)
	assert.Equal(t, "relationship.to(system-a)", errs[0].Path)
	assert.Contains(t, errs[0].Message, "system-a")
	assert.Contains(t, errs[0].Message, "did you mean 'system-b'?")
	assert.Equal(t, "unresolved reference 'system-a' (did you mean 'system-b'?)", errs[0].Message)
}

func TestResolve_AllChecksInOrder(t *testing.T) {
	replicas := 2
	m := newIndexedModel(t, func(m *model.Model) {
		m.Systems = append(m.Systems, system("shop"))
		m.Containers = append(m.Containers,
			model.Container{BaseElement: model.BaseElement{ID: "web", Name: "Web"}, SystemID: "shop"},
			model.Container{BaseElement: model.BaseElement{ID: "ghost", Name: "Ghost"}, SystemID: "nowhere"},
		)
		m.Components = append(m.Components, model.Component{
			BaseElement: model.BaseElement{ID: "auth", Name: "Auth"}, SystemID: "shop", ContainerID: "api",
		})
		m.Relationships = append(m.Relationships, model.Relationship{From: "", To: "shop"})
		m.Flows = append(m.Flows, model.Flow{
			ID: "checkout", Name: "Checkout",
			Steps: []model.FlowStep{{Seq: 1, From: "shop.web", To: "qq"}},
		})
		m.Deployments = append(m.Deployments, model.Deployment{
			ID: "prod", Name: "Production",
			Nodes: []model.DeploymentNode{{
				ID: "cluster", Name: "Cluster",
				Children: []model.DeploymentNode{{
					ID: "pod", Name: "Pod",
					Instances: []model.ContainerInstance{{Container: "shop.we", Replicas: &replicas}},
				}},
			}},
		})
	})

	errs := Resolve(m)
	require.Len(t, errs, 5)

	assert.Equal(t, "relationship.from()", errs[0].Path)
	assert.Equal(t, "empty reference", errs[0].Message)

	assert.Equal(t, "flow.checkout.step.1.to", errs[1].Path)
	assert.Equal(t, "unresolved reference 'qq'", errs[1].Message)

	assert.Equal(t, "deployment.prod.node.pod.instance", errs[2].Path)
	assert.Contains(t, errs[2].Message, "did you mean 'shop.web'?")

	assert.Equal(t, "nowhere.ghost", errs[3].Path)
	assert.Equal(t, "container references unknown system 'nowhere'", errs[3].Message)

	assert.Equal(t, "shop.api.auth", errs[4].Path)
	assert.Equal(t, "component references unknown container 'shop.api'", errs[4].Message)

	assert.Equal(t, errs, Resolve(m), "results are order-stable")
}

func TestFindSimilar(t *testing.T) {
	m := newIndexedModel(t, func(m *model.Model) {
		m.Systems = append(m.Systems, system("api"), system("api-gateway"))
	})
	r := NewResolver(m)

	got, ok := r.FindSimilar("api-gate")
	require.True(t, ok)
	assert.Equal(t, "api-gateway", got, "longer prefix wins")

	_, ok = r.FindSimilar("xyz")
	assert.False(t, ok)

	_, ok = r.FindSimilar("a")
	assert.False(t, ok, "one-byte prefix is below threshold")

	got, ok = r.FindSimilar("other.apx")
	require.True(t, ok, "only the last segment is compared")
	assert.Equal(t, "api", got, "tie between api and api-gateway goes to the first enumerated")
}

func TestFindSimilar_ReturnsFullPath(t *testing.T) {
	m := newIndexedModel(t, func(m *model.Model) {
		m.Systems = append(m.Systems, system("shop"))
		m.Containers = append(m.Containers, model.Container{
			BaseElement: model.BaseElement{ID: "database", Name: "DB"}, SystemID: "shop",
		})
	})

	got, ok := NewResolver(m).FindSimilar("shop.datbase")
	require.True(t, ok)
	assert.Equal(t, "shop.database", got)
}

func TestFindSimilar_MissesNonPrefixTypos(t *testing.T) {
	m := newIndexedModel(t, func(m *model.Model) {
		m.Systems = append(m.Systems, system("billing"))
	})
	r := NewResolver(m)

	_, ok := r.FindSimilar("xbilling")
	assert.False(t, ok, "leading typo")
	_, ok = r.FindSimilar("ibllling")
	assert.False(t, ok, "transposition at the start")
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Path: "relationship.to(x)", Message: "unresolved reference 'x'"}
	assert.Equal(t, "relationship.to(x): unresolved reference 'x'", e.Error())

	e.File, e.Line = "data/model.yaml", 12
	assert.Equal(t, "data/model.yaml:12: relationship.to(x): unresolved reference 'x'", e.Error())
}

func TestLint(t *testing.T) {
	m := newIndexedModel(t, func(m *model.Model) {
		m.Persons = append(m.Persons, model.Person{BaseElement: model.BaseElement{ID: "anon"}})
		m.Systems = append(m.Systems, system("shop"))
		m.Flows = append(m.Flows, model.Flow{ID: "empty", Name: "Empty"})
	})

	warnings := Lint(m)
	require.Len(t, warnings, 2)
	assert.Equal(t, "anon", warnings[0].Path)
	assert.Equal(t, "person has no name", warnings[0].Message)
	assert.Equal(t, "flow.empty", warnings[1].Path)
}
