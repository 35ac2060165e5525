package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTechnology_YAML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Technology
	}{
		{"comma string", `technology: "Go, gRPC"`, Technology{"Go", "gRPC"}},
		{"padded string", `technology: "  Go  ,  gRPC  ,  REST  "`, Technology{"Go", "gRPC", "REST"}},
		{"list", "technology:\n  - Go\n  - gRPC", Technology{"Go", "gRPC"}},
		{"list with blanks", "technology:\n  - ' Go '\n  - ''", Technology{"Go"}},
		{"empty string", `technology: ""`, Technology{}},
		{"trailing comma", `technology: "Go,"`, Technology{"Go"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Container
			require.NoError(t, yaml.Unmarshal([]byte(tt.input), &c))
			assert.Equal(t, tt.want, c.Technology)
		})
	}
}

func TestTechnology_YAMLRejectsMapping(t *testing.T) {
	var c Container
	err := yaml.Unmarshal([]byte("technology:\n  lang: go"), &c)
	assert.Error(t, err)
}

func TestTechnology_JSON(t *testing.T) {
	var fromString Technology
	require.NoError(t, json.Unmarshal([]byte(`"Go, gRPC"`), &fromString))
	assert.Equal(t, Technology{"Go", "gRPC"}, fromString)

	var fromList Technology
	require.NoError(t, json.Unmarshal([]byte(`["Go", " gRPC "]`), &fromList))
	assert.Equal(t, Technology{"Go", "gRPC"}, fromList)

	data, err := json.Marshal(Technology{"Go", "gRPC"})
	require.NoError(t, err)
	assert.JSONEq(t, `["Go","gRPC"]`, string(data))

	var bad Technology
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestTechnology_EmptyIsOmitted(t *testing.T) {
	c := Container{
		BaseElement: BaseElement{ID: "web", Name: "Web"},
		SystemID:    "api",
		Technology:  ParseTechnology(""),
	}
	data, err := json.Marshal(&c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "technology")
}

func TestElementYAMLInline(t *testing.T) {
	input := `
id: handler
name: Handler
description: Handles requests
tags: [edge]
properties:
  owner: team-a
  sla: 99.9
technology: Go
systemId: sys1
containerId: api
`
	var c Component
	require.NoError(t, yaml.Unmarshal([]byte(input), &c))
	assert.Equal(t, "handler", c.ID)
	assert.Equal(t, "Handler", c.Name)
	assert.Equal(t, "Handles requests", c.Description)
	assert.Equal(t, []string{"edge"}, c.Tags)
	assert.Equal(t, "team-a", c.Properties["owner"])
	assert.Equal(t, Technology{"Go"}, c.Technology)
	assert.Equal(t, "sys1.api.handler", c.FullPath())
}
