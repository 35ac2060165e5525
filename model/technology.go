package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Technology is a normalized technology list. On input it accepts either a
// comma-separated scalar ("Go, gRPC") or a sequence; entries are trimmed and
// empty entries dropped. It always encodes as a list.
type Technology []string

// ParseTechnology splits a comma-separated technology string.
func ParseTechnology(s string) Technology {
	return normalizeTechnology(strings.Split(s, ","))
}

func normalizeTechnology(parts []string) Technology {
	out := make(Technology, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String joins the entries with ", ".
func (t Technology) String() string {
	return strings.Join(t, ", ")
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Technology) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*t = nil
			return nil
		}
		*t = ParseTechnology(value.Value)
		return nil
	case yaml.SequenceNode:
		var parts []string
		if err := value.Decode(&parts); err != nil {
			return fmt.Errorf("technology: %w", err)
		}
		*t = normalizeTechnology(parts)
		return nil
	default:
		return fmt.Errorf("technology: line %d: expected string or list", value.Line)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Technology) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = ParseTechnology(s)
		return nil
	}

	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("technology: expected string or list: %w", err)
	}
	*t = normalizeTechnology(parts)
	return nil
}
