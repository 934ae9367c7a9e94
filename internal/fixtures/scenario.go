// Package fixtures runs small YAML-described tree-mutation scenarios
// (seed steps, a terminal query, expected resulting paths) against an
// in-memory SQLite-backed store.Store, so each scenario's behavior is
// checked both by direct assertion and by golden-file snapshot.
package fixtures

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is one mutation against the forest being built. "save"/"save_into"/
// "save_before"/"save_after" create a brand new node bound to Alias;
// "move_into"/"move_before"/"move_after" relocate the node already bound
// to Alias; "delete" removes it.
type Step struct {
	Alias  string `yaml:"alias"`
	Action string `yaml:"action"`
	Target string `yaml:"target,omitempty"`
}

// Query describes the terminal navigation run once all Steps have
// executed, bound to the node named by Self.
type Query struct {
	Self               string `yaml:"self"`
	Scope              string `yaml:"scope"` // roots | children | parent | siblings | excluding
	Direction          string `yaml:"direction,omitempty"`
	IncludeSelf        bool   `yaml:"include_self,omitempty"`
	IncludeDescendants bool   `yaml:"include_descendants,omitempty"`
	IncludeAncestors   bool   `yaml:"include_ancestors,omitempty"`
	ExcludeSelf        bool   `yaml:"exclude_self,omitempty"`
	ExcludeDescendants bool   `yaml:"exclude_descendants,omitempty"`
	Reverse            bool   `yaml:"reverse,omitempty"`
}

// Scenario is one fixture: a named, described sequence of Steps, an
// optional terminal Query, and the expected resulting paths.
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Steps       []Step   `yaml:"steps"`
	Query       *Query   `yaml:"query,omitempty"`
	ExpectPaths []string `yaml:"expect_paths,omitempty"`
	ExpectCount *int     `yaml:"expect_count,omitempty"`
}

// LoadScenario reads and strictly decodes a scenario YAML file, rejecting
// unknown fields so a typo'd key fails loudly instead of silently no-oping.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read scenario file: %w", err)
	}

	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("fixtures: parse scenario YAML: %w", err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("fixtures: invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.Alias == "" {
			return fmt.Errorf("steps[%d]: alias is required", i)
		}
		switch step.Action {
		case "save", "delete":
		case "save_into", "save_before", "save_after", "move_into", "move_before", "move_after":
			if step.Target == "" {
				return fmt.Errorf("steps[%d]: target is required for action %q", i, step.Action)
			}
		default:
			return fmt.Errorf("steps[%d]: unknown action %q", i, step.Action)
		}
	}
	if s.Query != nil {
		if s.Query.Self == "" {
			return fmt.Errorf("query.self is required")
		}
		switch s.Query.Scope {
		case "roots", "children", "parent", "siblings", "excluding":
		default:
			return fmt.Errorf("query.scope: unknown scope %q", s.Query.Scope)
		}
	}
	return nil
}
