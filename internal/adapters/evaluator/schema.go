package evaluator

import (
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ProjectFile represents the structure of a forge.yaml project file.
type ProjectFile struct {
	ToolsVersion   string      `yaml:"tools-version"`
	DefaultTargets []string    `yaml:"default-targets"`
	Properties     OrderedMap  `yaml:"properties"`
	Items          ItemsMap    `yaml:"items"`
	Targets        TargetTable `yaml:"targets"`
}

// TargetDTO represents a target definition in the project file.
type TargetDTO struct {
	Condition     string     `yaml:"condition"`
	DependsOn     []string   `yaml:"depends-on"`
	BeforeTargets []string   `yaml:"before-targets"`
	AfterTargets  []string   `yaml:"after-targets"`
	OnError       []string   `yaml:"on-error"`
	Tasks         []*TaskDTO `yaml:"tasks"`
}

// TaskDTO represents one task invocation inside a target body.
type TaskDTO struct {
	Task            string         `yaml:"task"`
	Condition       string         `yaml:"condition"`
	ContinueOnError bool           `yaml:"continue-on-error"`
	TaskHost        bool           `yaml:"task-host"`
	Parameters      map[string]any `yaml:"parameters"`
}

// OrderedMap is a string map that preserves YAML declaration order.
// Properties reference earlier properties during expansion, so order matters.
type OrderedMap struct {
	Keys   []string
	Values map[string]string
}

// UnmarshalYAML decodes a mapping node keeping key order.
func (m *OrderedMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return zerr.With(domain.ErrProjectParse, "reason", "expected a mapping")
	}

	m.Values = make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key, val string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&val); err != nil {
			return err
		}
		m.Keys = append(m.Keys, key)
		m.Values[key] = val
	}
	return nil
}

// ItemsMap maps item types to their spec lists, preserving declaration order.
type ItemsMap struct {
	Types []string
	Specs map[string][]string
}

// UnmarshalYAML decodes a mapping of item type to spec list.
func (m *ItemsMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return zerr.With(domain.ErrProjectParse, "reason", "expected a mapping")
	}

	m.Specs = make(map[string][]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return err
		}
		var specs []string
		if err := node.Content[i+1].Decode(&specs); err != nil {
			return err
		}
		m.Types = append(m.Types, key)
		m.Specs[key] = specs
	}
	return nil
}

// TargetTable maps target names to their definitions, preserving declaration
// order. Order determines the fallback default target and hook firing order.
type TargetTable struct {
	Names   []string
	Targets map[string]*TargetDTO
}

// UnmarshalYAML decodes a mapping of target name to definition.
func (t *TargetTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return zerr.With(domain.ErrProjectParse, "reason", "expected a mapping")
	}

	t.Targets = make(map[string]*TargetDTO, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return err
		}
		var dto TargetDTO
		if err := node.Content[i+1].Decode(&dto); err != nil {
			return err
		}
		t.Names = append(t.Names, name)
		t.Targets[name] = &dto
	}
	return nil
}
