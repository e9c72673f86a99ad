package domain

import (
	"maps"
	"sync"

	"go.trai.ch/zerr"
)

// Target is one named build step in a project's target graph.
type Target struct {
	Name          string
	Condition     string
	DependsOn     []string
	BeforeTargets []string
	AfterTargets  []string
	OnError       []string
	Tasks         []TaskInvocation
}

// TaskInvocation is one task call inside a target body.
type TaskInvocation struct {
	TaskName        string
	Condition       string
	ContinueOnError bool
	// UseTaskHost is the explicit TaskHostFactory override: when set the
	// task always runs in an isolated task-host process, regardless of the
	// routing policy.
	UseTaskHost bool
	Parameters  map[string]TaskValue
}

// ProjectInstance is the evaluated form of a project: a target graph plus a
// mutable property/item environment. Instances are mutated during a build
// (tasks may set properties and emit items) and the built state is retained
// by the for-build instance cache.
type ProjectInstance struct {
	Path           string
	ToolsVersion   string
	DefaultTargets []string
	Targets        map[string]*Target
	// TargetOrder preserves declaration order so BeforeTargets/AfterTargets
	// hooks fire deterministically.
	TargetOrder []string

	mu         sync.RWMutex
	properties map[string]string
	items      map[string][]string
}

// NewProjectInstance creates an instance with the given initial environment.
func NewProjectInstance(path, toolsVersion string, props map[string]string) *ProjectInstance {
	p := &ProjectInstance{
		Path:         path,
		ToolsVersion: toolsVersion,
		Targets:      make(map[string]*Target),
		properties:   make(map[string]string, len(props)),
		items:        make(map[string][]string),
	}
	maps.Copy(p.properties, props)
	return p
}

// Property returns the current value of a property, or "" if unset.
func (p *ProjectInstance) Property(name string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.properties[name]
}

// SetProperty sets a property on the live instance. An empty value removes
// the property.
func (p *ProjectInstance) SetProperty(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == "" {
		delete(p.properties, name)
		return
	}
	p.properties[name] = value
}

// HasProperty reports whether the property is currently set.
func (p *ProjectInstance) HasProperty(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.properties[name]
	return ok
}

// AddItems appends item specs to an item type.
func (p *ProjectInstance) AddItems(itemType string, specs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[itemType] = append(p.items[itemType], specs...)
}

// ItemValues returns a copy of the item specs for a type.
func (p *ProjectInstance) ItemValues(itemType string) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	vals := p.items[itemType]
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

// Snapshot captures the current property/item state of the instance.
func (p *ProjectInstance) Snapshot() *ProjectState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := &ProjectState{
		Properties: make(map[string]string, len(p.properties)),
		Items:      make(map[string][]string, len(p.items)),
	}
	maps.Copy(state.Properties, p.properties)
	for k, v := range p.items {
		vals := make([]string, len(v))
		copy(vals, v)
		state.Items[k] = vals
	}
	return state
}

// AddTarget registers a target on the instance.
func (p *ProjectInstance) AddTarget(t *Target) error {
	if _, exists := p.Targets[t.Name]; exists {
		return zerr.With(ErrTargetAlreadyExists, "target", t.Name)
	}
	p.Targets[t.Name] = t
	p.TargetOrder = append(p.TargetOrder, t.Name)
	return nil
}

// Target looks up a target by name.
func (p *ProjectInstance) Target(name string) (*Target, bool) {
	t, ok := p.Targets[name]
	return t, ok
}

// EntryTargets resolves the targets a request with the given explicit target
// list will start from, falling back to the project's default targets.
func (p *ProjectInstance) EntryTargets(requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return p.DefaultTargets
}
