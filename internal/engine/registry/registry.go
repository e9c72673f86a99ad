// Package registry tracks build configurations and the live project
// instances built against them within one build manager.
package registry

import (
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Registry deduplicates configuration tuples and caches the evaluated
// project instance per configuration. Instances are live: tasks mutate their
// property/item state during a build, and the mutated state stays visible to
// later equivalent requests until the registry is reset.
type Registry struct {
	evaluator ports.Evaluator

	mu         sync.Mutex
	generation int
	configs    map[domain.ConfigurationID]*domain.BuildConfiguration
	instances  map[domain.ConfigurationID]*instanceEntry
	nextSeq    int
}

// instanceEntry guards one configuration's evaluation so concurrent requests
// for the same configuration evaluate it exactly once.
type instanceEntry struct {
	once     sync.Once
	instance *domain.ProjectInstance
	err      error
}

// New creates an empty registry backed by the given evaluator.
func New(evaluator ports.Evaluator) *Registry {
	return &Registry{
		evaluator: evaluator,
		configs:   make(map[domain.ConfigurationID]*domain.BuildConfiguration),
		instances: make(map[domain.ConfigurationID]*instanceEntry),
	}
}

// GetOrCreate resolves a configuration tuple to its registered entry,
// creating it on first sight. Equivalent tuples always return the same entry.
func (r *Registry) GetOrCreate(path string, globalProps map[string]string, toolsVersion string) *domain.BuildConfiguration {
	id := domain.NewConfigurationID(path, globalProps, toolsVersion)

	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.configs[id]; ok {
		return cfg
	}

	props := make(map[string]string, len(globalProps))
	for k, v := range globalProps {
		props[k] = v
	}

	r.nextSeq++
	cfg := &domain.BuildConfiguration{
		ID:               id,
		Seq:              r.nextSeq,
		ProjectPath:      domain.NormalizeProjectPath(path),
		GlobalProperties: props,
		ToolsVersion:     toolsVersion,
	}
	r.configs[id] = cfg
	return cfg
}

// Lookup returns the registered configuration for an ID, if any.
func (r *Registry) Lookup(id domain.ConfigurationID) (*domain.BuildConfiguration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[id]
	return cfg, ok
}

// Count returns the number of registered configurations.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

// InstanceForBuild returns the live project instance for a configuration,
// evaluating the project on first use. The returned instance reflects any
// state mutations made by targets that already ran against it.
func (r *Registry) InstanceForBuild(cfg *domain.BuildConfiguration) (*domain.ProjectInstance, error) {
	r.mu.Lock()
	entry, ok := r.instances[cfg.ID]
	if !ok {
		entry = &instanceEntry{}
		r.instances[cfg.ID] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		entry.instance, entry.err = r.evaluator.Evaluate(cfg.ProjectPath, cfg.GlobalProperties, cfg.ToolsVersion)
	})

	if entry.err != nil {
		return nil, zerr.With(entry.err, "config", cfg.ID.String())
	}
	return entry.instance, nil
}

// Generation returns the current reset generation. It bumps on every Reset
// so callers holding stale instances can detect the flush.
func (r *Registry) Generation() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Reset drops all registered configurations and cached instances. The next
// request for any configuration re-evaluates its project from scratch.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.configs = make(map[domain.ConfigurationID]*domain.BuildConfiguration)
	r.instances = make(map[domain.ConfigurationID]*instanceEntry)
	r.nextSeq = 0
}
