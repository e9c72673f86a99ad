// Package tasks implements the built-in task set and the registry that
// dispatches task invocations. Registration metadata carries the isolation
// opt-in signals the router consumes.
package tasks

import (
	"context"
	"strings"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskFunc is the in-process implementation of one task type.
type TaskFunc func(ctx context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error)

// Registry implements ports.TaskInvoker over a named task table.
type Registry struct {
	logger ports.Logger

	mu    sync.RWMutex
	tasks map[string]*registration
}

type registration struct {
	desc ports.TaskDescriptor
	fn   TaskFunc
}

// NewRegistry creates a registry pre-populated with the built-in tasks.
func NewRegistry(logger ports.Logger) *Registry {
	r := &Registry{
		logger: logger,
		tasks:  make(map[string]*registration),
	}
	r.registerBuiltins()
	return r
}

// Register adds or replaces a task type. Replacement is deliberate: tests
// and embedders may shadow a built-in.
func (r *Registry) Register(desc ports.TaskDescriptor, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[desc.Name] = &registration{desc: desc, fn: fn}
}

// Descriptor returns the registration metadata for a task name.
func (r *Registry) Descriptor(taskName string) (*ports.TaskDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.tasks[taskName]
	if !ok {
		return nil, false
	}
	desc := reg.desc
	return &desc, true
}

// Invoke runs one task invocation in the current process.
func (r *Registry) Invoke(ctx context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	r.mu.RLock()
	reg, ok := r.tasks[inv.TaskName]
	r.mu.RUnlock()

	if !ok {
		return nil, zerr.With(domain.ErrUnknownTask, "task", inv.TaskName)
	}

	return reg.fn(ctx, inv, tc)
}

// stringParam resolves a parameter to a scalar string with property
// references expanded against the live project. Item values reduce to their
// specs.
func stringParam(inv *domain.TaskInvocation, tc *ports.TaskContext, name string) string {
	v, ok := inv.Parameters[name]
	if !ok {
		return ""
	}

	switch v.Kind {
	case domain.KindPrimitive:
		return domain.ExpandProperties(v.Primitive, tc.Project.Property)
	case domain.KindItemHandle:
		return v.Item.Spec
	case domain.KindItemHandleArray:
		specs := make([]string, len(v.Array))
		for i, h := range v.Array {
			specs[i] = h.Spec
		}
		return strings.Join(specs, ";")
	default:
		return ""
	}
}

// boolParam resolves a parameter as a boolean; absent or non-"true" is false.
func boolParam(inv *domain.TaskInvocation, tc *ports.TaskContext, name string) bool {
	return strings.EqualFold(stringParam(inv, tc, name), "true")
}

// itemsParam resolves a parameter to item handles. A primitive splits on
// semicolons, matching the scalar item-list syntax.
func itemsParam(inv *domain.TaskInvocation, tc *ports.TaskContext, name string) []domain.ItemHandle {
	v, ok := inv.Parameters[name]
	if !ok {
		return nil
	}

	switch v.Kind {
	case domain.KindItemHandle:
		return []domain.ItemHandle{*v.Item}
	case domain.KindItemHandleArray:
		return v.Array
	case domain.KindPrimitive:
		expanded := domain.ExpandProperties(v.Primitive, tc.Project.Property)
		var handles []domain.ItemHandle
		for _, spec := range strings.Split(expanded, ";") {
			spec = strings.TrimSpace(spec)
			if spec != "" {
				handles = append(handles, domain.ItemHandle{Spec: spec})
			}
		}
		return handles
	default:
		return nil
	}
}
