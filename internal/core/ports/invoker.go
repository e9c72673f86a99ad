package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// TaskOutcome is the result of one task invocation.
type TaskOutcome struct {
	Succeeded bool
	Outputs   []domain.ItemHandle
}

// TaskContext gives a task access to its execution environment.
type TaskContext struct {
	Project *domain.ProjectInstance
	Request *domain.BuildRequest
	Target  string
	Sink    EventSink
	// Nested lets a task issue a project-to-project build request back into
	// the scheduler. Nil when nested builds are not available (task host).
	Nested NestedBuilder
}

// TaskDescriptor is the registration-time metadata for a task type. The
// isolation router reads the opt-in signals from here as explicit data
// rather than via runtime reflection.
type TaskDescriptor struct {
	Name     string
	Location string
	// InProcessMarker is the non-inheritable per-type marker consulted by
	// the attribute routing policy. It never propagates to derived types.
	InProcessMarker bool
	// Capability reports the execution-context capability consulted by the
	// interface routing policy. It propagates through Base unless the
	// declaring type is marked CapabilityNonInheritable.
	Capability bool
	// CapabilityNonInheritable stops Capability from propagating to derived
	// types. Used for base types that predate the isolation feature.
	CapabilityNonInheritable bool
	Base                     *TaskDescriptor
}

// TaskInvoker executes task invocations and exposes the registered task
// descriptors.
//
//go:generate mockgen -source=invoker.go -destination=mocks/mock_invoker.go -package=mocks
type TaskInvoker interface {
	// Invoke runs one task invocation in the current process.
	Invoke(ctx context.Context, inv *domain.TaskInvocation, tc *TaskContext) (*TaskOutcome, error)

	// Descriptor returns the registration metadata for a task name.
	Descriptor(taskName string) (*TaskDescriptor, bool)
}

// NestedBuilder accepts nested project-to-project build requests from tasks.
type NestedBuilder interface {
	// BuildNested builds another project on behalf of the parent request,
	// blocking until its result is available. Identical in-flight work is
	// reused rather than rebuilt.
	BuildNested(
		ctx context.Context,
		parent *domain.BuildRequest,
		path string,
		globalProps map[string]string,
		targets []string,
	) (*domain.BuildResult, error)
}

// TaskHost executes a single task invocation in an isolated process.
type TaskHost interface {
	// RunTask launches a task host, ships the configuration, and returns
	// the task's outcome.
	RunTask(ctx context.Context, cfg *domain.TaskHostConfig) (*TaskOutcome, error)
}
