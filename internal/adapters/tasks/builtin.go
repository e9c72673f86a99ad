package tasks

import (
	"context"
	"strings"
	"time"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// builtinLocation identifies built-in tasks in task-host configurations.
const builtinLocation = "builtin"

func (r *Registry) registerBuiltins() {
	// Diagnostic and property tasks are thread-safe: they carry both the
	// in-process marker and the capability so either routing policy keeps
	// them local.
	safe := func(name string) ports.TaskDescriptor {
		return ports.TaskDescriptor{
			Name:            name,
			Location:        builtinLocation,
			InProcessMarker: true,
			Capability:      true,
		}
	}

	r.Register(safe("Message"), runMessage)
	r.Register(safe("Warning"), runWarning)
	r.Register(safe("Error"), runError)
	r.Register(safe("SetProperty"), runSetProperty)
	r.Register(safe("CreateItem"), runCreateItem)
	r.Register(safe("Sleep"), runSleep)

	// BuildProject needs the scheduler's nested-build channel, which does
	// not exist inside a task host.
	r.Register(safe("BuildProject"), runBuildProject)

	// Exec shells out and is not declared thread-safe: under multi-threaded
	// routing it lands in a task host.
	r.Register(ports.TaskDescriptor{
		Name:     "Exec",
		Location: builtinLocation,
	}, runExec)
}

func publish(tc *ports.TaskContext, kind domain.EventKind, task, code, msg string) {
	if tc.Sink == nil {
		return
	}
	tc.Sink.Publish(domain.BuildEvent{
		Kind:    kind,
		Project: tc.Project.Path,
		Target:  tc.Target,
		Task:    task,
		Code:    code,
		Message: msg,
	})
}

func runMessage(_ context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	publish(tc, domain.EventMessage, "Message", "", stringParam(inv, tc, "Text"))
	return &ports.TaskOutcome{Succeeded: true}, nil
}

func runWarning(_ context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	publish(tc, domain.EventWarning, "Warning",
		stringParam(inv, tc, "Code"), stringParam(inv, tc, "Text"))
	return &ports.TaskOutcome{Succeeded: true}, nil
}

func runError(_ context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	publish(tc, domain.EventError, "Error",
		stringParam(inv, tc, "Code"), stringParam(inv, tc, "Text"))
	return &ports.TaskOutcome{Succeeded: false}, nil
}

func runSetProperty(_ context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	name := stringParam(inv, tc, "Name")
	if name == "" {
		return nil, zerr.With(domain.ErrProjectParse, "reason", "SetProperty requires a Name parameter")
	}
	tc.Project.SetProperty(name, stringParam(inv, tc, "Value"))
	return &ports.TaskOutcome{Succeeded: true}, nil
}

func runCreateItem(_ context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	handles := itemsParam(inv, tc, "Include")

	if itemType := stringParam(inv, tc, "ItemType"); itemType != "" {
		specs := make([]string, len(handles))
		for i, h := range handles {
			specs[i] = h.Spec
		}
		tc.Project.AddItems(itemType, specs...)
	}

	return &ports.TaskOutcome{Succeeded: true, Outputs: handles}, nil
}

// runSleep pauses for the Duration parameter. With Legacy=true the sleep is
// non-cooperative and runs to natural completion even when the build is
// being canceled.
func runSleep(ctx context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	d, err := time.ParseDuration(stringParam(inv, tc, "Duration"))
	if err != nil {
		return nil, zerr.Wrap(err, "invalid Sleep duration")
	}

	if boolParam(inv, tc, "Legacy") {
		time.Sleep(d)
		return &ports.TaskOutcome{Succeeded: true}, nil
	}

	select {
	case <-time.After(d):
		return &ports.TaskOutcome{Succeeded: true}, nil
	case <-ctx.Done():
		return nil, zerr.Wrap(ctx.Err(), domain.ErrBuildCanceled.Error())
	}
}

// runBuildProject issues a nested project-to-project build through the
// scheduler. Targets and Properties use semicolon-separated scalar syntax.
func runBuildProject(ctx context.Context, inv *domain.TaskInvocation, tc *ports.TaskContext) (*ports.TaskOutcome, error) {
	if tc.Nested == nil {
		return nil, zerr.With(domain.ErrUnknownTask, "reason", "BuildProject is unavailable in this execution context")
	}

	path := stringParam(inv, tc, "Project")
	if path == "" {
		return nil, zerr.With(domain.ErrProjectNotFound, "reason", "BuildProject requires a Project parameter")
	}

	var targets []string
	for _, t := range strings.Split(stringParam(inv, tc, "Targets"), ";") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}

	props := map[string]string{}
	for _, pair := range strings.Split(stringParam(inv, tc, "Properties"), ";") {
		if k, v, ok := strings.Cut(strings.TrimSpace(pair), "="); ok {
			props[k] = v
		}
	}

	result, err := tc.Nested.BuildNested(ctx, tc.Request, path, props, targets)
	if err != nil {
		return nil, err
	}

	var outputs []domain.ItemHandle
	for _, tr := range result.TargetResults {
		for _, item := range tr.Items {
			outputs = append(outputs, domain.ItemHandle{Spec: item})
		}
	}

	return &ports.TaskOutcome{Succeeded: result.Succeeded(), Outputs: outputs}, nil
}
