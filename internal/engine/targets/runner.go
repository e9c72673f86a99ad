// Package targets executes the target graph of an evaluated project for one
// build request: dependency ordering, before/after hooks, condition skips,
// result-cache replay and per-task isolation routing.
package targets

import (
	"context"
	"errors"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/router"
	"go.trai.ch/zerr"
)

// Runner executes build requests against evaluated project instances. One
// runner is shared by every request on a node; per-request state lives in
// the run struct.
type Runner struct {
	invoker       ports.TaskInvoker
	host          ports.TaskHost
	router        *router.Router
	cache         ports.ResultCache
	multiThreaded bool
	warnings      WarningPolicy
}

// NewRunner creates a runner.
func NewRunner(
	invoker ports.TaskInvoker,
	host ports.TaskHost,
	rt *router.Router,
	cache ports.ResultCache,
	multiThreaded bool,
	warnings WarningPolicy,
) *Runner {
	return &Runner{
		invoker:       invoker,
		host:          host,
		router:        rt,
		cache:         cache,
		multiThreaded: multiThreaded,
		warnings:      warnings,
	}
}

// targetState tracks the walk through the dependency graph.
type targetState int

const (
	stateVisiting targetState = iota + 1
	stateDone
)

// run is the per-request execution state.
type run struct {
	r       *Runner
	ctx     context.Context
	req     *domain.BuildRequest
	project *domain.ProjectInstance
	sink    *promotingSink
	nested  ports.NestedBuilder
	result  *domain.BuildResult

	states map[string]targetState
	// before and after index hook targets by the target they attach to,
	// in declaration order.
	before map[string][]string
	after  map[string][]string
}

// Execute runs the request's entry targets (or the project defaults) against
// the live project instance. Target and task failures are encoded in the
// returned BuildResult; only graph-shape problems (unknown targets, cycles)
// and cancellation surface as errors.
func (r *Runner) Execute(
	ctx context.Context,
	req *domain.BuildRequest,
	project *domain.ProjectInstance,
	sink ports.EventSink,
	nested ports.NestedBuilder,
) (*domain.BuildResult, error) {
	ps := newPromotingSink(sink, r.warnings)
	rn := &run{
		r:       r,
		ctx:     ctx,
		req:     req,
		project: project,
		sink:    ps,
		nested:  nested,
		result:  domain.NewBuildResult(req.ConfigID),
		states:  make(map[string]targetState),
		before:  make(map[string][]string),
		after:   make(map[string][]string),
	}
	rn.indexHooks()

	entry := project.EntryTargets(req.Targets)
	for _, name := range entry {
		if _, ok := project.Target(name); !ok {
			return nil, zerr.With(domain.ErrTargetNotFound, "target", name)
		}
	}

	rn.publish(domain.BuildEvent{
		Kind:     domain.EventProjectStarted,
		ConfigID: req.ConfigID,
		Project:  project.Path,
	})

	var execErr error
	for _, name := range entry {
		if execErr = rn.runTarget(name); execErr != nil {
			break
		}
	}

	if rn.sink.Promoted() {
		rn.result.MarkOverallFailure()
	}
	if execErr != nil {
		rn.result.MarkOverallFailure()
		rn.result.Exception = execErr.Error()
	}
	if req.Flags.Has(domain.FlagProvideProjectStateAfterBuild) {
		rn.result.ProjectStateAfterBuild = project.Snapshot()
	}

	rn.publish(domain.BuildEvent{
		Kind:      domain.EventProjectFinished,
		ConfigID:  req.ConfigID,
		Project:   project.Path,
		Succeeded: rn.result.Succeeded(),
		// The snapshot is for logging; out-of-process nodes trim it with
		// the forwarding allow-list before it crosses the wire.
		Properties: project.Snapshot().Properties,
	})

	return rn.result, execErr
}

// indexHooks inverts BeforeTargets/AfterTargets declarations. Declaration
// order of the hooking targets decides firing order.
func (rn *run) indexHooks() {
	for _, name := range rn.project.TargetOrder {
		t := rn.project.Targets[name]
		for _, attach := range t.BeforeTargets {
			rn.before[attach] = append(rn.before[attach], name)
		}
		for _, attach := range t.AfterTargets {
			rn.after[attach] = append(rn.after[attach], name)
		}
	}
}

func (rn *run) publish(e domain.BuildEvent) {
	rn.sink.Publish(e)
}

// runTarget executes one target and everything it pulls in: dependencies,
// before hooks, the task body, after hooks and the OnError chain. Each target
// executes at most once per request.
func (rn *run) runTarget(name string) error {
	switch rn.states[name] {
	case stateDone:
		return nil
	case stateVisiting:
		return zerr.With(domain.ErrTargetCycle, "target", name)
	}

	t, ok := rn.project.Target(name)
	if !ok {
		return zerr.With(domain.ErrTargetNotFound, "target", name)
	}

	rn.states[name] = stateVisiting
	defer func() { rn.states[name] = stateDone }()

	// A previously recorded verdict replays instead of re-executing. A
	// replayed failure stays a failure; condition skips are never recorded,
	// so they always re-evaluate.
	if replayed, err := rn.replayCached(name); err != nil || replayed {
		return err
	}

	passed, err := domain.EvalCondition(t.Condition, rn.project.Property)
	if err != nil {
		return zerr.With(err, "target", name)
	}
	if !passed {
		rn.publish(domain.BuildEvent{
			Kind:    domain.EventTargetSkipped,
			Project: rn.project.Path,
			Target:  name,
			Message: "condition was false",
		})
		rn.record(name, domain.TargetResult{
			Code:           domain.TargetSkipped,
			Message:        "condition was false",
			ConditionFalse: true,
		})
		return nil
	}

	tr := domain.TargetResult{Code: domain.TargetSuccess}

	depsFailed, err := rn.runDependencies(t)
	if err != nil {
		return err
	}
	if depsFailed {
		tr = domain.TargetResult{
			Code:    domain.TargetFailure,
			Message: "a dependency of the target failed",
		}
	} else {
		for _, hook := range rn.before[name] {
			if err := rn.runTarget(hook); err != nil {
				return err
			}
		}

		rn.publish(domain.BuildEvent{
			Kind:    domain.EventTargetStarted,
			Project: rn.project.Path,
			Target:  name,
		})
		tr = rn.runBody(t)
		rn.publish(domain.BuildEvent{
			Kind:      domain.EventTargetFinished,
			Project:   rn.project.Path,
			Target:    name,
			Succeeded: tr.Code != domain.TargetFailure,
		})
	}

	rn.record(name, tr)

	if tr.Code == domain.TargetFailure {
		for _, handler := range t.OnError {
			if err := rn.runTarget(handler); err != nil {
				return err
			}
		}
		return nil
	}

	for _, hook := range rn.after[name] {
		if err := rn.runTarget(hook); err != nil {
			return err
		}
	}
	return nil
}

// runDependencies executes DependsOn targets and reports whether any failed.
func (rn *run) runDependencies(t *domain.Target) (failed bool, err error) {
	for _, dep := range t.DependsOn {
		if err := rn.runTarget(dep); err != nil {
			return false, err
		}
		if res, ok := rn.result.TargetResults[dep]; ok && res.Code == domain.TargetFailure {
			failed = true
		}
	}
	return failed, nil
}

// replayCached consults the result cache for a prior verdict on this target.
func (rn *run) replayCached(name string) (bool, error) {
	cached, err := rn.r.cache.Lookup(rn.req.ConfigID, name)
	if err != nil {
		return false, err
	}
	if cached == nil {
		return false, nil
	}

	rn.publish(domain.BuildEvent{
		Kind:    domain.EventTargetSkipped,
		Project: rn.project.Path,
		Target:  name,
		Message: "target is already complete",
	})
	rn.record(name, *cached)
	return true, nil
}

// record stores the verdict on the result and persists it. Condition skips
// never reach disk; the cache refuses them.
func (rn *run) record(name string, tr domain.TargetResult) {
	rn.result.RecordTarget(name, tr)
	_ = rn.r.cache.Store(rn.req.ConfigID, name, tr)
}

// runBody executes the target's task invocations in order.
func (rn *run) runBody(t *domain.Target) domain.TargetResult {
	tr := domain.TargetResult{Code: domain.TargetSuccess}

	for i := range t.Tasks {
		inv := &t.Tasks[i]

		passed, err := domain.EvalCondition(inv.Condition, rn.project.Property)
		if err != nil {
			return domain.TargetResult{Code: domain.TargetFailure, Message: err.Error()}
		}
		if !passed {
			continue
		}

		rn.publish(domain.BuildEvent{
			Kind:    domain.EventTaskStarted,
			Project: rn.project.Path,
			Target:  t.Name,
			Task:    inv.TaskName,
		})

		outcome, err := rn.invokeTask(t.Name, inv)

		succeeded := err == nil && outcome.Succeeded
		rn.publish(domain.BuildEvent{
			Kind:      domain.EventTaskFinished,
			Project:   rn.project.Path,
			Target:    t.Name,
			Task:      inv.TaskName,
			Succeeded: succeeded,
		})

		if err != nil {
			if errors.Is(err, domain.ErrBuildCanceled) || rn.ctx.Err() != nil {
				return domain.TargetResult{Code: domain.TargetFailure, Message: domain.ErrBuildCanceled.Error()}
			}
			if inv.ContinueOnError {
				rn.publish(domain.BuildEvent{
					Kind:    domain.EventWarning,
					Project: rn.project.Path,
					Target:  t.Name,
					Task:    inv.TaskName,
					Message: err.Error(),
				})
				continue
			}
			return domain.TargetResult{Code: domain.TargetFailure, Message: err.Error()}
		}

		if !outcome.Succeeded {
			if inv.ContinueOnError {
				continue
			}
			return domain.TargetResult{Code: domain.TargetFailure, Message: "task " + inv.TaskName + " failed"}
		}

		for _, h := range outcome.Outputs {
			tr.Items = append(tr.Items, h.Spec)
		}

		// A task that does not honor cancellation runs to natural
		// completion; the canceled build still reports failure.
		if rn.ctx.Err() != nil {
			return domain.TargetResult{Code: domain.TargetFailure, Message: domain.ErrBuildCanceled.Error()}
		}
	}

	return tr
}

// invokeTask routes one task invocation to the in-process registry or an
// isolated task host.
func (rn *run) invokeTask(target string, inv *domain.TaskInvocation) (*ports.TaskOutcome, error) {
	desc, ok := rn.r.invoker.Descriptor(inv.TaskName)
	if !ok {
		return nil, zerr.With(domain.ErrUnknownTask, "task", inv.TaskName)
	}

	route := rn.r.router.Route(desc, inv.UseTaskHost, rn.r.multiThreaded)
	if route == router.RouteTaskHost && rn.r.host != nil {
		return rn.invokeInTaskHost(desc, inv)
	}

	return rn.r.invoker.Invoke(rn.ctx, inv, &ports.TaskContext{
		Project: rn.project,
		Request: rn.req,
		Target:  target,
		Sink:    rn.sink,
		Nested:  rn.nested,
	})
}

func (rn *run) invokeInTaskHost(desc *ports.TaskDescriptor, inv *domain.TaskInvocation) (*ports.TaskOutcome, error) {
	cfg, err := domain.NewTaskHostConfig(desc.Name, desc.Location)
	if err != nil {
		return nil, err
	}
	cfg.ProjectPath = rn.project.Path
	cfg.ContinueOnError = inv.ContinueOnError
	cfg.Parameters = rn.expandedParameters(inv)
	cfg.GlobalProperties = rn.req.GlobalProperties
	cfg.WarningsAsErrors = rn.r.warnings.AsErrors
	cfg.WarningsNotAsErrors = rn.r.warnings.NotAsErrors
	cfg.WarningsAsMessages = rn.r.warnings.AsMessages

	rn.publish(domain.BuildEvent{
		Kind:    domain.EventTaskHostLaunch,
		Project: rn.project.Path,
		Task:    desc.Name,
		Message: "launching task in external task host",
	})

	return rn.r.host.RunTask(rn.ctx, cfg)
}

// expandedParameters resolves property references in primitive parameters
// before they cross the process boundary: the task host has no access to the
// live property environment.
func (rn *run) expandedParameters(inv *domain.TaskInvocation) map[string]domain.TaskValue {
	out := make(map[string]domain.TaskValue, len(inv.Parameters))
	for k, v := range inv.Parameters {
		if v.Kind == domain.KindPrimitive {
			out[k] = domain.PrimitiveValue(domain.ExpandProperties(v.Primitive, rn.project.Property))
			continue
		}
		out[k] = v
	}
	return out
}
