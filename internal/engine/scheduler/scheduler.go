// Package scheduler assigns build requests to nodes, deduplicates
// concurrent equivalent requests and serves nested project-to-project
// builds within one build session.
package scheduler

import (
	"context"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/registry"
	"go.trai.ch/zerr"
)

// RequestState tracks a build request through its lifecycle.
type RequestState string

const (
	// StateUnscheduled means the request has not been seen yet.
	StateUnscheduled RequestState = "Unscheduled"
	// StateScheduled means the request is admitted and waiting for a node.
	StateScheduled RequestState = "Scheduled"
	// StateBlocked means the request is waiting on an equivalent in-flight
	// request and will reuse its result.
	StateBlocked RequestState = "Blocked"
	// StateExecuting means the request is running on a node.
	StateExecuting RequestState = "Executing"
	// StateCompleted means the request has a final result.
	StateCompleted RequestState = "Completed"
)

// Executor runs one request against its evaluated project on the local
// process. Nodes call back into it for in-process execution; out-of-process
// nodes run their own copy on the worker side.
type Executor interface {
	ExecuteRequest(ctx context.Context, req *domain.BuildRequest, nested ports.NestedBuilder) (*domain.BuildResult, error)
}

// flightKey identifies one equivalence class of requests: same configuration
// and same target set.
type flightKey struct {
	config  domain.ConfigurationID
	targets string
}

// flight is one in-flight execution. Later equivalent requests block on done
// and share the result instead of rebuilding.
type flight struct {
	done   chan struct{}
	result *domain.BuildResult
	err    error
}

// Scheduler routes requests to nodes. It implements ports.NestedBuilder so
// tasks can issue project-to-project builds through the same dedup and
// blocking rules as top-level submissions.
type Scheduler struct {
	pool     ports.NodePool
	registry *registry.Registry
	executor Executor
	tracer   ports.Tracer

	mu       sync.Mutex
	states   map[flightKey]RequestState
	inflight map[flightKey]*flight
}

// New creates a scheduler for one build session.
func New(pool ports.NodePool, reg *registry.Registry, executor Executor, tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		pool:     pool,
		registry: reg,
		executor: executor,
		tracer:   tracer,
		states:   make(map[flightKey]RequestState),
		inflight: make(map[flightKey]*flight),
	}
}

// State reports the lifecycle state of the request's equivalence class.
func (s *Scheduler) State(req *domain.BuildRequest) RequestState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[keyOf(req)]; ok {
		return st
	}
	return StateUnscheduled
}

func keyOf(req *domain.BuildRequest) flightKey {
	return flightKey{config: req.ConfigID, targets: req.TargetSetKey()}
}

// Submit executes one request, reusing an equivalent in-flight execution
// when one exists. Infrastructure failures (no node for the affinity,
// cancellation) surface as errors; target and task failures are encoded in
// the result.
func (s *Scheduler) Submit(ctx context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
	key := keyOf(req)

	s.mu.Lock()
	if f, ok := s.inflight[key]; ok {
		s.states[key] = StateBlocked
		s.mu.Unlock()
		return s.await(ctx, f, key)
	}

	f := &flight{done: make(chan struct{})}
	s.inflight[key] = f
	s.states[key] = StateScheduled
	s.mu.Unlock()

	f.result, f.err = s.execute(ctx, req, key)

	s.mu.Lock()
	delete(s.inflight, key)
	s.states[key] = StateCompleted
	s.mu.Unlock()
	close(f.done)

	return f.result, f.err
}

// await blocks until an equivalent in-flight request completes, then shares
// its outcome.
func (s *Scheduler) await(ctx context.Context, f *flight, key flightKey) (*domain.BuildResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		s.mu.Lock()
		s.states[key] = StateCompleted
		s.mu.Unlock()
		return nil, zerr.With(domain.ErrBuildCanceled, "cause", ctx.Err().Error())
	}
}

func (s *Scheduler) execute(ctx context.Context, req *domain.BuildRequest, key flightKey) (*domain.BuildResult, error) {
	ctx, span := s.tracer.Start(ctx, "request "+req.ConfigID.String())
	defer span.End()
	span.SetAttribute("forge.config", req.ConfigID.String())
	span.SetAttribute("forge.targets", req.TargetSetKey())

	node, err := s.pool.Acquire(ctx, req.Affinity)
	if err != nil {
		// An unsatisfiable affinity fails this request only; sibling
		// requests keep their nodes.
		span.RecordError(err)
		return nil, err
	}
	defer s.pool.Release(node)

	s.mu.Lock()
	s.states[key] = StateExecuting
	s.mu.Unlock()

	result, err := node.Execute(ctx, req, s.runLocal)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

// runLocal is the in-process execution path handed to nodes.
func (s *Scheduler) runLocal(ctx context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
	return s.executor.ExecuteRequest(ctx, req, s)
}

// BuildNested serves a project-to-project build issued by a task. The nested
// request goes through the same configuration registry and dedup rules as a
// top-level submission, so concurrent paths into the same project block on
// one build and share its result.
func (s *Scheduler) BuildNested(
	ctx context.Context,
	parent *domain.BuildRequest,
	path string,
	globalProps map[string]string,
	targetNames []string,
) (*domain.BuildResult, error) {
	props := globalProps
	if props == nil {
		props = parent.GlobalProperties
	}

	cfg := s.registry.GetOrCreate(path, props, parent.ToolsVersion)
	nested := &domain.BuildRequest{
		ConfigID:         cfg.ID,
		ProjectPath:      cfg.ProjectPath,
		GlobalProperties: cfg.GlobalProperties,
		ToolsVersion:     cfg.ToolsVersion,
		Targets:          targetNames,
		Affinity:         domain.AffinityAny,
	}
	return s.Submit(ctx, nested)
}
