// Package manager implements the user-facing build lifecycle: BeginBuild
// opens a build session, submissions are pended and executed against it,
// EndBuild drains them and returns the manager to idle. The manager owns
// the session-scoped pieces (node pool, scheduler, target runner, result
// cache scope) and enforces the legality of every lifecycle operation.
package manager

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/registry"
	"go.trai.ch/forge/internal/engine/router"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/forge/internal/engine/targets"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// completionQueueSize bounds how many completed submissions can be waiting
// for their callback before completing goroutines start blocking.
const completionQueueSize = 64

// BuildParameters configure one BeginBuild...EndBuild session.
type BuildParameters struct {
	// MaxNodeCount bounds the total node count, the in-process node
	// included. Zero means one node.
	MaxNodeCount int
	// EnableNodeReuse keeps idle worker nodes alive across sequential
	// build sessions on the same manager.
	EnableNodeReuse bool
	// DisableInProcNode forces every request out of process. Requests that
	// explicitly require the in-process node then fail.
	DisableInProcNode bool
	// MultiThreaded enables concurrent request execution, which also arms
	// the task isolation routing policy.
	MultiThreaded bool
	// OnlyLogCriticalEvents drops everything below warning severity from
	// the event stream, keeping the build boundary events.
	OnlyLogCriticalEvents bool
	// IsolationPolicy selects how task types opt in to in-process
	// execution. Empty means the attribute policy.
	IsolationPolicy router.Policy

	WarningsAsErrors    []string
	WarningsNotAsErrors []string
	WarningsAsMessages  []string

	// ResetCaches drops all cached target results and registered
	// configurations before the session starts.
	ResetCaches bool
	// SaveOperatingEnvironment snapshots the working directory and process
	// environment at BeginBuild and restores both at EndBuild. When false
	// the engine never mutates either.
	SaveOperatingEnvironment bool

	// Sinks receive the build event stream.
	Sinks []ports.EventSink
}

// RequestData describes one build request before its configuration is
// registered.
type RequestData struct {
	ProjectPath      string
	GlobalProperties map[string]string
	ToolsVersion     string
	Targets          []string
	Affinity         domain.NodeAffinity
	Flags            domain.RequestFlags
}

type managerState int

const (
	stateIdle managerState = iota
	stateBuilding
)

// Manager coordinates build submissions against a shared configuration
// registry and result cache scope. It implements scheduler.Executor for
// in-process request execution.
type Manager struct {
	invoker   ports.TaskInvoker
	caches    ports.ResultCacheFactory
	pools     ports.NodePoolFactory
	host      ports.TaskHost
	tracer    ports.Tracer
	logger    ports.Logger
	cacheRoot string

	registry *registry.Registry

	mu          sync.Mutex
	state       managerState
	ending      bool
	closed      bool
	params      BuildParameters
	cache       ports.ResultCache
	pool        ports.NodePool
	poolCfg     ports.NodePoolConfig
	sched       *scheduler.Scheduler
	runner      *targets.Runner
	sink        ports.EventSink
	buildCtx    context.Context
	cancelBuild context.CancelFunc
	env         *envSnapshot
	submissions []*Submission
	nextSubID   int
	queue       chan *Submission
	queueDone   chan struct{}

	// inCallback is true while the completion queue goroutine is inside a
	// callback, which is the only place EndBuild may be re-entered from.
	inCallback atomic.Bool
}

// New creates an idle build manager. An empty cacheRoot uses the default
// per-user cache root; each manager opens its own scope directory under it.
func New(
	evaluator ports.Evaluator,
	invoker ports.TaskInvoker,
	caches ports.ResultCacheFactory,
	pools ports.NodePoolFactory,
	host ports.TaskHost,
	tracer ports.Tracer,
	logger ports.Logger,
	cacheRoot string,
) *Manager {
	if cacheRoot == "" {
		cacheRoot = domain.DefaultCacheRoot()
	}
	return &Manager{
		invoker:   invoker,
		caches:    caches,
		pools:     pools,
		host:      host,
		tracer:    tracer,
		logger:    logger,
		cacheRoot: cacheRoot,
		registry:  registry.New(evaluator),
		nextSubID: 1,
	}
}

// BeginBuild opens a build session with the given parameters. It fails with
// domain.ErrAlreadyBuilding while a session is open.
func (m *Manager) BeginBuild(params BuildParameters) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrManagerClosed
	}
	if m.state == stateBuilding {
		return domain.ErrAlreadyBuilding
	}

	if m.cache == nil {
		c, err := m.caches.Open(m.cacheRoot)
		if err != nil {
			return err
		}
		m.cache = c
	}
	if params.ResetCaches {
		if err := m.cache.Reset(); err != nil {
			return err
		}
		m.registry.Reset()
	}

	m.params = params
	m.sink = &fanoutSink{sinks: params.Sinks, onlyCritical: params.OnlyLogCriticalEvents}

	if params.SaveOperatingEnvironment {
		snap, err := snapshotEnvironment()
		if err != nil {
			return err
		}
		m.env = snap
	}

	if err := m.ensurePool(params); err != nil {
		m.env = nil
		return err
	}

	m.runner = targets.NewRunner(
		m.invoker,
		m.host,
		router.New(params.IsolationPolicy),
		m.cache,
		params.MultiThreaded,
		targets.WarningPolicy{
			AsErrors:    params.WarningsAsErrors,
			NotAsErrors: params.WarningsNotAsErrors,
			AsMessages:  params.WarningsAsMessages,
		},
	)
	m.sched = scheduler.New(m.pool, m.registry, m, m.tracer)
	m.buildCtx, m.cancelBuild = context.WithCancel(context.Background())
	m.submissions = nil
	m.queue = make(chan *Submission, completionQueueSize)
	m.queueDone = make(chan struct{})
	go m.runCompletionQueue(m.queue, m.queueDone)

	m.state = stateBuilding
	m.sink.Publish(domain.BuildEvent{Kind: domain.EventBuildStarted})
	return nil
}

// ensurePool reuses the pool left over from a node-reuse session when its
// sizing still matches, otherwise builds a fresh one.
func (m *Manager) ensurePool(params BuildParameters) error {
	cfg := ports.NodePoolConfig{
		MaxNodeCount:             params.MaxNodeCount,
		EnableNodeReuse:          params.EnableNodeReuse,
		DisableInProcNode:        params.DisableInProcNode,
		SaveOperatingEnvironment: params.SaveOperatingEnvironment,
		MultiThreaded:            params.MultiThreaded,
		CacheScopeDir:            m.cache.ScopeDir(),
		WarningsAsErrors:         params.WarningsAsErrors,
		WarningsNotAsErrors:      params.WarningsNotAsErrors,
		WarningsAsMessages:       params.WarningsAsMessages,
		Sink:                     m.sink,
	}

	if m.pool != nil && !poolCompatible(m.poolCfg, cfg) {
		if err := m.pool.ShutdownAll(context.Background()); err != nil {
			m.logger.Error(zerr.Wrap(err, "shutting down incompatible node pool"))
		}
		m.pool = nil
	}
	if m.pool == nil {
		p, err := m.pools.New(cfg)
		if err != nil {
			return err
		}
		m.pool = p
	}
	m.poolCfg = cfg
	return nil
}

func poolCompatible(prev, next ports.NodePoolConfig) bool {
	return prev.MaxNodeCount == next.MaxNodeCount &&
		prev.DisableInProcNode == next.DisableInProcNode &&
		prev.MultiThreaded == next.MultiThreaded
}

// PendBuildRequest registers a build request with the open session and
// returns its submission. The submission is not executed yet.
func (m *Manager) PendBuildRequest(data *RequestData) (*Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrManagerClosed
	}
	if m.state != stateBuilding {
		return nil, domain.ErrNotBuilding
	}

	cfg := m.registry.GetOrCreate(data.ProjectPath, data.GlobalProperties, data.ToolsVersion)
	req := &domain.BuildRequest{
		ConfigID:         cfg.ID,
		ProjectPath:      cfg.ProjectPath,
		GlobalProperties: cfg.GlobalProperties,
		ToolsVersion:     cfg.ToolsVersion,
		Targets:          slices.Clone(data.Targets),
		Affinity:         data.Affinity,
		Flags:            data.Flags,
		SubmissionID:     m.nextSubID,
	}
	if req.Affinity == "" {
		req.Affinity = domain.AffinityAny
	}

	sub := newSubmission(m, m.nextSubID, req)
	m.nextSubID++
	m.submissions = append(m.submissions, sub)
	return sub, nil
}

// BuildRequest pends and synchronously executes one request.
func (m *Manager) BuildRequest(data *RequestData) (*domain.BuildResult, error) {
	sub, err := m.PendBuildRequest(data)
	if err != nil {
		return nil, err
	}
	return sub.Execute()
}

// Build is the single-shot convenience: BeginBuild, one synchronous
// request, EndBuild.
func (m *Manager) Build(params BuildParameters, data *RequestData) (*domain.BuildResult, error) {
	if err := m.BeginBuild(params); err != nil {
		return nil, err
	}
	res, err := m.BuildRequest(data)
	if endErr := m.EndBuild(); err == nil {
		err = endErr
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// EndBuild blocks until every executed submission completes, then closes
// the session. Pended submissions that were never executed are abandoned;
// executing one afterwards fails with domain.ErrNotBuilding.
// EndBuild may be called from within a completion callback; a later
// EndBuild then fails with domain.ErrNotBuilding because the build has
// already ended.
func (m *Manager) EndBuild() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrManagerClosed
	}
	if m.state != stateBuilding || m.ending {
		m.mu.Unlock()
		return domain.ErrNotBuilding
	}
	m.ending = true
	subs := slices.Clone(m.submissions)
	queue := m.queue
	queueDone := m.queueDone
	m.mu.Unlock()

	g := new(errgroup.Group)
	for _, sub := range subs {
		if sub.State() == SubmissionPending {
			continue
		}
		g.Go(func() error {
			<-sub.WaitHandle()
			return nil
		})
	}
	_ = g.Wait()

	// Every completed submission enqueued its callback before signaling
	// its wait handle, so closing the queue here loses nothing. When
	// EndBuild runs inside a callback the queue goroutine is executing us
	// and cannot be waited on; it drains the remainder on its own.
	close(queue)
	if !m.inCallback.Load() {
		<-queueDone
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	succeeded := true
	for _, sub := range subs {
		if r := sub.Result(); r != nil && r.OverallResult == domain.BuildFailure {
			succeeded = false
		}
	}
	m.sink.Publish(domain.BuildEvent{Kind: domain.EventBuildFinished, Succeeded: succeeded})

	m.cancelBuild()
	if m.env != nil {
		if err := m.env.restore(); err != nil {
			m.logger.Error(err)
		}
		m.env = nil
	}
	if !m.params.EnableNodeReuse && m.pool != nil {
		if err := m.pool.ShutdownAll(context.Background()); err != nil {
			m.logger.Error(zerr.Wrap(err, "shutting down node pool"))
		}
		m.pool = nil
	}

	m.state = stateIdle
	m.ending = false
	return nil
}

// CancelAllSubmissions signals every executing submission to abort.
// Cancellation is cooperative: a task that does not honor it runs to
// natural completion, and the affected requests report failure either way.
func (m *Manager) CancelAllSubmissions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateBuilding && m.cancelBuild != nil {
		m.cancelBuild()
	}
}

// ShutdownAllNodes tears down all worker nodes kept alive by node reuse.
// It is illegal while a build is in progress.
func (m *Manager) ShutdownAllNodes(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrManagerClosed
	}
	if m.state == stateBuilding {
		return domain.ErrAlreadyBuilding
	}
	if m.pool == nil {
		return nil
	}
	err := m.pool.ShutdownAll(ctx)
	m.pool = nil
	return err
}

// ResetCaches drops every cached target result and registered
// configuration. It is illegal while a build is in progress.
func (m *Manager) ResetCaches() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrManagerClosed
	}
	if m.state == stateBuilding {
		return domain.ErrAlreadyBuilding
	}
	m.registry.Reset()
	if m.cache == nil {
		return nil
	}
	return m.cache.Reset()
}

// GetProjectInstanceForBuild returns the live project instance the open
// session uses for the given configuration, evaluating it on first use.
func (m *Manager) GetProjectInstanceForBuild(
	projectPath string,
	globalProps map[string]string,
	toolsVersion string,
) (*domain.ProjectInstance, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, domain.ErrManagerClosed
	}
	if m.state != stateBuilding {
		m.mu.Unlock()
		return nil, domain.ErrNotBuilding
	}
	cfg := m.registry.GetOrCreate(projectPath, globalProps, toolsVersion)
	m.mu.Unlock()

	return m.registry.InstanceForBuild(cfg)
}

// Close releases the manager's resources: an in-progress build is canceled
// and drained, reused nodes are shut down, the cache scope is removed.
// Closing without ever building is a no-op beyond resource release.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	building := m.state == stateBuilding
	m.mu.Unlock()

	if building {
		m.CancelAllSubmissions()
		if err := m.EndBuild(); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true

	if m.pool != nil {
		if err := m.pool.ShutdownAll(context.Background()); err != nil {
			m.logger.Error(zerr.Wrap(err, "shutting down node pool"))
		}
		m.pool = nil
	}
	if m.cache != nil {
		err := m.cache.Close()
		m.cache = nil
		if err != nil {
			return err
		}
	}
	return nil
}

// ExecuteRequest implements scheduler.Executor: it resolves the request's
// live project instance and runs its target closure in this process.
func (m *Manager) ExecuteRequest(
	ctx context.Context,
	req *domain.BuildRequest,
	nested ports.NestedBuilder,
) (*domain.BuildResult, error) {
	cfg, ok := m.registry.Lookup(req.ConfigID)
	if !ok {
		return nil, zerr.With(zerr.New("request references an unregistered configuration"), "config", req.ConfigID.String())
	}
	instance, err := m.registry.InstanceForBuild(cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	runner := m.runner
	sink := m.sink
	m.mu.Unlock()

	return runner.Execute(ctx, req, instance, sink, nested)
}

// runSubmission executes one submission's request through the scheduler.
// Infrastructure failures (unsatisfiable affinity, cancellation) are folded
// into a failed result so they never escape the submission boundary.
func (m *Manager) runSubmission(s *Submission) *domain.BuildResult {
	m.mu.Lock()
	sched := m.sched
	ctx := m.buildCtx
	sink := m.sink
	m.mu.Unlock()

	res, err := sched.Submit(ctx, s.req)
	if err != nil {
		sink.Publish(domain.BuildEvent{
			Kind:     domain.EventError,
			ConfigID: s.req.ConfigID,
			Message:  err.Error(),
		})
		res = &domain.BuildResult{
			ConfigID:      s.req.ConfigID,
			OverallResult: domain.BuildFailure,
			Exception:     err.Error(),
		}
	}
	return res
}

// beginExecution moves a submission from Pending to Executing. The
// transition shares the manager's lock with EndBuild's ending flag, so a
// submission either starts before EndBuild snapshots the session (and is
// then waited on) or fails here and can never touch the closed completion
// queue.
func (m *Manager) beginExecution(s *Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrManagerClosed
	}
	if m.state != stateBuilding || m.ending {
		return domain.ErrNotBuilding
	}
	if !s.executed.CompareAndSwap(false, true) {
		return domain.ErrSubmissionExecuted
	}
	s.state.Store(SubmissionExecuting)
	return nil
}

func (m *Manager) enqueueCompletion(s *Submission) {
	m.mu.Lock()
	queue := m.queue
	m.mu.Unlock()
	queue <- s
}

// runCompletionQueue invokes completion callbacks one at a time, off the
// scheduler's goroutines.
func (m *Manager) runCompletionQueue(queue chan *Submission, done chan struct{}) {
	defer close(done)
	for s := range queue {
		s.mu.Lock()
		cb := s.callback
		s.mu.Unlock()
		if cb == nil {
			continue
		}
		m.inCallback.Store(true)
		cb(s)
		m.inCallback.Store(false)
	}
}

// fanoutSink forwards events to every configured sink, optionally keeping
// only critical events.
type fanoutSink struct {
	sinks        []ports.EventSink
	onlyCritical bool
}

func (f *fanoutSink) Publish(e domain.BuildEvent) {
	if f.onlyCritical && !e.Critical() {
		return
	}
	for _, s := range f.sinks {
		s.Publish(e)
	}
}
