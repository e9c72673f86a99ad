package scheduler_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/registry"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// fakeExecutor counts executions and runs an optional body per request.
type fakeExecutor struct {
	calls atomic.Int32
	body  func(ctx context.Context, req *domain.BuildRequest) (*domain.BuildResult, error)
}

func (f *fakeExecutor) ExecuteRequest(ctx context.Context, req *domain.BuildRequest, _ ports.NestedBuilder) (*domain.BuildResult, error) {
	f.calls.Add(1)
	if f.body != nil {
		return f.body(ctx, req)
	}
	return domain.NewBuildResult(req.ConfigID), nil
}

// newLocalPool wires mock node/pool so Execute just runs the local path.
func newLocalPool(t *testing.T) ports.NodePool {
	t.Helper()
	ctrl := gomock.NewController(t)

	node := mocks.NewMockNode(ctrl)
	node.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *domain.BuildRequest, local ports.LocalRunFunc) (*domain.BuildResult, error) {
			return local(ctx, req)
		}).
		AnyTimes()

	pool := mocks.NewMockNodePool(ctrl)
	pool.EXPECT().Acquire(gomock.Any(), gomock.Any()).Return(node, nil).AnyTimes()
	pool.EXPECT().Release(gomock.Any()).AnyTimes()
	return pool
}

func newTracer(t *testing.T) ports.Tracer {
	t.Helper()
	ctrl := gomock.NewController(t)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().
		Start(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		}).
		AnyTimes()
	return tracer
}

func request(config domain.ConfigurationID, targetNames ...string) *domain.BuildRequest {
	return &domain.BuildRequest{
		ConfigID:    config,
		ProjectPath: "/work/forge.yaml",
		Targets:     targetNames,
		Affinity:    domain.AffinityAny,
	}
}

func TestSubmit_RunsRequest(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	req := request(1, "Build")
	assert.Equal(t, scheduler.StateUnscheduled, s.State(req))

	res, err := s.Submit(t.Context(), req)
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, int32(1), exec.calls.Load())
	assert.Equal(t, scheduler.StateCompleted, s.State(req))
}

func TestSubmit_EquivalentRequestsShareOneExecution(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	exec := &fakeExecutor{
		body: func(_ context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
			close(started)
			<-release
			return domain.NewBuildResult(req.ConfigID), nil
		},
	}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	var wg sync.WaitGroup
	results := make([]*domain.BuildResult, 2)
	errs := make([]error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = s.Submit(t.Context(), request(1, "Build"))
	}()

	<-started

	second := request(1, "Build")
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = s.Submit(t.Context(), second)
	}()

	assert.Eventually(t, func() bool {
		return s.State(second) == scheduler.StateBlocked
	}, 5*time.Second, time.Millisecond)

	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Same(t, results[0], results[1], "the blocked request reuses the in-flight result")
	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestSubmit_DistinctTargetSetsRunIndependently(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	_, err := s.Submit(t.Context(), request(1, "Build"))
	require.NoError(t, err)
	_, err = s.Submit(t.Context(), request(1, "Build", "Test"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), exec.calls.Load())
}

func TestSubmit_SequentialEquivalentRequestsBothExecute(t *testing.T) {
	exec := &fakeExecutor{}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	// Once the first flight lands, a later equivalent request schedules a
	// fresh execution; result reuse across completed requests belongs to the
	// result cache, not the in-flight table.
	_, err := s.Submit(t.Context(), request(1, "Build"))
	require.NoError(t, err)
	_, err = s.Submit(t.Context(), request(1, "Build"))
	require.NoError(t, err)

	assert.Equal(t, int32(2), exec.calls.Load())
}

func TestSubmit_TargetFailureEncodedInResult(t *testing.T) {
	exec := &fakeExecutor{
		body: func(_ context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
			res := domain.NewBuildResult(req.ConfigID)
			res.RecordTarget("Build", domain.TargetResult{Code: domain.TargetFailure})
			return res, nil
		},
	}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	res, err := s.Submit(t.Context(), request(1, "Build"))
	require.NoError(t, err, "target failures never surface as scheduler errors")
	assert.False(t, res.Succeeded())
}

func TestBuildNested_SharesRegistryAndDedup(t *testing.T) {
	var mu sync.Mutex
	var seen []domain.ConfigurationID
	exec := &fakeExecutor{
		body: func(_ context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
			mu.Lock()
			seen = append(seen, req.ConfigID)
			mu.Unlock()
			return domain.NewBuildResult(req.ConfigID), nil
		},
	}
	reg := registry.New(nil)
	s := scheduler.New(newLocalPool(t), reg, exec, newTracer(t))

	parent := request(1, "Build")
	parent.ToolsVersion = "1.0"

	res, err := s.BuildNested(t.Context(), parent, "/dep/forge.yaml",
		map[string]string{"Configuration": "Release"}, []string{"Build"})
	require.NoError(t, err)
	assert.True(t, res.Succeeded())

	cfg := reg.GetOrCreate("/dep/forge.yaml", map[string]string{"Configuration": "Release"}, "1.0")
	assert.Equal(t, 1, reg.Count(), "the nested build registered its configuration")
	require.Len(t, seen, 1)
	assert.Equal(t, cfg.ID, seen[0])
}

func TestBuildNested_InheritsParentProperties(t *testing.T) {
	exec := &fakeExecutor{
		body: func(_ context.Context, req *domain.BuildRequest) (*domain.BuildResult, error) {
			assert.Equal(t, map[string]string{"Configuration": "Debug"}, req.GlobalProperties)
			return domain.NewBuildResult(req.ConfigID), nil
		},
	}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	parent := request(1, "Build")
	parent.GlobalProperties = map[string]string{"Configuration": "Debug"}

	_, err := s.BuildNested(t.Context(), parent, "/dep/forge.yaml", nil, []string{"Build"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), exec.calls.Load())
}
