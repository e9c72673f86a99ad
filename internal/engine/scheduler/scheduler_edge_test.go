package scheduler_test

import (
	"context"
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

func TestSubmit_AffinityConflictFailsOnlyThatRequest(t *testing.T) {
	ctrl := gomock.NewController(t)

	node := mocks.NewMockNode(ctrl)
	node.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, req *domain.BuildRequest, local ports.LocalRunFunc) (*domain.BuildResult, error) {
			return local(ctx, req)
		}).
		AnyTimes()

	pool := mocks.NewMockNodePool(ctrl)
	pool.EXPECT().
		Acquire(gomock.Any(), domain.AffinityInProc).
		Return(nil, domain.ErrInProcNodeDisabled).
		AnyTimes()
	pool.EXPECT().
		Acquire(gomock.Any(), domain.AffinityAny).
		Return(node, nil).
		AnyTimes()
	pool.EXPECT().Release(gomock.Any()).AnyTimes()

	exec := &fakeExecutor{}
	s := scheduler.New(pool, registry.New(nil), exec, newTracer(t))

	pinned := request(1, "Build")
	pinned.Affinity = domain.AffinityInProc
	_, err := s.Submit(t.Context(), pinned)
	require.ErrorIs(t, err, domain.ErrInProcNodeDisabled)

	// A sibling request with no affinity requirement is unaffected.
	res, err := s.Submit(t.Context(), request(2, "Build"))
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, int32(1), exec.calls.Load())
}

func TestSubmit_NodeReleasedAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	node := mocks.NewMockNode(ctrl)
	node.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrWorkerExited)

	pool := mocks.NewMockNodePool(ctrl)
	pool.EXPECT().Acquire(gomock.Any(), gomock.Any()).Return(node, nil)
	pool.EXPECT().Release(node).Times(1)

	s := scheduler.New(pool, registry.New(nil), &fakeExecutor{}, newTracer(t))

	_, err := s.Submit(t.Context(), request(1, "Build"))
	require.ErrorIs(t, err, domain.ErrWorkerExited)
}

func TestAwait_CanceledWhileBlocked(t *testing.T) {
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

	go func() {
		_, _ = s.Submit(context.Background(), request(1, "Build"))
	}()
	<-started

	ctx, cancel := context.WithCancel(t.Context())
	second := request(1, "Build")

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, second)
		errCh <- err
	}()

	assert.Eventually(t, func() bool {
		return s.State(second) == scheduler.StateBlocked
	}, 5*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, domain.ErrBuildCanceled)
	case <-time.After(5 * time.Second):
		t.Fatal("blocked request did not observe cancellation")
	}

	close(release)
}

func TestSubmit_CancellationSurfacesFromExecutor(t *testing.T) {
	exec := &fakeExecutor{
		body: func(ctx context.Context, _ *domain.BuildRequest) (*domain.BuildResult, error) {
			<-ctx.Done()
			return nil, domain.ErrBuildCanceled
		},
	}
	s := scheduler.New(newLocalPool(t), registry.New(nil), exec, newTracer(t))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.Submit(ctx, request(1, "Build"))
	require.ErrorIs(t, err, domain.ErrBuildCanceled)
	assert.Equal(t, scheduler.StateCompleted, s.State(request(1, "Build")))
}
