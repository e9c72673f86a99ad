package ports

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
)

// LocalRunFunc executes a build request inside the calling process. The
// scheduler hands one to Node.Execute; only the in-process node uses it,
// out-of-process nodes ship the request over the wire instead.
type LocalRunFunc func(ctx context.Context, req *domain.BuildRequest) (*domain.BuildResult, error)

// Node is one worker execution context: the in-process singleton or an
// out-of-process worker.
//
//go:generate mockgen -source=nodes.go -destination=mocks/mock_nodes.go -package=mocks
type Node interface {
	ID() string
	Affinity() domain.NodeAffinity
	Execute(ctx context.Context, req *domain.BuildRequest, local LocalRunFunc) (*domain.BuildResult, error)
}

// NodePoolConfig carries the per-build parameters the pool and its workers
// need.
type NodePoolConfig struct {
	MaxNodeCount      int
	EnableNodeReuse   bool
	DisableInProcNode bool
	// SaveOperatingEnvironment permits ambient process state (working
	// directory, environment) to be touched for the duration of a build.
	// When false the pool must never mutate either.
	SaveOperatingEnvironment bool
	MultiThreaded            bool
	// CacheScopeDir is shared with workers so skip semantics hold across
	// process boundaries.
	CacheScopeDir       string
	WarningsAsErrors    []string
	WarningsNotAsErrors []string
	WarningsAsMessages  []string
	Sink                EventSink
}

// NodePool launches, reuses and shuts down worker nodes.
type NodePool interface {
	// Acquire returns a node satisfying the affinity, launching one if
	// needed. Requiring the in-process node while it is disabled fails with
	// domain.ErrInProcNodeDisabled.
	Acquire(ctx context.Context, affinity domain.NodeAffinity) (Node, error)

	// Release returns a node to the pool for reuse.
	Release(n Node)

	// ShutdownAll tears down every worker after draining active work.
	ShutdownAll(ctx context.Context) error

	// NodeCount reports the number of live out-of-process workers.
	NodeCount() int
}

// NodePoolFactory builds a pool for one build's parameters.
type NodePoolFactory interface {
	New(cfg NodePoolConfig) (NodePool, error)
}
