// Package nodes implements the worker node pool: the in-process singleton
// node plus out-of-process workers reached over unix sockets with the
// packet protocol.
package nodes

import (
	"context"
	"strconv"
	"sync"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// worker is an out-of-process node the pool can also shut down.
type worker interface {
	ports.Node
	Shutdown(ctx context.Context) error
}

// spawner launches a new worker process and returns it once responsive.
type spawner interface {
	Spawn(ctx context.Context, id string) (worker, error)
}

// InProcNode executes requests directly on the calling process.
type InProcNode struct{}

// ID implements ports.Node.
func (n *InProcNode) ID() string { return "inproc" }

// Affinity implements ports.Node.
func (n *InProcNode) Affinity() domain.NodeAffinity { return domain.AffinityInProc }

// Execute runs the request through the scheduler's local path.
func (n *InProcNode) Execute(ctx context.Context, req *domain.BuildRequest, local ports.LocalRunFunc) (*domain.BuildResult, error) {
	return local(ctx, req)
}

// Pool implements ports.NodePool. MaxNodeCount bounds the total number of
// concurrently executing nodes, the in-process node included. The pool never
// mutates ambient process state: workers get their own working directory and
// a filtered environment regardless of SaveOperatingEnvironment.
type Pool struct {
	cfg    ports.NodePoolConfig
	spawn  spawner
	logger ports.Logger

	inproc    *InProcNode
	inprocSem chan struct{}
	admit     chan struct{}

	mu       sync.Mutex
	idle     []worker
	live     int
	nextID   int
	closed   bool
	activeWG sync.WaitGroup
}

// NewPool creates a pool for one build's parameters.
func NewPool(cfg ports.NodePoolConfig, sp spawner, logger ports.Logger) *Pool {
	total := cfg.MaxNodeCount
	if total <= 0 {
		total = 1
	}

	workerCap := total
	p := &Pool{cfg: cfg, spawn: sp, logger: logger}

	if !cfg.DisableInProcNode {
		p.inproc = &InProcNode{}
		p.inprocSem = make(chan struct{}, 1)
		p.inprocSem <- struct{}{}
		workerCap = total - 1
	}
	if workerCap < 0 {
		workerCap = 0
	}

	p.admit = make(chan struct{}, workerCap)
	for range workerCap {
		p.admit <- struct{}{}
	}
	return p
}

// Acquire implements ports.NodePool.
func (p *Pool) Acquire(ctx context.Context, affinity domain.NodeAffinity) (ports.Node, error) {
	switch affinity {
	case domain.AffinityInProc:
		if p.cfg.DisableInProcNode {
			return nil, domain.ErrInProcNodeDisabled
		}
		select {
		case <-p.inprocSem:
			return p.inproc, nil
		case <-ctx.Done():
			return nil, zerr.Wrap(ctx.Err(), "waiting for the in-process node")
		}

	case domain.AffinityOutOfProc:
		return p.acquireWorker(ctx)

	default:
		// Prefer the in-process node when it is free; otherwise take a
		// worker slot. With no worker capacity the request waits for the
		// in-process node.
		if !p.cfg.DisableInProcNode {
			select {
			case <-p.inprocSem:
				return p.inproc, nil
			default:
			}
			if cap(p.admit) == 0 {
				select {
				case <-p.inprocSem:
					return p.inproc, nil
				case <-ctx.Done():
					return nil, zerr.Wrap(ctx.Err(), "waiting for the in-process node")
				}
			}
		}
		return p.acquireWorker(ctx)
	}
}

func (p *Pool) acquireWorker(ctx context.Context) (ports.Node, error) {
	if cap(p.admit) == 0 {
		return nil, zerr.With(domain.ErrNodeUnavailable, "affinity", string(domain.AffinityOutOfProc))
	}

	select {
	case <-p.admit:
	case <-ctx.Done():
		return nil, zerr.Wrap(ctx.Err(), "waiting for a worker slot")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.admit <- struct{}{}
		return nil, domain.ErrNodeUnavailable
	}
	if n := len(p.idle); n > 0 {
		w := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.activeWG.Add(1)
		p.mu.Unlock()
		return w, nil
	}
	p.nextID++
	id := workerID(p.nextID)
	p.mu.Unlock()

	w, err := p.spawn.Spawn(ctx, id)
	if err != nil {
		p.admit <- struct{}{}
		return nil, zerr.Wrap(err, domain.ErrWorkerSpawnFailed.Error())
	}

	p.mu.Lock()
	p.live++
	p.activeWG.Add(1)
	p.mu.Unlock()

	p.logger.Info("launched worker node " + id)
	return w, nil
}

// Release implements ports.NodePool.
func (p *Pool) Release(n ports.Node) {
	if n == nil {
		return
	}
	if n == p.inproc {
		p.inprocSem <- struct{}{}
		return
	}

	w, ok := n.(worker)
	if !ok {
		return
	}

	p.mu.Lock()
	keep := p.cfg.EnableNodeReuse && !p.closed
	if keep {
		p.idle = append(p.idle, w)
	} else {
		p.live--
	}
	p.activeWG.Done()
	p.mu.Unlock()
	p.admit <- struct{}{}

	if !keep {
		_ = w.Shutdown(context.Background())
	}
}

// ShutdownAll implements ports.NodePool. Active workers drain first, then
// every idle worker is torn down.
func (p *Pool) ShutdownAll(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.activeWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return zerr.Wrap(ctx.Err(), "draining active workers")
	}

	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.live = 0
	p.mu.Unlock()

	var errs error
	for _, w := range idle {
		if err := w.Shutdown(ctx); err != nil {
			errs = err
		}
	}
	return errs
}

// NodeCount implements ports.NodePool.
func (p *Pool) NodeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

func workerID(n int) string {
	return "node-" + strconv.Itoa(n)
}
