package nodes

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/adapters/logger"
	"go.trai.ch/forge/internal/core/ports"
)

// NodeID is the unique identifier for the node pool factory Graft node.
const NodeID graft.ID = "adapter.node_pool_factory"

// Factory implements ports.NodePoolFactory with process-spawning workers.
type Factory struct {
	logger ports.Logger
}

// NewFactory creates a pool factory.
func NewFactory(log ports.Logger) *Factory {
	return &Factory{logger: log}
}

// New implements ports.NodePoolFactory.
func (f *Factory) New(cfg ports.NodePoolConfig) (ports.NodePool, error) {
	sp, err := NewProcessSpawner(cfg)
	if err != nil {
		return nil, err
	}
	return NewPool(cfg, sp, f.logger), nil
}

func init() {
	graft.Register(graft.Node[ports.NodePoolFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.NodePoolFactory, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(log), nil
		},
	})
}
