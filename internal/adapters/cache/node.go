package cache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/forge/internal/core/ports"
)

// NodeID is the unique identifier for the result cache factory Graft node.
const NodeID graft.ID = "adapter.result_cache_factory"

func init() {
	graft.Register(graft.Node[ports.ResultCacheFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ResultCacheFactory, error) {
			return NewFactory(), nil
		},
	})
}
