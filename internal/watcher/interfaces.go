package watcher

import (
	"context"

	"github.com/Adda-Baaj/stargate-client/pkg/httpclient"
	"github.com/Adda-Baaj/stargate-client/pkg/nodes"
	"github.com/Adda-Baaj/stargate-client/pkg/publishers"
	"github.com/Adda-Baaj/stargate-client/pkg/stargate"
)

// NodeAPI is the part of the stargate client the watcher needs.
type NodeAPI interface {
	GetLatestBlock(ctx context.Context) (*stargate.BlockInfo, error)
	GetBlock(ctx context.Context, height uint64) (*stargate.BlockDetail, error)
}

var _ NodeAPI = (*stargate.API)(nil)

// APIFactory builds the client used for a node.
type APIFactory func(node nodes.Node) NodeAPI

// DefaultAPIFactory builds stargate clients sharing one fetcher.
func DefaultAPIFactory(fetcher httpclient.Fetcher, log stargate.Logger) APIFactory {
	return func(node nodes.Node) NodeAPI {
		return stargate.New(node.Config(), stargate.WithFetcher(fetcher), stargate.WithLogger(log))
	}
}

// EventPublisher publishes tx events downstream and reports how many sinks accepted each.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Checkpoints is the progress store used by the watcher.
type Checkpoints interface {
	LastHeight(nodeID string) (uint64, bool, error)
	SetLastHeight(nodeID string, height uint64) error
	SeenTx(nodeID, hash string) (bool, error)
	MarkTx(nodeID, hash string) error
}
