package datagateway

import (
	"context"

	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
)

type BRC20DataGateway interface {
	BRC20ReaderDataGateway
	BRC20WriterDataGateway

	// BeginBRC20Tx returns a new BRC20DataGateway with transaction enabled. All write operations performed in this datagateway must be committed to persist changes.
	BeginBRC20Tx(ctx context.Context) (BRC20DataGatewayWithTx, error)
}

type BRC20DataGatewayWithTx interface {
	BRC20DataGateway
	Tx
}

type BRC20ReaderDataGateway interface {
	versioned.Reader

	GetLatestBlock(ctx context.Context) (types.BlockHeader, error)
	GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error)
	GetBlockEvents(ctx context.Context, height int64) (*entity.BlockEvents, error)
	// GetChanges returns the deltas flushed for namespace at version, in write order.
	GetChanges(ctx context.Context, namespace string, version int64) ([]versioned.Delta, error)
}

type BRC20WriterDataGateway interface {
	PutChanges(ctx context.Context, namespace string, version int64, deltas []versioned.Delta) error
	CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error
	CreateBlockEvents(ctx context.Context, events *entity.BlockEvents) error

	// DeleteSinceHeight deletes every versioned value, event and indexed block at or above height.
	DeleteSinceHeight(ctx context.Context, height int64) error
}
