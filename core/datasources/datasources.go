package datasources

import (
	"context"

	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/subscription"
)

// Datasource is an interface for indexer data sources.
type Datasource[T any] interface {
	Name() string
	Fetch(ctx context.Context, from, to int64) ([]T, error)
	FetchAsync(ctx context.Context, from, to int64, ch chan<- []T) (*subscription.ClientSubscription[[]T], error)
	GetBlockHeader(ctx context.Context, height int64) (types.BlockHeader, error)
}

// BlockStorage stores one encoded block document per height.
type BlockStorage interface {
	Name() string

	// Read returns the document of the block at height, errs.NotFound when absent.
	Read(ctx context.Context, height int64) ([]byte, error)

	// LatestHeight returns the highest stored height, errs.NotFound when the storage is empty.
	LatestHeight(ctx context.Context) (int64, error)
}
