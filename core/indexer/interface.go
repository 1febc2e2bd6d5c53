package indexer

import (
	"context"
	"time"

	"github.com/gaze-network/brc20-indexer/core/types"
)

// Input is a unit of data delivered by a datasource, usually one block.
type Input interface {
	BlockHeader() types.BlockHeader
}

// Processor consumes inputs in chain order and persists the derived state.
type Processor[T Input] interface {
	Name() string

	// Process processes the inputs. Inputs are contiguous and in ascending height.
	Process(ctx context.Context, inputs []T) error

	// CurrentBlock returns the latest indexed block header. errs.NotFound when nothing is indexed.
	CurrentBlock(ctx context.Context) (types.BlockHeader, error)

	// GetIndexedBlock returns the indexed block header at the height.
	GetIndexedBlock(ctx context.Context, height int64) (types.BlockHeader, error)

	// RevertData removes every piece of state written at height >= from.
	RevertData(ctx context.Context, from int64) error

	// VerifyStates checks persisted indexer state against the running configuration.
	VerifyStates(ctx context.Context) error

	Shutdown(ctx context.Context) error
}

// IndexerWorker is a running indexer as seen by the application lifecycle.
type IndexerWorker interface {
	Run(ctx context.Context) error
	Shutdown() error
	ShutdownWithTimeout(timeout time.Duration) error
	ShutdownWithContext(ctx context.Context) error
}
