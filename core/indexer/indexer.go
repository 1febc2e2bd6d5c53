package indexer

import (
	"context"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/datasources"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/metrics"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
)

const (
	maxReorgLookBack = 1000

	// DefaultPollingInterval is the interval between two fetch rounds.
	DefaultPollingInterval = 15 * time.Second

	shutdownTimeout = 180 * time.Second
)

// Indexer polls a datasource and feeds contiguous inputs to a processor,
// reverting processor state when the datasource reports a different chain.
type Indexer[T Input] struct {
	Processor       Processor[T]
	Datasource      datasources.Datasource[T]
	PollingInterval time.Duration
	// StartHeight is the first height to process when nothing is indexed yet.
	StartHeight int64

	currentBlock types.BlockHeader

	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func New[T Input](processor Processor[T], datasource datasources.Datasource[T]) *Indexer[T] {
	return &Indexer[T]{
		Processor:       processor,
		Datasource:      datasource,
		PollingInterval: DefaultPollingInterval,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (i *Indexer[T]) Shutdown() error {
	return i.ShutdownWithContext(context.Background())
}

func (i *Indexer[T]) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return i.ShutdownWithContext(ctx)
}

func (i *Indexer[T]) ShutdownWithContext(ctx context.Context) (err error) {
	i.quitOnce.Do(func() {
		close(i.quit)
		select {
		case <-i.done:
		case <-time.After(shutdownTimeout):
			err = errors.Wrap(errs.Timeout, "indexer shutdown timeout")
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "indexer shutdown context canceled")
		}
	})
	return
}

func (i *Indexer[T]) Run(ctx context.Context) (err error) {
	defer close(i.done)

	ctx = logger.WithContext(ctx,
		slogx.String("package", "indexer"),
		slogx.String("processor", i.Processor.Name()),
		slogx.String("datasource", i.Datasource.Name()),
	)

	if err := i.Processor.VerifyStates(ctx); err != nil {
		return errors.Wrap(err, "failed to verify processor states")
	}

	i.currentBlock, err = i.Processor.CurrentBlock(ctx)
	if err != nil {
		if !errors.Is(err, errs.NotFound) {
			return errors.Wrap(err, "can't init state, failed to get indexer current block")
		}
		// nothing indexed yet, the first round starts from StartHeight without a parent to check
		i.currentBlock = types.BlockHeader{Height: i.StartHeight - 1}
	}

	interval := i.PollingInterval
	if interval <= 0 {
		interval = DefaultPollingInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// first round runs immediately
	if err := i.process(ctx); err != nil {
		logger.ErrorContext(ctx, "Indexer failed while processing", err)
		return errors.Wrap(err, "process failed")
	}
	for {
		select {
		case <-i.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping indexer")
			if err := i.Processor.Shutdown(ctx); err != nil {
				logger.ErrorContext(ctx, "Failed to shutdown processor", err)
				return errors.Wrap(err, "processor shutdown failed")
			}
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := i.process(ctx); err != nil {
				logger.ErrorContext(ctx, "Indexer failed while processing", err)
				return errors.Wrap(err, "process failed")
			}
			logger.DebugContext(ctx, "Waiting for next polling interval")
		}
	}
}

func (i *Indexer[T]) process(ctx context.Context) error {
	from, to := i.currentBlock.Height+1, int64(-1)

	logger.DebugContext(ctx, "Start fetching input data", slogx.Int64("from", from))
	ch := make(chan []T)
	subscription, err := i.Datasource.FetchAsync(ctx, from, to, ch)
	if err != nil {
		return errors.Wrap(err, "failed to fetch input data")
	}
	defer subscription.Unsubscribe()

	for {
		select {
		case <-i.quit:
			return nil
		case inputs := <-ch:
			if len(inputs) == 0 {
				continue
			}
			done, err := i.processInputs(ctx, inputs)
			if err != nil {
				return errors.WithStack(err)
			}
			if done {
				// end current round, next round fetches again from the new current block
				return nil
			}
		case <-subscription.Done():
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "context done")
			}
			return nil
		case <-ctx.Done():
			return errors.WithStack(ctx.Err())
		case err := <-subscription.Err():
			if err != nil {
				return errors.Wrap(err, "got error while fetch async")
			}
		}
	}
}

// processInputs validates and processes one batch. done is true when the round must end early.
func (i *Indexer[T]) processInputs(ctx context.Context, inputs []T) (done bool, err error) {
	firstHeader := inputs[0].BlockHeader()

	startAt := time.Now()
	ctx = logger.WithContext(ctx,
		slogx.Int64("from", firstHeader.Height),
		slogx.Int64("to", inputs[len(inputs)-1].BlockHeader().Height),
	)

	if firstHeader.Height != i.currentBlock.Height+1 {
		return false, errors.Wrapf(errs.MalformedBlock, "input is not continuous, current height: %d, input height: %d", i.currentBlock.Height, firstHeader.Height)
	}

	// the first processed block has no parent to compare with
	if i.currentBlock.Hash != (chainhash.Hash{}) && !firstHeader.PrevBlock.IsEqual(&i.currentBlock.Hash) {
		logger.WarnContext(ctx, "Detected chain reorganization. Searching for fork point...",
			slogx.String("event", "reorg_detected"),
			slogx.Stringer("current_hash", i.currentBlock.Hash),
			slogx.Stringer("expected_hash", firstHeader.PrevBlock),
		)
		if err := i.revertToForkPoint(ctx); err != nil {
			return false, errors.WithStack(err)
		}
		return true, nil
	}

	for n := 1; n < len(inputs); n++ {
		header := inputs[n].BlockHeader()
		prevHeader := inputs[n-1].BlockHeader()
		if header.Height != prevHeader.Height+1 {
			return false, errors.Wrapf(errs.MalformedBlock, "input is not continuous, input[%d] height: %d, input[%d] height: %d", n-1, prevHeader.Height, n, header.Height)
		}
		if !header.PrevBlock.IsEqual(&prevHeader.Hash) {
			logger.WarnContext(ctx, "Chain reorganization occurred in the middle of batch fetching inputs, need to try to fetch again")
			return true, nil
		}
	}

	ctx = logger.WithContext(ctx, slogx.Int("total_inputs", len(inputs)))

	logger.InfoContext(ctx, "Processing inputs")
	if err := i.Processor.Process(ctx, inputs); err != nil {
		return false, errors.WithStack(err)
	}

	i.currentBlock = inputs[len(inputs)-1].BlockHeader()

	logger.InfoContext(ctx, "Processed inputs successfully",
		slogx.String("event", "processed_inputs"),
		slogx.Int64("current_block", i.currentBlock.Height),
		slogx.Duration("duration", time.Since(startAt)),
	)
	return false, nil
}

// revertToForkPoint walks back from the current block until the indexed and remote hashes agree,
// then reverts everything above that height.
func (i *Indexer[T]) revertToForkPoint(ctx context.Context) error {
	var (
		start        = time.Now()
		targetHeight = i.currentBlock.Height - 1
		forkPoint    = types.BlockHeader{Height: -1}
		found        bool
	)
	for n := 0; n < maxReorgLookBack && targetHeight >= 0; n++ {
		indexedHeader, err := i.Processor.GetIndexedBlock(ctx, targetHeight)
		if errors.Is(err, errs.NotFound) {
			// below the first indexed block
			forkPoint = types.BlockHeader{Height: targetHeight}
			found = true
			break
		}
		if err != nil {
			return errors.Wrapf(err, "failed to get indexed block, height: %d", targetHeight)
		}

		remoteHeader, err := i.Datasource.GetBlockHeader(ctx, targetHeight)
		if err != nil {
			return errors.Wrapf(err, "failed to get remote block header, height: %d", targetHeight)
		}

		if indexedHeader.Hash.IsEqual(&remoteHeader.Hash) {
			forkPoint = remoteHeader
			found = true
			break
		}
		targetHeight--
	}

	// a fork below genesis means everything is reverted
	if !found && targetHeight >= 0 {
		return errors.Wrap(errs.SomethingWentWrong, "reorg look back limit reached")
	}

	logger.InfoContext(ctx, "Found reorg fork point, starting to revert data...",
		slogx.String("event", "reorg_forkpoint"),
		slogx.Int64("since", forkPoint.Height+1),
		slogx.Int64("total_blocks", i.currentBlock.Height-forkPoint.Height),
		slogx.Duration("search_duration", time.Since(start)),
	)

	metrics.Reorgs.Inc()
	start = time.Now()
	if err := i.Processor.RevertData(ctx, forkPoint.Height+1); err != nil {
		return errors.Wrap(err, "failed to revert data")
	}

	i.currentBlock = forkPoint
	logger.InfoContext(ctx, "Fixing chain reorganization completed",
		slogx.Int64("current_block", i.currentBlock.Height),
		slogx.Duration("duration", time.Since(start)),
	)
	return nil
}
