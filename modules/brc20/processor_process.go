package brc20

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/metrics"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/balances"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/changelog"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
)

// Process implements indexer.Processor.
func (p *Processor) Process(ctx context.Context, blocks []*types.Block) error {
	for _, block := range blocks {
		ctx := logger.WithContext(ctx, slogx.Int64("height", block.Header.Height))
		startAt := time.Now()
		logger.DebugContext(ctx, "Processing new block")

		if err := p.processBlock(ctx, block); err != nil {
			p.resetStores()
			return errors.Wrapf(err, "failed to process block %d", block.Header.Height)
		}

		metrics.ObserveBlock(block.Header.Height, startAt)
		logger.DebugContext(ctx, "Inserted new block", slogx.Duration("duration", time.Since(startAt)))
	}
	return nil
}

func (p *Processor) processBlock(ctx context.Context, block *types.Block) error {
	height := block.Header.Height
	p.resetStores()

	events := p.extractor.Extract(ctx, block)
	if err := p.transfers.PutInscribed(ctx, height, events.InscribedTransfers); err != nil {
		return errors.Wrap(err, "failed to store inscribed transfers")
	}

	executed, err := p.resolver.Resolve(ctx, block)
	if err != nil {
		return errors.Wrap(err, "failed to resolve transfers")
	}
	events.ExecutedTransfers = append(events.ExecutedTransfers, executed...)
	metrics.Events.WithLabelValues(string(entity.EventKindExecutedTransfer)).Add(float64(len(executed)))

	if err := p.balances.Apply(ctx, events); err != nil {
		return errors.Wrap(err, "failed to apply balances")
	}

	logger.DebugContext(ctx, "Extracted block events",
		slogx.Int("deploys", len(events.Deploys)),
		slogx.Int("mints", len(events.Mints)),
		slogx.Int("inscribed_transfers", len(events.InscribedTransfers)),
		slogx.Int("executed_transfers", len(events.ExecutedTransfers)),
	)

	if err := p.flushBlock(ctx, block.Header, events); err != nil {
		return errors.Wrap(err, "failed to flush block")
	}
	return nil
}

func (p *Processor) flushBlock(ctx context.Context, blockHeader types.BlockHeader, events *entity.BlockEvents) error {
	height := blockHeader.Height

	// calculate event hash
	eventHash := computeEventHash(events)
	var prevCumulativeEventHash *chainhash.Hash
	prevIndexedBlock, err := p.brc20Dg.GetIndexedBlockByHeight(ctx, height-1)
	switch {
	case err == nil:
		prevCumulativeEventHash = &prevIndexedBlock.CumulativeEventHash
	case errors.Is(err, errs.NotFound):
		// first indexed block
	default:
		return errors.Wrap(err, "failed to get previous indexed block")
	}
	cumulativeEventHash := computeCumulativeEventHash(prevCumulativeEventHash, eventHash)

	brc20DgTx, err := p.brc20Dg.BeginBRC20Tx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := brc20DgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_brc20_insertion"),
			)
		}
	}()

	// flush store deltas
	for _, store := range p.stores() {
		deltas := store.Deltas()
		if len(deltas) == 0 {
			continue
		}
		if err := brc20DgTx.PutChanges(ctx, store.Namespace(), height, deltas); err != nil {
			return errors.Wrapf(err, "failed to put %s changes", store.Namespace())
		}
	}

	if err := brc20DgTx.CreateBlockEvents(ctx, events); err != nil {
		return errors.Wrap(err, "failed to create block events")
	}
	if err := brc20DgTx.CreateIndexedBlock(ctx, &entity.IndexedBlock{
		Height:              height,
		Hash:                blockHeader.Hash,
		PrevHash:            blockHeader.PrevBlock,
		EventHash:           eventHash,
		CumulativeEventHash: cumulativeEventHash,
	}); err != nil {
		return errors.Wrap(err, "failed to create indexed block")
	}

	if err := brc20DgTx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	p.resetStores()

	// the changelog of a block is rewritten when the block is processed again
	if p.changelog != nil {
		rows, err := p.changelogRows(ctx, height)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := p.changelog.Write(ctx, height, rows); err != nil {
			return errors.Wrap(err, "failed to write changelog")
		}
	}

	logger.DebugContext(ctx, "Flushed block",
		slogx.Stringer("event_hash", eventHash),
		slogx.Stringer("cumulative_event_hash", cumulativeEventHash),
	)
	return nil
}

// changelogRows builds the changelog of a committed block from its stored events and balance deltas.
func (p *Processor) changelogRows(ctx context.Context, height int64) ([]changelog.Row, error) {
	events, err := p.brc20Dg.GetBlockEvents(ctx, height)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get events of block %d", height)
	}
	balanceDeltas, err := p.brc20Dg.GetChanges(ctx, balances.BalanceNamespace, height)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance changes")
	}
	transferableDeltas, err := p.brc20Dg.GetChanges(ctx, balances.TransferableNamespace, height)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transferable changes")
	}
	return changelog.BuildRows(events, balanceDeltas, transferableDeltas), nil
}
