package brc20

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/memory"
)

// BlockFetcher fetches blocks of an inclusive height range in ascending order.
type BlockFetcher interface {
	Fetch(ctx context.Context, from, to int64) ([]*types.Block, error)
}

// Replay processes the blocks from..to against fresh in-memory state
// and returns the cumulative event hash of the last block.
func Replay(ctx context.Context, fetcher BlockFetcher, network common.Network, from, to int64) (chainhash.Hash, error) {
	if from > to {
		return chainhash.Hash{}, errors.Wrapf(errs.InvalidArgument, "invalid range %d..%d", from, to)
	}
	blocks, err := fetcher.Fetch(ctx, from, to)
	if err != nil {
		return chainhash.Hash{}, errors.Wrap(err, "failed to fetch blocks")
	}
	if int64(len(blocks)) != to-from+1 {
		return chainhash.Hash{}, errors.Wrapf(errs.NotFound, "expected %d blocks, got %d", to-from+1, len(blocks))
	}

	repo := memory.NewRepository()
	processor := NewProcessor(repo, repo, network, nil, nil)
	if err := processor.VerifyStates(ctx); err != nil {
		return chainhash.Hash{}, errors.WithStack(err)
	}
	if err := processor.Process(ctx, blocks); err != nil {
		return chainhash.Hash{}, errors.WithStack(err)
	}
	return processor.CumulativeEventHash(ctx, to)
}

// CumulativeEventHash returns the cumulative event hash of the indexed block at height.
func (p *Processor) CumulativeEventHash(ctx context.Context, height int64) (chainhash.Hash, error) {
	block, err := p.brc20Dg.GetIndexedBlockByHeight(ctx, height)
	if err != nil {
		return chainhash.Hash{}, errors.Wrap(err, "failed to get indexed block")
	}
	return block.CumulativeEventHash, nil
}
