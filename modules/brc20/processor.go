package brc20

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/indexer"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/balances"
	brc20protocol "github.com/gaze-network/brc20-indexer/modules/brc20/internal/brc20"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/changelog"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/datagateway"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/transfers"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/gaze-network/brc20-indexer/pkg/btcutils"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
)

// Make sure to implement the Bitcoin Processor interface
var _ indexer.Processor[*types.Block] = (*Processor)(nil)

type Processor struct {
	brc20Dg       datagateway.BRC20DataGateway
	indexerInfoDg datagateway.IndexerInfoDataGateway
	network       common.Network
	changelog     changelog.Sink // optional
	cleanupFuncs  []func(context.Context) error

	extractor *brc20protocol.Extractor
	transfers *transfers.Store
	resolver  *transfers.Resolver
	balances  *balances.Aggregator
}

func NewProcessor(brc20Dg datagateway.BRC20DataGateway, indexerInfoDg datagateway.IndexerInfoDataGateway, network common.Network, sink changelog.Sink, cleanupFuncs []func(context.Context) error) *Processor {
	addresses := btcutils.NewAddressResolver(network.ChainParams())
	pending := transfers.NewStore(brc20Dg)
	return &Processor{
		brc20Dg:       brc20Dg,
		indexerInfoDg: indexerInfoDg,
		network:       network,
		changelog:     sink,
		cleanupFuncs:  cleanupFuncs,

		extractor: brc20protocol.NewExtractor(addresses),
		transfers: pending,
		resolver:  transfers.NewResolver(pending, addresses),
		balances:  balances.NewAggregator(brc20Dg),
	}
}

// stores returns every store flushed with a block, in flush order.
func (p *Processor) stores() []versioned.Flushable {
	return append([]versioned.Flushable{p.transfers}, p.balances.Stores()...)
}

func (p *Processor) resetStores() {
	for _, store := range p.stores() {
		store.Reset()
	}
}

// VerifyStates implements indexer.Processor.
func (p *Processor) VerifyStates(ctx context.Context) error {
	indexerState, err := p.indexerInfoDg.GetLatestIndexerState(ctx)
	if err != nil && !errors.Is(err, errs.NotFound) {
		return errors.Wrap(err, "failed to get latest indexer state")
	}
	// if not found, create indexer state
	if errors.Is(err, errs.NotFound) {
		if err := p.indexerInfoDg.CreateIndexerState(ctx, entity.IndexerState{
			CreatedAt:        time.Now(),
			ClientVersion:    ClientVersion,
			DBVersion:        DBVersion,
			EventHashVersion: EventHashVersion,
			Network:          p.network,
		}); err != nil {
			return errors.Wrap(err, "failed to set indexer state")
		}
		return nil
	}

	if indexerState.DBVersion != DBVersion {
		return errors.Wrapf(errs.ConflictSetting, "db version mismatch: current version is %d. Please upgrade to version %d", indexerState.DBVersion, DBVersion)
	}
	if indexerState.EventHashVersion != EventHashVersion {
		return errors.Wrapf(errs.ConflictSetting, "event version mismatch: current version is %d. Please reset brc20's db first to use version %d", indexerState.EventHashVersion, EventHashVersion)
	}
	if indexerState.Network != p.network {
		return errors.Wrapf(errs.ConflictSetting, "network mismatch: latest indexed network is %q, configured network is %q. If you want to change the network, please reset the database", indexerState.Network, p.network)
	}
	return nil
}

// CurrentBlock implements indexer.Processor.
func (p *Processor) CurrentBlock(ctx context.Context) (types.BlockHeader, error) {
	blockHeader, err := p.brc20Dg.GetLatestBlock(ctx)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "failed to get latest block")
	}
	return blockHeader, nil
}

// GetIndexedBlock implements indexer.Processor.
func (p *Processor) GetIndexedBlock(ctx context.Context, height int64) (types.BlockHeader, error) {
	block, err := p.brc20Dg.GetIndexedBlockByHeight(ctx, height)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "failed to get indexed block")
	}
	return types.BlockHeader{
		Height:    block.Height,
		Hash:      block.Hash,
		PrevBlock: block.PrevHash,
	}, nil
}

// Name implements indexer.Processor.
func (p *Processor) Name() string {
	return "brc20"
}

// RevertData implements indexer.Processor.
func (p *Processor) RevertData(ctx context.Context, from int64) error {
	p.resetStores()

	brc20DgTx, err := p.brc20Dg.BeginBRC20Tx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err := brc20DgTx.Rollback(ctx); err != nil {
			logger.WarnContext(ctx, "failed to rollback transaction",
				slogx.Error(err),
				slogx.String("event", "rollback_brc20_revert"),
			)
		}
	}()

	if err := brc20DgTx.DeleteSinceHeight(ctx, from); err != nil {
		return errors.Wrap(err, "failed to delete data since height")
	}
	if err := brc20DgTx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (p *Processor) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, cleanup := range p.cleanupFuncs {
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to cleanup brc20 processor", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return errors.WithStack(firstErr)
}
