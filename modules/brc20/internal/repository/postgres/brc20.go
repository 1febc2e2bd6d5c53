package postgres

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/datagateway"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/postgres/gen"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/jackc/pgx/v5"
)

var _ datagateway.BRC20DataGateway = (*Repository)(nil)

func (r *Repository) GetAt(ctx context.Context, namespace string, key string, version int64) ([]byte, error) {
	value, err := r.queries.GetValueAt(ctx, gen.GetValueAtParams{
		Namespace: namespace,
		Key:       key,
		Version:   version,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	return value, nil
}

func (r *Repository) GetChanges(ctx context.Context, namespace string, version int64) ([]versioned.Delta, error) {
	models, err := r.queries.GetChanges(ctx, gen.GetChangesParams{
		Namespace: namespace,
		Version:   version,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error during query")
	}
	return mapVersionedValueModelsToDeltas(models), nil
}

func (r *Repository) PutChanges(ctx context.Context, namespace string, version int64, deltas []versioned.Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	var execErr error
	results := r.queries.CreateVersionedValues(ctx, mapDeltasToParams(namespace, version, deltas))
	results.Exec(func(i int, err error) {
		if err != nil && execErr == nil {
			execErr = errors.Wrapf(err, "key %s", deltas[i].Key)
		}
	})
	if execErr != nil {
		return errors.Wrapf(execErr, "failed to put %s changes at version %d", namespace, version)
	}
	return nil
}

// warning: GetLatestBlock returns a types.BlockHeader without Timestamp, callers only need the chain fields.
func (r *Repository) GetLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	model, err := r.queries.GetLatestIndexedBlock(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.BlockHeader{}, errors.WithStack(errs.NotFound)
		}
		return types.BlockHeader{}, errors.Wrap(err, "error during query")
	}
	block, err := mapIndexedBlockModelToType(model)
	if err != nil {
		return types.BlockHeader{}, errors.Wrap(err, "failed to parse indexed block model")
	}
	return types.BlockHeader{
		Hash:      block.Hash,
		PrevBlock: block.PrevHash,
		Height:    block.Height,
	}, nil
}

func (r *Repository) GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error) {
	model, err := r.queries.GetIndexedBlockByHeight(ctx, height)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	block, err := mapIndexedBlockModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse indexed block model")
	}
	return &block, nil
}

func (r *Repository) GetBlockEvents(ctx context.Context, height int64) (*entity.BlockEvents, error) {
	model, err := r.queries.GetBlockEvents(ctx, height)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.WithStack(errs.NotFound)
		}
		return nil, errors.Wrap(err, "error during query")
	}
	events, err := mapBlockEventsModelToType(model)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse block events model")
	}
	return events, nil
}

func (r *Repository) CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error {
	if err := r.queries.CreateIndexedBlock(ctx, mapIndexedBlockTypeToParams(*block)); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) CreateBlockEvents(ctx context.Context, events *entity.BlockEvents) error {
	params, err := mapBlockEventsTypeToParams(events)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := r.queries.CreateBlockEvents(ctx, params); err != nil {
		return errors.Wrap(err, "error during exec")
	}
	return nil
}

func (r *Repository) DeleteSinceHeight(ctx context.Context, height int64) error {
	if err := r.queries.DeleteVersionedValuesSinceVersion(ctx, height); err != nil {
		return errors.Wrap(err, "failed to delete versioned values")
	}
	if err := r.queries.DeleteBlockEventsSinceHeight(ctx, height); err != nil {
		return errors.Wrap(err, "failed to delete block events")
	}
	if err := r.queries.DeleteIndexedBlocksSinceHeight(ctx, height); err != nil {
		return errors.Wrap(err, "failed to delete indexed blocks")
	}
	return nil
}
