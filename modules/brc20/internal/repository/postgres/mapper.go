package postgres

import (
	"encoding/json"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/postgres/gen"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/samber/lo"
)

func mapIndexerStateModelToType(src gen.Brc20IndexerState) entity.IndexerState {
	state := entity.IndexerState{
		ClientVersion:    src.ClientVersion,
		Network:          common.Network(src.Network),
		DBVersion:        src.DbVersion,
		EventHashVersion: src.EventHashVersion,
	}
	if src.CreatedAt.Valid {
		state.CreatedAt = src.CreatedAt.Time
	}
	return state
}

func mapIndexerStateTypeToParams(src entity.IndexerState) gen.CreateIndexerStateParams {
	return gen.CreateIndexerStateParams{
		ClientVersion:    src.ClientVersion,
		Network:          string(src.Network),
		DbVersion:        src.DBVersion,
		EventHashVersion: src.EventHashVersion,
	}
}

func mapIndexedBlockModelToType(src gen.Brc20IndexedBlock) (entity.IndexedBlock, error) {
	hash, err := chainhash.NewHashFromStr(src.Hash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid block hash")
	}
	prevHash, err := chainhash.NewHashFromStr(src.PrevHash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid previous block hash")
	}
	eventHash, err := chainhash.NewHashFromStr(src.EventHash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid event hash")
	}
	cumulativeEventHash, err := chainhash.NewHashFromStr(src.CumulativeEventHash)
	if err != nil {
		return entity.IndexedBlock{}, errors.Wrap(err, "invalid cumulative event hash")
	}
	return entity.IndexedBlock{
		Height:              src.Height,
		Hash:                *hash,
		PrevHash:            *prevHash,
		EventHash:           *eventHash,
		CumulativeEventHash: *cumulativeEventHash,
	}, nil
}

func mapIndexedBlockTypeToParams(src entity.IndexedBlock) gen.CreateIndexedBlockParams {
	return gen.CreateIndexedBlockParams{
		Height:              src.Height,
		Hash:                src.Hash.String(),
		PrevHash:            src.PrevHash.String(),
		EventHash:           src.EventHash.String(),
		CumulativeEventHash: src.CumulativeEventHash.String(),
	}
}

func mapBlockEventsModelToType(src gen.Brc20BlockEvent) (*entity.BlockEvents, error) {
	var events entity.BlockEvents
	if err := json.Unmarshal(src.Events, &events); err != nil {
		return nil, errors.Wrap(err, "invalid block events")
	}
	return &events, nil
}

func mapBlockEventsTypeToParams(src *entity.BlockEvents) (gen.CreateBlockEventsParams, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return gen.CreateBlockEventsParams{}, errors.Wrap(err, "failed to encode block events")
	}
	return gen.CreateBlockEventsParams{
		Height: src.Height,
		Hash:   src.Hash.String(),
		Events: data,
	}, nil
}

func mapVersionedValueModelsToDeltas(src []gen.Brc20VersionedValue) []versioned.Delta {
	return lo.Map(src, func(item gen.Brc20VersionedValue, _ int) versioned.Delta {
		return versioned.Delta{
			Key:       item.Key,
			Operation: versioned.Operation(item.Operation),
			OldValue:  item.OldValue,
			NewValue:  item.Value,
		}
	})
}

func mapDeltasToParams(namespace string, version int64, deltas []versioned.Delta) []gen.CreateVersionedValuesParams {
	return lo.Map(deltas, func(item versioned.Delta, i int) gen.CreateVersionedValuesParams {
		return gen.CreateVersionedValuesParams{
			Namespace: namespace,
			Key:       item.Key,
			Version:   version,
			Seq:       int32(i),
			Operation: int16(item.Operation),
			OldValue:  item.OldValue,
			Value:     item.NewValue,
		}
	})
}
