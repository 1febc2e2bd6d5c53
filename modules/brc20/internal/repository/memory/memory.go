// Package memory keeps the indexer state in process memory. State is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/datagateway"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
)

type versionedValue struct {
	version int64
	value   []byte
}

type state struct {
	mu sync.RWMutex

	// namespace -> key -> values sorted by version
	values  map[string]map[string][]versionedValue
	changes map[string]map[int64][]versioned.Delta
	blocks  map[int64]*entity.IndexedBlock
	events  map[int64]*entity.BlockEvents
	states  []entity.IndexerState
}

// Repository implements the BRC-20 data gateways on top of maps.
// Inside a transaction, writes are buffered until Commit and reads see committed data only.
type Repository struct {
	state *state

	// pending is nil outside a transaction
	pending *[]func(*state)
}

var (
	_ datagateway.BRC20DataGateway       = (*Repository)(nil)
	_ datagateway.BRC20DataGatewayWithTx = (*Repository)(nil)
	_ datagateway.IndexerInfoDataGateway = (*Repository)(nil)
)

func NewRepository() *Repository {
	return &Repository{
		state: &state{
			values:  make(map[string]map[string][]versionedValue),
			changes: make(map[string]map[int64][]versioned.Delta),
			blocks:  make(map[int64]*entity.IndexedBlock),
			events:  make(map[int64]*entity.BlockEvents),
		},
	}
}

func (r *Repository) BeginBRC20Tx(ctx context.Context) (datagateway.BRC20DataGatewayWithTx, error) {
	pending := make([]func(*state), 0)
	return &Repository{
		state:   r.state,
		pending: &pending,
	}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.pending == nil {
		return nil
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	for _, apply := range *r.pending {
		apply(r.state)
	}
	r.pending = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.pending == nil {
		return nil
	}
	if len(*r.pending) > 0 {
		logger.DebugContext(ctx, "[MemoryRepository] Rolled back transaction")
	}
	r.pending = nil
	return nil
}

// write applies fn now, or on Commit inside a transaction.
func (r *Repository) write(fn func(*state)) {
	if r.pending != nil {
		*r.pending = append(*r.pending, fn)
		return
	}
	r.state.mu.Lock()
	defer r.state.mu.Unlock()
	fn(r.state)
}

func (r *Repository) GetAt(ctx context.Context, namespace string, key string, version int64) ([]byte, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	values := r.state.values[namespace][key]
	// first value written after version
	i := sort.Search(len(values), func(i int) bool { return values[i].version > version })
	if i == 0 {
		return nil, errors.WithStack(errs.NotFound)
	}
	return values[i-1].value, nil
}

func (r *Repository) GetChanges(ctx context.Context, namespace string, version int64) ([]versioned.Delta, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	deltas := r.state.changes[namespace][version]
	result := make([]versioned.Delta, len(deltas))
	copy(result, deltas)
	return result, nil
}

func (r *Repository) PutChanges(ctx context.Context, namespace string, version int64, deltas []versioned.Delta) error {
	if len(deltas) == 0 {
		return nil
	}
	deltas = append([]versioned.Delta(nil), deltas...)
	r.write(func(s *state) {
		if s.values[namespace] == nil {
			s.values[namespace] = make(map[string][]versionedValue)
		}
		if s.changes[namespace] == nil {
			s.changes[namespace] = make(map[int64][]versioned.Delta)
		}
		for _, delta := range deltas {
			values := s.values[namespace][delta.Key]
			if n := len(values); n > 0 && values[n-1].version == version {
				values[n-1].value = delta.NewValue
			} else {
				values = append(values, versionedValue{version: version, value: delta.NewValue})
			}
			s.values[namespace][delta.Key] = values
		}
		s.changes[namespace][version] = append(s.changes[namespace][version], deltas...)
	})
	return nil
}

func (r *Repository) GetLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	var latest *entity.IndexedBlock
	for _, block := range r.state.blocks {
		if latest == nil || block.Height > latest.Height {
			latest = block
		}
	}
	if latest == nil {
		return types.BlockHeader{}, errors.WithStack(errs.NotFound)
	}
	return types.BlockHeader{
		Hash:      latest.Hash,
		PrevBlock: latest.PrevHash,
		Height:    latest.Height,
	}, nil
}

func (r *Repository) GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	block, ok := r.state.blocks[height]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "indexed block %d", height)
	}
	clone := *block
	return &clone, nil
}

func (r *Repository) GetBlockEvents(ctx context.Context, height int64) (*entity.BlockEvents, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	events, ok := r.state.events[height]
	if !ok {
		return nil, errors.Wrapf(errs.NotFound, "events of block %d", height)
	}
	return events, nil
}

func (r *Repository) CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error {
	clone := *block
	r.write(func(s *state) {
		s.blocks[clone.Height] = &clone
	})
	return nil
}

func (r *Repository) CreateBlockEvents(ctx context.Context, events *entity.BlockEvents) error {
	r.write(func(s *state) {
		s.events[events.Height] = events
	})
	return nil
}

func (r *Repository) DeleteSinceHeight(ctx context.Context, height int64) error {
	r.write(func(s *state) {
		for namespace, keys := range s.values {
			for key, values := range keys {
				i := sort.Search(len(values), func(i int) bool { return values[i].version >= height })
				if i == 0 {
					delete(keys, key)
				} else {
					keys[key] = values[:i]
				}
			}
			for version := range s.changes[namespace] {
				if version >= height {
					delete(s.changes[namespace], version)
				}
			}
		}
		for h := range s.blocks {
			if h >= height {
				delete(s.blocks, h)
			}
		}
		for h := range s.events {
			if h >= height {
				delete(s.events, h)
			}
		}
	})
	return nil
}

func (r *Repository) GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	if len(r.state.states) == 0 {
		return entity.IndexerState{}, errors.WithStack(errs.NotFound)
	}
	return r.state.states[len(r.state.states)-1], nil
}

func (r *Repository) CreateIndexerState(ctx context.Context, indexerState entity.IndexerState) error {
	r.write(func(s *state) {
		s.states = append(s.states, indexerState)
	})
	return nil
}
