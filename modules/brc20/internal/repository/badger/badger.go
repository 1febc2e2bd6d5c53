// Package badger keeps the indexer state in an embedded Badger database.
package badger

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/datagateway"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
)

var (
	_ datagateway.BRC20DataGateway       = (*Repository)(nil)
	_ datagateway.BRC20DataGatewayWithTx = (*Repository)(nil)
	_ datagateway.IndexerInfoDataGateway = (*Repository)(nil)
)

var ErrTxAlreadyExists = errors.New("Transaction already exists. Call Commit() or Rollback() first.")

type Repository struct {
	db  *badger.DB
	txn *badger.Txn
}

// Open opens the database at path. An empty path opens an in-memory database.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		if strings.Contains(err.Error(), "Cannot acquire directory lock") {
			return nil, errors.Wrapf(err, "database at %s is locked by another process", path)
		}
		return nil, errors.Wrapf(err, "failed to open database at %s", path)
	}
	return db, nil
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) BeginBRC20Tx(ctx context.Context) (datagateway.BRC20DataGatewayWithTx, error) {
	if r.txn != nil {
		return nil, errors.WithStack(ErrTxAlreadyExists)
	}
	return &Repository{
		db:  r.db,
		txn: r.db.NewTransaction(true),
	}, nil
}

func (r *Repository) Commit(ctx context.Context) error {
	if r.txn == nil {
		return nil
	}
	if err := r.txn.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	r.txn = nil
	return nil
}

func (r *Repository) Rollback(ctx context.Context) error {
	if r.txn == nil {
		return nil
	}
	r.txn.Discard()
	logger.DebugContext(ctx, "rolled back transaction")
	r.txn = nil
	return nil
}

func (r *Repository) view(fn func(txn *badger.Txn) error) error {
	if r.txn != nil {
		return fn(r.txn)
	}
	return r.db.View(fn)
}

func (r *Repository) update(fn func(txn *badger.Txn) error) error {
	if r.txn != nil {
		return fn(r.txn)
	}
	return r.db.Update(fn)
}

func getJSON(txn *badger.Txn, key []byte, dst any) error {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.WithStack(errs.NotFound)
		}
		return errors.WithStack(err)
	}
	return item.Value(func(val []byte) error {
		return errors.WithStack(json.Unmarshal(val, dst))
	})
}

func setJSON(txn *badger.Txn, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(txn.Set(key, data))
}

// change is the stored form of a versioned.Delta.
type change struct {
	Key       string              `json:"key"`
	Operation versioned.Operation `json:"operation"`
	OldValue  []byte              `json:"oldValue,omitempty"`
	NewValue  []byte              `json:"newValue"`
}

func (r *Repository) GetAt(ctx context.Context, namespace string, key string, version int64) ([]byte, error) {
	if version < 0 {
		return nil, errors.WithStack(errs.NotFound)
	}
	var value []byte
	err := r.view(func(txn *badger.Txn) error {
		prefix := valuePrefix(namespace, key)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// reverse seek lands on the greatest version <= version
		it.Seek(valueKey(namespace, key, version))
		if !it.ValidForPrefix(prefix) {
			return errors.WithStack(errs.NotFound)
		}
		var err error
		value, err = it.Item().ValueCopy(nil)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return value, nil
}

func (r *Repository) GetChanges(ctx context.Context, namespace string, version int64) ([]versioned.Delta, error) {
	deltas := make([]versioned.Delta, 0)
	err := r.view(func(txn *badger.Txn) error {
		prefix := changePrefix(namespace, version)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c change
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return errors.Wrap(err, "invalid change record")
			}
			deltas = append(deltas, versioned.Delta{
				Key:       c.Key,
				Operation: c.Operation,
				OldValue:  c.OldValue,
				NewValue:  c.NewValue,
			})
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return deltas, nil
}

func (r *Repository) PutChanges(ctx context.Context, namespace string, version int64, deltas []versioned.Delta) error {
	err := r.update(func(txn *badger.Txn) error {
		for i, delta := range deltas {
			if err := txn.Set(valueKey(namespace, delta.Key, version), delta.NewValue); err != nil {
				return errors.Wrapf(err, "key %s", delta.Key)
			}
			if err := setJSON(txn, changeKey(namespace, version, i), change(delta)); err != nil {
				return errors.Wrapf(err, "key %s", delta.Key)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrTxnTooBig) {
			return errors.Wrapf(err, "changes of %s at version %d do not fit in one transaction", namespace, version)
		}
		return errors.Wrapf(err, "failed to put %s changes at version %d", namespace, version)
	}
	return nil
}

func (r *Repository) GetLatestBlock(ctx context.Context) (types.BlockHeader, error) {
	var block entity.IndexedBlock
	err := r.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefixIndexedBlock
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(heightKey(prefixIndexedBlock, -1))
		if !it.ValidForPrefix(prefixIndexedBlock) {
			return errors.WithStack(errs.NotFound)
		}
		return it.Item().Value(func(val []byte) error {
			return errors.WithStack(json.Unmarshal(val, &block))
		})
	})
	if err != nil {
		return types.BlockHeader{}, errors.WithStack(err)
	}
	return types.BlockHeader{
		Hash:      block.Hash,
		PrevBlock: block.PrevHash,
		Height:    block.Height,
	}, nil
}

func (r *Repository) GetIndexedBlockByHeight(ctx context.Context, height int64) (*entity.IndexedBlock, error) {
	var block entity.IndexedBlock
	if err := r.view(func(txn *badger.Txn) error {
		return getJSON(txn, heightKey(prefixIndexedBlock, height), &block)
	}); err != nil {
		return nil, errors.Wrapf(err, "indexed block %d", height)
	}
	return &block, nil
}

func (r *Repository) GetBlockEvents(ctx context.Context, height int64) (*entity.BlockEvents, error) {
	var events entity.BlockEvents
	if err := r.view(func(txn *badger.Txn) error {
		return getJSON(txn, heightKey(prefixBlockEvents, height), &events)
	}); err != nil {
		return nil, errors.Wrapf(err, "events of block %d", height)
	}
	return &events, nil
}

func (r *Repository) CreateIndexedBlock(ctx context.Context, block *entity.IndexedBlock) error {
	return errors.WithStack(r.update(func(txn *badger.Txn) error {
		return setJSON(txn, heightKey(prefixIndexedBlock, block.Height), block)
	}))
}

func (r *Repository) CreateBlockEvents(ctx context.Context, events *entity.BlockEvents) error {
	return errors.WithStack(r.update(func(txn *badger.Txn) error {
		return setJSON(txn, heightKey(prefixBlockEvents, events.Height), events)
	}))
}

func (r *Repository) DeleteSinceHeight(ctx context.Context, height int64) error {
	if height < 0 {
		height = 0
	}
	err := r.update(func(txn *badger.Txn) error {
		keys := make([][]byte, 0)
		collect := func(prefix, from []byte, onItem func(item *badger.Item) error) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Seek(from); it.ValidForPrefix(prefix); it.Next() {
				item := it.Item()
				keys = append(keys, item.KeyCopy(nil))
				if onItem != nil {
					if err := onItem(item); err != nil {
						return errors.WithStack(err)
					}
				}
			}
			return nil
		}

		// change records locate the values written at each version
		if err := collect(prefixChange, changeVersionPrefix(height), func(item *badger.Item) error {
			namespace, version, err := parseChangeKey(item.Key())
			if err != nil {
				return errors.WithStack(err)
			}
			var c change
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return errors.Wrap(err, "invalid change record")
			}
			keys = append(keys, valueKey(namespace, c.Key, version))
			return nil
		}); err != nil {
			return errors.WithStack(err)
		}
		if err := collect(prefixIndexedBlock, heightKey(prefixIndexedBlock, height), nil); err != nil {
			return errors.WithStack(err)
		}
		if err := collect(prefixBlockEvents, heightKey(prefixBlockEvents, height), nil); err != nil {
			return errors.WithStack(err)
		}

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete data since height %d", height)
	}
	return nil
}

func (r *Repository) GetLatestIndexerState(ctx context.Context) (entity.IndexerState, error) {
	var state entity.IndexerState
	err := r.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefixIndexerState
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(heightKey(prefixIndexerState, -1))
		if !it.ValidForPrefix(prefixIndexerState) {
			return errors.WithStack(errs.NotFound)
		}
		return it.Item().Value(func(val []byte) error {
			return errors.WithStack(json.Unmarshal(val, &state))
		})
	})
	if err != nil {
		return entity.IndexerState{}, errors.WithStack(err)
	}
	return state, nil
}

func (r *Repository) CreateIndexerState(ctx context.Context, state entity.IndexerState) error {
	return errors.WithStack(r.update(func(txn *badger.Txn) error {
		return setJSON(txn, heightKey(prefixIndexerState, state.CreatedAt.UnixNano()), state)
	}))
}
