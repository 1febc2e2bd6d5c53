package badger

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db)
}

func put(t *testing.T, repo *Repository, namespace string, version int64, values map[string]string) {
	t.Helper()
	deltas := make([]versioned.Delta, 0, len(values))
	for key, value := range values {
		deltas = append(deltas, versioned.Delta{Key: key, Operation: versioned.OperationCreate, NewValue: []byte(value)})
	}
	require.NoError(t, repo.PutChanges(context.Background(), namespace, version, deltas))
}

func TestGetAt(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)
	put(t, repo, "ns", 3, map[string]string{"a": "v3"})
	put(t, repo, "ns", 260, map[string]string{"a": "v260"})
	// shares a prefix with "a" in an unseparated layout
	put(t, repo, "ns", 1, map[string]string{"ab": "other"})

	for version, expected := range map[int64]string{3: "v3", 259: "v3", 260: "v260", 1 << 40: "v260"} {
		value, err := repo.GetAt(ctx, "ns", "a", version)
		require.NoError(t, err)
		assert.Equal(t, expected, string(value), "version %d", version)
	}

	_, err := repo.GetAt(ctx, "ns", "a", 2)
	assert.ErrorIs(t, err, errs.NotFound)
	_, err = repo.GetAt(ctx, "other", "a", 10)
	assert.ErrorIs(t, err, errs.NotFound)
	_, err = repo.GetAt(ctx, "ns", "a", -1)
	assert.ErrorIs(t, err, errs.NotFound)
}

func TestGetAtKeysWithSeparatorBytes(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)
	key := "t:A"
	// key followed by a zero byte and eight bytes that read as a version
	suffixed := key + "\x00\x00\x00\x00\x00\x00\x00\x00\x07"
	put(t, repo, "balances", 5, map[string]string{key: "10"})
	put(t, repo, "balances", 1, map[string]string{suffixed: "99999"})

	value, err := repo.GetAt(ctx, "balances", key, 10)
	require.NoError(t, err)
	assert.Equal(t, "10", string(value))

	value, err = repo.GetAt(ctx, "balances", suffixed, 10)
	require.NoError(t, err)
	assert.Equal(t, "99999", string(value))

	_, err = repo.GetAt(ctx, "balances", key, 4)
	assert.ErrorIs(t, err, errs.NotFound)

	require.NoError(t, repo.DeleteSinceHeight(ctx, 5))
	_, err = repo.GetAt(ctx, "balances", key, 10)
	assert.ErrorIs(t, err, errs.NotFound)
	value, err = repo.GetAt(ctx, "balances", suffixed, 10)
	require.NoError(t, err)
	assert.Equal(t, "99999", string(value))
}

func TestChangesAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)
	for height := int64(0); height < 4; height++ {
		require.NoError(t, repo.PutChanges(ctx, "ns", height, []versioned.Delta{
			{Key: "z", Operation: versioned.OperationUpdate, OldValue: []byte("old"), NewValue: []byte{byte('0' + height)}},
			{Key: "a", Operation: versioned.OperationCreate, NewValue: []byte("x")},
		}))
		require.NoError(t, repo.CreateIndexedBlock(ctx, &entity.IndexedBlock{Height: height, Hash: chainhash.HashH([]byte{byte(height)})}))
		require.NoError(t, repo.CreateBlockEvents(ctx, entity.NewBlockEvents(height, chainhash.Hash{}, 0)))
	}

	t.Run("changes keep write order", func(t *testing.T) {
		changes, err := repo.GetChanges(ctx, "ns", 2)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, "z", changes[0].Key)
		assert.Equal(t, versioned.OperationUpdate, changes[0].Operation)
		assert.Equal(t, "old", string(changes[0].OldValue))
		assert.Equal(t, "2", string(changes[0].NewValue))
		assert.Equal(t, "a", changes[1].Key)
		assert.Nil(t, changes[1].OldValue)
	})

	require.NoError(t, repo.DeleteSinceHeight(ctx, 2))

	t.Run("values fall back to the last kept version", func(t *testing.T) {
		value, err := repo.GetAt(ctx, "ns", "z", 100)
		require.NoError(t, err)
		assert.Equal(t, "1", string(value))
	})
	t.Run("blocks and events are removed", func(t *testing.T) {
		header, err := repo.GetLatestBlock(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), header.Height)
		assert.Equal(t, chainhash.HashH([]byte{1}), header.Hash)

		_, err = repo.GetIndexedBlockByHeight(ctx, 2)
		assert.ErrorIs(t, err, errs.NotFound)
		_, err = repo.GetBlockEvents(ctx, 3)
		assert.ErrorIs(t, err, errs.NotFound)
		events, err := repo.GetBlockEvents(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), events.Height)

		changes, err := repo.GetChanges(ctx, "ns", 2)
		require.NoError(t, err)
		assert.Empty(t, changes)
	})
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	tx, err := repo.BeginBRC20Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateIndexedBlock(ctx, &entity.IndexedBlock{Height: 5}))

	// the transaction sees its own writes
	header, err := tx.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), header.Height)

	_, err = repo.GetLatestBlock(ctx)
	assert.ErrorIs(t, err, errs.NotFound)

	require.NoError(t, tx.Rollback(ctx))
	_, err = repo.GetLatestBlock(ctx)
	assert.ErrorIs(t, err, errs.NotFound)

	tx, err = repo.BeginBRC20Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateIndexedBlock(ctx, &entity.IndexedBlock{Height: 6}))
	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx))

	header, err = repo.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), header.Height)
}

func TestIndexerState(t *testing.T) {
	ctx := context.Background()
	repo := newRepository(t)

	_, err := repo.GetLatestIndexerState(ctx)
	assert.ErrorIs(t, err, errs.NotFound)

	now := time.Now()
	require.NoError(t, repo.CreateIndexerState(ctx, entity.IndexerState{CreatedAt: now, DBVersion: 2}))
	require.NoError(t, repo.CreateIndexerState(ctx, entity.IndexerState{CreatedAt: now.Add(-time.Hour), DBVersion: 1}))

	state, err := repo.GetLatestIndexerState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), state.DBVersion)
}

func TestParseChangeKey(t *testing.T) {
	namespace, version, err := parseChangeKey(changeKey("balances", 840_000, 7))
	require.NoError(t, err)
	assert.Equal(t, "balances", namespace)
	assert.Equal(t, int64(840_000), version)

	namespace, _, err = parseChangeKey(changeKey("", 1, 0))
	require.NoError(t, err)
	assert.Empty(t, namespace)

	_, _, err = parseChangeKey([]byte("c/short"))
	assert.Error(t, err)
	// namespace length runs past the key
	_, _, err = parseChangeKey(append(appendUint64([]byte("c/"), 1), 0x20, 'a', 0, 0, 0, 0))
	assert.Error(t, err)
}
