package memory

import (
	"context"
	"testing"

	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put(t *testing.T, repo *Repository, version int64, key, value string) {
	t.Helper()
	require.NoError(t, repo.PutChanges(context.Background(), "ns", version, []versioned.Delta{
		{Key: key, Operation: versioned.OperationCreate, NewValue: []byte(value)},
	}))
}

func TestGetAt(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	put(t, repo, 3, "a", "v3")
	put(t, repo, 7, "a", "v7")

	t.Run("before first version", func(t *testing.T) {
		_, err := repo.GetAt(ctx, "ns", "a", 2)
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("latest at or before", func(t *testing.T) {
		for version, expected := range map[int64]string{3: "v3", 6: "v3", 7: "v7", 100: "v7"} {
			value, err := repo.GetAt(ctx, "ns", "a", version)
			require.NoError(t, err)
			assert.Equal(t, expected, string(value), "version %d", version)
		}
	})
	t.Run("unknown key", func(t *testing.T) {
		_, err := repo.GetAt(ctx, "ns", "b", 100)
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("unknown namespace", func(t *testing.T) {
		_, err := repo.GetAt(ctx, "other", "a", 100)
		assert.ErrorIs(t, err, errs.NotFound)
	})
}

func TestTx(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	t.Run("writes are invisible until commit", func(t *testing.T) {
		tx, err := repo.BeginBRC20Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.CreateIndexedBlock(ctx, &entity.IndexedBlock{Height: 0}))

		_, err = repo.GetLatestBlock(ctx)
		assert.ErrorIs(t, err, errs.NotFound)

		require.NoError(t, tx.Commit(ctx))
		header, err := repo.GetLatestBlock(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(0), header.Height)

		// rollback after commit is a no-op
		require.NoError(t, tx.Rollback(ctx))
		_, err = repo.GetIndexedBlockByHeight(ctx, 0)
		assert.NoError(t, err)
	})
	t.Run("rollback discards writes", func(t *testing.T) {
		tx, err := repo.BeginBRC20Tx(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.CreateIndexedBlock(ctx, &entity.IndexedBlock{Height: 1}))
		require.NoError(t, tx.Rollback(ctx))
		require.NoError(t, tx.Commit(ctx))

		_, err = repo.GetIndexedBlockByHeight(ctx, 1)
		assert.ErrorIs(t, err, errs.NotFound)
	})
}

func TestDeleteSinceHeight(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	for height := int64(0); height < 5; height++ {
		put(t, repo, height, "a", string(rune('0'+height)))
		require.NoError(t, repo.CreateIndexedBlock(ctx, &entity.IndexedBlock{Height: height}))
		require.NoError(t, repo.CreateBlockEvents(ctx, entity.NewBlockEvents(height, [32]byte{}, 0)))
	}
	put(t, repo, 3, "b", "only at 3")

	require.NoError(t, repo.DeleteSinceHeight(ctx, 3))

	value, err := repo.GetAt(ctx, "ns", "a", 10)
	require.NoError(t, err)
	assert.Equal(t, "2", string(value))

	_, err = repo.GetAt(ctx, "ns", "b", 10)
	assert.ErrorIs(t, err, errs.NotFound)

	header, err := repo.GetLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), header.Height)

	_, err = repo.GetBlockEvents(ctx, 3)
	assert.ErrorIs(t, err, errs.NotFound)

	changes, err := repo.GetChanges(ctx, "ns", 3)
	require.NoError(t, err)
	assert.Empty(t, changes)
	changes, err = repo.GetChanges(ctx, "ns", 2)
	require.NoError(t, err)
	assert.Len(t, changes, 1)
}

func TestIndexerState(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()

	_, err := repo.GetLatestIndexerState(ctx)
	assert.ErrorIs(t, err, errs.NotFound)

	require.NoError(t, repo.CreateIndexerState(ctx, entity.IndexerState{DBVersion: 1}))
	require.NoError(t, repo.CreateIndexerState(ctx, entity.IndexerState{DBVersion: 2}))
	state, err := repo.GetLatestIndexerState(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), state.DBVersion)
}
