package versioned_test

import (
	"context"
	"testing"

	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/repository/memory"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flush(t *testing.T, repo *memory.Repository, store versioned.Flushable) {
	t.Helper()
	require.NoError(t, repo.PutChanges(context.Background(), store.Namespace(), store.Version(), store.Deltas()))
	store.Reset()
}

func TestSetStore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	store := versioned.NewSetStore[string]("names", repo)

	require.NoError(t, store.Set(ctx, 1, "a", "first"))
	require.NoError(t, store.Set(ctx, 1, "a", "second"))
	require.NoError(t, store.Set(ctx, 1, "b", "other"))

	t.Run("unflushed writes are invisible", func(t *testing.T) {
		_, ok, err := store.GetAt(ctx, 1, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("one delta per key in write order", func(t *testing.T) {
		deltas := store.Deltas()
		require.Len(t, deltas, 2)
		assert.Equal(t, "a", deltas[0].Key)
		assert.Equal(t, versioned.OperationCreate, deltas[0].Operation)
		assert.Equal(t, `"second"`, string(deltas[0].NewValue))
		assert.Equal(t, "b", deltas[1].Key)
		assert.Equal(t, int64(1), store.Version())
	})

	flush(t, repo, store)
	assert.Equal(t, int64(-1), store.Version())

	t.Run("flushed value", func(t *testing.T) {
		value, ok, err := store.GetAt(ctx, 1, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "second", value)

		_, ok, err = store.GetAt(ctx, 0, "a")
		require.NoError(t, err)
		assert.False(t, ok)
	})
	t.Run("update records old value", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, 4, "a", "third"))
		deltas := store.Deltas()
		require.Len(t, deltas, 1)
		assert.Equal(t, versioned.OperationUpdate, deltas[0].Operation)
		assert.Equal(t, `"second"`, string(deltas[0].OldValue))
		flush(t, repo, store)

		for version, expected := range map[int64]string{1: "second", 3: "second", 4: "third"} {
			value, _, err := store.GetAt(ctx, version, "a")
			require.NoError(t, err)
			assert.Equal(t, expected, value)
		}
	})
	t.Run("writing another version before flush", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, 5, "a", "x"))
		err := store.Set(ctx, 6, "a", "y")
		assert.ErrorIs(t, err, errs.InvalidArgument)
		store.Reset()
		assert.NoError(t, store.Set(ctx, 6, "a", "y"))
	})
}

func TestAddStore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	store := versioned.NewAddStore("totals", repo)

	require.NoError(t, store.Add(ctx, 1, "k", decimal.NewFromInt(10)))
	require.NoError(t, store.Add(ctx, 1, "k", decimal.NewFromInt(5)))
	flush(t, repo, store)

	require.NoError(t, store.Add(ctx, 2, "k", decimal.NewFromInt(-3)))
	require.NoError(t, store.Add(ctx, 2, "zero", decimal.Zero))
	deltas := store.Deltas()
	require.Len(t, deltas, 2)
	assert.Equal(t, "15", string(deltas[0].OldValue))
	assert.Equal(t, "12", string(deltas[0].NewValue))
	assert.Equal(t, "0", string(deltas[1].NewValue))
	flush(t, repo, store)

	t.Run("totals per version", func(t *testing.T) {
		for version, expected := range map[int64]string{0: "0", 1: "15", 2: "12", 9: "12"} {
			value, _, err := store.GetAt(ctx, version, "k")
			require.NoError(t, err)
			assert.Equal(t, expected, value.String(), "version %d", version)
		}
	})
	t.Run("missing key is zero", func(t *testing.T) {
		value, ok, err := store.GetAt(ctx, 2, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, value.IsZero())
	})
	t.Run("values decode", func(t *testing.T) {
		_, err := versioned.DecodeDecimal([]byte("not a number"))
		assert.Error(t, err)
	})
}
