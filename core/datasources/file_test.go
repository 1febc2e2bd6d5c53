package datasources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChain(t *testing.T, dir string, heights ...int64) []*types.Block {
	t.Helper()

	blocks := make([]*types.Block, 0, len(heights))
	for _, height := range heights {
		hash := chainhash.DoubleHashH([]byte(fmt.Sprintf("block-%d", height)))
		var prev chainhash.Hash
		if height > 0 {
			prev = chainhash.DoubleHashH([]byte(fmt.Sprintf("block-%d", height-1)))
		}

		coinbase := wire.NewMsgTx(1)
		coinbase.AddTxIn(&wire.TxIn{
			PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex),
			SignatureScript:  []byte{byte(height)},
		})
		coinbase.AddTxOut(wire.NewTxOut(50_0000_0000, []byte{0x51}))

		block := &types.Block{
			Header: types.BlockHeader{
				Hash:      hash,
				PrevBlock: prev,
				Height:    height,
				Timestamp: time.Unix(1231006505+height*600, 0).UTC(),
			},
			Transactions: []*types.Transaction{types.ParseMsgTx(coinbase, height, hash, 0)},
		}
		data, err := types.MarshalBlockJSON(block)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, blockFileName(height)), data, 0o600))
		blocks = append(blocks, block)
	}
	return blocks
}

func TestFileDatasource(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch_in_order", func(t *testing.T) {
		dir := t.TempDir()
		expected := writeChain(t, dir, 0, 1, 2, 3, 4)
		ds := NewFileDatasource(NewLocalStorage(dir))

		blocks, err := ds.Fetch(ctx, -1, -1)
		require.NoError(t, err)
		require.Len(t, blocks, len(expected))
		for i, block := range blocks {
			assert.Equal(t, expected[i].Header, block.Header)
			assert.Equal(t, expected[i].Transactions[0].TxHash, block.Transactions[0].TxHash)
			assert.True(t, block.Transactions[0].TxIn[0].Coinbase)
		}
	})
	t.Run("fetch_range", func(t *testing.T) {
		dir := t.TempDir()
		writeChain(t, dir, 0, 1, 2, 3, 4)
		ds := NewFileDatasource(NewLocalStorage(dir))

		blocks, err := ds.Fetch(ctx, 2, 3)
		require.NoError(t, err)
		require.Len(t, blocks, 2)
		assert.Equal(t, int64(2), blocks[0].Header.Height)
		assert.Equal(t, int64(3), blocks[1].Header.Height)
	})
	t.Run("nothing_new", func(t *testing.T) {
		dir := t.TempDir()
		writeChain(t, dir, 0, 1)
		ds := NewFileDatasource(NewLocalStorage(dir))

		blocks, err := ds.Fetch(ctx, 2, -1)
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})
	t.Run("empty_storage", func(t *testing.T) {
		ds := NewFileDatasource(NewLocalStorage(t.TempDir()))

		blocks, err := ds.Fetch(ctx, 0, -1)
		require.NoError(t, err)
		assert.Empty(t, blocks)
	})
	t.Run("gap", func(t *testing.T) {
		dir := t.TempDir()
		writeChain(t, dir, 0, 1, 3)
		ds := NewFileDatasource(NewLocalStorage(dir))

		_, err := ds.Fetch(ctx, 0, -1)
		assert.ErrorIs(t, err, errs.NotFound)
	})
	t.Run("malformed_file", func(t *testing.T) {
		dir := t.TempDir()
		writeChain(t, dir, 0)
		require.NoError(t, os.WriteFile(filepath.Join(dir, blockFileName(1)), []byte(`{"height":1}`), 0o600))
		ds := NewFileDatasource(NewLocalStorage(dir))

		_, err := ds.Fetch(ctx, 0, -1)
		assert.ErrorIs(t, err, errs.MalformedBlock)
	})
	t.Run("block_header", func(t *testing.T) {
		dir := t.TempDir()
		expected := writeChain(t, dir, 0, 1)
		ds := NewFileDatasource(NewLocalStorage(dir))

		header, err := ds.GetBlockHeader(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, expected[1].Header, header)
	})
}

func TestParseBlockFileName(t *testing.T) {
	height, ok := parseBlockFileName("blocks/840000.json")
	assert.True(t, ok)
	assert.Equal(t, int64(840000), height)

	_, ok = parseBlockFileName("840000.parquet")
	assert.False(t, ok)
	_, ok = parseBlockFileName("-1.json")
	assert.False(t, ok)
}
