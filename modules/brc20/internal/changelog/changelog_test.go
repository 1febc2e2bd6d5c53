package changelog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/ordinals"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/gaze-network/brc20-indexer/pkg/parquetutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvents() *entity.BlockEvents {
	deployTx := chainhash.HashH([]byte("deploy"))
	transferTx := chainhash.HashH([]byte("transfer"))
	events := entity.NewBlockEvents(100, chainhash.HashH([]byte("block")), 1_700_000_000)
	events.Deploys = append(events.Deploys, &entity.Deploy{
		Id:        ordinals.NewInscriptionId(deployTx, 0),
		Tick:      "ordi",
		MaxSupply: decimal.NewFromInt(21_000_000),
		MintLimit: decimal.NewFromInt(1000),
		Decimals:  18,
		Deployer:  "A",
	})
	events.Mints = append(events.Mints, &entity.Mint{
		Id:     ordinals.NewInscriptionId(deployTx, 1),
		Tick:   "ordi",
		To:     "A",
		Amount: decimal.NewFromInt(1000),
	})
	events.ExecutedTransfers = append(events.ExecutedTransfers, &entity.ExecutedTransfer{
		Id:     ordinals.NewInscriptionId(transferTx, 0),
		Tick:   "ordi",
		From:   "A",
		To:     "B",
		Amount: decimal.NewFromInt(100),
	})
	return events
}

func TestBuildRows(t *testing.T) {
	balances := []versioned.Delta{
		{Key: "ordi:A", Operation: versioned.OperationCreate, NewValue: []byte("1000")},
		{Key: "ordi:B", Operation: versioned.OperationUpdate, OldValue: []byte("5"), NewValue: []byte("105")},
	}
	transferable := []versioned.Delta{
		{Key: "ordi:A", Operation: versioned.OperationUpdate, OldValue: []byte("100"), NewValue: []byte("0")},
	}
	rows := BuildRows(testEvents(), balances, transferable)

	type change struct {
		entity, id, operation string
	}
	changes := make([]change, 0, len(rows))
	for _, row := range rows {
		assert.Equal(t, int64(100), row.Height)
		assert.Equal(t, int64(1_700_000_000), row.Timestamp)
		changes = append(changes, change{row.Entity, row.Id, row.Operation})
	}
	deployId := ordinals.NewInscriptionId(chainhash.HashH([]byte("deploy")), 0).String()
	assert.Equal(t, []change{
		{EntityDeploy, deployId, "create"},
		{EntityToken, "ordi", "create"},
		{EntityMint, ordinals.NewInscriptionId(chainhash.HashH([]byte("deploy")), 1).String(), "create"},
		{EntityTransfer, ordinals.NewInscriptionId(chainhash.HashH([]byte("transfer")), 0).String(), "create"},
		{EntityAccountBalance, "ordi:A", "create"},
		{EntityAccount, "A", "create"},
		{EntityAccountBalance, "ordi:B", "update"},
		{EntityAccountBalance, "ordi:A", "update"},
	}, changes)

	t.Run("token fields", func(t *testing.T) {
		fields, err := rows[1].DecodeFields()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"symbol":     "ordi",
			"max_supply": "21000000",
			"mint_limit": "1000",
			"decimals":   "18",
			"deployment": deployId,
		}, fields)
	})
	t.Run("new balance starts with zero transferable", func(t *testing.T) {
		fields, err := rows[4].DecodeFields()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"account":      "A",
			"token":        "ordi",
			"balance":      "1000",
			"transferable": "0",
		}, fields)
	})
	t.Run("transferable update", func(t *testing.T) {
		fields, err := rows[7].DecodeFields()
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"transferable": "0"}, fields)
	})
	t.Run("ticks may contain the separator", func(t *testing.T) {
		tick, account, ok := splitKey("a:b:bc1qxyz")
		require.True(t, ok)
		assert.Equal(t, "a:b", tick)
		assert.Equal(t, "bc1qxyz", account)
	})
}

func TestParquetSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "changelog")
	sink := NewParquetSink(NewLocalWriter(dir))
	rows := BuildRows(testEvents(), nil, nil)

	require.NoError(t, sink.Write(context.Background(), 100, rows))

	data, err := os.ReadFile(filepath.Join(dir, FileName(100)))
	require.NoError(t, err)
	read, err := parquetutils.ReadAll[Row](parquetutils.NewBufferFile(data))
	require.NoError(t, err)
	assert.Equal(t, rows, read)
}
