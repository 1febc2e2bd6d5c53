package brc20

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/ordinals"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/testutils"
	"github.com/gaze-network/brc20-indexer/pkg/btcutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor(t *testing.T) {
	ctx := context.Background()
	extractor := NewExtractor(btcutils.NewAddressResolver(&chaincfg.MainNetParams))
	alice := testutils.NewWallet("alice")
	bob := testutils.NewWallet("bob")

	t.Run("deploy_mint_transfer", func(t *testing.T) {
		deployTx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("deploy"), testutils.TextInscription(`{"p":"brc-20","op":"deploy","tick":"ordi","max":"21000000","lim":"1000"}`)).
			Pay(546, alice.PkScript).
			MsgTx()
		mintTx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("mint"), testutils.TextInscription(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1000"}`)).
			Pay(546, bob.PkScript).
			MsgTx()
		transferTx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("transfer"), testutils.TextInscription(`{"p":"brc-20","op":"transfer","tick":"ordi","amt":"100"}`)).
			Pay(100, alice.PkScript).
			MsgTx()
		block := testutils.NewBlock(10, deployTx, mintTx, transferTx)

		events := extractor.Extract(ctx, block)
		assert.Equal(t, int64(10), events.Height)
		assert.Equal(t, block.Header.Hash, events.Hash)
		assert.Empty(t, events.ExecutedTransfers)

		require.Len(t, events.Deploys, 1)
		deploy := events.Deploys[0]
		assert.Equal(t, entity.EventPosition{TxHash: deployTx.TxHash(), BlockHeight: 10, TxIndex: 0}, deploy.EventPosition)
		assert.Equal(t, ordinals.NewInscriptionId(deployTx.TxHash(), 0), deploy.Id)
		assert.Equal(t, "ordi", deploy.Tick)
		assert.True(t, decimal.NewFromInt(21_000_000).Equal(deploy.MaxSupply))
		assert.True(t, decimal.NewFromInt(1000).Equal(deploy.MintLimit))
		assert.Equal(t, uint8(18), deploy.Decimals)
		assert.Equal(t, alice.Address, deploy.Deployer)

		require.Len(t, events.Mints, 1)
		assert.Equal(t, bob.Address, events.Mints[0].To)
		assert.Equal(t, "1000", events.Mints[0].Amount.String())
		assert.Equal(t, uint32(1), events.Mints[0].TxIndex)

		require.Len(t, events.InscribedTransfers, 1)
		transfer := events.InscribedTransfers[0]
		assert.Equal(t, alice.Address, transfer.From)
		assert.Equal(t, "100", transfer.Amount.String())
		assert.Equal(t, transferTx.TxHash().String()+":0", transfer.UTXOKey())
		assert.Equal(t, uint64(0), transfer.SatPoint.Offset)
		assert.Equal(t, uint64(100), transfer.UTXOAmount)
	})
	t.Run("pointer_selects_output", func(t *testing.T) {
		inscription := testutils.TextInscription(`{"p":"brc-20","op":"transfer","tick":"ordi","amt":"5"}`)
		inscription.Pointer = ordinals.PointerBytes(600)
		tx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("pointer"), inscription).
			Pay(546, bob.PkScript).
			Pay(1000, alice.PkScript).
			MsgTx()

		events := extractor.Extract(ctx, testutils.NewBlock(1, tx))
		require.Len(t, events.InscribedTransfers, 1)
		transfer := events.InscribedTransfers[0]
		assert.Equal(t, alice.Address, transfer.From)
		assert.Equal(t, ordinals.NewSatPoint(tx.TxHash(), 1, 54), transfer.SatPoint)
		assert.Equal(t, uint64(1000), transfer.UTXOAmount)
	})
	t.Run("pointer_beyond_outputs_is_dropped", func(t *testing.T) {
		inscription := testutils.TextInscription(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"5"}`)
		inscription.Pointer = ordinals.PointerBytes(546)
		tx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("lost"), inscription).
			Pay(546, bob.PkScript).
			MsgTx()

		assert.Zero(t, extractor.Extract(ctx, testutils.NewBlock(1, tx)).Len())
	})
	t.Run("multiple_inscriptions_in_one_input", func(t *testing.T) {
		first := testutils.TextInscription(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1"}`)
		second := testutils.TextInscription(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"2"}`)
		second.Pointer = ordinals.PointerBytes(546)
		tx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("multi"), first, second).
			Pay(546, alice.PkScript).
			Pay(546, bob.PkScript).
			MsgTx()

		events := extractor.Extract(ctx, testutils.NewBlock(1, tx))
		require.Len(t, events.Mints, 2)
		assert.Equal(t, ordinals.NewInscriptionId(tx.TxHash(), 0), events.Mints[0].Id)
		assert.Equal(t, alice.Address, events.Mints[0].To)
		assert.Equal(t, ordinals.NewInscriptionId(tx.TxHash(), 1), events.Mints[1].Id)
		assert.Equal(t, bob.Address, events.Mints[1].To)
	})

	dropped := map[string]ordinals.Inscription{
		"invalid_json":      testutils.TextInscription(`{"p":"brc-20","op":"mint"`),
		"unknown_operation": testutils.TextInscription(`{"p":"brc-20","op":"burn","tick":"ordi","amt":"1"}`),
		"wrong_protocol":    testutils.TextInscription(`{"p":"brc-21","op":"mint","tick":"ordi","amt":"1"}`),
		"zero_amount":       testutils.TextInscription(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"0"}`),
		"invalid_decimals":  testutils.TextInscription(`{"p":"brc-20","op":"deploy","tick":"ordi","max":"1","dec":"19"}`),
		"not_utf8": {
			ContentType: []byte("text/plain;charset=utf-8"),
			Body:        []byte{0xff, 0xfe, '{', '}'},
		},
		"no_body": {ContentType: []byte("text/plain;charset=utf-8")},
	}
	for name, inscription := range dropped {
		t.Run(name, func(t *testing.T) {
			tx := testutils.NewTx().
				Reveal(testutils.FundingOutPoint(name), inscription).
				Pay(546, alice.PkScript).
				MsgTx()
			assert.Zero(t, extractor.Extract(ctx, testutils.NewBlock(1, tx)).Len())
		})
	}

	t.Run("output_without_address", func(t *testing.T) {
		tx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("op_return"), testutils.TextInscription(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1"}`)).
			Pay(546, []byte{txscript.OP_RETURN}).
			MsgTx()
		assert.Zero(t, extractor.Extract(ctx, testutils.NewBlock(1, tx)).Len())
	})
	t.Run("other_content_type_is_skipped", func(t *testing.T) {
		inscription := ordinals.Inscription{
			ContentType: []byte("application/json"),
			Body:        []byte(`{"p":"brc-20","op":"mint","tick":"ordi","amt":"1"}`),
		}
		tx := testutils.NewTx().
			Reveal(testutils.FundingOutPoint("json"), inscription).
			Pay(546, alice.PkScript).
			MsgTx()
		assert.Zero(t, extractor.Extract(ctx, testutils.NewBlock(1, tx)).Len())
	})
}
