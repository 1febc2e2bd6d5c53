// Package testutils builds blocks carrying BRC-20 inscriptions for tests.
package testutils

import (
	"fmt"
	"time"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/ordinals"
)

// Wallet is a P2WPKH output owner on mainnet.
type Wallet struct {
	PkScript []byte
	Address  string
}

func NewWallet(seed string) Wallet {
	address := utils.Must(btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160([]byte(seed)), &chaincfg.MainNetParams))
	return Wallet{
		PkScript: utils.Must(txscript.PayToAddrScript(address)),
		Address:  address.EncodeAddress(),
	}
}

// TextInscription is a text/plain;charset=utf-8 inscription of body.
func TextInscription(body string) ordinals.Inscription {
	return ordinals.Inscription{
		ContentType: []byte("text/plain;charset=utf-8"),
		Body:        []byte(body),
	}
}

// controlBlock stands in for a taproot control block.
var controlBlock = append([]byte{0xc0}, make([]byte, 32)...)

type TxBuilder struct {
	msg *wire.MsgTx
}

func NewTx() *TxBuilder {
	return &TxBuilder{msg: wire.NewMsgTx(2)}
}

// Spend adds a key path input spending prev.
func (b *TxBuilder) Spend(prev wire.OutPoint) *TxBuilder {
	in := wire.NewTxIn(&prev, nil, wire.TxWitness{make([]byte, 64)})
	b.msg.AddTxIn(in)
	return b
}

// Reveal adds a script path input spending prev whose tapscript carries inscriptions.
func (b *TxBuilder) Reveal(prev wire.OutPoint, inscriptions ...ordinals.Inscription) *TxBuilder {
	builder := ordinals.NewPushScriptBuilder()
	for _, inscription := range inscriptions {
		inscription.AppendRevealScript(builder)
	}
	script := utils.Must(builder.AddOp(txscript.OP_CHECKSIG).Script())
	in := wire.NewTxIn(&prev, nil, wire.TxWitness{make([]byte, 64), script, controlBlock})
	b.msg.AddTxIn(in)
	return b
}

// Pay adds an output of sats to pkScript.
func (b *TxBuilder) Pay(sats int64, pkScript []byte) *TxBuilder {
	b.msg.AddTxOut(wire.NewTxOut(sats, pkScript))
	return b
}

func (b *TxBuilder) MsgTx() *wire.MsgTx {
	return b.msg
}

// OutPoint of the vout-th output of tx.
func OutPoint(tx *wire.MsgTx, vout uint32) wire.OutPoint {
	return wire.OutPoint{Hash: tx.TxHash(), Index: vout}
}

// FundingOutPoint is an arbitrary previous output for inputs whose origin does not matter.
func FundingOutPoint(seed string) wire.OutPoint {
	return wire.OutPoint{Hash: chainhash.HashH([]byte(seed)), Index: 0}
}

func BlockHash(height int64) chainhash.Hash {
	return chainhash.DoubleHashH([]byte(fmt.Sprintf("block-%d", height)))
}

// NewBlock builds the block at height chained to BlockHash(height-1).
func NewBlock(height int64, txs ...*wire.MsgTx) *types.Block {
	hash := BlockHash(height)
	block := &types.Block{
		Header: types.BlockHeader{
			Hash:      hash,
			PrevBlock: BlockHash(height - 1),
			Height:    height,
			Timestamp: time.Unix(1_700_000_000+height*600, 0).UTC(),
		},
		Transactions: make([]*types.Transaction, 0, len(txs)),
	}
	for i, tx := range txs {
		block.Transactions = append(block.Transactions, types.ParseMsgTx(tx, height, hash, uint32(i)))
	}
	return block
}
