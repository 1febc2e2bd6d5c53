package types

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gaze-network/brc20-indexer/pkg/btcutils"
	"github.com/samber/lo"
)

type Transaction struct {
	BlockHeight int64
	BlockHash   chainhash.Hash
	Index       uint32
	TxHash      chainhash.Hash

	// Hex is the raw serialized transaction.
	Hex   string
	TxIn  []*TxIn
	TxOut []*TxOut
}

type TxIn struct {
	PreviousOutTxHash chainhash.Hash
	PreviousOutIndex  uint32
	Witness           wire.TxWitness
	Coinbase          bool
}

type TxOut struct {
	// Value is denominated in coin units (1 BTC = 10^8 sats).
	Value    float64
	N        uint32
	PkScript []byte
}

// PkScriptHex returns the locking script hex encoded.
func (o *TxOut) PkScriptHex() string {
	return hex.EncodeToString(o.PkScript)
}

// OutPointKey returns "txid:vout", the key that identifies the input's previous output.
func (in *TxIn) OutPointKey() string {
	return wire.NewOutPoint(&in.PreviousOutTxHash, in.PreviousOutIndex).String()
}

// ParseMsgTx converts a wire transaction. Output values are expressed in coin units.
func ParseMsgTx(src *wire.MsgTx, blockHeight int64, blockHash chainhash.Hash, index uint32) *Transaction {
	var buf bytes.Buffer
	_ = src.Serialize(&buf)

	isCoinbase := len(src.TxIn) == 1 &&
		src.TxIn[0].PreviousOutPoint.Index == wire.MaxPrevOutIndex &&
		src.TxIn[0].PreviousOutPoint.Hash == (chainhash.Hash{})

	return &Transaction{
		BlockHeight: blockHeight,
		BlockHash:   blockHash,
		Index:       index,
		TxHash:      src.TxHash(),
		Hex:         hex.EncodeToString(buf.Bytes()),
		TxIn: lo.Map(src.TxIn, func(item *wire.TxIn, _ int) *TxIn {
			return &TxIn{
				PreviousOutTxHash: item.PreviousOutPoint.Hash,
				PreviousOutIndex:  item.PreviousOutPoint.Index,
				Witness:           item.Witness,
				Coinbase:          isCoinbase,
			}
		}),
		TxOut: lo.Map(src.TxOut, func(item *wire.TxOut, n int) *TxOut {
			return &TxOut{
				Value:    btcutils.SatoshiToBitcoin(item.Value),
				N:        uint32(n),
				PkScript: item.PkScript,
			}
		}),
	}
}
