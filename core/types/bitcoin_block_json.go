package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/gaze-network/brc20-indexer/pkg/btcutils"
)

type (
	jsonBlock struct {
		Hash              string            `json:"hash"`
		Height            *int64            `json:"height"`
		Time              int64             `json:"time"`
		PreviousBlockHash string            `json:"previousblockhash"`
		Tx                []jsonTransaction `json:"tx"`
	}
	jsonTransaction struct {
		Txid string     `json:"txid"`
		Hex  string     `json:"hex"`
		Vin  []jsonVin  `json:"vin"`
		Vout []jsonVout `json:"vout"`
	}
	jsonVin struct {
		Txid        string   `json:"txid"`
		Vout        uint32   `json:"vout"`
		Coinbase    string   `json:"coinbase"`
		TxInWitness []string `json:"txinwitness"`
	}
	jsonVout struct {
		Value        *float64 `json:"value"`
		N            uint32   `json:"n"`
		ScriptPubKey *struct {
			Hex string `json:"hex"`
		} `json:"scriptPubKey"`
	}
)

// ParseBlockJSON decodes a verbose block document (getblock verbosity 2 layout).
// Any violation of the field contract is reported as errs.MalformedBlock.
func ParseBlockJSON(data []byte) (*Block, error) {
	var raw jsonBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(errs.MalformedBlock, "can't decode block json: %v", err)
	}

	if raw.Height == nil || *raw.Height < 0 {
		return nil, errors.Wrap(errs.MalformedBlock, "missing or negative block height")
	}
	height := *raw.Height

	hash, err := chainhash.NewHashFromStr(raw.Hash)
	if err != nil || raw.Hash == "" {
		return nil, errors.Wrapf(errs.MalformedBlock, "invalid block hash %q at height %d", raw.Hash, height)
	}

	var prevBlock chainhash.Hash
	if raw.PreviousBlockHash != "" {
		prev, err := chainhash.NewHashFromStr(raw.PreviousBlockHash)
		if err != nil {
			return nil, errors.Wrapf(errs.MalformedBlock, "invalid previous block hash %q at height %d", raw.PreviousBlockHash, height)
		}
		prevBlock = *prev
	} else if height != 0 {
		return nil, errors.Wrapf(errs.MalformedBlock, "missing previous block hash at height %d", height)
	}

	block := &Block{
		Header: BlockHeader{
			Hash:      *hash,
			PrevBlock: prevBlock,
			Height:    height,
			Timestamp: time.Unix(raw.Time, 0).UTC(),
		},
		Transactions: make([]*Transaction, 0, len(raw.Tx)),
	}
	for i, rawTx := range raw.Tx {
		tx, err := rawTx.toTransaction(height, *hash, uint32(i))
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d at height %d", i, height)
		}
		block.Transactions = append(block.Transactions, tx)
	}
	return block, nil
}

func (t jsonTransaction) toTransaction(blockHeight int64, blockHash chainhash.Hash, index uint32) (*Transaction, error) {
	txHash, err := chainhash.NewHashFromStr(t.Txid)
	if err != nil || t.Txid == "" {
		return nil, errors.Wrapf(errs.MalformedBlock, "invalid txid %q", t.Txid)
	}

	rawTx, err := hex.DecodeString(t.Hex)
	if err != nil || len(rawTx) == 0 {
		return nil, errors.Wrapf(errs.MalformedBlock, "undecodable hex for tx %s", t.Txid)
	}
	var msgTx wire.MsgTx
	if err := msgTx.Deserialize(bytes.NewReader(rawTx)); err != nil {
		return nil, errors.Wrapf(errs.MalformedBlock, "can't deserialize tx %s: %v", t.Txid, err)
	}
	if msgTx.TxHash() != *txHash {
		return nil, errors.Wrapf(errs.MalformedBlock, "txid %s does not match raw transaction hash %s", t.Txid, msgTx.TxHash())
	}
	if len(msgTx.TxIn) != len(t.Vin) || len(msgTx.TxOut) != len(t.Vout) {
		return nil, errors.Wrapf(errs.MalformedBlock, "inputs or outputs of tx %s do not match raw transaction", t.Txid)
	}

	tx := &Transaction{
		BlockHeight: blockHeight,
		BlockHash:   blockHash,
		Index:       index,
		TxHash:      *txHash,
		Hex:         t.Hex,
		TxIn:        make([]*TxIn, 0, len(t.Vin)),
		TxOut:       make([]*TxOut, 0, len(t.Vout)),
	}

	for i, vin := range t.Vin {
		in := &TxIn{
			Witness: msgTx.TxIn[i].Witness,
		}
		if vin.Coinbase != "" {
			in.Coinbase = true
			in.PreviousOutIndex = wire.MaxPrevOutIndex
		} else {
			prevTxHash, err := chainhash.NewHashFromStr(vin.Txid)
			if err != nil || vin.Txid == "" {
				return nil, errors.Wrapf(errs.MalformedBlock, "invalid previous txid %q in input %d of tx %s", vin.Txid, i, t.Txid)
			}
			in.PreviousOutTxHash = *prevTxHash
			in.PreviousOutIndex = vin.Vout
		}
		if len(vin.TxInWitness) > 0 {
			witness, err := btcutils.WitnessFromHex(vin.TxInWitness)
			if err != nil {
				return nil, errors.Wrapf(errs.MalformedBlock, "invalid witness in input %d of tx %s: %v", i, t.Txid, err)
			}
			in.Witness = witness
		}
		tx.TxIn = append(tx.TxIn, in)
	}

	for i, vout := range t.Vout {
		if vout.Value == nil || vout.ScriptPubKey == nil {
			return nil, errors.Wrapf(errs.MalformedBlock, "missing value or scriptPubKey in output %d of tx %s", i, t.Txid)
		}
		pkScript, err := hex.DecodeString(vout.ScriptPubKey.Hex)
		if err != nil {
			return nil, errors.Wrapf(errs.MalformedBlock, "invalid scriptPubKey hex in output %d of tx %s", i, t.Txid)
		}
		tx.TxOut = append(tx.TxOut, &TxOut{
			Value:    *vout.Value,
			N:        vout.N,
			PkScript: pkScript,
		})
	}
	return tx, nil
}

// MarshalBlockJSON encodes a block in the layout accepted by ParseBlockJSON.
func MarshalBlockJSON(block *Block) ([]byte, error) {
	raw := jsonBlock{
		Hash:   block.Header.Hash.String(),
		Height: &block.Header.Height,
		Time:   block.Header.Timestamp.Unix(),
		Tx:     make([]jsonTransaction, 0, len(block.Transactions)),
	}
	if block.Header.Height != 0 || block.Header.PrevBlock != (chainhash.Hash{}) {
		raw.PreviousBlockHash = block.Header.PrevBlock.String()
	}
	for _, tx := range block.Transactions {
		rawTx := jsonTransaction{
			Txid: tx.TxHash.String(),
			Hex:  tx.Hex,
			Vin:  make([]jsonVin, 0, len(tx.TxIn)),
			Vout: make([]jsonVout, 0, len(tx.TxOut)),
		}
		for _, in := range tx.TxIn {
			vin := jsonVin{TxInWitness: btcutils.WitnessToHex(in.Witness)}
			if in.Coinbase {
				vin.Coinbase = "00"
			} else {
				vin.Txid = in.PreviousOutTxHash.String()
				vin.Vout = in.PreviousOutIndex
			}
			rawTx.Vin = append(rawTx.Vin, vin)
		}
		for _, out := range tx.TxOut {
			value := out.Value
			vout := jsonVout{Value: &value, N: out.N}
			vout.ScriptPubKey = &struct {
				Hex string `json:"hex"`
			}{Hex: out.PkScriptHex()}
			rawTx.Vout = append(rawTx.Vout, vout)
		}
		raw.Tx = append(raw.Tx, rawTx)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}
