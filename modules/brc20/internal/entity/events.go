package entity

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/ordinals"
	"github.com/shopspring/decimal"
)

// EventKind names the event types a block can produce.
type EventKind string

const (
	EventKindDeploy            EventKind = "deploy"
	EventKindMint              EventKind = "mint"
	EventKindInscribedTransfer EventKind = "inscribe-transfer"
	EventKindExecutedTransfer  EventKind = "transfer-transfer"
)

// EventPosition locates the transaction that produced an event.
type EventPosition struct {
	TxHash      chainhash.Hash `json:"txHash"`
	BlockHeight int64          `json:"blockHeight"`
	TxIndex     uint32         `json:"txIndex"`
}

type Deploy struct {
	EventPosition
	Id        ordinals.InscriptionId `json:"id"`
	Tick      string                 `json:"tick"`
	MaxSupply decimal.Decimal        `json:"maxSupply"`
	// MintLimit is MaxSupply when the deploy does not set one
	MintLimit decimal.Decimal `json:"mintLimit"`
	Decimals  uint8           `json:"decimals"`
	Deployer  string          `json:"deployer"`
}

type Mint struct {
	EventPosition
	Id     ordinals.InscriptionId `json:"id"`
	Tick   string                 `json:"tick"`
	To     string                 `json:"to"`
	Amount decimal.Decimal        `json:"amount"`
}

// InscribedTransfer earmarks Amount of From's balance on the satoshi at SatPoint.
type InscribedTransfer struct {
	EventPosition
	Id         ordinals.InscriptionId `json:"id"`
	Tick       string                 `json:"tick"`
	From       string                 `json:"from"`
	Amount     decimal.Decimal        `json:"amount"`
	SatPoint   ordinals.SatPoint      `json:"satPoint"`
	UTXOAmount uint64                 `json:"utxoAmount"`
}

// UTXOKey is the "txid:vout" key the transfer is pending under.
func (t *InscribedTransfer) UTXOKey() string {
	return t.SatPoint.UTXOKey()
}

// PendingTransfer returns the record kept until the holding output is spent.
func (t *InscribedTransfer) PendingTransfer() *PendingTransfer {
	return &PendingTransfer{
		Id:         t.Id,
		Tick:       t.Tick,
		From:       t.From,
		Amount:     t.Amount,
		Offset:     t.SatPoint.Offset,
		UTXOAmount: t.UTXOAmount,
	}
}

// ExecutedTransfer is an inscribed transfer whose holding output was spent to To.
// EventPosition is the spending transaction.
type ExecutedTransfer struct {
	EventPosition
	Id     ordinals.InscriptionId `json:"id"`
	Tick   string                 `json:"tick"`
	From   string                 `json:"from"`
	To     string                 `json:"to"`
	Amount decimal.Decimal        `json:"amount"`
}

// PendingTransfer is an inscribed transfer that has not been resolved yet.
type PendingTransfer struct {
	Id         ordinals.InscriptionId `json:"id"`
	Tick       string                 `json:"tick"`
	From       string                 `json:"from"`
	Amount     decimal.Decimal        `json:"amount"`
	Offset     uint64                 `json:"offset"`
	UTXOAmount uint64                 `json:"utxoAmount"`
}

// BlockEvents holds every event of one block in emission order.
type BlockEvents struct {
	Height             int64                `json:"height"`
	Hash               chainhash.Hash       `json:"hash"`
	Timestamp          int64                `json:"timestamp"`
	Deploys            []*Deploy            `json:"deploys"`
	Mints              []*Mint              `json:"mints"`
	InscribedTransfers []*InscribedTransfer `json:"inscribedTransfers"`
	ExecutedTransfers  []*ExecutedTransfer  `json:"executedTransfers"`
}

func NewBlockEvents(height int64, hash chainhash.Hash, timestamp int64) *BlockEvents {
	return &BlockEvents{
		Height:             height,
		Hash:               hash,
		Timestamp:          timestamp,
		Deploys:            make([]*Deploy, 0),
		Mints:              make([]*Mint, 0),
		InscribedTransfers: make([]*InscribedTransfer, 0),
		ExecutedTransfers:  make([]*ExecutedTransfer, 0),
	}
}

func (e *BlockEvents) Len() int {
	return len(e.Deploys) + len(e.Mints) + len(e.InscribedTransfers) + len(e.ExecutedTransfers)
}
