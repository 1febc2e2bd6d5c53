package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type BlockHeader struct {
	Hash      chainhash.Hash
	PrevBlock chainhash.Hash
	Height    int64
	Timestamp time.Time
}

type Block struct {
	Header       BlockHeader
	Transactions []*Transaction
}

// BlockHeader returns the header of the block. It makes *Block usable as an indexer input.
func (b *Block) BlockHeader() BlockHeader {
	return b.Header
}
