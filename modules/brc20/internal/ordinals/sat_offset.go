package ordinals

import (
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/pkg/btcutils"
)

// ResolveSatOffset finds the output holding the satoshi at offset, counting from the first
// satoshi of the first output. It returns the output index and the offset inside that output.
// ok is false when offset is not below the total output value.
func ResolveSatOffset(outputs []*types.TxOut, offset uint64) (index int, residual uint64, ok bool) {
	var sum uint64
	for i, out := range outputs {
		value, err := btcutils.BitcoinToSatoshiFixed(out.Value)
		if err != nil {
			// unrepresentable values carry no satoshis
			continue
		}
		if offset < sum+value {
			return i, offset - sum, true
		}
		sum += value
	}
	return 0, 0, false
}
