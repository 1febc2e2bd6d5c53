package decimals

import (
	"math"

	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

// ToDecimal shifts an integer amount right by decimals places, e.g. ToDecimal(1, 2) is 0.01.
// A nil value is zero.
func ToDecimal[D constraints.Integer](value *uint256.Int, decimals D) decimal.Decimal {
	if int64(decimals) > math.MaxInt32 || int64(decimals) < math.MinInt32+1 {
		logger.Panic("ToDecimal: decimals is out of range", slogx.Int64("decimals", int64(decimals)))
	}
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value.ToBig(), 0).Mul(PowerOfTen(-int64(decimals)))
}
