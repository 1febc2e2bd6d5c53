package decimals

import (
	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"
)

const maxCachedPowerOfTen = 36

// powerOfTen caches 10^n for |n| <= maxCachedPowerOfTen.
var powerOfTen = func() map[int64]decimal.Decimal {
	powers := make(map[int64]decimal.Decimal, 2*maxCachedPowerOfTen+1)
	for n := int64(-maxCachedPowerOfTen); n <= maxCachedPowerOfTen; n++ {
		powers[n] = decimal.New(1, int32(n))
	}
	return powers
}()

// PowerOfTen returns 10^n.
func PowerOfTen[T constraints.Integer](n T) decimal.Decimal {
	if val, ok := powerOfTen[int64(n)]; ok {
		return val
	}
	return decimal.New(1, int32(n))
}
