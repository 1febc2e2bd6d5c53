package btcutils

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
	"github.com/shopspring/decimal"
)

const (
	BitcoinDecimals = 8
)

// SatoshiToBitcoin converts a amount in Satoshi format to Bitcoin format.
func SatoshiToBitcoin(v int64) float64 {
	return decimal.New(v, -BitcoinDecimals).InexactFloat64()
}

// BitcoinToSatoshiFixed converts v by formatting it with exactly 8 fractional digits
// and parsing the digits as an integer. Negative, NaN and out of range values are rejected.
func BitcoinToSatoshiFixed(v float64) (uint64, error) {
	s := strconv.FormatFloat(v, 'f', BitcoinDecimals, 64)
	sats, err := strconv.ParseUint(strings.Replace(s, ".", "", 1), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errs.InvalidArgument, "can't convert %s to satoshi", s)
	}
	return sats, nil
}
