package brc20

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/pkg/decimals"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount: must be a non-negative integer below 2^256")

// Amount is a 256-bit unsigned integer written as a JSON string or number.
// Strings may be base 10 or "0x" prefixed hex.
type Amount struct {
	uint256.Int
}

func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.WithStack(ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		value, err := uint256.FromHex("0x" + s[2:])
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidAmount, "%q: %v", s, err)
		}
		return value, nil
	}
	if s[0] == '+' || s[0] == '-' {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q", s)
	}
	value, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q: %v", s, err)
	}
	return value, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.WithStack(err)
		}
	} else {
		// numbers such as 1e3 or 1.0 are not integers in this encoding
		s = string(data)
	}
	value, err := ParseAmount(s)
	if err != nil {
		return errors.WithStack(err)
	}
	a.Int = *value
	return nil
}

// Decimal converts an amount to the signed representation used by balances.
func Decimal(v *uint256.Int) decimal.Decimal {
	return decimals.ToDecimal(v, 0)
}

// Decimals is the "dec" field of a deploy, written as a JSON string or number.
type Decimals uint8

// UnmarshalJSON implements json.Unmarshaler
func (d *Decimals) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return errors.WithStack(err)
		}
	}
	value, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return errors.Wrapf(err, "invalid dec %q", s)
	}
	*d = Decimals(value)
	return nil
}
