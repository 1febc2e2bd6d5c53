package ordinals

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
)

// SatPoint addresses one satoshi: an output and an offset inside its value.
type SatPoint struct {
	OutPoint wire.OutPoint
	Offset   uint64
}

func NewSatPoint(txHash chainhash.Hash, index uint32, offset uint64) SatPoint {
	return SatPoint{
		OutPoint: wire.OutPoint{Hash: txHash, Index: index},
		Offset:   offset,
	}
}

// UTXOKey is the "txid:vout" key of the output holding the satoshi.
func (s SatPoint) UTXOKey() string {
	return s.OutPoint.String()
}

func (s SatPoint) String() string {
	return s.UTXOKey() + ":" + strconv.FormatUint(s.Offset, 10)
}

var ErrSatPointInvalidSeparator = errors.New("invalid sat point: must contain exactly two separators")

func NewSatPointFromString(s string) (SatPoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return SatPoint{}, errors.WithStack(ErrSatPointInvalidSeparator)
	}
	txHash, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return SatPoint{}, errors.Wrap(err, "invalid sat point: cannot parse txHash")
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return SatPoint{}, errors.Wrap(err, "invalid sat point: cannot parse output index")
	}
	offset, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return SatPoint{}, errors.Wrap(err, "invalid sat point: cannot parse offset")
	}
	return NewSatPoint(*txHash, uint32(index), offset), nil
}

// MarshalText implements encoding.TextMarshaler
func (s SatPoint) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *SatPoint) UnmarshalText(data []byte) error {
	parsed, err := NewSatPointFromString(string(data))
	if err != nil {
		return errors.WithStack(err)
	}
	*s = parsed
	return nil
}
