package ordinals

import (
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
)

// InscriptionId is "<reveal txid>i<envelope index>".
type InscriptionId struct {
	TxHash chainhash.Hash
	Index  uint32
}

func NewInscriptionId(txHash chainhash.Hash, index uint32) InscriptionId {
	return InscriptionId{TxHash: txHash, Index: index}
}

func (i InscriptionId) String() string {
	return i.TxHash.String() + "i" + strconv.FormatUint(uint64(i.Index), 10)
}

var ErrInscriptionIdInvalidSeparator = errors.New("invalid inscription id: must contain exactly one separator")

func NewInscriptionIdFromString(s string) (InscriptionId, error) {
	txid, index, ok := strings.Cut(s, "i")
	if !ok {
		return InscriptionId{}, errors.WithStack(ErrInscriptionIdInvalidSeparator)
	}
	txHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return InscriptionId{}, errors.Wrap(err, "invalid inscription id: cannot parse txHash")
	}
	n, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return InscriptionId{}, errors.Wrap(err, "invalid inscription id: cannot parse index")
	}
	return NewInscriptionId(*txHash, uint32(n)), nil
}

// MarshalText implements encoding.TextMarshaler
func (i InscriptionId) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *InscriptionId) UnmarshalText(data []byte) error {
	parsed, err := NewInscriptionIdFromString(string(data))
	if err != nil {
		return errors.WithStack(err)
	}
	*i = parsed
	return nil
}
