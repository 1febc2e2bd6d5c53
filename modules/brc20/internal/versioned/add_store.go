package versioned

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// AddStore keeps a signed running total per key. Values are stored as base 10 strings.
type AddStore struct {
	store
}

func NewAddStore(namespace string, reader Reader) *AddStore {
	return &AddStore{store: newStore(namespace, reader)}
}

// Add adds delta to the total of key at version. Zero deltas still record the key.
func (s *AddStore) Add(ctx context.Context, version int64, key string, delta decimal.Decimal) error {
	return s.write(ctx, version, key, func(old []byte, exists bool) ([]byte, error) {
		total := decimal.Zero
		if exists {
			value, err := DecodeDecimal(old)
			if err != nil {
				return nil, errors.Wrapf(err, "%s/%s", s.namespace, key)
			}
			total = value
		}
		return EncodeDecimal(total.Add(delta)), nil
	})
}

// GetAt returns the total of key as of a flushed version. Missing keys are zero.
func (s *AddStore) GetAt(ctx context.Context, version int64, key string) (decimal.Decimal, bool, error) {
	data, ok, err := s.getAt(ctx, version, key)
	if err != nil || !ok {
		return decimal.Zero, false, errors.WithStack(err)
	}
	value, err := DecodeDecimal(data)
	if err != nil {
		return decimal.Zero, false, errors.Wrapf(err, "%s/%s", s.namespace, key)
	}
	return value, true, nil
}

func EncodeDecimal(v decimal.Decimal) []byte {
	return []byte(v.String())
}

func DecodeDecimal(data []byte) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(string(data))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "invalid decimal value")
	}
	return value, nil
}
