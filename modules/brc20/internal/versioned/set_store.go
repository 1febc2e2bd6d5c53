package versioned

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// SetStore keeps the last value written to each key. Values are stored as JSON.
type SetStore[T any] struct {
	store
}

func NewSetStore[T any](namespace string, reader Reader) *SetStore[T] {
	return &SetStore[T]{store: newStore(namespace, reader)}
}

func (s *SetStore[T]) Set(ctx context.Context, version int64, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s/%s", s.namespace, key)
	}
	return s.write(ctx, version, key, func([]byte, bool) ([]byte, error) {
		return data, nil
	})
}

// GetAt returns the value of key as of a flushed version.
func (s *SetStore[T]) GetAt(ctx context.Context, version int64, key string) (T, bool, error) {
	var value T
	data, ok, err := s.getAt(ctx, version, key)
	if err != nil || !ok {
		return value, false, errors.WithStack(err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, errors.Wrapf(err, "failed to decode %s/%s", s.namespace, key)
	}
	return value, true, nil
}
