// Package versioned implements key-value stores whose values are kept per block height.
// Writes of the version being built are buffered as deltas until they are flushed by the caller,
// reads only see flushed versions.
package versioned

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/common/errs"
)

type Operation int8

const (
	OperationCreate Operation = iota + 1
	OperationUpdate
)

func (o Operation) String() string {
	switch o {
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	}
	return "unknown"
}

// Delta is the change of one key within one version. OldValue is nil on create.
type Delta struct {
	Key       string
	Operation Operation
	OldValue  []byte
	NewValue  []byte
}

// Reader reads flushed values.
type Reader interface {
	// GetAt returns the value of key as of version, the latest value written at or before it.
	// It returns errs.NotFound if there is none.
	GetAt(ctx context.Context, namespace string, key string, version int64) ([]byte, error)
}

// store is the shared buffering of SetStore and AddStore.
type store struct {
	namespace string
	reader    Reader

	version int64
	order   []string
	pending map[string]*Delta
}

func newStore(namespace string, reader Reader) store {
	return store{
		namespace: namespace,
		reader:    reader,
		version:   -1,
		pending:   make(map[string]*Delta),
	}
}

func (s *store) Namespace() string {
	return s.namespace
}

// Version returns the version being built, -1 when nothing is buffered.
func (s *store) Version() int64 {
	if len(s.order) == 0 {
		return -1
	}
	return s.version
}

// Deltas returns the buffered changes in first-write order.
func (s *store) Deltas() []Delta {
	deltas := make([]Delta, 0, len(s.order))
	for _, key := range s.order {
		deltas = append(deltas, *s.pending[key])
	}
	return deltas
}

// Reset drops the buffered changes, after they are flushed or when the version is abandoned.
func (s *store) Reset() {
	s.version = -1
	s.order = nil
	s.pending = make(map[string]*Delta)
}

func (s *store) getAt(ctx context.Context, version int64, key string) ([]byte, bool, error) {
	if version < 0 {
		return nil, false, nil
	}
	value, err := s.reader.GetAt(ctx, s.namespace, key, version)
	if err != nil {
		if errors.Is(err, errs.NotFound) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed to get %s/%s at version %d", s.namespace, key, version)
	}
	return value, true, nil
}

// current returns the value of key including the writes buffered for version.
func (s *store) current(ctx context.Context, version int64, key string) ([]byte, bool, error) {
	if delta, ok := s.pending[key]; ok {
		return delta.NewValue, true, nil
	}
	return s.getAt(ctx, version-1, key)
}

func (s *store) write(ctx context.Context, version int64, key string, next func(old []byte, exists bool) ([]byte, error)) error {
	if len(s.order) > 0 && version != s.version {
		return errors.Wrapf(errs.InvalidArgument, "%s: cannot write version %d while version %d is not flushed", s.namespace, version, s.version)
	}
	old, exists, err := s.current(ctx, version, key)
	if err != nil {
		return errors.WithStack(err)
	}
	value, err := next(old, exists)
	if err != nil {
		return errors.WithStack(err)
	}

	s.version = version
	if delta, ok := s.pending[key]; ok {
		delta.NewValue = value
		return nil
	}
	delta := &Delta{Key: key, Operation: OperationCreate, NewValue: value}
	if exists {
		delta.Operation = OperationUpdate
		delta.OldValue = old
	}
	s.pending[key] = delta
	s.order = append(s.order, key)
	return nil
}

// Flushable is a store whose buffered deltas are persisted by the caller.
type Flushable interface {
	Namespace() string
	Version() int64
	Deltas() []Delta
	Reset()
}

var (
	_ Flushable = (*SetStore[struct{}])(nil)
	_ Flushable = (*AddStore)(nil)
)
