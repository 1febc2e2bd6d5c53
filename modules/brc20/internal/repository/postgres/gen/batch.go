// source: data.sql

package gen

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

var (
	ErrBatchAlreadyClosed = errors.New("batch already closed")
)

const createVersionedValues = `-- name: CreateVersionedValues :batchexec
INSERT INTO "brc20_versioned_values" ("namespace", "key", "version", "seq", "operation", "old_value", "value") VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type CreateVersionedValuesBatchResults struct {
	br     pgx.BatchResults
	tot    int
	closed bool
}

type CreateVersionedValuesParams struct {
	Namespace string
	Key       string
	Version   int64
	Seq       int32
	Operation int16
	OldValue  []byte
	Value     []byte
}

func (q *Queries) CreateVersionedValues(ctx context.Context, arg []CreateVersionedValuesParams) *CreateVersionedValuesBatchResults {
	batch := &pgx.Batch{}
	for _, a := range arg {
		vals := []interface{}{
			a.Namespace,
			a.Key,
			a.Version,
			a.Seq,
			a.Operation,
			a.OldValue,
			a.Value,
		}
		batch.Queue(createVersionedValues, vals...)
	}
	br := q.db.SendBatch(ctx, batch)
	return &CreateVersionedValuesBatchResults{br, len(arg), false}
}

func (b *CreateVersionedValuesBatchResults) Exec(f func(int, error)) {
	defer b.br.Close()
	for t := 0; t < b.tot; t++ {
		if b.closed {
			if f != nil {
				f(t, ErrBatchAlreadyClosed)
			}
			continue
		}
		_, err := b.br.Exec()
		if f != nil {
			f(t, err)
		}
	}
}

func (b *CreateVersionedValuesBatchResults) Close() error {
	b.closed = true
	return b.br.Close()
}
