// source: data.sql

package gen

import (
	"context"
)

const createBlockEvents = `-- name: CreateBlockEvents :exec
INSERT INTO "brc20_block_events" ("height", "hash", "events") VALUES ($1, $2, $3)
`

type CreateBlockEventsParams struct {
	Height int64
	Hash   string
	Events []byte
}

func (q *Queries) CreateBlockEvents(ctx context.Context, arg CreateBlockEventsParams) error {
	_, err := q.db.Exec(ctx, createBlockEvents, arg.Height, arg.Hash, arg.Events)
	return err
}

const createIndexedBlock = `-- name: CreateIndexedBlock :exec
INSERT INTO "brc20_indexed_blocks" ("height", "hash", "prev_hash", "event_hash", "cumulative_event_hash") VALUES ($1, $2, $3, $4, $5)
`

type CreateIndexedBlockParams struct {
	Height              int64
	Hash                string
	PrevHash            string
	EventHash           string
	CumulativeEventHash string
}

func (q *Queries) CreateIndexedBlock(ctx context.Context, arg CreateIndexedBlockParams) error {
	_, err := q.db.Exec(ctx, createIndexedBlock,
		arg.Height,
		arg.Hash,
		arg.PrevHash,
		arg.EventHash,
		arg.CumulativeEventHash,
	)
	return err
}

const deleteBlockEventsSinceHeight = `-- name: DeleteBlockEventsSinceHeight :exec
DELETE FROM "brc20_block_events" WHERE "height" >= $1
`

func (q *Queries) DeleteBlockEventsSinceHeight(ctx context.Context, height int64) error {
	_, err := q.db.Exec(ctx, deleteBlockEventsSinceHeight, height)
	return err
}

const deleteIndexedBlocksSinceHeight = `-- name: DeleteIndexedBlocksSinceHeight :exec
DELETE FROM "brc20_indexed_blocks" WHERE "height" >= $1
`

func (q *Queries) DeleteIndexedBlocksSinceHeight(ctx context.Context, height int64) error {
	_, err := q.db.Exec(ctx, deleteIndexedBlocksSinceHeight, height)
	return err
}

const deleteVersionedValuesSinceVersion = `-- name: DeleteVersionedValuesSinceVersion :exec
DELETE FROM "brc20_versioned_values" WHERE "version" >= $1
`

func (q *Queries) DeleteVersionedValuesSinceVersion(ctx context.Context, version int64) error {
	_, err := q.db.Exec(ctx, deleteVersionedValuesSinceVersion, version)
	return err
}

const getBlockEvents = `-- name: GetBlockEvents :one
SELECT height, hash, events FROM "brc20_block_events" WHERE "height" = $1
`

func (q *Queries) GetBlockEvents(ctx context.Context, height int64) (Brc20BlockEvent, error) {
	row := q.db.QueryRow(ctx, getBlockEvents, height)
	var i Brc20BlockEvent
	err := row.Scan(&i.Height, &i.Hash, &i.Events)
	return i, err
}

const getChanges = `-- name: GetChanges :many
SELECT namespace, key, version, seq, operation, old_value, value FROM "brc20_versioned_values" WHERE "namespace" = $1 AND "version" = $2 ORDER BY "seq"
`

type GetChangesParams struct {
	Namespace string
	Version   int64
}

func (q *Queries) GetChanges(ctx context.Context, arg GetChangesParams) ([]Brc20VersionedValue, error) {
	rows, err := q.db.Query(ctx, getChanges, arg.Namespace, arg.Version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Brc20VersionedValue
	for rows.Next() {
		var i Brc20VersionedValue
		if err := rows.Scan(
			&i.Namespace,
			&i.Key,
			&i.Version,
			&i.Seq,
			&i.Operation,
			&i.OldValue,
			&i.Value,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getIndexedBlockByHeight = `-- name: GetIndexedBlockByHeight :one
SELECT height, hash, prev_hash, event_hash, cumulative_event_hash FROM "brc20_indexed_blocks" WHERE "height" = $1
`

func (q *Queries) GetIndexedBlockByHeight(ctx context.Context, height int64) (Brc20IndexedBlock, error) {
	row := q.db.QueryRow(ctx, getIndexedBlockByHeight, height)
	var i Brc20IndexedBlock
	err := row.Scan(
		&i.Height,
		&i.Hash,
		&i.PrevHash,
		&i.EventHash,
		&i.CumulativeEventHash,
	)
	return i, err
}

const getLatestIndexedBlock = `-- name: GetLatestIndexedBlock :one
SELECT height, hash, prev_hash, event_hash, cumulative_event_hash FROM "brc20_indexed_blocks" ORDER BY "height" DESC LIMIT 1
`

func (q *Queries) GetLatestIndexedBlock(ctx context.Context) (Brc20IndexedBlock, error) {
	row := q.db.QueryRow(ctx, getLatestIndexedBlock)
	var i Brc20IndexedBlock
	err := row.Scan(
		&i.Height,
		&i.Hash,
		&i.PrevHash,
		&i.EventHash,
		&i.CumulativeEventHash,
	)
	return i, err
}

const getValueAt = `-- name: GetValueAt :one
SELECT "value" FROM "brc20_versioned_values" WHERE "namespace" = $1 AND "key" = $2 AND "version" <= $3 ORDER BY "version" DESC LIMIT 1
`

type GetValueAtParams struct {
	Namespace string
	Key       string
	Version   int64
}

func (q *Queries) GetValueAt(ctx context.Context, arg GetValueAtParams) ([]byte, error) {
	row := q.db.QueryRow(ctx, getValueAt, arg.Namespace, arg.Key, arg.Version)
	var value []byte
	err := row.Scan(&value)
	return value, err
}
