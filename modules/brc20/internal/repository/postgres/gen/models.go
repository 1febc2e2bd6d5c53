package gen

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Brc20BlockEvent struct {
	Height int64
	Hash   string
	Events []byte
}

type Brc20IndexedBlock struct {
	Height              int64
	Hash                string
	PrevHash            string
	EventHash           string
	CumulativeEventHash string
}

type Brc20IndexerState struct {
	Id               int64
	ClientVersion    string
	Network          string
	DbVersion        int32
	EventHashVersion int32
	CreatedAt        pgtype.Timestamp
}

type Brc20VersionedValue struct {
	Namespace string
	Key       string
	Version   int64
	Seq       int32
	Operation int16
	OldValue  []byte
	Value     []byte
}
