package transfers

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
)

const Namespace = "transfers"

// Store keeps pending transfers by the "txid:vout" key of the output holding the inscription.
// Records are never removed: a spent output simply stops being looked up.
type Store struct {
	*versioned.SetStore[*entity.PendingTransfer]
}

func NewStore(reader versioned.Reader) *Store {
	return &Store{
		SetStore: versioned.NewSetStore[*entity.PendingTransfer](Namespace, reader),
	}
}

// PutInscribed records every inscribed transfer of a block at version.
func (s *Store) PutInscribed(ctx context.Context, version int64, transfers []*entity.InscribedTransfer) error {
	for _, transfer := range transfers {
		if err := s.Set(ctx, version, transfer.UTXOKey(), transfer.PendingTransfer()); err != nil {
			return errors.Wrapf(err, "failed to store pending transfer %s", transfer.Id)
		}
	}
	return nil
}
