package transfers

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/metrics"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/ordinals"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
)

// PendingTransferReader reads pending transfers as of a flushed version.
type PendingTransferReader interface {
	GetAt(ctx context.Context, version int64, key string) (*entity.PendingTransfer, bool, error)
}

type AddressResolver interface {
	AddressOf(pkScriptHex string) (string, bool)
}

// Resolver executes pending transfers whose holding output is spent.
type Resolver struct {
	pending   PendingTransferReader
	addresses AddressResolver
}

func NewResolver(pending PendingTransferReader, addresses AddressResolver) *Resolver {
	return &Resolver{
		pending:   pending,
		addresses: addresses,
	}
}

// Resolve looks up pending transfers as of the block before block.
// Only the first input of a transaction can carry a transfer: the inscribed satoshi is assumed
// to be the first satoshi of the transaction. A pending transfer spent by any other input stays unresolved.
func (r *Resolver) Resolve(ctx context.Context, block *types.Block) ([]*entity.ExecutedTransfer, error) {
	version := block.Header.Height - 1
	executed := make([]*entity.ExecutedTransfer, 0)
	for _, tx := range block.Transactions {
		if len(tx.TxIn) == 0 || tx.TxIn[0].Coinbase {
			continue
		}
		transfer, err := r.resolveTransaction(ctx, version, tx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve transfers of tx %s", tx.TxHash)
		}
		if transfer != nil {
			executed = append(executed, transfer)
		}
	}
	return executed, nil
}

func (r *Resolver) resolveTransaction(ctx context.Context, version int64, tx *types.Transaction) (*entity.ExecutedTransfer, error) {
	pending, ok, err := r.pending.GetAt(ctx, version, tx.TxIn[0].OutPointKey())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !ok {
		return nil, r.logUnresolved(ctx, version, tx)
	}

	vout, _, ok := ordinals.ResolveSatOffset(tx.TxOut, pending.Offset)
	if !ok {
		logger.DebugContext(ctx, "Inscribed transfer satoshi is not in any output",
			slogx.Stringer("txid", tx.TxHash),
			slogx.Stringer("inscription_id", pending.Id),
		)
		return nil, nil
	}
	to, ok := r.addresses.AddressOf(tx.TxOut[vout].PkScriptHex())
	if !ok {
		logger.DebugContext(ctx, "Inscribed transfer output has no address",
			slogx.Stringer("txid", tx.TxHash),
			slogx.Stringer("inscription_id", pending.Id),
		)
		return nil, nil
	}
	return &entity.ExecutedTransfer{
		EventPosition: entity.EventPosition{
			TxHash:      tx.TxHash,
			BlockHeight: tx.BlockHeight,
			TxIndex:     tx.Index,
		},
		Id:     pending.Id,
		Tick:   pending.Tick,
		From:   pending.From,
		To:     to,
		Amount: pending.Amount,
	}, nil
}

func (r *Resolver) logUnresolved(ctx context.Context, version int64, tx *types.Transaction) error {
	for _, txIn := range tx.TxIn[1:] {
		pending, ok, err := r.pending.GetAt(ctx, version, txIn.OutPointKey())
		if err != nil {
			return errors.WithStack(err)
		}
		if ok {
			logger.InfoContext(ctx, "Could not resolve inscribed transfer",
				slogx.Stringer("txid", tx.TxHash),
				slogx.String("utxo", txIn.OutPointKey()),
				slogx.Stringer("inscription_id", pending.Id),
			)
			metrics.UnresolvedTransfers.Inc()
			return nil
		}
	}
	return nil
}
