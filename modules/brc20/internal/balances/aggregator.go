package balances

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/shopspring/decimal"
)

const (
	BalanceNamespace      = "balances"
	TransferableNamespace = "transferable"
)

// Key is the "{tick}:{account}" key of both totals.
func Key(tick, account string) string {
	return tick + ":" + account
}

// Aggregator accumulates two totals per tick and account. Both are only ever added to:
//   - balance: +mint.to, +executed.to, -inscribed.from
//   - transferable: +inscribed.from, -executed.from
type Aggregator struct {
	Balances     *versioned.AddStore
	Transferable *versioned.AddStore
}

func NewAggregator(reader versioned.Reader) *Aggregator {
	return &Aggregator{
		Balances:     versioned.NewAddStore(BalanceNamespace, reader),
		Transferable: versioned.NewAddStore(TransferableNamespace, reader),
	}
}

// Apply adds the deltas of events at events.Height.
func (a *Aggregator) Apply(ctx context.Context, events *entity.BlockEvents) error {
	version := events.Height
	for _, mint := range events.Mints {
		if err := a.Balances.Add(ctx, version, Key(mint.Tick, mint.To), mint.Amount); err != nil {
			return errors.Wrapf(err, "failed to apply mint %s", mint.Id)
		}
	}
	for _, transfer := range events.InscribedTransfers {
		key := Key(transfer.Tick, transfer.From)
		if err := a.Balances.Add(ctx, version, key, transfer.Amount.Neg()); err != nil {
			return errors.Wrapf(err, "failed to apply inscribed transfer %s", transfer.Id)
		}
		if err := a.Transferable.Add(ctx, version, key, transfer.Amount); err != nil {
			return errors.Wrapf(err, "failed to apply inscribed transfer %s", transfer.Id)
		}
	}
	for _, transfer := range events.ExecutedTransfers {
		if err := a.Balances.Add(ctx, version, Key(transfer.Tick, transfer.To), transfer.Amount); err != nil {
			return errors.Wrapf(err, "failed to apply executed transfer %s", transfer.Id)
		}
		if err := a.Transferable.Add(ctx, version, Key(transfer.Tick, transfer.From), transfer.Amount.Neg()); err != nil {
			return errors.Wrapf(err, "failed to apply executed transfer %s", transfer.Id)
		}
	}
	return nil
}

// BalanceAt returns the balance of account as of a flushed version.
func (a *Aggregator) BalanceAt(ctx context.Context, version int64, tick, account string) (decimal.Decimal, error) {
	value, _, err := a.Balances.GetAt(ctx, version, Key(tick, account))
	return value, errors.WithStack(err)
}

// TransferableAt returns the transferable balance of account as of a flushed version.
func (a *Aggregator) TransferableAt(ctx context.Context, version int64, tick, account string) (decimal.Decimal, error) {
	value, _, err := a.Transferable.GetAt(ctx, version, Key(tick, account))
	return value, errors.WithStack(err)
}

// Stores returns both stores for flushing.
func (a *Aggregator) Stores() []versioned.Flushable {
	return []versioned.Flushable{a.Balances, a.Transferable}
}
