package brc20

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/gaze-network/brc20-indexer/core/types"
	"github.com/gaze-network/brc20-indexer/internal/metrics"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/ordinals"
	"github.com/gaze-network/brc20-indexer/pkg/btcutils"
	"github.com/gaze-network/brc20-indexer/pkg/logger"
	"github.com/gaze-network/brc20-indexer/pkg/logger/slogx"
)

// contentTypeMarker is "text/plain;charset=utf-8" in hex. Transactions without it carry no BRC-20 inscription.
const contentTypeMarker = "746578742f706c61696e3b636861727365743d7574662d38"

// AddressResolver decodes the locking script of an output into its owner's address.
type AddressResolver interface {
	AddressOf(pkScriptHex string) (string, bool)
}

// Extractor turns the inscriptions revealed in a block into deploy, mint and inscribed transfer events.
type Extractor struct {
	addresses AddressResolver
}

func NewExtractor(addresses AddressResolver) *Extractor {
	return &Extractor{addresses: addresses}
}

// Extract never fails: inscriptions that do not hold a valid event are dropped.
// ExecutedTransfers of the result is left empty.
func (e *Extractor) Extract(ctx context.Context, block *types.Block) *entity.BlockEvents {
	header := block.Header
	events := entity.NewBlockEvents(header.Height, header.Hash, header.Timestamp.Unix())
	for _, tx := range block.Transactions {
		if !strings.Contains(tx.Hex, contentTypeMarker) {
			continue
		}
		e.extractTransaction(ctx, tx, events)
	}
	return events
}

func (e *Extractor) extractTransaction(ctx context.Context, tx *types.Transaction, events *entity.BlockEvents) {
	ctx = logger.WithContext(ctx, slogx.Stringer("txid", tx.TxHash))
	position := entity.EventPosition{
		TxHash:      tx.TxHash,
		BlockHeight: tx.BlockHeight,
		TxIndex:     tx.Index,
	}

	for i, envelope := range ordinals.ParseEnvelopes(tx) {
		inscription := ordinals.DecodeInscription(envelope)
		id := ordinals.NewInscriptionId(tx.TxHash, uint32(i))

		pointer, ok := inscription.PointerValue()
		if !ok {
			pointer = 0
		}
		vout, offset, ok := ordinals.ResolveSatOffset(tx.TxOut, pointer)
		if !ok {
			logger.DebugContext(ctx, "Inscription is not bound to an output", slogx.Stringer("inscription_id", id), slogx.Uint64("pointer", pointer))
			metrics.DroppedInscriptions.WithLabelValues(metrics.DropReasonNoLocation).Inc()
			continue
		}
		output := tx.TxOut[vout]
		satPoint := ordinals.NewSatPoint(tx.TxHash, uint32(vout), offset)

		if !utf8.Valid(inscription.Body) {
			metrics.DroppedInscriptions.WithLabelValues(metrics.DropReasonNotUTF8).Inc()
			continue
		}
		operation, err := ParseOperation(inscription.Body)
		if err != nil {
			logger.InfoContext(ctx, "Failed to parse inscription content",
				slogx.String("utxo", satPoint.UTXOKey()),
				slogx.Stringer("inscription_id", id),
				slogx.Error(err),
			)
			metrics.DroppedInscriptions.WithLabelValues(metrics.DropReasonInvalidJSON).Inc()
			continue
		}
		if err := operation.Validate(); err != nil {
			logger.DebugContext(ctx, "Ignore invalid operation",
				slogx.String("op", operation.Kind().String()),
				slogx.String("tick", operation.Ticker()),
				slogx.Stringer("inscription_id", id),
				slogx.Error(err),
			)
			metrics.DroppedInscriptions.WithLabelValues(metrics.DropReasonInvalidEvent).Inc()
			continue
		}
		address, ok := e.addresses.AddressOf(output.PkScriptHex())
		if !ok {
			logger.DebugContext(ctx, "Inscription output has no address", slogx.String("utxo", satPoint.UTXOKey()), slogx.Stringer("inscription_id", id))
			metrics.DroppedInscriptions.WithLabelValues(metrics.DropReasonNoAddress).Inc()
			continue
		}

		switch op := operation.(type) {
		case *Deploy:
			events.Deploys = append(events.Deploys, &entity.Deploy{
				EventPosition: position,
				Id:            id,
				Tick:          op.Tick,
				MaxSupply:     Decimal(&op.Max),
				MintLimit:     Decimal(op.MintLimit()),
				Decimals:      op.Decimals(),
				Deployer:      address,
			})
		case *Mint:
			events.Mints = append(events.Mints, &entity.Mint{
				EventPosition: position,
				Id:            id,
				Tick:          op.Tick,
				To:            address,
				Amount:        Decimal(&op.Amt),
			})
		case *Transfer:
			utxoAmount, _ := btcutils.BitcoinToSatoshiFixed(output.Value)
			events.InscribedTransfers = append(events.InscribedTransfers, &entity.InscribedTransfer{
				EventPosition: position,
				Id:            id,
				Tick:          op.Tick,
				From:          address,
				Amount:        Decimal(&op.Amt),
				SatPoint:      satPoint,
				UTXOAmount:    utxoAmount,
			})
		default:
			panic("unreachable: unknown brc20 operation " + operation.Kind().String())
		}
		metrics.Events.WithLabelValues(operation.Kind().String()).Inc()
	}
}
