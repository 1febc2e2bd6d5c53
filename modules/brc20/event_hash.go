package brc20

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
)

const eventHashSeparator = "|"

func getEventDeployString(event *entity.Deploy) string {
	var sb strings.Builder
	sb.WriteString("deploy;")
	sb.WriteString(event.Id.String() + ";")
	sb.WriteString(event.Deployer + ";")
	sb.WriteString(event.Tick + ";")
	sb.WriteString(event.MaxSupply.String() + ";")
	sb.WriteString(strconv.Itoa(int(event.Decimals)) + ";")
	sb.WriteString(event.MintLimit.String())
	return sb.String()
}

func getEventMintString(event *entity.Mint) string {
	var sb strings.Builder
	sb.WriteString("mint;")
	sb.WriteString(event.Id.String() + ";")
	sb.WriteString(event.To + ";")
	sb.WriteString(event.Tick + ";")
	sb.WriteString(event.Amount.String())
	return sb.String()
}

func getEventInscribeTransferString(event *entity.InscribedTransfer) string {
	var sb strings.Builder
	sb.WriteString("inscribe-transfer;")
	sb.WriteString(event.Id.String() + ";")
	sb.WriteString(event.From + ";")
	sb.WriteString(event.Tick + ";")
	sb.WriteString(event.Amount.String() + ";")
	sb.WriteString(event.SatPoint.String())
	return sb.String()
}

func getEventTransferTransferString(event *entity.ExecutedTransfer) string {
	var sb strings.Builder
	sb.WriteString("transfer-transfer;")
	sb.WriteString(event.Id.String() + ";")
	sb.WriteString(event.From + ";")
	sb.WriteString(event.To + ";")
	sb.WriteString(event.Tick + ";")
	sb.WriteString(event.Amount.String())
	return sb.String()
}

// getEventHashString joins the events of a block in emission order.
func getEventHashString(events *entity.BlockEvents) string {
	parts := make([]string, 0, events.Len())
	for _, event := range events.Deploys {
		parts = append(parts, getEventDeployString(event))
	}
	for _, event := range events.Mints {
		parts = append(parts, getEventMintString(event))
	}
	for _, event := range events.InscribedTransfers {
		parts = append(parts, getEventInscribeTransferString(event))
	}
	for _, event := range events.ExecutedTransfers {
		parts = append(parts, getEventTransferTransferString(event))
	}
	return strings.Join(parts, eventHashSeparator)
}

func computeEventHash(events *entity.BlockEvents) chainhash.Hash {
	return sha256.Sum256([]byte(getEventHashString(events)))
}

// computeCumulativeEventHash chains eventHash onto the previous cumulative hash.
// The first indexed block has no previous hash and its cumulative hash is its event hash.
func computeCumulativeEventHash(prev *chainhash.Hash, eventHash chainhash.Hash) chainhash.Hash {
	if prev == nil {
		return eventHash
	}
	return sha256.Sum256([]byte(hex.EncodeToString(prev[:]) + hex.EncodeToString(eventHash[:])))
}
