// Package changelog turns a block's events and balance deltas into entity change rows
// for downstream consumers.
package changelog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/entity"
	"github.com/gaze-network/brc20-indexer/modules/brc20/internal/versioned"
	"github.com/shopspring/decimal"
)

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
)

const (
	EntityDeploy         = "Deploy"
	EntityToken          = "Token"
	EntityMint           = "Mint"
	EntityTransfer       = "Transfer"
	EntityAccount        = "Account"
	EntityAccountBalance = "AccountBalance"
)

// Row is one entity change. Fields holds the columns set by the change as a JSON object.
type Row struct {
	Height    int64  `parquet:"name=height, type=INT64"`
	Timestamp int64  `parquet:"name=timestamp, type=INT64"`
	Entity    string `parquet:"name=entity, type=BYTE_ARRAY, convertedtype=UTF8"`
	Id        string `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Operation string `parquet:"name=operation, type=BYTE_ARRAY, convertedtype=UTF8"`
	Fields    string `parquet:"name=fields, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// DecodeFields returns the columns of the row.
func (r Row) DecodeFields() (map[string]string, error) {
	fields := make(map[string]string)
	if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
		return nil, errors.Wrapf(err, "invalid fields of %s %s", r.Entity, r.Id)
	}
	return fields, nil
}

type builder struct {
	height    int64
	timestamp int64
	rows      []Row
}

func (b *builder) add(entityName, id string, operation Operation, fields map[string]string) {
	if fields == nil {
		fields = map[string]string{}
	}
	// map keys are marshalled in sorted order
	data, _ := json.Marshal(fields)
	b.rows = append(b.rows, Row{
		Height:    b.height,
		Timestamp: b.timestamp,
		Entity:    entityName,
		Id:        id,
		Operation: string(operation),
		Fields:    string(data),
	})
}

// BuildRows returns the changes of one block, in event order followed by balance deltas.
// balanceDeltas and transferableDeltas are the deltas flushed for the block by the balance stores.
func BuildRows(events *entity.BlockEvents, balanceDeltas, transferableDeltas []versioned.Delta) []Row {
	b := &builder{
		height:    events.Height,
		timestamp: events.Timestamp,
		rows:      make([]Row, 0, events.Len()+2*len(balanceDeltas)+len(transferableDeltas)),
	}
	height := strconv.FormatInt(events.Height, 10)

	for _, deploy := range events.Deploys {
		b.add(EntityDeploy, deploy.Id.String(), OperationCreate, map[string]string{
			"token":     deploy.Tick,
			"deployer":  deploy.Deployer,
			"block":     height,
			"timestamp": strconv.FormatInt(events.Timestamp, 10),
		})
		b.add(EntityToken, deploy.Tick, OperationCreate, map[string]string{
			"symbol":     deploy.Tick,
			"max_supply": deploy.MaxSupply.String(),
			"mint_limit": deploy.MintLimit.String(),
			"decimals":   strconv.Itoa(int(deploy.Decimals)),
			"deployment": deploy.Id.String(),
		})
	}
	for _, mint := range events.Mints {
		b.add(EntityMint, mint.Id.String(), OperationCreate, map[string]string{
			"token":  mint.Tick,
			"to":     mint.To,
			"amount": mint.Amount.String(),
		})
	}
	for _, transfer := range events.ExecutedTransfers {
		b.add(EntityTransfer, transfer.Id.String(), OperationCreate, map[string]string{
			"token":  transfer.Tick,
			"from":   transfer.From,
			"to":     transfer.To,
			"amount": transfer.Amount.String(),
		})
	}

	for _, delta := range balanceDeltas {
		tick, account, ok := splitKey(delta.Key)
		if !ok {
			continue
		}
		balance := decodeValue(delta.NewValue)
		switch delta.Operation {
		case versioned.OperationCreate:
			b.add(EntityAccountBalance, delta.Key, OperationCreate, map[string]string{
				"account":      account,
				"token":        tick,
				"balance":      balance,
				"transferable": "0",
			})
			b.add(EntityAccount, account, OperationCreate, nil)
		case versioned.OperationUpdate:
			b.add(EntityAccountBalance, delta.Key, OperationUpdate, map[string]string{
				"balance": balance,
			})
		}
	}
	// a transferable total only exists after the account received a balance
	for _, delta := range transferableDeltas {
		b.add(EntityAccountBalance, delta.Key, OperationUpdate, map[string]string{
			"transferable": decodeValue(delta.NewValue),
		})
	}
	return b.rows
}

// splitKey splits a "{tick}:{account}" key. Addresses never contain ':', ticks may.
func splitKey(key string) (tick, account string, ok bool) {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

func decodeValue(data []byte) string {
	value, err := versioned.DecodeDecimal(data)
	if err != nil {
		return decimal.Zero.String()
	}
	return value.String()
}
