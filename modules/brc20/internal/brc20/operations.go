package brc20

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/holiman/uint256"
)

// Protocol is the value of the "p" field of every BRC-20 inscription.
const Protocol = "brc-20"

const (
	// DefaultDecimals is used when a deploy omits "dec".
	DefaultDecimals uint8 = 18
	MaxDecimals     uint8 = 18
)

type OperationKind string

const (
	OperationDeploy   OperationKind = "deploy"
	OperationMint     OperationKind = "mint"
	OperationTransfer OperationKind = "transfer"
)

func (o OperationKind) String() string {
	return string(o)
}

// Operation is one of *Deploy, *Mint or *Transfer.
type Operation interface {
	Kind() OperationKind
	Ticker() string
	// Validate reports why the operation must be ignored.
	Validate() error
	operation()
}

var (
	ErrInvalidProtocol  = errors.New("invalid protocol: must be 'brc-20'")
	ErrInvalidOperation = errors.New("invalid operation: must be one of 'deploy', 'mint', or 'transfer'")
	ErrMissingField     = errors.New("missing required field")
	ErrZeroMax          = errors.New("max must be greater than zero")
	ErrZeroLimit        = errors.New("lim must be greater than zero")
	ErrZeroAmount       = errors.New("amt must be greater than zero")
	ErrInvalidDecimals  = errors.New("dec must be between 0 and 18")
)

type Deploy struct {
	P    string
	Tick string
	Max  uint256.Int
	Lim  *uint256.Int
	Dec  *uint8
}

func (d *Deploy) Kind() OperationKind { return OperationDeploy }
func (d *Deploy) Ticker() string      { return d.Tick }
func (d *Deploy) operation()          {}

// MintLimit returns lim, or max when lim is absent.
func (d *Deploy) MintLimit() *uint256.Int {
	if d.Lim != nil {
		return d.Lim
	}
	return &d.Max
}

func (d *Deploy) Decimals() uint8 {
	if d.Dec != nil {
		return *d.Dec
	}
	return DefaultDecimals
}

func (d *Deploy) Validate() error {
	if d.P != Protocol {
		return errors.WithStack(ErrInvalidProtocol)
	}
	if d.Max.IsZero() {
		return errors.WithStack(ErrZeroMax)
	}
	if d.Lim != nil && d.Lim.IsZero() {
		return errors.WithStack(ErrZeroLimit)
	}
	if d.Decimals() > MaxDecimals {
		return errors.WithStack(ErrInvalidDecimals)
	}
	return nil
}

type Mint struct {
	P    string
	Tick string
	Amt  uint256.Int
}

func (m *Mint) Kind() OperationKind { return OperationMint }
func (m *Mint) Ticker() string      { return m.Tick }
func (m *Mint) operation()          {}

func (m *Mint) Validate() error {
	return validateAmount(m.P, &m.Amt)
}

type Transfer struct {
	P    string
	Tick string
	Amt  uint256.Int
}

func (t *Transfer) Kind() OperationKind { return OperationTransfer }
func (t *Transfer) Ticker() string      { return t.Tick }
func (t *Transfer) operation()          {}

func (t *Transfer) Validate() error {
	return validateAmount(t.P, &t.Amt)
}

func validateAmount(p string, amt *uint256.Int) error {
	if p != Protocol {
		return errors.WithStack(ErrInvalidProtocol)
	}
	if amt.IsZero() {
		return errors.WithStack(ErrZeroAmount)
	}
	return nil
}

type rawOperation struct {
	P    string
	Op   *string
	Tick *string

	// deploy
	Max *Amount
	Lim *Amount
	Dec *Decimals

	// mint and transfer
	Amt *Amount
}

// decodeFields reads the payload fields by their exact names. Keys differing only in case
// are other fields and are ignored.
func (r *rawOperation) decodeFields(fields map[string]json.RawMessage) error {
	var p *string
	targets := []struct {
		key string
		dst any
	}{
		{"p", &p},
		{"op", &r.Op},
		{"tick", &r.Tick},
		{"max", &r.Max},
		{"lim", &r.Lim},
		{"dec", &r.Dec},
		{"amt", &r.Amt},
	}
	for _, target := range targets {
		value, ok := fields[target.key]
		if !ok {
			continue
		}
		// null leaves the pointer nil, same as an absent field
		if err := json.Unmarshal(value, target.dst); err != nil {
			return errors.Wrapf(err, "invalid field %q", target.key)
		}
	}
	if p != nil {
		r.P = *p
	}
	return nil
}

// ParseOperation decodes an inscription body. Unknown fields are ignored.
// The returned operation is not validated.
func ParseOperation(content []byte) (Operation, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(content, &fields); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal payload as json")
	}
	if fields == nil {
		return nil, errors.New("payload must be a json object")
	}
	var raw rawOperation
	if err := raw.decodeFields(fields); err != nil {
		return nil, errors.WithStack(err)
	}
	if raw.Op == nil {
		return nil, errors.Wrap(ErrMissingField, "op")
	}
	if raw.Tick == nil {
		return nil, errors.Wrap(ErrMissingField, "tick")
	}

	switch OperationKind(*raw.Op) {
	case OperationDeploy:
		if raw.Max == nil {
			return nil, errors.Wrap(ErrMissingField, "max")
		}
		deploy := &Deploy{
			P:    raw.P,
			Tick: *raw.Tick,
			Max:  raw.Max.Int,
		}
		if raw.Lim != nil {
			deploy.Lim = &raw.Lim.Int
		}
		if raw.Dec != nil {
			dec := uint8(*raw.Dec)
			deploy.Dec = &dec
		}
		return deploy, nil
	case OperationMint:
		if raw.Amt == nil {
			return nil, errors.Wrap(ErrMissingField, "amt")
		}
		return &Mint{P: raw.P, Tick: *raw.Tick, Amt: raw.Amt.Int}, nil
	case OperationTransfer:
		if raw.Amt == nil {
			return nil, errors.Wrap(ErrMissingField, "amt")
		}
		return &Transfer{P: raw.P, Tick: *raw.Tick, Amt: raw.Amt.Int}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidOperation, "got %q", *raw.Op)
	}
}
