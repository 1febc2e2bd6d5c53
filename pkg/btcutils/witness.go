package btcutils

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
)

// WitnessToHex formats the passed witness stack as a slice of hex-encoded strings.
func WitnessToHex(witness wire.TxWitness) []string {
	if len(witness) == 0 {
		return nil
	}

	result := make([]string, 0, len(witness))
	for _, wit := range witness {
		result = append(result, hex.EncodeToString(wit))
	}
	return result
}

// WitnessFromHex parses the passed slice of hex-encoded strings into a witness stack.
func WitnessFromHex(witnesses []string) (wire.TxWitness, error) {
	if len(witnesses) == 0 {
		return nil, nil
	}

	result := make(wire.TxWitness, 0, len(witnesses))
	for i, wit := range witnesses {
		decoded, err := hex.DecodeString(wit)
		if err != nil {
			return nil, errors.Wrapf(err, "can't decode witness item %d", i)
		}
		result = append(result, decoded)
	}
	return result, nil
}
