package ordinals

import (
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSatPointFromString(t *testing.T) {
	txHash := *utils.Must(chainhash.NewHashFromStr(testTxid))

	tests := []struct {
		name        string
		input       string
		expected    SatPoint
		shouldError bool
	}{
		{name: "valid", input: testTxid + ":1:2", expected: NewSatPoint(txHash, 1, 2)},
		{name: "no_separator", input: "abc", shouldError: true},
		{name: "invalid_output_index", input: "abc:xyz", shouldError: true},
		{name: "no_offset", input: testTxid + ":1", shouldError: true},
		{name: "invalid_offset", input: testTxid + ":1:foo", shouldError: true},
		{name: "extra_separator", input: testTxid + ":1:2:3", shouldError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := NewSatPointFromString(tt.input)
			if tt.shouldError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
			assert.Equal(t, tt.input, actual.String())
		})
	}
}

func TestSatPointUTXOKey(t *testing.T) {
	satPoint := NewSatPoint(*utils.Must(chainhash.NewHashFromStr(testTxid)), 3, 546)
	assert.Equal(t, testTxid+":3", satPoint.UTXOKey())
}
