package ordinals

import (
	"encoding/json"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxid = "1111111111111111111111111111111111111111111111111111111111111111"

func TestInscriptionIdFromString(t *testing.T) {
	txHash := *utils.Must(chainhash.NewHashFromStr(testTxid))

	tests := []struct {
		input       string
		expected    InscriptionId
		shouldError bool
	}{
		{input: testTxid + "i0", expected: NewInscriptionId(txHash, 0)},
		{input: testTxid + "i1", expected: NewInscriptionId(txHash, 1)},
		{input: testTxid + "i4294967295", expected: NewInscriptionId(txHash, 4294967295)},
		{input: testTxid + "i4294967296", shouldError: true},
		{input: "abc", shouldError: true},
		{input: "xyzixyz", shouldError: true},
		{input: testTxid + "ixyz", shouldError: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			actual, err := NewInscriptionIdFromString(tt.input)
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

func TestInscriptionIdJSON(t *testing.T) {
	id := NewInscriptionId(*utils.Must(chainhash.NewHashFromStr(testTxid)), 7)

	data, err := json.Marshal(map[string]InscriptionId{"id": id})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+testTxid+`i7"}`, string(data))

	var decoded struct {
		Id InscriptionId `json:"id"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, id, decoded.Id)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"nope"}`), &decoded))
}
