package ordinals

import (
	"bytes"
	"testing"

	"github.com/Cleverse/go-utilities/utils"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, payload ...[]byte) Inscription {
	t.Helper()

	builder := NewPushScriptBuilder().
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData(protocolID)
	for _, data := range payload {
		builder.AddData(data)
	}
	script, err := builder.AddOp(txscript.OP_ENDIF).Script()
	require.NoError(t, err)

	envelopes := ParseEnvelopesFromScript(script, 0)
	require.Len(t, envelopes, 1)
	return DecodeInscription(envelopes[0])
}

func TestDecodeInscription(t *testing.T) {
	textPlain := []byte("text/plain;charset=utf-8")

	t.Run("duplicate_field", func(t *testing.T) {
		assert.Equal(t, Inscription{DuplicateField: true},
			decodePayload(t, TagNop.Bytes(), []byte{}, TagNop.Bytes(), []byte{}))
	})
	t.Run("with_content_type", func(t *testing.T) {
		assert.Equal(t, Inscription{Body: []byte("ord"), ContentType: textPlain},
			decodePayload(t, TagContentType.Bytes(), textPlain, bodyTag, []byte("ord")))
	})
	t.Run("with_content_encoding", func(t *testing.T) {
		assert.Equal(t, Inscription{Body: []byte("ord"), ContentType: textPlain, ContentEncoding: []byte("br")},
			decodePayload(t, TagContentType.Bytes(), textPlain, TagContentEncoding.Bytes(), []byte("br"), bodyTag, []byte("ord")))
	})
	t.Run("with_unknown_tag", func(t *testing.T) {
		assert.Equal(t, Inscription{Body: []byte("ord"), ContentType: textPlain},
			decodePayload(t, TagContentType.Bytes(), textPlain, TagNop.Bytes(), []byte("bar"), bodyTag, []byte("ord")))
	})
	t.Run("no_body", func(t *testing.T) {
		inscription := decodePayload(t, TagContentType.Bytes(), textPlain)
		assert.Nil(t, inscription.Body)
		assert.Equal(t, textPlain, inscription.ContentType)
	})
	t.Run("no_content_type", func(t *testing.T) {
		assert.Equal(t, Inscription{Body: []byte("foo")}, decodePayload(t, bodyTag, []byte("foo")))
	})
	t.Run("valid_body_in_multiple_pushes", func(t *testing.T) {
		inscription := decodePayload(t, TagContentType.Bytes(), textPlain, bodyTag, []byte("foo"), []byte("bar"))
		assert.Equal(t, []byte("foobar"), inscription.Body)
	})
	t.Run("valid_body_in_zero_pushes", func(t *testing.T) {
		inscription := decodePayload(t, TagContentType.Bytes(), textPlain, bodyTag)
		assert.NotNil(t, inscription.Body)
		assert.Empty(t, inscription.Body)
	})
	t.Run("valid_body_in_multiple_empty_pushes", func(t *testing.T) {
		inscription := decodePayload(t, TagContentType.Bytes(), textPlain, bodyTag, []byte{}, []byte{}, []byte{}, []byte{})
		assert.NotNil(t, inscription.Body)
		assert.Empty(t, inscription.Body)
	})
	t.Run("empty_value_is_not_a_body_tag", func(t *testing.T) {
		inscription := decodePayload(t, TagNop.Bytes(), []byte{}, bodyTag, []byte("x"))
		assert.Equal(t, Inscription{Body: []byte("x")}, inscription)
	})
	t.Run("invalid_utf8_is_kept", func(t *testing.T) {
		inscription := decodePayload(t, TagContentType.Bytes(), textPlain, bodyTag, []byte{0b10000000})
		assert.Equal(t, []byte{0b10000000}, inscription.Body)
	})
	t.Run("unknown_odd_fields", func(t *testing.T) {
		assert.Equal(t, Inscription{}, decodePayload(t, TagNop.Bytes(), []byte{0x00}))
	})
	t.Run("unknown_even_fields", func(t *testing.T) {
		assert.Equal(t, Inscription{UnrecognizedEvenField: true}, decodePayload(t, TagUnbound.Bytes(), []byte{0x00}))
	})
	t.Run("pointer_field_is_recognized", func(t *testing.T) {
		inscription := decodePayload(t, TagPointer.Bytes(), []byte{0x01})
		assert.Equal(t, Inscription{Pointer: []byte{0x01}}, inscription)
		pointer, ok := inscription.PointerValue()
		assert.True(t, ok)
		assert.Equal(t, uint64(1), pointer)
	})
	t.Run("duplicate_pointer_field_makes_inscription_unbound", func(t *testing.T) {
		assert.Equal(t, Inscription{
			Pointer:               []byte{0x01},
			DuplicateField:        true,
			UnrecognizedEvenField: true,
		}, decodePayload(t, TagPointer.Bytes(), []byte{0x01}, TagPointer.Bytes(), []byte{0x00}))
	})
	t.Run("incomplete_field", func(t *testing.T) {
		assert.Equal(t, Inscription{IncompleteField: true}, decodePayload(t, TagNop.Bytes()))
	})
	t.Run("metadata_is_concatenated", func(t *testing.T) {
		inscription := decodePayload(t, TagMetadata.Bytes(), []byte("foo"), TagMetadata.Bytes(), []byte("bar"))
		assert.Equal(t, []byte("foobar"), inscription.Metadata)
		assert.True(t, inscription.DuplicateField)
		assert.False(t, inscription.UnrecognizedEvenField)
	})
	t.Run("metaprotocol", func(t *testing.T) {
		inscription := decodePayload(t, TagMetaprotocol.Bytes(), []byte("brc-20"))
		assert.Equal(t, Inscription{Metaprotocol: []byte("brc-20")}, inscription)
	})
}

func TestInscriptionPointerValue(t *testing.T) {
	tests := []struct {
		name     string
		pointer  []byte
		expected uint64
		ok       bool
	}{
		{name: "absent", pointer: nil},
		{name: "empty", pointer: []byte{}, expected: 0, ok: true},
		{name: "one_byte", pointer: []byte{0x01}, expected: 1, ok: true},
		{name: "little_endian", pointer: []byte{0x00, 0x01}, expected: 256, ok: true},
		{name: "max", pointer: bytes.Repeat([]byte{0xff}, 8), expected: ^uint64(0), ok: true},
		{name: "trailing_zeros_past_eight_bytes", pointer: []byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}, expected: 1, ok: true},
		{name: "too_large", pointer: []byte{0, 0, 0, 0, 0, 0, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pointer, ok := Inscription{Pointer: tt.pointer}.PointerValue()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, pointer)
		})
	}
}

func TestPointerBytes(t *testing.T) {
	assert.Equal(t, []byte{}, PointerBytes(0))
	assert.Equal(t, []byte{0x01}, PointerBytes(1))
	assert.Equal(t, []byte{0x00, 0x01}, PointerBytes(256))
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 8), PointerBytes(^uint64(0)))
}

func TestInscriptionParentId(t *testing.T) {
	txHash := *utils.Must(chainhash.NewHashFromStr("1111111111111111111111111111111111111111111111111111111111111111"))
	withIndex := func(index ...byte) []byte {
		return append(append([]byte{}, txHash[:]...), index...)
	}

	tests := []struct {
		name     string
		parent   []byte
		expected InscriptionId
		ok       bool
	}{
		{name: "absent", parent: nil},
		{name: "txid_only", parent: withIndex(), expected: NewInscriptionId(txHash, 0), ok: true},
		{name: "one_byte_index", parent: withIndex(1), expected: NewInscriptionId(txHash, 1), ok: true},
		{name: "fixed_width_index", parent: withIndex(0, 0, 0, 0), expected: NewInscriptionId(txHash, 0), ok: true},
		{name: "trailing_zero", parent: withIndex(1, 0)},
		{name: "short_txid", parent: txHash[:31]},
		{name: "index_too_long", parent: withIndex(1, 1, 1, 1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := Inscription{Parent: tt.parent}.ParentId()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, id)
		})
	}

	t.Run("parent_value_round_trip", func(t *testing.T) {
		for _, index := range []uint32{0, 1, 255, 256, 1 << 31} {
			expected := NewInscriptionId(txHash, index)
			id, ok := Inscription{Parent: ParentValue(expected)}.ParentId()
			assert.True(t, ok)
			assert.Equal(t, expected, id)
		}
	})
}

func TestRevealScriptRoundTrip(t *testing.T) {
	parent := NewInscriptionId(*utils.Must(chainhash.NewHashFromStr("1111111111111111111111111111111111111111111111111111111111111111")), 3)

	tests := []struct {
		name        string
		inscription Inscription
	}{
		{
			name:        "empty",
			inscription: Inscription{},
		},
		{
			name: "brc20_transfer",
			inscription: Inscription{
				Body:        []byte(`{"p":"brc-20","op":"transfer","tick":"ordi","amt":"100"}`),
				ContentType: []byte("text/plain;charset=utf-8"),
			},
		},
		{
			name: "every_field",
			inscription: Inscription{
				Body:            []byte("hello"),
				ContentEncoding: []byte("br"),
				ContentType:     []byte("text/plain"),
				Metadata:        []byte{0xa1, 0x61, 0x61, 0x01},
				Metaprotocol:    []byte("brc-20"),
				Parent:          ParentValue(parent),
				Pointer:         PointerBytes(1234),
			},
		},
		{
			name:        "chunked_body",
			inscription: Inscription{Body: bytes.Repeat([]byte{0x42}, 3*maxChunkSize+1)},
		},
		{
			name:        "empty_body",
			inscription: Inscription{Body: []byte{}, ContentType: []byte("text/plain")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script, err := tt.inscription.RevealScript()
			require.NoError(t, err)

			envelopes := ParseEnvelopesFromScript(script, 0)
			require.Len(t, envelopes, 1)
			assert.False(t, envelopes[0].PushNum)
			assert.Equal(t, tt.inscription, DecodeInscription(envelopes[0]))
		})
	}

	t.Run("chunked_metadata", func(t *testing.T) {
		// every chunk repeats the metadata tag
		inscription := Inscription{Metadata: bytes.Repeat([]byte{0x07}, maxChunkSize+10)}
		script, err := inscription.RevealScript()
		require.NoError(t, err)

		envelopes := ParseEnvelopesFromScript(script, 0)
		require.Len(t, envelopes, 1)
		assert.Len(t, envelopes[0].Payload, 4)
		decoded := DecodeInscription(envelopes[0])
		assert.Equal(t, inscription.Metadata, decoded.Metadata)
		assert.True(t, decoded.DuplicateField)
	})
}
