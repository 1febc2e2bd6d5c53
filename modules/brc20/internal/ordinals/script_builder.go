package ordinals

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/txscript"
)

// PushScriptBuilder builds scripts whose data pushes always use OP_DATA_* or OP_PUSHDATA*,
// never the small integer opcodes. An empty push is encoded as OP_0.
// txscript.ScriptBuilder would turn a single byte tag such as 0x01 into OP_1.
type PushScriptBuilder struct {
	script []byte
	err    error
}

func NewPushScriptBuilder() *PushScriptBuilder {
	return &PushScriptBuilder{}
}

func encodePush(data []byte) []byte {
	n := len(data)
	var prefix []byte
	switch {
	case n == 0:
		return []byte{txscript.OP_0}
	case n < txscript.OP_PUSHDATA1:
		prefix = []byte{byte(txscript.OP_DATA_1 - 1 + n)}
	case n <= 0xff:
		prefix = []byte{txscript.OP_PUSHDATA1, byte(n)}
	case n <= 0xffff:
		prefix = binary.LittleEndian.AppendUint16([]byte{txscript.OP_PUSHDATA2}, uint16(n))
	default:
		prefix = binary.LittleEndian.AppendUint32([]byte{txscript.OP_PUSHDATA4}, uint32(n))
	}
	return append(prefix, data...)
}

func (b *PushScriptBuilder) append(raw []byte) *PushScriptBuilder {
	if b.err != nil {
		return b
	}
	if len(b.script)+len(raw) > txscript.MaxScriptSize {
		b.err = txscript.ErrScriptNotCanonical(fmt.Sprintf("script would exceed the maximum size of %d bytes", txscript.MaxScriptSize))
		return b
	}
	b.script = append(b.script, raw...)
	return b
}

// AddData pushes data. Pushes larger than txscript.MaxScriptElementSize are rejected.
func (b *PushScriptBuilder) AddData(data []byte) *PushScriptBuilder {
	if b.err == nil && len(data) > txscript.MaxScriptElementSize {
		b.err = txscript.ErrScriptNotCanonical(fmt.Sprintf("data element of %d bytes exceeds the maximum of %d", len(data), txscript.MaxScriptElementSize))
		return b
	}
	return b.append(encodePush(data))
}

func (b *PushScriptBuilder) AddOp(opcode byte) *PushScriptBuilder {
	return b.append([]byte{opcode})
}

// Script returns the script built so far and the first error encountered.
func (b *PushScriptBuilder) Script() ([]byte, error) {
	return b.script, b.err
}
