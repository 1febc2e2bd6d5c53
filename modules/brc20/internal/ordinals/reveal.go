package ordinals

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/samber/lo"
)

// AppendRevealScript appends the envelope carrying i to builder.
// Metadata and body are split into pushes of at most 520 bytes.
func (i Inscription) AppendRevealScript(builder *PushScriptBuilder) *PushScriptBuilder {
	builder.
		AddOp(txscript.OP_FALSE).
		AddOp(txscript.OP_IF).
		AddData(protocolID)

	appendField := func(tag Tag, value []byte) {
		if value != nil {
			builder.AddData(tag.Bytes()).AddData(value)
		}
	}
	appendField(TagContentType, i.ContentType)
	appendField(TagContentEncoding, i.ContentEncoding)
	appendField(TagMetaprotocol, i.Metaprotocol)
	appendField(TagParent, i.Parent)
	appendField(TagPointer, i.Pointer)
	for _, chunk := range lo.Chunk(i.Metadata, maxChunkSize) {
		builder.AddData(TagMetadata.Bytes()).AddData(chunk)
	}

	if i.Body != nil {
		builder.AddData(bodyTag)
		for _, chunk := range lo.Chunk(i.Body, maxChunkSize) {
			builder.AddData(chunk)
		}
	}

	return builder.AddOp(txscript.OP_ENDIF)
}

// RevealScript returns a standalone reveal script for i.
func (i Inscription) RevealScript() ([]byte, error) {
	return i.AppendRevealScript(NewPushScriptBuilder()).Script()
}
