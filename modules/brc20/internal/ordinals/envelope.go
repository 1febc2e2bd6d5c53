package ordinals

import (
	"bytes"

	"github.com/btcsuite/btcd/txscript"
	"github.com/gaze-network/brc20-indexer/core/types"
)

// Envelope is the raw content of one OP_FALSE OP_IF "ord" ... OP_ENDIF block.
type Envelope struct {
	InputIndex int      // index of the input that carries the envelope
	Offset     int      // number of envelopes found before this one in the same input
	Payload    [][]byte // pushes after the protocol marker
	PushNum    bool     // a pushnum opcode was used inside the envelope
	Stutter    bool     // the envelope follows a failed opener directly followed by an empty push
}

// pushNumValues maps small-number opcodes to the byte they push.
var pushNumValues = map[byte][]byte{
	txscript.OP_1NEGATE: {0x81},
	txscript.OP_1:       {1},
	txscript.OP_2:       {2},
	txscript.OP_3:       {3},
	txscript.OP_4:       {4},
	txscript.OP_5:       {5},
	txscript.OP_6:       {6},
	txscript.OP_7:       {7},
	txscript.OP_8:       {8},
	txscript.OP_9:       {9},
	txscript.OP_10:      {10},
	txscript.OP_11:      {11},
	txscript.OP_12:      {12},
	txscript.OP_13:      {13},
	txscript.OP_14:      {14},
	txscript.OP_15:      {15},
	txscript.OP_16:      {16},
}

// ParseEnvelopes returns the envelopes of every input of tx, in input order.
func ParseEnvelopes(tx *types.Transaction) []*Envelope {
	envelopes := make([]*Envelope, 0)
	for i, txIn := range tx.TxIn {
		script, ok := tapScript(txIn.Witness)
		if !ok {
			continue
		}
		envelopes = append(envelopes, ParseEnvelopesFromScript(script, i)...)
	}
	return envelopes
}

// ParseEnvelopesFromScript scans a tapscript. A script that fails to tokenize yields no envelopes at all.
func ParseEnvelopesFromScript(script []byte, inputIndex int) []*Envelope {
	envelopes := make([]*Envelope, 0)
	tokenizer := txscript.MakeScriptTokenizer(0, script)

	var stuttered bool
	for tokenizer.Next() {
		if !isEmptyPush(&tokenizer) {
			continue
		}
		envelope, stutter, ok := envelopeFromTokenizer(&tokenizer, inputIndex, len(envelopes), stuttered)
		if !ok {
			return nil
		}
		if envelope != nil {
			envelopes = append(envelopes, envelope)
		} else {
			stuttered = stutter
		}
	}
	if tokenizer.Err() != nil {
		return nil
	}
	return envelopes
}

// envelopeFromTokenizer reads one envelope right after an empty push.
// ok is false when the script fails to tokenize.
func envelopeFromTokenizer(tokenizer *txscript.ScriptTokenizer, inputIndex, offset int, stuttered bool) (envelope *Envelope, stutter bool, ok bool) {
	if accepted, ok := accept(tokenizer, isOpIf); !ok {
		return nil, false, false
	} else if !accepted {
		return nil, peekEmptyPush(tokenizer), true
	}
	if accepted, ok := accept(tokenizer, isProtocolID); !ok {
		return nil, false, false
	} else if !accepted {
		return nil, peekEmptyPush(tokenizer), true
	}

	var pushNum bool
	payload := make([][]byte, 0)
	for tokenizer.Next() {
		opcode := tokenizer.Opcode()
		switch {
		case opcode == txscript.OP_ENDIF:
			return &Envelope{
				InputIndex: inputIndex,
				Offset:     offset,
				Payload:    payload,
				PushNum:    pushNum,
				Stutter:    stuttered,
			}, false, true
		case opcode <= txscript.OP_PUSHDATA4:
			payload = append(payload, append([]byte{}, tokenizer.Data()...))
		default:
			value, isPushNum := pushNumValues[opcode]
			if !isPushNum {
				return nil, false, true
			}
			pushNum = true
			payload = append(payload, append([]byte{}, value...))
		}
	}
	// end of script before OP_ENDIF, or a tokenizer error
	return nil, false, tokenizer.Err() == nil
}

// accept consumes the next instruction only when it matches.
func accept(tokenizer *txscript.ScriptTokenizer, match func(*txscript.ScriptTokenizer) bool) (accepted bool, ok bool) {
	peek := *tokenizer
	if !peek.Next() {
		return false, peek.Err() == nil
	}
	if !match(&peek) {
		return false, true
	}
	*tokenizer = peek
	return true, true
}

func peekEmptyPush(tokenizer *txscript.ScriptTokenizer) bool {
	peek := *tokenizer
	return peek.Next() && isEmptyPush(&peek)
}

func isEmptyPush(tokenizer *txscript.ScriptTokenizer) bool {
	return tokenizer.Opcode() <= txscript.OP_PUSHDATA4 && len(tokenizer.Data()) == 0
}

func isOpIf(tokenizer *txscript.ScriptTokenizer) bool {
	return tokenizer.Opcode() == txscript.OP_IF
}

func isProtocolID(tokenizer *txscript.ScriptTokenizer) bool {
	return tokenizer.Opcode() <= txscript.OP_PUSHDATA4 && bytes.Equal(tokenizer.Data(), protocolID)
}

// tapScript returns the leaf script of a script path spend: the second to last
// witness element once an annex is removed.
func tapScript(witness [][]byte) ([]byte, bool) {
	if len(witness) >= 2 {
		last := witness[len(witness)-1]
		if len(last) > 0 && last[0] == txscript.TaprootAnnexTag {
			witness = witness[:len(witness)-1]
		}
	}
	if len(witness) < 2 {
		return nil, false
	}
	return witness[len(witness)-2], true
}
