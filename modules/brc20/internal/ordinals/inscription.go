package ordinals

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/samber/lo"
)

// Inscription is the decoded content of an envelope. Nil byte fields are absent.
type Inscription struct {
	Body            []byte
	ContentEncoding []byte
	ContentType     []byte
	Metadata        []byte
	Metaprotocol    []byte
	Parent          []byte
	Pointer         []byte

	DuplicateField        bool
	IncompleteField       bool
	UnrecognizedEvenField bool
}

// fields is an ordered multimap of envelope tags to their values.
type fields struct {
	keys   [][]byte
	values map[string][][]byte
}

func newFields() *fields {
	return &fields{values: make(map[string][][]byte)}
}

func (f *fields) add(key, value []byte) {
	k := string(key)
	if _, ok := f.values[k]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[k] = append(f.values[k], value)
}

// take removes the first value of tag. Chunked tags return every value concatenated.
func (f *fields) take(tag Tag, chunked bool) []byte {
	k := string(tag.Bytes())
	values, ok := f.values[k]
	if !ok {
		return nil
	}
	if chunked {
		delete(f.values, k)
		return lo.Flatten(values)
	}
	if len(values) == 1 {
		delete(f.values, k)
	} else {
		f.values[k] = values[1:]
	}
	return values[0]
}

func (f *fields) hasUnrecognizedEven() bool {
	return lo.SomeBy(f.keys, func(key []byte) bool {
		_, ok := f.values[string(key)]
		return ok && len(key) > 0 && key[0]%2 == 0
	})
}

// DecodeInscription decodes the payload of an envelope. It never fails; malformed payloads set the flags.
func DecodeInscription(envelope *Envelope) Inscription {
	payload := envelope.Payload

	bodyIndex := -1
	for i, value := range payload {
		if i%2 == 0 && len(value) == 0 {
			bodyIndex = i
			break
		}
	}

	fieldPayloads := payload
	var body []byte
	if bodyIndex >= 0 {
		fieldPayloads = payload[:bodyIndex]
		body = lo.Flatten(payload[bodyIndex+1:])
	}

	var incompleteField, duplicateField bool
	f := newFields()
	for _, chunk := range lo.Chunk(fieldPayloads, 2) {
		if len(chunk) != 2 {
			incompleteField = true
			break
		}
		f.add(chunk[0], chunk[1])
	}
	for _, values := range f.values {
		if len(values) > 1 {
			duplicateField = true
			break
		}
	}

	inscription := Inscription{
		Body:            body,
		ContentEncoding: f.take(TagContentEncoding, false),
		ContentType:     f.take(TagContentType, false),
		Metadata:        f.take(TagMetadata, true),
		Metaprotocol:    f.take(TagMetaprotocol, false),
		Parent:          f.take(TagParent, false),
		Pointer:         f.take(TagPointer, false),
		DuplicateField:  duplicateField,
		IncompleteField: incompleteField,
	}
	inscription.UnrecognizedEvenField = f.hasUnrecognizedEven()
	return inscription
}

// PointerValue returns the pointer as an offset into the outputs of the reveal transaction.
// Pointers wider than 8 significant bytes are ignored.
func (i Inscription) PointerValue() (uint64, bool) {
	if i.Pointer == nil {
		return 0, false
	}
	raw := i.Pointer
	if len(raw) > 8 {
		if lo.SomeBy(raw[8:], func(b byte) bool { return b != 0 }) {
			return 0, false
		}
		raw = raw[:8]
	}
	var buf [8]byte
	copy(buf[:], raw)
	return binary.LittleEndian.Uint64(buf[:]), true
}

// ParentId returns the parent inscription id, if the parent field is well formed.
func (i Inscription) ParentId() (InscriptionId, bool) {
	value := i.Parent
	if value == nil || len(value) < chainhash.HashSize || len(value) > chainhash.HashSize+4 {
		return InscriptionId{}, false
	}
	txid, index := value[:chainhash.HashSize], value[chainhash.HashSize:]
	if len(index) > 0 && len(index) < 4 && index[len(index)-1] == 0 {
		// trailing zeros must be trimmed unless the index uses every byte
		return InscriptionId{}, false
	}
	var hash chainhash.Hash
	copy(hash[:], txid)
	var buf [4]byte
	copy(buf[:], index)
	return NewInscriptionId(hash, binary.LittleEndian.Uint32(buf[:])), true
}

// PointerBytes encodes a pointer the way reveal scripts carry it.
func PointerBytes(pointer uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], pointer)
	return trimTrailingZeros(buf[:])
}

// ParentValue encodes an inscription id for the parent field.
func ParentValue(id InscriptionId) []byte {
	var index [4]byte
	binary.LittleEndian.PutUint32(index[:], id.Index)
	value := make([]byte, 0, chainhash.HashSize+4)
	value = append(value, id.TxHash[:]...)
	return append(value, trimTrailingZeros(index[:])...)
}

func trimTrailingZeros(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}
