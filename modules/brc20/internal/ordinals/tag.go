package ordinals

// Tag identifies a field of an inscription envelope. Unrecognized odd tags are ignored,
// unrecognized even tags flag the inscription.
type Tag uint8

const (
	TagContentType     Tag = 1
	TagPointer         Tag = 2
	TagParent          Tag = 3
	TagMetadata        Tag = 5
	TagMetaprotocol    Tag = 7
	TagContentEncoding Tag = 9

	// TagUnbound is an even tag without meaning
	TagUnbound Tag = 66
	// TagNop is an odd tag without meaning
	TagNop Tag = 255
)

// Bytes returns the tag as pushed in an envelope.
func (t Tag) Bytes() []byte {
	return []byte{byte(t)}
}

// bodyTag is the empty push separating fields from the body.
var bodyTag = []byte{}

// protocolID marks an ordinals envelope.
var protocolID = []byte("ord")

// maxChunkSize is the largest push the reveal builder emits for chunked fields.
const maxChunkSize = 520
