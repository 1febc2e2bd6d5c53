package badger

import (
	"bytes"
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// Key layout. Heights and versions are big endian so byte order matches numeric order.
// Strings are written as {uvarint length}{bytes}, so no key's prefix is shared with another key.
//
//	v/{namespace}{key}{version}  -> value
//	c/{version}{namespace}{seq}  -> change record
//	b/{height}                   -> indexed block
//	e/{height}                   -> block events
//	s/{created at, unix nano}    -> indexer state
var (
	prefixValue        = []byte("v/")
	prefixChange       = []byte("c/")
	prefixIndexedBlock = []byte("b/")
	prefixBlockEvents  = []byte("e/")
	prefixIndexerState = []byte("s/")
)

func appendUint64(b []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(v))
}

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func appendString(b []byte, s string) []byte {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

// valuePrefix is the prefix shared by every version of key.
func valuePrefix(namespace, key string) []byte {
	return appendString(appendString(concat(prefixValue), namespace), key)
}

func valueKey(namespace, key string, version int64) []byte {
	return appendUint64(valuePrefix(namespace, key), version)
}

func changeVersionPrefix(version int64) []byte {
	return appendUint64(concat(prefixChange), version)
}

func changePrefix(namespace string, version int64) []byte {
	return appendString(changeVersionPrefix(version), namespace)
}

func changeKey(namespace string, version int64, seq int) []byte {
	return binary.BigEndian.AppendUint32(changePrefix(namespace, version), uint32(seq))
}

// parseChangeKey returns the namespace and version of a change record key.
func parseChangeKey(key []byte) (namespace string, version int64, err error) {
	rest, ok := bytes.CutPrefix(key, prefixChange)
	if !ok || len(rest) < 8+1+4 {
		return "", 0, errors.Errorf("invalid change key %x", key)
	}
	version = int64(binary.BigEndian.Uint64(rest[:8]))
	rest = rest[8:]
	length, n := binary.Uvarint(rest)
	if n <= 0 || uint64(len(rest)-n) < length+4 {
		return "", 0, errors.Errorf("invalid change key %x", key)
	}
	return string(rest[n : n+int(length)]), version, nil
}

func heightKey(prefix []byte, height int64) []byte {
	return appendUint64(concat(prefix), height)
}
