package domain

import (
	"encoding/binary"
	"errors"
)

// errShortBatch is returned when an encoded batch ends mid-entry.
var errShortBatch = errors.New("domain: truncated iterator batch")

// Entry is one key/value pair returned by an iterator.
type Entry struct {
	Key   []byte
	Value []byte
}

// EntrySize returns the encoded size of a key/value pair.
func EntrySize(key, value []byte) int {
	return uvarintLen(uint64(len(key))) + len(key) + uvarintLen(uint64(len(value))) + len(value)
}

// AppendEntry encodes a key/value pair onto dst. The layout is
// uvarint(len(key)) key uvarint(len(value)) value.
func AppendEntry(dst, key, value []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(key)))
	dst = append(dst, key...)
	dst = binary.AppendUvarint(dst, uint64(len(value)))
	dst = append(dst, value...)
	return dst
}

// DecodeEntries decodes a batch written by AppendEntry. Returned slices alias
// buf.
func DecodeEntries(buf []byte) ([]Entry, error) {
	var out []Entry
	for len(buf) > 0 {
		key, rest, err := readChunk(buf)
		if err != nil {
			return out, err
		}
		value, rest, err := readChunk(rest)
		if err != nil {
			return out, err
		}
		out = append(out, Entry{Key: key, Value: value})
		buf = rest
	}
	return out, nil
}

func readChunk(buf []byte) ([]byte, []byte, error) {
	n, w := binary.Uvarint(buf)
	if w <= 0 {
		return nil, nil, errShortBatch
	}
	buf = buf[w:]
	if uint64(len(buf)) < n {
		return nil, nil, errShortBatch
	}
	return buf[:n], buf[n:], nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
