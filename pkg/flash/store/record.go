package store

import (
	"encoding/binary"
	"errors"
)

// HeaderSize is the encoded size of Meta at the start of each sector.
const HeaderSize = 13

const validFlag byte = 0x01

// erasedCount is the count word read back from a sector that was never
// programmed since erase: all bits set.
const erasedCount = ^uint32(0)

// Meta is the record header stored at the start of a sector.
type Meta struct {
	Valid      bool   `json:"valid"`
	WriteCount uint32 `json:"write_count"`
	Length     uint64 `json:"length"`
}

// MarshalBinary encodes the header in its persisted little-endian
// layout: [valid:1][write_count:4][length:8].
func (m Meta) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	if m.Valid {
		b[0] = validFlag
	}
	binary.LittleEndian.PutUint32(b[1:5], m.WriteCount)
	binary.LittleEndian.PutUint64(b[5:13], m.Length)
	return b, nil
}

// UnmarshalBinary decodes the persisted header layout.
func (m *Meta) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return errors.New("short record header")
	}
	m.Valid = b[0] == validFlag
	m.WriteCount = binary.LittleEndian.Uint32(b[1:5])
	m.Length = binary.LittleEndian.Uint64(b[5:13])
	return nil
}

// priorCount interprets the stored count for the next write: a sector
// never programmed since erase reads back all-ones and counts as zero.
func (m Meta) priorCount() uint32 {
	if m.WriteCount == erasedCount {
		return 0
	}
	return m.WriteCount
}

func encodeRecord(m Meta, payload []byte) []byte {
	b := make([]byte, HeaderSize+len(payload))
	if m.Valid {
		b[0] = validFlag
	}
	binary.LittleEndian.PutUint32(b[1:5], m.WriteCount)
	binary.LittleEndian.PutUint64(b[5:13], m.Length)
	copy(b[HeaderSize:], payload)
	return b
}
