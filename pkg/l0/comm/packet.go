package comm

import (
	"encoding/binary"
	"io"
	"time"
)

// Seq is the frame sequence number. Valid values stay clear of the
// sync bytes at the top of the range.
type Seq byte

// NewSeq creates a random starting sequence number.
func NewSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	n := byte(s) + 1
	if n == 0 || n >= 0xf0 {
		n = 1
	}
	return Seq(n)
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	n := byte(s)
	return n > 0 && n < 0xf0
}

// Operations understood by the flash service.
const (
	// OpWrite stores the frame payload as the sector record.
	OpWrite byte = 0x01
	// OpRead retrieves a sector record; the request payload is the
	// 4-byte little-endian read limit.
	OpRead byte = 0x02
	// OpErase discards the sector record, keeping its write count.
	OpErase byte = 0x03
	// OpStat retrieves the raw record header of a sector.
	OpStat byte = 0x04

	// replyFlag marks a frame as the reply to a request.
	replyFlag byte = 0x80
)

// headerSize is the encoded size of a frame before its payload:
// [seq][op][addr:4][len:2].
const headerSize = 8

// Packet is one protocol frame.
type Packet struct {
	Seq  Seq
	Op   byte
	Addr uint32
	Data []byte
}

// IsReply reports whether the frame answers a request.
func (p *Packet) IsReply() bool {
	return p.Op&replyFlag != 0
}

// Bytes returns encoded bytes for sending.
func (p *Packet) Bytes() []byte {
	b := make([]byte, headerSize+len(p.Data))
	b[0], b[1] = byte(p.Seq), p.Op
	binary.LittleEndian.PutUint32(b[2:6], p.Addr)
	binary.LittleEndian.PutUint16(b[6:8], uint16(len(p.Data)))
	copy(b[headerSize:], p.Data)
	return b
}

// WriteTo writes encoded bytes.
func (p *Packet) WriteTo(w io.Writer) (n int, err error) {
	head := make([]byte, headerSize)
	head[0], head[1] = byte(p.Seq), p.Op
	binary.LittleEndian.PutUint32(head[2:6], p.Addr)
	binary.LittleEndian.PutUint16(head[6:8], uint16(len(p.Data)))
	if n, err = w.Write(head); err != nil {
		return
	}
	if len(p.Data) > 0 {
		var n1 int
		n1, err = w.Write(p.Data)
		n += n1
	}
	return
}

// NewReply builds the reply frame for a request. The addr field of a
// reply carries the request sequence in its low byte and the status
// code in the next.
func NewReply(req *Packet, status Status, data []byte) *Packet {
	return &Packet{
		Op:   req.Op | replyFlag,
		Addr: uint32(req.Seq) | uint32(status)<<8,
		Data: data,
	}
}

// RequestSeq extracts the request sequence from a reply frame.
func (p *Packet) RequestSeq() Seq {
	return Seq(p.Addr)
}

// Status extracts the status code from a reply frame.
func (p *Packet) Status() Status {
	return Status(p.Addr >> 8)
}
