package comm

// Parser parses bytes received.
type Parser struct {
	peerSeq Seq
	state   parseState
	packet  *Packet
	field   uint32
	count   int
	recvLen int
}

// MaxDataLen bounds the payload of one frame. It covers a whole
// sector record; larger lengths can only come from a corrupted stream
// and force a resync.
const MaxDataLen = 4096

// SyncState indicates the state of communication.
type SyncState int

const (
	// SyncStateSyncing means the communication is not synchronized.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the communication is synchronized and ready for frames.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means there's on-going communication for syncing or a frame.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the communication is ready for frames.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of syncing or receiving a frame.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// TimerAction defines what to do with the sync timer.
type TimerAction int

const (
	// TimerNoChange indicates keep the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart to restart the timer.
	TimerRestart
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	Sync   byte
	State  SyncState
	Packet *Packet
}

// WhatAboutTimer decides what to do with the sync timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.State.IsReceiving() || r.Sync == syncREQ {
		return TimerRestart
	}
	if r.State.IsReady() {
		return TimerStop
	}
	return TimerNoChange
}

type parseState int

const (
	stateSyncAck     parseState = iota // sync req sent, waiting for syncACK
	stateSyncReqSeq                    // waiting for sync seq after syncREQ
	stateSyncAckSeq                    // waiting for sync seq after syncACK
	stateFrameSeq                      // waiting for frame seq
	stateFrameAckSeq                   // recv ack in FrameSeq, validate seq
	stateFrameOp                       // waiting for operation code
	stateFrameAddr                     // accumulating 4 addr bytes
	stateFrameLen                      // accumulating 2 length bytes
	stateFrameData                     // waiting for frame payload
)

const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe
)

// State gets the current sync state.
func (p *Parser) State() SyncState {
	if p.state == stateSyncAck {
		return SyncStateSyncing
	}
	if p.state == stateFrameSeq {
		return SyncStateReady
	}
	if p.state > stateFrameSeq {
		return SyncStateReady | SyncStateReceiving
	}
	return SyncStateSyncing | SyncStateReceiving
}

// Reset resets the internal state of parser.
func (p *Parser) Reset() (pr ParseResult) {
	p.packet = nil
	pr.Sync, pr.Packet = p.resync()
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Sync, pr.Packet = p.parseByte(b)
	pr.State = p.State()
	return
}

// Timeout notifies the parser timer expires.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateFrameSeq {
		pr.Sync, pr.Packet = p.resync()
	}
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (syncCmd byte, pkt *Packet) {
	switch p.state {
	case stateSyncAck:
		switch b {
		case syncREQ:
			p.state = stateSyncReqSeq
		case syncACK:
			p.state = stateSyncAckSeq
		}
	case stateSyncReqSeq:
		if seq := Seq(b); seq.IsValid() {
			p.peerSeq, p.state = seq, stateFrameSeq
			syncCmd = syncACK
			return
		}
		return p.resync()
	case stateSyncAckSeq:
		if seq := Seq(b); seq.IsValid() {
			p.peerSeq, p.state = seq, stateFrameSeq
			return
		}
		return p.resync()
	case stateFrameSeq:
		if b == syncREQ {
			p.state = stateSyncReqSeq
			return
		}
		if b == syncACK {
			p.state = stateFrameAckSeq
			return
		}
		if b != byte(p.peerSeq) {
			return p.resync()
		}
		p.packet = &Packet{Seq: p.peerSeq}
		p.peerSeq = p.peerSeq.Next()
		p.state = stateFrameOp
	case stateFrameAckSeq:
		if b != byte(p.peerSeq) {
			return p.resync()
		}
		p.state = stateFrameSeq
	case stateFrameOp:
		p.packet.Op = b
		p.field, p.count = 0, 0
		p.state = stateFrameAddr
	case stateFrameAddr:
		p.field |= uint32(b) << uint(8*p.count)
		if p.count++; p.count == 4 {
			p.packet.Addr = p.field
			p.field, p.count = 0, 0
			p.state = stateFrameLen
		}
	case stateFrameLen:
		p.field |= uint32(b) << uint(8*p.count)
		if p.count++; p.count == 2 {
			if p.field > MaxDataLen {
				return p.resync()
			}
			if p.field == 0 {
				return p.packetReady()
			}
			p.packet.Data, p.recvLen = make([]byte, p.field), 0
			p.state = stateFrameData
		}
	case stateFrameData:
		p.packet.Data[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= len(p.packet.Data) {
			return p.packetReady()
		}
	}
	return
}

func (p *Parser) resync() (byte, *Packet) {
	p.state = stateSyncAck
	return syncREQ, nil
}

func (p *Parser) packetReady() (syncCmd byte, pkt *Packet) {
	p.state = stateFrameSeq
	pkt, p.packet = p.packet, nil
	return
}
