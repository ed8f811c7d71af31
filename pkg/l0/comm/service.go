package comm

import (
	"context"
	"encoding/binary"

	"github.com/golang/glog"

	"github.com/robotalks/flash.go/pkg/flash/store"
)

// Service is the device side of the protocol: it applies command
// frames to a local store and replies with status frames. On real
// hardware this role is played by the firmware.
type Service struct {
	// OnMutate, when set, is called with the sector offset after
	// each successful write or erase.
	OnMutate func(offset uint32)

	link  *Link
	store *store.Store
}

// NewService creates a service over the link, backed by the store.
func NewService(link *Link, st *store.Store) *Service {
	s := &Service{link: link, store: st}
	link.Handler = s
	return s
}

// Link gets the wrapped link.
func (s *Service) Link() *Link {
	return s.link
}

// Run wraps Link.Run.
func (s *Service) Run(ctx context.Context) error {
	return s.link.Run(ctx)
}

// HandlePacket implements PacketHandler.
func (s *Service) HandlePacket(ctx context.Context, pkt *Packet) {
	if pkt.IsReply() {
		// the service only answers, it never asks
		return
	}
	var (
		data    []byte
		err     error
		status  Status
		mutated bool
	)
	switch pkt.Op {
	case OpWrite:
		if err = s.store.Write(pkt.Addr, pkt.Data); err == nil {
			mutated = true
		}
		status = StatusOf(err)
	case OpRead:
		if len(pkt.Data) != 4 {
			status = StatusBadOp
			break
		}
		maxLen := binary.LittleEndian.Uint32(pkt.Data)
		data, err = s.store.Read(pkt.Addr, int(maxLen))
		status = StatusOf(err)
	case OpErase:
		if err = s.store.Erase(pkt.Addr); err == nil {
			mutated = true
		}
		status = StatusOf(err)
	case OpStat:
		var meta store.Meta
		if meta, err = s.store.Stat(pkt.Addr); err == nil {
			data, _ = meta.MarshalBinary()
		}
		status = StatusOf(err)
	default:
		status = StatusBadOp
	}
	if status != StatusOK {
		glog.V(1).Infof("op %#x at %#x failed: %s", pkt.Op, pkt.Addr, status)
		data = nil
	}
	if err = s.link.Send(NewReply(pkt, status, data)); err != nil {
		glog.Warningf("send reply: %v", err)
		return
	}
	if mutated && s.OnMutate != nil {
		s.OnMutate(pkt.Addr)
	}
}
