package comm

import (
	"context"
	"io"
	"sync"
	"time"
)

// PacketHandler is called when a frame is received.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is func type of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// StateNotifier is called when the link state changed.
type StateNotifier interface {
	StateChanged(context.Context, SyncState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state SyncState) {
	f(ctx, state)
}

// Link sends and receives frames over a byte channel.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    PacketHandler
	Notifier   StateNotifier
	Timeout    time.Duration

	seq   Seq
	state SyncState
	lock  sync.RWMutex

	syncTimer <-chan time.Time
	parser    Parser
}

// NewLink creates a Link over a byte channel.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		Timeout:    100 * time.Millisecond,
		seq:        NewSeq(),
	}
}

// State gets the link state.
func (l *Link) State() SyncState {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.state
}

// Send sends a frame, stamping its sequence number.
func (l *Link) Send(pkt *Packet) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.IsReady() {
		return ErrNotReady
	}
	pkt.Seq = l.seq
	if _, err := pkt.WriteTo(l.ReadWriter); err != nil {
		return err
	}
	l.seq = l.seq.Next()
	return nil
}

// Run pumps the link until the context is canceled or the channel
// fails.
func (l *Link) Run(ctx context.Context) error {
	err := l.applyParseResult(ctx, l.parser.Reset())
	if err != nil {
		return err
	}
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			if err = l.applyParseResult(ctx, l.parser.Parse(b)); err != nil {
				return err
			}
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-l.syncTimer:
			if err = l.applyParseResult(ctx, l.parser.Timeout()); err != nil {
				return err
			}
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, err := l.ReadWriter.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			byteCh <- buf[0]
		}
	}
}

func (l *Link) applyParseResult(ctx context.Context, pr ParseResult) (err error) {
	var notifier StateNotifier
	l.lock.Lock()
	if l.state != pr.State {
		l.state = pr.State
		notifier = l.Notifier
	}
	if pr.Sync != 0 {
		_, err = l.ReadWriter.Write([]byte{pr.Sync, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return
	}

	switch pr.WhatAboutTimer() {
	case TimerRestart:
		l.syncTimer = time.After(l.Timeout)
	case TimerStop:
		l.syncTimer = nil
	}

	if notifier != nil {
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Packet != nil {
		if h := l.Handler; h != nil {
			h.HandlePacket(ctx, pr.Packet)
		}
	}
	return
}
