package comm

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/robotalks/flash.go/pkg/flash/store"
)

// Result is the outcome of one command.
type Result struct {
	Err  error
	Data []byte
}

type pendingCmd struct {
	seq Seq
	ch  chan Result
}

// Client is the host side of the protocol: it issues command frames
// over a Link and matches replies back to their commands.
type Client struct {
	// Timeout bounds the wait for one command's reply.
	Timeout time.Duration

	link    *Link
	stateCh chan SyncState
	pending []*pendingCmd
	lock    sync.Mutex
}

// NewClient creates a client and wraps the link.
func NewClient(link *Link) *Client {
	c := &Client{
		Timeout: time.Second,
		link:    link,
		stateCh: make(chan SyncState, 1),
	}
	c.link.Handler = c
	c.link.Notifier = StateChangedFunc(func(ctx context.Context, state SyncState) {
		select {
		case c.stateCh <- state:
		default:
		}
	})
	return c
}

// Link gets the wrapped link.
func (c *Client) Link() *Link {
	return c.link
}

// Run wraps Link.Run.
func (c *Client) Run(ctx context.Context) error {
	return c.link.Run(ctx)
}

// WaitReady blocks until the link synchronizes with the peer.
func (c *Client) WaitReady(timeout time.Duration) error {
	if c.link.State().IsReady() {
		return nil
	}
	deadline := time.After(timeout)
	for {
		select {
		case state := <-c.stateCh:
			if state.IsReady() {
				return nil
			}
		case <-deadline:
			return ErrTimeout
		}
	}
}

// Write stores payload as the record of the sector at offset.
func (c *Client) Write(offset uint32, payload []byte) error {
	return c.do(&Packet{Op: OpWrite, Addr: offset, Data: payload}).Err
}

// Read retrieves up to maxLen bytes of the record at offset.
func (c *Client) Read(offset uint32, maxLen int) ([]byte, error) {
	if maxLen < 0 {
		maxLen = 0
	}
	limit := make([]byte, 4)
	binary.LittleEndian.PutUint32(limit, uint32(maxLen))
	res := c.do(&Packet{Op: OpRead, Addr: offset, Data: limit})
	return res.Data, res.Err
}

// Erase discards the record at offset.
func (c *Client) Erase(offset uint32) error {
	return c.do(&Packet{Op: OpErase, Addr: offset}).Err
}

// Stat retrieves the record header of the sector at offset.
func (c *Client) Stat(offset uint32) (store.Meta, error) {
	res := c.do(&Packet{Op: OpStat, Addr: offset})
	if res.Err != nil {
		return store.Meta{}, res.Err
	}
	var m store.Meta
	if err := m.UnmarshalBinary(res.Data); err != nil {
		return store.Meta{}, err
	}
	return m, nil
}

func (c *Client) do(pkt *Packet) Result {
	if len(pkt.Data) > MaxDataLen {
		return Result{Err: store.ErrOversizedPayload}
	}
	cmd := &pendingCmd{ch: make(chan Result, 1)}
	c.lock.Lock()
	if err := c.link.Send(pkt); err != nil {
		c.lock.Unlock()
		return Result{Err: err}
	}
	cmd.seq = pkt.Seq
	c.pending = append(c.pending, cmd)
	c.lock.Unlock()

	select {
	case res := <-cmd.ch:
		return res
	case <-time.After(c.Timeout):
		c.drop(cmd)
		return Result{Err: ErrTimeout}
	}
}

func (c *Client) drop(cmd *pendingCmd) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, p := range c.pending {
		if p == cmd {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// HandlePacket implements PacketHandler. A reply resolves its command;
// commands older than the reply are resolved with ErrNoReply.
func (c *Client) HandlePacket(ctx context.Context, pkt *Packet) {
	if !pkt.IsReply() {
		return
	}
	seq := pkt.RequestSeq()
	if !seq.IsValid() {
		return
	}
	c.lock.Lock()
	match := -1
	for i, p := range c.pending {
		if p.seq == seq {
			match = i
			break
		}
	}
	if match < 0 {
		c.lock.Unlock()
		return
	}
	skipped := c.pending[:match]
	cmd := c.pending[match]
	c.pending = c.pending[match+1:]
	c.lock.Unlock()

	for _, p := range skipped {
		p.ch <- Result{Err: ErrNoReply}
	}
	cmd.ch <- Result{Err: pkt.Status().Err(), Data: pkt.Data}
}
