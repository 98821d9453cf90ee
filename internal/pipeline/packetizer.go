package pipeline

import (
	"fmt"

	"github.com/junsooki/airstream/internal/input"
	"github.com/junsooki/airstream/internal/transport"
	"github.com/junsooki/airstream/internal/wire"
)

// DefaultMaxDatagram is the default size of a whole datagram, header included.
const DefaultMaxDatagram = 1400

// FrameSender accepts one compressed payload per sequence number.
type FrameSender interface {
	SendFrame(seq uint32, payload []byte) error
}

// ControlSender accepts one input event per control datagram.
type ControlSender interface {
	SendControl(e input.Event) error
}

// Packetizer splits payloads into media datagrams and sends control
// datagrams on the same socket.
//
// SendFrame reuses an internal buffer and must only be called from one
// goroutine. SendControl may be called concurrently with it.
type Packetizer struct {
	sock       transport.Socket
	maxPayload int
	buf        []byte
}

// NewPacketizer sends on sock with datagrams of at most maxDatagram bytes.
func NewPacketizer(sock transport.Socket, maxDatagram int) (*Packetizer, error) {
	if maxDatagram <= wire.MediaHeaderLen {
		return nil, fmt.Errorf("max datagram %d leaves no room after a %d byte header", maxDatagram, wire.MediaHeaderLen)
	}
	return &Packetizer{
		sock:       sock,
		maxPayload: maxDatagram - wire.MediaHeaderLen,
		buf:        make([]byte, 0, maxDatagram),
	}, nil
}

// MaxFragmentPayload returns the number of payload bytes per fragment.
func (p *Packetizer) MaxFragmentPayload() int {
	return p.maxPayload
}

// FragmentCount returns how many fragments a payload of n bytes needs.
func (p *Packetizer) FragmentCount(n int) int {
	return (n + p.maxPayload - 1) / p.maxPayload
}

// SendFrame sends payload as fragments in increasing index order. An empty
// payload sends nothing. The first send error aborts the frame.
func (p *Packetizer) SendFrame(seq uint32, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	count := p.FragmentCount(len(payload))
	if count > wire.MaxFragments {
		return fmt.Errorf("%w: %d bytes need %d fragments", ErrPayloadTooLarge, len(payload), count)
	}

	for i := 0; i < count; i++ {
		start := i * p.maxPayload
		end := min(start+p.maxPayload, len(payload))

		p.buf = wire.AppendFragment(p.buf[:0], wire.Fragment{
			Seq:     seq,
			Index:   uint16(i),
			Count:   uint16(count),
			Payload: payload[start:end],
		})
		if err := p.sock.Send(p.buf); err != nil {
			return fmt.Errorf("send fragment %d/%d of frame %d: %w", i, count, seq, err)
		}
	}
	return nil
}

// SendControl sends e as a single control datagram.
func (p *Packetizer) SendControl(e input.Event) error {
	b, err := wire.MarshalControl(e)
	if err != nil {
		return err
	}
	if err := p.sock.Send(b); err != nil {
		return fmt.Errorf("send control %s: %w", e, err)
	}
	return nil
}
