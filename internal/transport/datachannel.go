package transport

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// rxQueue bounds datagrams buffered between the data channel callback and
// Receive. Overflow is dropped like any other loss.
const rxQueue = 256

// DataChannelSocket implements Socket over an unordered WebRTC data channel
// with retransmissions disabled.
type DataChannelSocket struct {
	dc *webrtc.DataChannel

	rx        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewDataChannelSocket wraps dc. The channel should be created with
// Ordered=false and MaxRetransmits=0.
func NewDataChannelSocket(dc *webrtc.DataChannel) *DataChannelSocket {
	s := &DataChannelSocket{
		dc:   dc,
		rx:   make(chan []byte, rxQueue),
		done: make(chan struct{}),
	}

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		pkt := make([]byte, len(msg.Data))
		copy(pkt, msg.Data)
		select {
		case <-s.done:
		case s.rx <- pkt:
		default:
		}
	})
	dc.OnClose(func() {
		s.shutdown()
	})

	return s
}

// Open reports whether the channel can send.
func (s *DataChannelSocket) Open() bool {
	return s.dc.ReadyState() == webrtc.DataChannelStateOpen
}

func (s *DataChannelSocket) Send(b []byte) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if !s.Open() {
		return ErrNotOpen
	}
	if err := s.dc.Send(b); err != nil {
		return fmt.Errorf("data channel send: %w", err)
	}
	return nil
}

func (s *DataChannelSocket) Receive() ([]byte, error) {
	select {
	case pkt := <-s.rx:
		return pkt, nil
	case <-s.done:
		return nil, ErrClosed
	}
}

func (s *DataChannelSocket) Close() error {
	s.shutdown()
	return s.dc.Close()
}

func (s *DataChannelSocket) shutdown() {
	s.closeOnce.Do(func() { close(s.done) })
}
