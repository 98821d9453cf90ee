package transport

import "errors"

// Socket is an unreliable datagram endpoint. Datagrams may be lost,
// reordered or duplicated; nothing is retried. Send and Receive may be called
// concurrently from different goroutines.
type Socket interface {
	// Send transmits one datagram to the peer.
	Send(b []byte) error
	// Receive blocks until a datagram arrives or the socket is closed, in
	// which case it returns ErrClosed.
	Receive() ([]byte, error)
	// Close releases the socket and unblocks Receive.
	Close() error
}

var (
	// ErrClosed is returned by Receive and Send once the socket is closed.
	ErrClosed = errors.New("socket closed")

	// ErrNoPeer indicates the remote address is not known yet.
	ErrNoPeer = errors.New("peer address unknown")

	// ErrNotOpen indicates the underlying channel is not open yet.
	ErrNotOpen = errors.New("channel not open")
)
