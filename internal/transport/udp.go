package transport

import (
	"errors"
	"fmt"
	"net"
	"sync"
)

// maxUDPDatagram is the largest UDP payload over IPv4.
const maxUDPDatagram = 65507

// UDPSocket is a Socket over one bound UDP endpoint. When no remote address
// is given the peer is learned from inbound datagrams; the most recent sender
// wins.
type UDPSocket struct {
	conn *net.UDPConn
	buf  []byte

	mu    sync.RWMutex
	peer  *net.UDPAddr
	fixed bool
}

// ListenUDP binds local and, if remote is non-empty, sends to remote. A bind
// failure is returned as is and is fatal for the caller.
func ListenUDP(local, remote string) (*UDPSocket, error) {
	laddr, err := net.ResolveUDPAddr("udp", local)
	if err != nil {
		return nil, fmt.Errorf("resolve local %q: %w", local, err)
	}

	s := &UDPSocket{buf: make([]byte, maxUDPDatagram)}
	if remote != "" {
		raddr, err := net.ResolveUDPAddr("udp", remote)
		if err != nil {
			return nil, fmt.Errorf("resolve remote %q: %w", remote, err)
		}
		s.peer = raddr
		s.fixed = true
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", local, err)
	}
	s.conn = conn
	return s, nil
}

// LocalAddr returns the bound address.
func (s *UDPSocket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Peer returns the current remote address, or nil if none is known.
func (s *UDPSocket) Peer() *net.UDPAddr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.peer
}

func (s *UDPSocket) Send(b []byte) error {
	peer := s.Peer()
	if peer == nil {
		return ErrNoPeer
	}
	if _, err := s.conn.WriteToUDP(b, peer); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("udp send: %w", err)
	}
	return nil
}

// Receive must only be called from one goroutine at a time.
func (s *UDPSocket) Receive() ([]byte, error) {
	n, from, err := s.conn.ReadFromUDP(s.buf)
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("udp receive: %w", err)
	}

	if !s.fixed {
		s.mu.Lock()
		if s.peer == nil || !s.peer.IP.Equal(from.IP) || s.peer.Port != from.Port {
			s.peer = from
		}
		s.mu.Unlock()
	}

	pkt := make([]byte, n)
	copy(pkt, s.buf[:n])
	return pkt, nil
}

func (s *UDPSocket) Close() error {
	return s.conn.Close()
}
