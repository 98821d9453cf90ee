package pipeline

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/transport"
)

// DatagramHandler consumes raw datagrams.
type DatagramHandler interface {
	OnDatagram(b []byte)
}

// ReceiveLoop blocks on sock and hands every datagram to h until the socket
// is closed, then returns nil. Other receive errors are logged and skipped.
func ReceiveLoop(sock transport.Socket, h DatagramHandler, log *logrus.Entry) error {
	log = componentLog(log, "receiver")
	log.Info("receive loop started")
	for {
		b, err := sock.Receive()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				log.Info("socket closed, receive loop stopped")
				return nil
			}
			log.WithError(err).Warn("receive failed")
			continue
		}
		h.OnDatagram(b)
	}
}
