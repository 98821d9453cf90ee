// Package pipeline carries compressed frames and input events between two
// hosts over one unreliable datagram socket.
//
// The sending side runs a Producer on a fixed cadence that captures, encodes
// and hands each payload to a Packetizer, which fragments it into media
// datagrams. Input events go out through an InputSender as control
// datagrams on the same socket.
//
// The receiving side runs ReceiveLoop, which feeds every datagram to a
// Depacketizer. It reassembles fragments into payloads for a Consumer
// (decode and present) and routes control datagrams to an InputDispatcher
// (inject). Incomplete and stale frames are dropped, never retried.
//
// Sender and receiver state are disjoint; each side is driven by exactly one
// goroutine and needs no locks. Only the socket is shared.
package pipeline

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// ErrPayloadTooLarge is returned when a payload needs more fragments than
// the fragment count field can express.
var ErrPayloadTooLarge = errors.New("payload too large to fragment")

func componentLog(log *logrus.Entry, name string) *logrus.Entry {
	if log == nil {
		return logrus.WithField("component", name)
	}
	return log.WithField("component", name)
}
