package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/junsooki/airstream/internal/input"
)

// Type is the datagram type discriminator.
type Type uint8

const (
	TypeMedia   Type = 0
	TypeControl Type = 1
)

func (t Type) String() string {
	switch t {
	case TypeMedia:
		return "media"
	case TypeControl:
		return "control"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// MediaHeaderLen is the envelope overhead of a media datagram.
const MediaHeaderLen = 9

// MaxFragments is the largest fragment count a frame can be split into.
const MaxFragments = 1<<16 - 1

// Fragment is one slice of a compressed frame payload.
type Fragment struct {
	Seq     uint32
	Index   uint16
	Count   uint16
	Payload []byte
}

// Envelope is a decoded datagram. Fragment is set for media datagrams,
// Control for control datagrams.
type Envelope struct {
	Type     Type
	Fragment Fragment
	Control  input.Event
}

// AppendFragment appends the media datagram for f to dst.
func AppendFragment(dst []byte, f Fragment) []byte {
	dst = append(dst, byte(TypeMedia))
	dst = binary.BigEndian.AppendUint32(dst, f.Seq)
	dst = binary.BigEndian.AppendUint16(dst, f.Index)
	dst = binary.BigEndian.AppendUint16(dst, f.Count)
	return append(dst, f.Payload...)
}

// Decode parses one datagram. The returned fragment payload aliases b.
func Decode(b []byte) (Envelope, error) {
	if len(b) < 1 {
		return Envelope{}, ErrShortDatagram
	}
	switch Type(b[0]) {
	case TypeMedia:
		f, err := decodeFragment(b)
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Type: TypeMedia, Fragment: f}, nil
	case TypeControl:
		e, err := decodeControl(b)
		if err != nil {
			return Envelope{}, err
		}
		return Envelope{Type: TypeControl, Control: e}, nil
	}
	return Envelope{}, fmt.Errorf("%w: %d", ErrUnknownType, b[0])
}

func decodeFragment(b []byte) (Fragment, error) {
	if len(b) < MediaHeaderLen {
		return Fragment{}, fmt.Errorf("%w: media datagram of %d bytes", ErrShortDatagram, len(b))
	}
	f := Fragment{
		Seq:     binary.BigEndian.Uint32(b[1:5]),
		Index:   binary.BigEndian.Uint16(b[5:7]),
		Count:   binary.BigEndian.Uint16(b[7:9]),
		Payload: b[MediaHeaderLen:],
	}
	if f.Count == 0 || f.Index >= f.Count {
		return Fragment{}, fmt.Errorf("%w: index %d count %d", ErrBadFragment, f.Index, f.Count)
	}
	return f, nil
}
