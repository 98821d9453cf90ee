package wire

import "errors"

var (
	// ErrShortDatagram indicates a datagram shorter than its header.
	ErrShortDatagram = errors.New("short datagram")

	// ErrUnknownType indicates an unrecognised type discriminator.
	ErrUnknownType = errors.New("unknown datagram type")

	// ErrUnknownControlKind indicates an unrecognised control message kind.
	ErrUnknownControlKind = errors.New("unknown control kind")

	// ErrBadControlBody indicates a control body of the wrong length or with
	// an invalid field value.
	ErrBadControlBody = errors.New("bad control body")

	// ErrBadFragment indicates inconsistent fragment index/count fields.
	ErrBadFragment = errors.New("bad fragment header")
)
