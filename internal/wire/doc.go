// Package wire defines the datagram framing shared by the sender and the
// receiver.
//
// Every datagram starts with a one byte type discriminator. Media datagrams
// carry one fragment of a compressed frame:
//
//	0      type (0 = media)
//	1..4   sequence number, uint32
//	5..6   fragment index, uint16
//	7..8   fragment count, uint16
//	9..    fragment payload
//
// Control datagrams carry one input event:
//
//	0      type (1 = control)
//	1      kind (0 = pointer move, 1 = button, 2 = key, 3 = scroll)
//	2..    kind specific fixed fields
//
// All integers are big-endian.
package wire
