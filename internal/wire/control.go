package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/junsooki/airstream/internal/input"
)

// ControlKind identifies the event carried by a control datagram.
type ControlKind uint8

const (
	KindPointerMove ControlKind = 0
	KindButton      ControlKind = 1
	KindKey         ControlKind = 2
	KindScroll      ControlKind = 3
)

// controlHeaderLen covers the type and kind bytes.
const controlHeaderLen = 2

var controlBodyLen = map[ControlKind]int{
	KindPointerMove: 8, // x int32, y int32
	KindButton:      2, // button uint8, pressed uint8
	KindKey:         4, // keycode uint16, pressed uint8, modifiers uint8
	KindScroll:      4, // dx int16, dy int16
}

// AppendControl appends the control datagram for e to dst.
func AppendControl(dst []byte, e input.Event) ([]byte, error) {
	switch ev := e.(type) {
	case input.PointerMove:
		dst = append(dst, byte(TypeControl), byte(KindPointerMove))
		dst = binary.BigEndian.AppendUint32(dst, uint32(ev.X))
		dst = binary.BigEndian.AppendUint32(dst, uint32(ev.Y))
	case input.Button:
		dst = append(dst, byte(TypeControl), byte(KindButton), byte(ev.Button), boolByte(ev.Pressed))
	case input.Key:
		dst = append(dst, byte(TypeControl), byte(KindKey))
		dst = binary.BigEndian.AppendUint16(dst, ev.KeyCode)
		dst = append(dst, boolByte(ev.Pressed), byte(ev.Modifiers))
	case input.Scroll:
		dst = append(dst, byte(TypeControl), byte(KindScroll))
		dst = binary.BigEndian.AppendUint16(dst, uint16(ev.DX))
		dst = binary.BigEndian.AppendUint16(dst, uint16(ev.DY))
	default:
		return dst, fmt.Errorf("%w: %T", ErrUnknownControlKind, e)
	}
	return dst, nil
}

// MarshalControl returns the control datagram for e.
func MarshalControl(e input.Event) ([]byte, error) {
	return AppendControl(make([]byte, 0, controlHeaderLen+8), e)
}

func decodeControl(b []byte) (input.Event, error) {
	if len(b) < controlHeaderLen {
		return nil, fmt.Errorf("%w: control datagram of %d bytes", ErrShortDatagram, len(b))
	}
	kind := ControlKind(b[1])
	want, ok := controlBodyLen[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownControlKind, b[1])
	}
	body := b[controlHeaderLen:]
	if len(body) != want {
		return nil, fmt.Errorf("%w: kind %d has %d bytes, want %d", ErrBadControlBody, kind, len(body), want)
	}

	switch kind {
	case KindPointerMove:
		return input.PointerMove{
			X: int32(binary.BigEndian.Uint32(body[0:4])),
			Y: int32(binary.BigEndian.Uint32(body[4:8])),
		}, nil
	case KindButton:
		pressed, err := parseBool(body[1])
		if err != nil {
			return nil, err
		}
		return input.Button{Button: input.MouseButton(body[0]), Pressed: pressed}, nil
	case KindKey:
		pressed, err := parseBool(body[2])
		if err != nil {
			return nil, err
		}
		return input.Key{
			KeyCode:   binary.BigEndian.Uint16(body[0:2]),
			Pressed:   pressed,
			Modifiers: input.Modifiers(body[3]),
		}, nil
	default: // KindScroll
		return input.Scroll{
			DX: int16(binary.BigEndian.Uint16(body[0:2])),
			DY: int16(binary.BigEndian.Uint16(body[2:4])),
		}, nil
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func parseBool(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("%w: boolean byte %d", ErrBadControlBody, b)
}
