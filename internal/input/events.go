package input

import "fmt"

// Event is one local pointer or keyboard event. Implementations are
// PointerMove, Button, Key and Scroll.
type Event interface {
	fmt.Stringer
	isEvent()
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)

// Modifiers is a bitfield of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModCommand
)

// PointerMove moves the pointer to absolute surface coordinates.
type PointerMove struct {
	X int32
	Y int32
}

// Button presses or releases a mouse button at the current pointer position.
type Button struct {
	Button  MouseButton
	Pressed bool
}

// Key presses or releases a key. KeyCode is a macOS virtual key code.
type Key struct {
	KeyCode   uint16
	Pressed   bool
	Modifiers Modifiers
}

// Scroll scrolls by a pixel delta.
type Scroll struct {
	DX int16
	DY int16
}

func (PointerMove) isEvent() {}
func (Button) isEvent()      {}
func (Key) isEvent()         {}
func (Scroll) isEvent()      {}

func (e PointerMove) String() string { return fmt.Sprintf("pointer_move(%d,%d)", e.X, e.Y) }

func (e Button) String() string {
	return fmt.Sprintf("button(%d,%s)", e.Button, pressedString(e.Pressed))
}

func (e Key) String() string {
	return fmt.Sprintf("key(0x%02x,%s,mods=%d)", e.KeyCode, pressedString(e.Pressed), e.Modifiers)
}

func (e Scroll) String() string { return fmt.Sprintf("scroll(%d,%d)", e.DX, e.DY) }

func pressedString(p bool) string {
	if p {
		return "down"
	}
	return "up"
}
