//go:build darwin

package input

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>

static CGPoint cursorLocation(void) {
    CGEventRef event = CGEventCreate(NULL);
    CGPoint p = CGEventGetLocation(event);
    CFRelease(event);
    return p;
}

void moveMouse(int x, int y, int held) {
    CGEventType type = kCGEventMouseMoved;
    CGMouseButton btn = kCGMouseButtonLeft;
    switch (held) {
        case 0:  type = kCGEventLeftMouseDragged;  btn = kCGMouseButtonLeft;   break;
        case 1:  type = kCGEventRightMouseDragged; btn = kCGMouseButtonRight;  break;
        case 2:  type = kCGEventOtherMouseDragged; btn = kCGMouseButtonCenter; break;
    }
    CGEventRef event = CGEventCreateMouseEvent(NULL, type, CGPointMake(x, y), btn);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

void mouseButton(int button, int pressed) {
    CGEventType type;
    CGMouseButton btn;
    switch (button) {
        case 1:  type = pressed ? kCGEventRightMouseDown : kCGEventRightMouseUp; btn = kCGMouseButtonRight;  break;
        case 2:  type = pressed ? kCGEventOtherMouseDown : kCGEventOtherMouseUp; btn = kCGMouseButtonCenter; break;
        default: type = pressed ? kCGEventLeftMouseDown  : kCGEventLeftMouseUp;  btn = kCGMouseButtonLeft;   break;
    }
    CGEventRef event = CGEventCreateMouseEvent(NULL, type, cursorLocation(), btn);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

void mouseScroll(int dx, int dy) {
    CGEventRef event = CGEventCreateScrollWheelEvent(NULL,
        kCGScrollEventUnitPixel, 2, dy, dx);
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}

void keyEvent(CGKeyCode keyCode, int pressed, CGEventFlags flags) {
    CGEventRef event = CGEventCreateKeyboardEvent(NULL, keyCode, pressed ? true : false);
    if (flags) {
        CGEventSetFlags(event, flags);
    }
    CGEventPost(kCGHIDEventTap, event);
    CFRelease(event);
}
*/
import "C"

import "fmt"

// CGEventInjector injects input via CoreGraphics CGEvent APIs.
type CGEventInjector struct {
	// held is the button currently down, -1 for none. Moves while a button
	// is held are posted as drags.
	held int
}

func NewCGEventInjector() *CGEventInjector {
	return &CGEventInjector{held: -1}
}

// NewSystemInjector returns the CoreGraphics injection backend.
func NewSystemInjector() (Injector, error) {
	return NewCGEventInjector(), nil
}

func (inj *CGEventInjector) Inject(e Event) error {
	switch ev := e.(type) {
	case PointerMove:
		C.moveMouse(C.int(ev.X), C.int(ev.Y), C.int(inj.held))
	case Button:
		if ev.Pressed {
			inj.held = int(ev.Button)
		} else if inj.held == int(ev.Button) {
			inj.held = -1
		}
		C.mouseButton(C.int(ev.Button), boolInt(ev.Pressed))
	case Scroll:
		C.mouseScroll(C.int(ev.DX), C.int(ev.DY))
	case Key:
		C.keyEvent(C.CGKeyCode(ev.KeyCode), boolInt(ev.Pressed), C.CGEventFlags(modifiersToFlags(ev.Modifiers)))
	default:
		return fmt.Errorf("unsupported input event %T", e)
	}
	return nil
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

func modifiersToFlags(m Modifiers) uint64 {
	var flags uint64
	if m&ModShift != 0 {
		flags |= 0x00020000 // kCGEventFlagMaskShift
	}
	if m&ModControl != 0 {
		flags |= 0x00040000 // kCGEventFlagMaskControl
	}
	if m&ModAlt != 0 {
		flags |= 0x00080000 // kCGEventFlagMaskAlternate
	}
	if m&ModCommand != 0 {
		flags |= 0x00100000 // kCGEventFlagMaskCommand
	}
	return flags
}
