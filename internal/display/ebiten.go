package display

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/junsooki/airstream/internal/input"
)

// Window renders the remote screen using Ebitengine and captures input.
type Window struct {
	title   string
	onInput InputCallback

	mu          sync.Mutex
	frame       *image.RGBA
	dirty       bool
	ebitenImage *ebiten.Image

	presented atomic.Uint64
	closing   atomic.Bool

	prevX, prevY int
	havePrev     bool
}

// NewWindow creates an Ebitengine window. onInput may be nil.
func NewWindow(title string, onInput InputCallback) *Window {
	return &Window{
		title:   title,
		onInput: onInput,
	}
}

// Present replaces the displayed frame. Safe to call from any goroutine; the
// window keeps img until the next Present, so callers must not reuse it.
func (w *Window) Present(img *image.RGBA) {
	if img == nil {
		return
	}
	w.mu.Lock()
	w.frame = img
	w.dirty = true
	w.mu.Unlock()
	w.presented.Add(1)
}

// Presented returns the number of frames handed to Present.
func (w *Window) Presented() uint64 {
	return w.presented.Load()
}

// Close ends Run at the next update.
func (w *Window) Close() {
	w.closing.Store(true)
}

// Run starts the Ebitengine game loop and returns when the window is closed.
// Must be called from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle(w.title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(w)
}

// --- ebiten.Game interface ---

func (w *Window) Update() error {
	if w.closing.Load() {
		return ebiten.Termination
	}
	w.captureMouseInput()
	w.captureKeyboardInput()
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	frame, dirty := w.frame, w.dirty
	w.dirty = false
	w.mu.Unlock()

	if frame == nil {
		ebitenutil.DebugPrint(screen, "waiting for stream...")
		return
	}

	fb := frame.Bounds()
	if w.ebitenImage == nil ||
		w.ebitenImage.Bounds().Dx() != fb.Dx() ||
		w.ebitenImage.Bounds().Dy() != fb.Dy() {
		w.ebitenImage = ebiten.NewImage(fb.Dx(), fb.Dy())
		dirty = true
	}
	if dirty {
		w.ebitenImage.WritePixels(frame.Pix)
	}

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale, offsetX, offsetY := aspectFitTransform(float64(sw), float64(sh), float64(fb.Dx()), float64(fb.Dy()))

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(offsetX, offsetY)
	screen.DrawImage(w.ebitenImage, op)
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// --- Input capture ---

func (w *Window) frameSize() (float64, float64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.frame == nil {
		return 0, 0, false
	}
	b := w.frame.Bounds()
	return float64(b.Dx()), float64(b.Dy()), true
}

func (w *Window) captureMouseInput() {
	fw, fh, ok := w.frameSize()
	if !ok {
		return
	}
	mx, my := ebiten.CursorPosition()
	vw, vh := ebiten.WindowSize()

	if !w.havePrev || mx != w.prevX || my != w.prevY {
		w.prevX, w.prevY, w.havePrev = mx, my, true
		x, y := toRemote(mx, my, float64(vw), float64(vh), fw, fh)
		w.emit(input.PointerMove{X: x, Y: y})
	}

	buttons := []struct {
		eb  ebiten.MouseButton
		btn input.MouseButton
	}{
		{ebiten.MouseButtonLeft, input.MouseButtonLeft},
		{ebiten.MouseButtonRight, input.MouseButtonRight},
		{ebiten.MouseButtonMiddle, input.MouseButtonMiddle},
	}
	for _, b := range buttons {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			w.emit(input.Button{Button: b.btn, Pressed: true})
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			w.emit(input.Button{Button: b.btn, Pressed: false})
		}
	}

	if dx, dy := ebiten.Wheel(); dx != 0 || dy != 0 {
		w.emit(input.Scroll{DX: scrollPixels(dx), DY: scrollPixels(dy)})
	}
}

func (w *Window) captureKeyboardInput() {
	mods := currentModifiers()
	for k := ebiten.Key(0); k <= ebiten.KeyMax; k++ {
		code, ok := macKeyCodes[k]
		if !ok {
			continue
		}
		if inpututil.IsKeyJustPressed(k) {
			w.emit(input.Key{KeyCode: code, Pressed: true, Modifiers: mods})
		}
		if inpututil.IsKeyJustReleased(k) {
			w.emit(input.Key{KeyCode: code, Pressed: false, Modifiers: mods})
		}
	}
}

func (w *Window) emit(e input.Event) {
	if w.onInput != nil {
		w.onInput(e)
	}
}

func currentModifiers() input.Modifiers {
	var m input.Modifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		m |= input.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		m |= input.ModControl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		m |= input.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		m |= input.ModCommand
	}
	return m
}

// macKeyCodes maps Ebitengine keys to macOS virtual key codes. Keys not
// listed are not forwarded.
var macKeyCodes = map[ebiten.Key]uint16{
	ebiten.KeyA: 0x00, ebiten.KeyS: 0x01, ebiten.KeyD: 0x02, ebiten.KeyF: 0x03,
	ebiten.KeyH: 0x04, ebiten.KeyG: 0x05, ebiten.KeyZ: 0x06, ebiten.KeyX: 0x07,
	ebiten.KeyC: 0x08, ebiten.KeyV: 0x09, ebiten.KeyB: 0x0B, ebiten.KeyQ: 0x0C,
	ebiten.KeyW: 0x0D, ebiten.KeyE: 0x0E, ebiten.KeyR: 0x0F, ebiten.KeyY: 0x10,
	ebiten.KeyT: 0x11, ebiten.Key1: 0x12, ebiten.Key2: 0x13, ebiten.Key3: 0x14,
	ebiten.Key4: 0x15, ebiten.Key6: 0x16, ebiten.Key5: 0x17, ebiten.Key9: 0x19,
	ebiten.Key7: 0x1A, ebiten.Key8: 0x1C, ebiten.Key0: 0x1D, ebiten.KeyO: 0x1F,
	ebiten.KeyU: 0x20, ebiten.KeyI: 0x22, ebiten.KeyP: 0x23, ebiten.KeyL: 0x25,
	ebiten.KeyJ: 0x26, ebiten.KeyK: 0x28, ebiten.KeyN: 0x2D, ebiten.KeyM: 0x2E,
	ebiten.KeyMinus: 0x1B, ebiten.KeyEqual: 0x18, ebiten.KeyComma: 0x2B,
	ebiten.KeyPeriod: 0x2F, ebiten.KeySlash: 0x2C, ebiten.KeySemicolon: 0x29,
	ebiten.KeyQuote: 0x27, ebiten.KeyBracketLeft: 0x21, ebiten.KeyBracketRight: 0x1E,
	ebiten.KeyBackslash: 0x2A, ebiten.KeyBackquote: 0x32,
	ebiten.KeyEnter: 0x24, ebiten.KeyTab: 0x30, ebiten.KeySpace: 0x31,
	ebiten.KeyBackspace: 0x33, ebiten.KeyEscape: 0x35,
	ebiten.KeyShiftLeft: 0x38, ebiten.KeyShiftRight: 0x3C,
	ebiten.KeyControlLeft: 0x3B, ebiten.KeyControlRight: 0x3E,
	ebiten.KeyAltLeft: 0x3A, ebiten.KeyAltRight: 0x3D,
	ebiten.KeyMetaLeft: 0x37, ebiten.KeyMetaRight: 0x36,
	ebiten.KeyArrowLeft: 0x7B, ebiten.KeyArrowRight: 0x7C,
	ebiten.KeyArrowDown: 0x7D, ebiten.KeyArrowUp: 0x7E,
	ebiten.KeyF1: 0x7A, ebiten.KeyF2: 0x78, ebiten.KeyF3: 0x63, ebiten.KeyF4: 0x76,
	ebiten.KeyF5: 0x60, ebiten.KeyF6: 0x61, ebiten.KeyF7: 0x62, ebiten.KeyF8: 0x64,
	ebiten.KeyF9: 0x65, ebiten.KeyF10: 0x6D, ebiten.KeyF11: 0x67, ebiten.KeyF12: 0x6F,
	ebiten.KeyDelete: 0x75, ebiten.KeyHome: 0x73, ebiten.KeyEnd: 0x77,
	ebiten.KeyPageUp: 0x74, ebiten.KeyPageDown: 0x79,
}
