package pipeline

import (
	"errors"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/junsooki/airstream/internal/capture"
	"github.com/junsooki/airstream/internal/input"
	"github.com/junsooki/airstream/internal/transport"
)

func nullLog() (*logrus.Entry, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

// fakeSocket records sent datagrams and serves queued inbound ones.
type fakeSocket struct {
	mu      sync.Mutex
	sent    [][]byte
	sendErr error

	rx        chan []byte
	rxErr     chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		rx:     make(chan []byte, 64),
		rxErr:  make(chan error, 4),
		closed: make(chan struct{}),
	}
}

func (s *fakeSocket) Send(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, append([]byte(nil), b...))
	return nil
}

func (s *fakeSocket) Receive() ([]byte, error) {
	select {
	case b := <-s.rx:
		return b, nil
	case err := <-s.rxErr:
		return nil, err
	case <-s.closed:
		return nil, transport.ErrClosed
	}
}

func (s *fakeSocket) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSocket) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

// fakeCapturer fails on the listed tick numbers (0-based).
type fakeCapturer struct {
	calls  int
	failOn map[int]bool
	img    *image.RGBA
}

var errCapture = errors.New("capture backend unavailable")

func (c *fakeCapturer) CaptureFrame() (*capture.Frame, error) {
	n := c.calls
	c.calls++
	if c.failOn[n] {
		return nil, errCapture
	}
	img := c.img
	if img == nil {
		img = image.NewRGBA(image.Rect(0, 0, 4, 4))
	}
	return &capture.Frame{Image: img}, nil
}

// fakeEncoder returns chunks chunks of one byte each, or err.
type fakeEncoder struct {
	chunks int
	err    error
	calls  int
}

func (e *fakeEncoder) Encode(img *image.RGBA) ([][]byte, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]byte, e.chunks)
	for i := range out {
		out[i] = []byte{byte(e.calls), byte(i)}
	}
	return out, nil
}

type sentFrame struct {
	seq     uint32
	payload []byte
}

// recordingSender records SendFrame calls.
type recordingSender struct {
	frames []sentFrame
	err    error
}

func (s *recordingSender) SendFrame(seq uint32, payload []byte) error {
	s.frames = append(s.frames, sentFrame{seq: seq, payload: payload})
	return s.err
}

func (s *recordingSender) seqs() []uint32 {
	out := make([]uint32, 0, len(s.frames))
	for _, f := range s.frames {
		out = append(out, f.seq)
	}
	return out
}

// recordingFrames records forwarded payloads.
type recordingFrames struct {
	mu     sync.Mutex
	frames []sentFrame
}

func (r *recordingFrames) OnCompressedFrame(seq uint32, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, sentFrame{seq: seq, payload: payload})
}

func (r *recordingFrames) Frames() []sentFrame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentFrame(nil), r.frames...)
}

// recordingInjector records injected events.
type recordingInjector struct {
	mu     sync.Mutex
	events []input.Event
	err    error
}

func (r *recordingInjector) Inject(e input.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingInjector) Events() []input.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]input.Event(nil), r.events...)
}

// fakeDecoder decodes payloads starting with 'F' into a 2x2 frame, treats
// 'B' as buffered and everything else as corrupt.
type fakeDecoder struct {
	resets   int
	resetErr error
}

var errCorrupt = errors.New("corrupt bitstream")

func (d *fakeDecoder) Decode(data []byte) (*image.RGBA, error) {
	if len(data) > 0 && data[0] == 'F' {
		return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
	}
	if len(data) > 0 && data[0] == 'B' {
		return nil, nil
	}
	return nil, errCorrupt
}

func (d *fakeDecoder) Reset() error {
	d.resets++
	return d.resetErr
}

// recordingSink records presented frames.
type recordingSink struct {
	mu     sync.Mutex
	frames []*image.RGBA
}

func (s *recordingSink) Present(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, img)
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *recordingSink) Last() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}
