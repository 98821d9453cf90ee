package pipeline

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/airstream/internal/input"
	"github.com/junsooki/airstream/internal/wire"
)

// fragmentsOf packetizes payload with fragSize payload bytes per fragment.
func fragmentsOf(t *testing.T, seq uint32, payload []byte, fragSize int) [][]byte {
	t.Helper()
	sock := newFakeSocket()
	p, err := NewPacketizer(sock, fragSize+wire.MediaHeaderLen)
	require.NoError(t, err)
	require.NoError(t, p.SendFrame(seq, payload))
	return sock.Sent()
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDepacketizer(cfg DepacketizerConfig) (*Depacketizer, *recordingFrames, *recordingInjector, *fakeClock) {
	frames := &recordingFrames{}
	inj := &recordingInjector{}
	log, _ := nullLog()
	d := NewDepacketizer(frames, NewInputDispatcher(inj, log), cfg, log)
	clock := &fakeClock{now: time.Unix(1000, 0)}
	d.now = clock.Now
	return d, frames, inj, clock
}

func TestDepacketizer_ReassemblesAnyOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	payload := patternPayload(5000)

	for trial := 0; trial < 50; trial++ {
		d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})
		frags := fragmentsOf(t, uint32(trial), payload, 333)
		rng.Shuffle(len(frags), func(i, j int) { frags[i], frags[j] = frags[j], frags[i] })

		for _, f := range frags {
			d.OnDatagram(f)
		}

		got := frames.Frames()
		require.Len(t, got, 1, "trial %d", trial)
		assert.Equal(t, uint32(trial), got[0].seq)
		assert.Equal(t, payload, got[0].payload)
		assert.Zero(t, d.Pending())
	}
}

func TestDepacketizer_ReverseOrder9000Bytes(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})
	payload := patternPayload(9000)
	frags := fragmentsOf(t, 3, payload, 1400)
	require.Len(t, frags, 7)

	for i := len(frags) - 1; i >= 0; i-- {
		d.OnDatagram(frags[i])
	}

	got := frames.Frames()
	require.Len(t, got, 1)
	assert.Len(t, got[0].payload, 9000)
	assert.Equal(t, payload, got[0].payload)
}

func TestDepacketizer_ForwardsOnce(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})
	frags := fragmentsOf(t, 8, patternPayload(1000), 300)

	for _, f := range frags {
		d.OnDatagram(f)
		d.OnDatagram(f) // network duplicate
	}
	for _, f := range frags {
		d.OnDatagram(f) // late replay of the whole frame
	}

	assert.Len(t, frames.Frames(), 1)
	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Completed)
	assert.Equal(t, uint64(len(frags)-1), stats.Duplicates)
	assert.Zero(t, d.Pending())
}

func TestDepacketizer_StaleAfterNewerForwarded(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})

	five := fragmentsOf(t, 5, patternPayload(200), 100)
	require.Len(t, five, 2)
	four := fragmentsOf(t, 4, patternPayload(300), 100)

	d.OnDatagram(five[0])
	d.OnDatagram(five[1])
	require.Len(t, frames.Frames(), 1)

	d.OnDatagram(four[0])

	assert.Len(t, frames.Frames(), 1)
	assert.Equal(t, uint32(5), frames.Frames()[0].seq)
	assert.Zero(t, d.Pending(), "no buffer is created for a stale sequence number")
	assert.Equal(t, uint64(1), d.Stats().Stale)
}

func TestDepacketizer_MonotonicForwarding(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})

	for _, seq := range []uint32{1, 4, 2, 3, 9, 7} {
		for _, f := range fragmentsOf(t, seq, patternPayload(10), 100) {
			d.OnDatagram(f)
		}
	}

	var seqs []uint32
	for _, f := range frames.Frames() {
		seqs = append(seqs, f.seq)
	}
	assert.Equal(t, []uint32{1, 4, 9}, seqs)
	assert.Equal(t, uint64(3), d.Stats().Stale)
}

func TestDepacketizer_NewerFrameSupersedesPending(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})
	one := fragmentsOf(t, 1, patternPayload(200), 100)
	two := fragmentsOf(t, 2, patternPayload(50), 100)

	d.OnDatagram(one[0])
	require.Equal(t, 1, d.Pending())
	d.OnDatagram(two[0])
	d.OnDatagram(one[1])

	require.Len(t, frames.Frames(), 1)
	assert.Equal(t, uint32(2), frames.Frames()[0].seq)
	assert.Zero(t, d.Pending())
	assert.Equal(t, uint64(1), d.Stats().Superseded)
	assert.Equal(t, uint64(1), d.Stats().Stale)
}

func TestDepacketizer_IdleBufferEvicted(t *testing.T) {
	d, frames, _, clock := newTestDepacketizer(DepacketizerConfig{Timeout: 100 * time.Millisecond})
	frags := fragmentsOf(t, 10, patternPayload(300), 100)
	require.Len(t, frags, 3)

	d.OnDatagram(frags[0])
	d.OnDatagram(frags[1])
	clock.Advance(150 * time.Millisecond)
	d.OnDatagram(frags[2])

	assert.Empty(t, frames.Frames(), "evicted frame never completes")
	assert.Zero(t, d.Pending())
	assert.Equal(t, uint64(1), d.Stats().Evicted)

	// replaying every fragment does not resurrect it either
	for _, f := range frags {
		d.OnDatagram(f)
	}
	assert.Empty(t, frames.Frames())
}

func TestDepacketizer_ActivityKeepsBufferAlive(t *testing.T) {
	d, frames, _, clock := newTestDepacketizer(DepacketizerConfig{Timeout: 100 * time.Millisecond})
	frags := fragmentsOf(t, 10, patternPayload(300), 100)

	for _, f := range frags {
		clock.Advance(80 * time.Millisecond)
		d.OnDatagram(f)
	}

	assert.Len(t, frames.Frames(), 1)
	assert.Zero(t, d.Stats().Evicted)
}

func TestDepacketizer_IdleEvictionOnOtherTraffic(t *testing.T) {
	d, frames, _, clock := newTestDepacketizer(DepacketizerConfig{Timeout: 100 * time.Millisecond})
	stuck := fragmentsOf(t, 20, patternPayload(200), 100)
	d.OnDatagram(stuck[0])

	clock.Advance(time.Second)
	d.OnDatagram(fragmentsOf(t, 30, patternPayload(500), 100)[0])

	assert.Equal(t, 1, d.Pending(), "only the fresh buffer remains")
	assert.Equal(t, uint64(1), d.Stats().Evicted)
	assert.Empty(t, frames.Frames())
}

func TestDepacketizer_PendingLimitEvictsOldest(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{MaxPending: 2})
	a := fragmentsOf(t, 1, patternPayload(200), 100)
	b := fragmentsOf(t, 2, patternPayload(200), 100)
	c := fragmentsOf(t, 3, patternPayload(200), 100)

	d.OnDatagram(a[0])
	d.OnDatagram(b[0])
	d.OnDatagram(c[0])

	assert.Equal(t, 2, d.Pending())
	assert.Equal(t, uint64(1), d.Stats().Evicted)

	d.OnDatagram(a[1])
	d.OnDatagram(b[1])
	require.Len(t, frames.Frames(), 1)
	assert.Equal(t, uint32(2), frames.Frames()[0].seq)
}

func TestDepacketizer_CountMismatchDropped(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})

	d.OnDatagram(wire.AppendFragment(nil, wire.Fragment{Seq: 1, Index: 0, Count: 2, Payload: []byte("a")}))
	d.OnDatagram(wire.AppendFragment(nil, wire.Fragment{Seq: 1, Index: 1, Count: 3, Payload: []byte("b")}))

	assert.Empty(t, frames.Frames())
	assert.Equal(t, uint64(1), d.Stats().Malformed)
}

func TestDepacketizer_MalformedDatagram(t *testing.T) {
	d, frames, inj, _ := newTestDepacketizer(DepacketizerConfig{})

	d.OnDatagram(nil)
	d.OnDatagram([]byte{0, 1, 2})
	d.OnDatagram([]byte{9})
	d.OnDatagram([]byte{1, 0, 1})

	assert.Empty(t, frames.Frames())
	assert.Empty(t, inj.Events())
	assert.Equal(t, uint64(4), d.Stats().Malformed)
}

func TestDepacketizer_ControlRoutedImmediately(t *testing.T) {
	d, frames, inj, _ := newTestDepacketizer(DepacketizerConfig{})
	frags := fragmentsOf(t, 1, patternPayload(200), 100)
	ctrl, err := wire.MarshalControl(input.Key{KeyCode: 0x31, Pressed: true})
	require.NoError(t, err)

	d.OnDatagram(frags[0])
	d.OnDatagram(ctrl)

	assert.Equal(t, []input.Event{input.Key{KeyCode: 0x31, Pressed: true}}, inj.Events())
	assert.Empty(t, frames.Frames())
	assert.Equal(t, 1, d.Pending(), "control does not disturb reassembly")
}

func TestDepacketizer_SequenceWraparound(t *testing.T) {
	d, frames, _, _ := newTestDepacketizer(DepacketizerConfig{})

	for _, seq := range []uint32{math.MaxUint32 - 1, math.MaxUint32, 0, 1} {
		for _, f := range fragmentsOf(t, seq, patternPayload(150), 100) {
			d.OnDatagram(f)
		}
	}
	for _, f := range fragmentsOf(t, math.MaxUint32, patternPayload(150), 100) {
		d.OnDatagram(f)
	}

	require.Len(t, frames.Frames(), 4)
	assert.Equal(t, uint32(1), frames.Frames()[3].seq)
	assert.Equal(t, uint64(2), d.Stats().Stale)
}

func TestDepacketizer_NilHandlersIgnore(t *testing.T) {
	log, _ := nullLog()
	d := NewDepacketizer(nil, nil, DepacketizerConfig{}, log)
	ctrl, err := wire.MarshalControl(input.PointerMove{X: 1, Y: 2})
	require.NoError(t, err)

	d.OnDatagram(fragmentsOf(t, 1, patternPayload(10), 100)[0])
	d.OnDatagram(ctrl)

	assert.Equal(t, uint64(2), d.Stats().Ignored)
	assert.Zero(t, d.Pending())
}
