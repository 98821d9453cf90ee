package peer

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	kind    string
	target  string
	payload json.RawMessage
}

type fakeSignaler struct {
	mu   sync.Mutex
	msgs []sent
}

func (f *fakeSignaler) record(kind, target string, payload json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{kind, target, payload})
	return nil
}

func (f *fakeSignaler) SendOffer(target string, p json.RawMessage) error {
	return f.record("offer", target, p)
}

func (f *fakeSignaler) SendAnswer(target string, p json.RawMessage) error {
	return f.record("answer", target, p)
}

func (f *fakeSignaler) SendICECandidate(target string, p json.RawMessage) error {
	return f.record("ice", target, p)
}

func (f *fakeSignaler) first(kind string) (sent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.kind == kind {
			return m, true
		}
	}
	return sent{}, false
}

func testLog() *logrus.Entry {
	logger, _ := logtest.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestOfferAnswer(t *testing.T) {
	viewerSig, hostSig := &fakeSignaler{}, &fakeSignaler{}

	viewer, err := NewViewer(viewerSig, "host-1", testLog())
	require.NoError(t, err)
	defer viewer.Close()
	host, err := NewHost(hostSig, testLog())
	require.NoError(t, err)
	defer host.Close()

	require.NoError(t, viewer.Connect())
	offer, ok := viewerSig.first("offer")
	require.True(t, ok)
	assert.Equal(t, "host-1", offer.target)

	var desc webrtc.SessionDescription
	require.NoError(t, json.Unmarshal(offer.payload, &desc))
	assert.Equal(t, webrtc.SDPTypeOffer, desc.Type)
	assert.Contains(t, desc.SDP, "m=application")

	require.NoError(t, host.HandleOffer("viewer-1", offer.payload))
	assert.Equal(t, "viewer-1", host.Viewer())
	answer, ok := hostSig.first("answer")
	require.True(t, ok)
	assert.Equal(t, "viewer-1", answer.target)

	require.NoError(t, viewer.HandleAnswer(answer.payload))
}

func TestHandleICECandidate_QueuedBeforeDescription(t *testing.T) {
	host, err := NewHost(&fakeSignaler{}, testLog())
	require.NoError(t, err)
	defer host.Close()

	cand, err := json.Marshal(webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 2130706431 192.0.2.1 50000 typ host"})
	require.NoError(t, err)

	require.NoError(t, host.HandleICECandidate(cand))
	host.mu.Lock()
	assert.Len(t, host.candQueue, 1)
	host.mu.Unlock()
}

func TestMalformedPayloads(t *testing.T) {
	host, err := NewHost(&fakeSignaler{}, testLog())
	require.NoError(t, err)
	defer host.Close()
	viewer, err := NewViewer(&fakeSignaler{}, "h", nil)
	require.NoError(t, err)
	defer viewer.Close()

	assert.Error(t, host.HandleOffer("v", json.RawMessage(`not json`)))
	assert.Error(t, host.HandleICECandidate(json.RawMessage(`[`)))
	assert.Error(t, viewer.HandleAnswer(json.RawMessage(`{"type":`)))
}

func TestSocketNotOpenBeforeConnect(t *testing.T) {
	viewer, err := NewViewer(&fakeSignaler{}, "h", testLog())
	require.NoError(t, err)
	defer viewer.Close()

	assert.False(t, viewer.Socket().Open())
	select {
	case <-viewer.Open():
		t.Fatal("data channel open without a connection")
	default:
	}
}
