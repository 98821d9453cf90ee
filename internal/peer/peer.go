// Package peer sets up the WebRTC connection behind the webrtc transport.
// Both sides pre-negotiate one unordered data channel with retransmissions
// disabled, which behaves as an unreliable datagram socket.
package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/airstream/internal/transport"
)

// StreamLabel is the label of the shared data channel.
const StreamLabel = "stream"

// streamChannelID is the pre-negotiated SCTP stream ID of the data channel.
const streamChannelID uint16 = 0

// Signaler carries session descriptions and candidates to the remote peer.
type Signaler interface {
	SendOffer(target string, payload json.RawMessage) error
	SendAnswer(target string, payload json.RawMessage) error
	SendICECandidate(target string, payload json.RawMessage) error
}

// ICEServers is empty: only host candidates are gathered.
var ICEServers []webrtc.ICEServer

func entry(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return log
}

// session is the state shared by Host and Viewer.
type session struct {
	pc     *webrtc.PeerConnection
	sig    Signaler
	socket *transport.DataChannelSocket
	log    *logrus.Entry

	open      chan struct{}
	failed    chan struct{}
	openOnce  sync.Once
	closeOnce sync.Once

	mu        sync.Mutex
	remote    string
	haveSDP   bool
	candQueue []webrtc.ICECandidateInit
}

func newSession(sig Signaler, remote string, log *logrus.Entry) (*session, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: ICEServers})
	if err != nil {
		return nil, err
	}

	negotiated := true
	ordered := false
	maxRetransmits := uint16(0)
	id := streamChannelID
	dc, err := pc.CreateDataChannel(StreamLabel, &webrtc.DataChannelInit{
		Negotiated:     &negotiated,
		ID:             &id,
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}

	s := &session{
		pc:     pc,
		sig:    sig,
		socket: transport.NewDataChannelSocket(dc),
		log:    log.WithField("component", "peer"),
		open:   make(chan struct{}),
		failed: make(chan struct{}),
		remote: remote,
	}

	dc.OnOpen(func() {
		s.log.Info("stream data channel open")
		s.openOnce.Do(func() { close(s.open) })
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		s.log.WithField("state", state.String()).Info("peer connection state changed")
		switch state {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			s.closeOnce.Do(func() { close(s.failed) })
		}
	})
	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		s.mu.Lock()
		remote := s.remote
		s.mu.Unlock()
		if remote == "" {
			return
		}
		data, err := json.Marshal(c.ToJSON())
		if err != nil {
			s.log.WithError(err).Warn("marshal ICE candidate")
			return
		}
		if err := sig.SendICECandidate(remote, data); err != nil {
			s.log.WithError(err).Warn("send ICE candidate")
		}
	})
	return s, nil
}

// Socket returns the data channel as a transport socket.
func (s *session) Socket() *transport.DataChannelSocket {
	return s.socket
}

// Open is closed once the data channel can carry datagrams.
func (s *session) Open() <-chan struct{} {
	return s.open
}

// Failed is closed when the peer connection fails or closes.
func (s *session) Failed() <-chan struct{} {
	return s.failed
}

// HandleICECandidate adds a remote ICE candidate. Candidates that arrive
// before the remote description are queued.
func (s *session) HandleICECandidate(payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	s.mu.Lock()
	if !s.haveSDP {
		s.candQueue = append(s.candQueue, candidate)
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.pc.AddICECandidate(candidate)
}

func (s *session) setRemoteDescription(desc webrtc.SessionDescription) error {
	if err := s.pc.SetRemoteDescription(desc); err != nil {
		return err
	}
	s.mu.Lock()
	s.haveSDP = true
	queued := s.candQueue
	s.candQueue = nil
	s.mu.Unlock()

	for _, c := range queued {
		if err := s.pc.AddICECandidate(c); err != nil {
			s.log.WithError(err).Warn("add queued ICE candidate")
		}
	}
	return nil
}

// Close shuts down the peer connection.
func (s *session) Close() {
	s.socket.Close()
	s.pc.Close()
}
