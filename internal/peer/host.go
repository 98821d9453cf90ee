package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// Host is the streaming server side. It answers an offer from one viewer.
type Host struct {
	*session
}

// NewHost creates a Host waiting for an offer.
func NewHost(sig Signaler, log *logrus.Entry) (*Host, error) {
	s, err := newSession(sig, "", entry(log).WithField("side", "host"))
	if err != nil {
		return nil, err
	}
	return &Host{session: s}, nil
}

// Viewer returns the ID of the viewer being answered, if any.
func (h *Host) Viewer() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remote
}

// HandleOffer processes an incoming offer from a viewer.
func (h *Host) HandleOffer(from string, payload json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return err
	}

	h.mu.Lock()
	h.remote = from
	h.mu.Unlock()

	if err := h.setRemoteDescription(offer); err != nil {
		return err
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return h.sig.SendAnswer(from, answerJSON)
}
