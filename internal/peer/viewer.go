package peer

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// Viewer is the client side. It offers to a host by ID.
type Viewer struct {
	*session
	hostID string
}

// NewViewer creates a Viewer for hostID.
func NewViewer(sig Signaler, hostID string, log *logrus.Entry) (*Viewer, error) {
	s, err := newSession(sig, hostID, entry(log).WithFields(logrus.Fields{"side": "viewer", "host": hostID}))
	if err != nil {
		return nil, err
	}
	return &Viewer{session: s, hostID: hostID}, nil
}

// Connect creates and sends the offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return err
	}
	if err := v.pc.SetLocalDescription(offer); err != nil {
		return err
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return v.sig.SendOffer(v.hostID, offerJSON)
}

// HandleAnswer processes the host's SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return err
	}
	return v.setRemoteDescription(answer)
}
