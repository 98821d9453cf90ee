// Package signaling exchanges WebRTC session descriptions and ICE candidates
// between a streaming server and its clients through a WebSocket relay.
package signaling

import "encoding/json"

// Message types for signaling protocol.
const (
	TypeRegister         = "register"
	TypeRegistered       = "registered"
	TypeListHosts        = "list-hosts"
	TypeHosts            = "hosts"
	TypeHostsUpdated     = "hosts-updated"
	TypeOffer            = "offer"
	TypeAnswer           = "answer"
	TypeICECandidate     = "ice-candidate"
	TypePing             = "ping"
	TypePong             = "pong"
	TypeError            = "error"
	TypeHostDisconnected = "host-disconnected"
)

// Roles a peer registers with. A host publishes a stream under its ID;
// viewers connect to a host by ID.
const (
	RoleHost   = "host"
	RoleViewer = "viewer"
)

// Message is the envelope for all signaling messages.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Role      string          `json:"role,omitempty"`
	From      string          `json:"from,omitempty"`
	Target    string          `json:"target,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	List      []HostInfo      `json:"list,omitempty"`
	HostID    string          `json:"hostId,omitempty"`
	Msg       string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// HostInfo describes a registered host.
type HostInfo struct {
	ID      string `json:"id"`
	Viewers int    `json:"viewers"`
}
