package signaling

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// readWait must exceed the client ping interval.
const readWait = 60 * time.Second

// Server is the signaling relay. Hosts register under a unique ID; viewers
// address offers to a host ID and the relay forwards messages between them,
// stamping From with the sender's ID.
type Server struct {
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[string]*relayPeer
}

type relayPeer struct {
	id     string
	role   string
	hostID string // viewers: host of the last offer

	ws  *websocket.Conn
	wmu sync.Mutex
}

func (p *relayPeer) send(msg Message) error {
	p.wmu.Lock()
	defer p.wmu.Unlock()
	p.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return p.ws.WriteJSON(msg)
}

// NewServer creates a relay.
func NewServer(log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Server{
		log: log.WithField("component", "relay"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(map[string]*relayPeer),
	}
}

// Handler serves the relay at /ws and a liveness probe at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	return mux
}

// Hosts returns the registered hosts sorted by ID.
func (s *Server) Hosts() []HostInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostsLocked()
}

func (s *Server) hostsLocked() []HostInfo {
	viewers := make(map[string]int)
	for _, p := range s.peers {
		if p.role == RoleViewer && p.hostID != "" {
			viewers[p.hostID]++
		}
	}
	hosts := make([]HostInfo, 0)
	for id, p := range s.peers {
		if p.role == RoleHost {
			hosts = append(hosts, HostInfo{ID: id, Viewers: viewers[id]})
		}
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].ID < hosts[j].ID })
	return hosts
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer ws.Close()

	ws.SetReadDeadline(time.Now().Add(readWait))
	var reg Message
	if err := ws.ReadJSON(&reg); err != nil {
		return
	}
	p := &relayPeer{ws: ws}
	if reg.Type != TypeRegister {
		p.send(Message{Type: TypeError, Msg: "first message must be register"})
		return
	}
	if err := s.register(p, reg); err != nil {
		p.send(Message{Type: TypeError, Msg: err.Error()})
		return
	}
	defer s.unregister(p)

	log := s.log.WithFields(logrus.Fields{"peer": p.id, "role": p.role})
	log.WithField("remote", r.RemoteAddr).Info("peer registered")

	for {
		ws.SetReadDeadline(time.Now().Add(readWait))
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("peer read ended")
			}
			return
		}
		s.handle(p, msg, log)
	}
}

func (s *Server) register(p *relayPeer, reg Message) error {
	switch reg.Role {
	case RoleHost:
		if reg.ID == "" {
			return fmt.Errorf("host must register with an id")
		}
	case RoleViewer:
		if reg.ID == "" {
			reg.ID = "viewer-" + shortID()
		}
	default:
		return fmt.Errorf("unknown role %q", reg.Role)
	}

	s.mu.Lock()
	if _, taken := s.peers[reg.ID]; taken {
		s.mu.Unlock()
		return fmt.Errorf("id %q already registered", reg.ID)
	}
	p.id, p.role = reg.ID, reg.Role
	s.peers[p.id] = p
	s.mu.Unlock()

	if err := p.send(Message{Type: TypeRegistered, ID: p.id}); err != nil {
		return err
	}
	if p.role == RoleHost {
		s.broadcastHosts()
	}
	return nil
}

func (s *Server) unregister(p *relayPeer) {
	s.mu.Lock()
	delete(s.peers, p.id)
	var viewers []*relayPeer
	if p.role == RoleHost {
		for _, v := range s.peers {
			if v.role == RoleViewer && v.hostID == p.id {
				viewers = append(viewers, v)
			}
		}
	}
	s.mu.Unlock()

	s.log.WithField("peer", p.id).Info("peer disconnected")
	for _, v := range viewers {
		v.send(Message{Type: TypeHostDisconnected, HostID: p.id})
	}
	if p.role == RoleHost || p.hostID != "" {
		s.broadcastHosts()
	}
}

func (s *Server) handle(p *relayPeer, msg Message, log *logrus.Entry) {
	switch msg.Type {
	case TypePing:
		p.send(Message{Type: TypePong, Timestamp: msg.Timestamp})
	case TypeListHosts:
		p.send(Message{Type: TypeHosts, List: s.Hosts()})
	case TypeOffer, TypeAnswer, TypeICECandidate:
		s.relay(p, msg, log)
	default:
		p.send(Message{Type: TypeError, Msg: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (s *Server) relay(p *relayPeer, msg Message, log *logrus.Entry) {
	s.mu.Lock()
	target, ok := s.peers[msg.Target]
	newViewer := false
	if ok && msg.Type == TypeOffer && p.role == RoleViewer && p.hostID != msg.Target {
		p.hostID = msg.Target
		newViewer = true
	}
	s.mu.Unlock()

	if !ok {
		p.send(Message{Type: TypeError, Msg: fmt.Sprintf("unknown target %q", msg.Target)})
		return
	}
	out := Message{Type: msg.Type, From: p.id, Target: msg.Target, Payload: msg.Payload}
	if err := target.send(out); err != nil {
		log.WithError(err).WithField("target", msg.Target).Warn("relay failed")
		return
	}
	log.WithFields(logrus.Fields{"type": msg.Type, "target": msg.Target}).Debug("relayed")
	if newViewer {
		s.broadcastHosts()
	}
}

// broadcastHosts pushes the host list to every viewer.
func (s *Server) broadcastHosts() {
	s.mu.Lock()
	hosts := s.hostsLocked()
	var viewers []*relayPeer
	for _, p := range s.peers {
		if p.role == RoleViewer {
			viewers = append(viewers, p)
		}
	}
	s.mu.Unlock()

	for _, v := range viewers {
		v.send(Message{Type: TypeHostsUpdated, List: hosts})
	}
}

func shortID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
