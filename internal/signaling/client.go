package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
)

// ErrNotConnected is returned by sends before Connect succeeds.
var ErrNotConnected = errors.New("signaling: not connected")

// Handler callbacks for incoming signaling messages. Callbacks run on the
// client's read goroutine, one at a time.
type Handler struct {
	OnRegistered       func()
	OnOffer            func(from string, payload json.RawMessage)
	OnAnswer           func(from string, payload json.RawMessage)
	OnICECandidate     func(from string, payload json.RawMessage)
	OnHostsUpdated     func(hosts []HostInfo)
	OnHostDisconnected func(hostID string)
	OnError            func(msg string)
	// OnClose runs once when the connection ends for any reason.
	OnClose func()
}

// Client is a WebSocket signaling client.
type Client struct {
	url     string
	id      string
	role    string
	handler Handler
	log     *logrus.Entry

	mu     sync.Mutex
	conn   *websocket.Conn
	done   chan struct{}
	closed bool
}

// NewClient creates a signaling client registering as id with role.
func NewClient(url, id, role string, handler Handler, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		url:     url,
		id:      id,
		role:    role,
		handler: handler,
		log:     log.WithFields(logrus.Fields{"component": "signaling", "id": id}),
		done:    make(chan struct{}),
	}
}

// ID returns the registered ID.
func (c *Client) ID() string { return c.id }

// Connect dials the relay, registers and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("signaling dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if err := c.send(Message{Type: TypeRegister, ID: c.id, Role: c.role}); err != nil {
		conn.Close()
		return fmt.Errorf("signaling register: %w", err)
	}
	c.log.WithField("url", c.url).Info("connected to signaling relay")

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Done is closed when the connection ends.
func (c *Client) Done() <-chan struct{} { return c.done }

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
	c.mu.Unlock()

	if c.handler.OnClose != nil {
		c.handler.OnClose()
	}
}

// SendOffer sends an SDP offer to target.
func (c *Client) SendOffer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Target: target, Payload: payload})
}

// SendAnswer sends an SDP answer to target.
func (c *Client) SendAnswer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeAnswer, Target: target, Payload: payload})
}

// SendICECandidate sends an ICE candidate to target.
func (c *Client) SendICECandidate(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeICECandidate, Target: target, Payload: payload})
}

// RequestHostList asks the relay for registered hosts.
func (c *Client) RequestHostList() error {
	return c.send(Message{Type: TypeListHosts})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer c.Close()
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.log.Info("signaling relay closed the connection")
				} else {
					c.log.WithError(err).Warn("signaling read failed")
				}
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeRegistered:
		c.log.Info("registered with signaling relay")
		if c.handler.OnRegistered != nil {
			c.handler.OnRegistered()
		}
	case TypeOffer:
		if c.handler.OnOffer != nil {
			c.handler.OnOffer(msg.From, msg.Payload)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.From, msg.Payload)
		}
	case TypeICECandidate:
		if c.handler.OnICECandidate != nil {
			c.handler.OnICECandidate(msg.From, msg.Payload)
		}
	case TypeHosts, TypeHostsUpdated:
		if c.handler.OnHostsUpdated != nil {
			c.handler.OnHostsUpdated(msg.List)
		}
	case TypeHostDisconnected:
		if c.handler.OnHostDisconnected != nil {
			c.handler.OnHostDisconnected(msg.HostID)
		}
	case TypeError:
		c.log.WithField("message", msg.Msg).Warn("signaling relay error")
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
	default:
		c.log.WithField("type", msg.Type).Debug("unknown signaling message")
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()})
		}
	}
}
