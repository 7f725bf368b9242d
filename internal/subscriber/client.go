package subscriber

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/stocklive/stocklive/internal/hub"
)

const defaultReconnectDelay = 5 * time.Second

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Handler consumes one inbound message of a registered type.
type Handler func(payload json.RawMessage)

// Client maintains connectivity to exactly one hub. On close or error it
// arms a single fixed-delay reconnect timer; outbound sends are dropped
// silently while not connected.
type Client struct {
	url    string
	delay  time.Duration
	dialer *websocket.Dialer
	log    *logrus.Logger

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	reconnect *time.Timer
	handlers  map[string]Handler
	closed    bool
}

func New(url string, log *logrus.Logger) *Client {
	return &Client{
		url:      url,
		delay:    defaultReconnectDelay,
		dialer:   websocket.DefaultDialer,
		log:      log,
		handlers: make(map[string]Handler),
	}
}

// SetReconnectDelay overrides the fixed reconnect delay. Call before
// Connect.
func (c *Client) SetReconnectDelay(d time.Duration) {
	c.mu.Lock()
	c.delay = d
	c.mu.Unlock()
}

// On registers the handler for a message type, replacing any prior one.
func (c *Client) On(msgType string, h Handler) {
	c.mu.Lock()
	c.handlers[msgType] = h
	c.mu.Unlock()
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts a connection attempt. A call while already connecting or
// connected is a no-op; at most one attempt is in flight at a time.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed || c.state != StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.state = StateConnecting
	c.mu.Unlock()

	go c.dial()
}

func (c *Client) dial() {
	conn, resp, err := c.dialer.Dial(c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	if err != nil {
		c.log.WithError(err).WithField("url", c.url).Warn("hub connection failed")
		c.state = StateDisconnected
		c.armReconnect()
		c.mu.Unlock()
		return
	}
	c.state = StateConnected
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
}

func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg hub.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// Parse failures never terminate the connection.
			c.log.WithError(err).Warn("unparseable hub message")
			continue
		}

		c.mu.Lock()
		h := c.handlers[msg.Type]
		c.mu.Unlock()
		if h != nil {
			h(msg.Payload)
		}
	}

	conn.Close()

	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
		c.state = StateDisconnected
		c.armReconnect()
	}
	c.mu.Unlock()
}

// armReconnect schedules one reconnect attempt after the fixed delay.
// Arming is idempotent: a second disconnect while a timer is pending does
// not create a second timer. Caller holds c.mu.
func (c *Client) armReconnect() {
	if c.closed || c.reconnect != nil {
		return
	}
	c.reconnect = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		c.reconnect = nil
		if c.closed || c.state != StateDisconnected {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		c.dial()
	})
}

// Send transmits a message when connected; otherwise it is dropped
// silently. Delivery is at most once, best effort.
func (c *Client) Send(msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(hub.Message{Type: msgType, Payload: raw})
	if err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return nil
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close stops the client, cancelling any pending reconnect. The client does
// not reconnect after Close.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	conn := c.conn
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}
