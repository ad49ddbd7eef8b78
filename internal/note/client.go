package note

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// sessionState is the explicit per-session protocol state, Unlocked or
// Locked(note, line). Only the coordinator's transition methods touch it.
type sessionState struct {
	locked     bool
	noteID     uint64
	lineNumber int
}

// Client is one live connection with its attached identity.
type Client struct {
	conn     *websocket.Conn
	identity Identity
	send     chan []byte
	state    sessionState
}

func newClient(conn *websocket.Conn, identity Identity) *Client {
	return &Client{
		conn:     conn,
		identity: identity,
		send:     make(chan []byte, sendBuffer),
	}
}

// enqueue hands a frame to the write pump. A client that cannot keep up has
// its frames dropped rather than stalling the dispatcher.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		log.Warn().Str("user", c.identity.Username).Msg("client send buffer full, dropping frame")
	}
}

// sendEvent emits an event to this client only.
func (c *Client) sendEvent(event string, payload any) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("event encode failed")
		return
	}
	c.enqueue(raw)
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. One per connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// envelope is the wire frame: an event name plus its JSON payload.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func encodeEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Data: data})
}
