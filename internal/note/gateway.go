package note

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"team-workspace-server/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// cross-origin policy is enforced by the cors middleware on the
	// handshake request
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Gateway is the websocket entry point of the note protocol. It
// authenticates the handshake, upgrades the connection, and pumps inbound
// frames into the coordinator.
type Gateway struct {
	validator   CredentialValidator
	coordinator *Coordinator
}

func NewGateway(validator CredentialValidator, coordinator *Coordinator) *Gateway {
	return &Gateway{validator: validator, coordinator: coordinator}
}

// Handle is the gin handler for GET /ws/notes. The bearer credential comes
// from the token query param or the Authorization header; a bad credential
// refuses the connection before the upgrade, so no session state is created.
func (g *Gateway) Handle(c *gin.Context) {
	credential := c.Query("token")
	if credential == "" {
		credential = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	identity, err := g.validator.Validate(c.Request.Context(), credential)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := newClient(conn, *identity)
	g.coordinator.Connect(client)

	go client.writePump()
	go g.readPump(client)
}

func (g *Gateway) readPump(c *Client) {
	defer func() {
		g.coordinator.Disconnect(c)
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user", c.identity.Username).Msg("websocket read error")
			}
			return
		}

		g.dispatch(c, raw)
	}
}

func (g *Gateway) dispatch(c *Client, raw []byte) {
	ctx := context.Background()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Debug().Err(err).Str("user", c.identity.Username).Msg("malformed frame")
		return
	}

	switch env.Event {
	case eventAcquireLock:
		var req LockRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			log.Debug().Err(err).Msg("malformed acquireLock payload")
			return
		}
		g.coordinator.Acquire(ctx, c, req)

	case eventReleaseLock:
		var req LockRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			log.Debug().Err(err).Msg("malformed releaseLock payload")
			return
		}
		g.coordinator.Release(c, req)

	case eventAlterLine:
		var req AlterLineRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			log.Debug().Err(err).Msg("malformed alterLine payload")
			return
		}
		g.coordinator.Update(ctx, c, req)

	default:
		log.Debug().Str("event", env.Event).Msg("unknown event, ignoring")
	}
}
