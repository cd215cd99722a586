package ws

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/domain"
	"chat-relay/services"
	"chat-relay/sink"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Error and ack frames produced by the read loop, merged into the
	// single-writer pump alongside broadcast events.
	localFrameBuffer = 8
)

// client owns one WebSocket connection: a read loop translating frames into
// service calls, and a write pump draining the session's buffered sink.
// The write pump is the connection's only writer.
type client struct {
	log  *slog.Logger
	chat services.IChatService
	conn *websocket.Conn

	sessionID domain.SessionID
	sink      *sink.Buffered
	local     chan outboundFrame
}

func newClient(log *slog.Logger, chat services.IChatService,
	conn *websocket.Conn, bufferSize int) *client {
	return &client{
		log:   log,
		chat:  chat,
		conn:  conn,
		sink:  sink.NewBuffered(bufferSize),
		local: make(chan outboundFrame, localFrameBuffer),
	}
}

// run registers the session, starts the write pump, and blocks in the read
// loop until the connection drops. Disconnect is deferred so the session is
// always removed, whatever ends the connection first.
func (c *client) run(ctx context.Context) {
	c.sessionID = c.chat.Connect(c.sink)
	defer c.chat.Disconnect(c.sessionID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx, cancel)
	c.readPump()
}

func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame inboundFrame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Warn("Unexpected connection close", "session_id", c.sessionID, "error", err)
			}
			return
		}

		switch frame.Type {
		case "join":
			username, err := c.chat.Join(c.sessionID, frame.Token)
			if err != nil {
				c.push(errorFrame(err))
				continue
			}
			c.push(outboundFrame{Type: "joined", Username: username})
		case "message":
			if _, err := c.chat.Say(c.sessionID, frame.Message); err != nil {
				c.push(errorFrame(err))
			}
			// No ack on success: the author sees its message come back
			// through the broadcast, like every other participant.
		default:
			c.push(errorFrame(fmt.Errorf("unknown frame type %q", frame.Type)))
		}
	}
}

// push hands a frame to the write pump. Dropping is acceptable here: these
// are per-request error/ack frames and the pump being gone means the
// connection is already closing.
func (c *client) push(frame outboundFrame) {
	select {
	case c.local <- frame:
	default:
		c.log.Debug("Local frame dropped", "session_id", c.sessionID, "type", frame.Type)
	}
}

func (c *client) writePump(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"))
			return
		case e := <-c.sink.Events:
			if err := c.write(toFrame(e)); err != nil {
				return
			}
		case frame := <-c.local:
			if err := c.write(frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(frame outboundFrame) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(frame); err != nil {
		c.log.Warn("Write failed, closing connection", "session_id", c.sessionID, "error", err)
		return err
	}
	return nil
}
