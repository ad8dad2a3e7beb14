package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 16 << 20 // dropped images travel inline
)

// Client is the WebSocket connection attached to a session.
type Client struct {
	sess     *Session
	conn     *websocket.Conn
	ClientID string
}

func NewClient(sess *Session, conn *websocket.Conn) *Client {
	return &Client{sess: sess, conn: conn, ClientID: uuid.NewString()}
}

// Serve greets the client and pumps messages until either side closes.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.welcome(ctx); err != nil {
		slog.Debug("welcome failed", "error", err, "client", c.ClientID)
		c.sess.Close()
		c.conn.Close(websocket.StatusInternalError, "")
		return
	}

	go c.WritePump(ctx)
	c.ReadPump(ctx)
}

func (c *Client) welcome(ctx context.Context) error {
	payload, _ := json.Marshal(WelcomePayload{
		ClientID: c.ClientID,
		BoardID:  c.sess.BoardID(),
		Version:  c.sess.LoadedVersion(),
	})
	data, err := json.Marshal(&Message{Type: TypeWelcome, BoardID: c.sess.BoardID(), ClientID: c.ClientID, Payload: payload})
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.sess.Close()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			slog.Debug("read error", "error", err, "client", c.ClientID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "client", c.ClientID)
			continue
		}

		msg.ClientID = c.ClientID
		msg.BoardID = c.sess.BoardID()

		c.sess.Submit(&msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	out := c.sess.Outbox()
	for {
		select {
		case message, ok := <-out:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
