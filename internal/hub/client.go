package hub

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one WebSocket connection joined to a panel group.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	panelCode string
	name      string
	send      chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn, panelCode, name string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		panelCode: panelCode,
		name:      name,
		send:      make(chan []byte, 256),
	}
}

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.WritePump()
	go c.ReadPump()
}

func (c *Client) PanelCode() string { return c.panelCode }
func (c *Client) Name() string      { return c.name }

// ReadPump pumps inbound frames to the hub. It exits on any read error
// and requests unregistration on the way out.
func (c *Client) ReadPump() {
	logCtx := logrus.WithFields(logrus.Fields{"code": c.panelCode, "name": c.name})
	defer func() {
		select {
		case c.hub.messageChan <- HubMessage{Type: "unregister", Client: c}:
		case <-time.After(time.Second):
			logCtx.Warn("Timeout sending unregister message to hub")
		}
		c.conn.Close()
		logCtx.Debug("readPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		select {
		case c.hub.messageChan <- HubMessage{Type: "client_message", Client: c, RawData: message}:
		default:
			logCtx.Warn("Hub message channel full, dropping client message")
		}
	}
}

// WritePump pumps messages from the send channel to the connection and
// keeps it alive with periodic pings.
func (c *Client) WritePump() {
	logCtx := logrus.WithFields(logrus.Fields{"code": c.panelCode, "name": c.name})
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the send channel during unregister.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
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
