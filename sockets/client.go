package sockets

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the storefront origin; CORS is enforced at
	// the HTTP layer, so the upgrade itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one connected socket. Room membership is granted only after a
// successful authenticate frame (staff rooms) or joinOrderRoom (tracking).
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	authenticated bool
	restaurantID  uint
	role          string
}

type clientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type authenticateData struct {
	AccessToken  string `json:"accessToken"`
	RestaurantID uint   `json:"restaurantId"`
}

type joinOrderRoomData struct {
	OrderID uint `json:"orderId"`
}

// ServeWS upgrades the request and starts the read/write pumps.
func ServeWS(hub *Hub) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}
		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, sendBufferSize),
		}
		hub.Register(client)

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			c.sendEvent(EventError, map[string]any{"message": "malformed frame"})
			return
		}
		if !c.handleFrame(frame) {
			return
		}
	}
}

// handleFrame returns false when the connection must be torn down.
func (c *Client) handleFrame(frame clientFrame) bool {
	switch frame.Event {
	case "authenticate":
		var data authenticateData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.RestaurantID == 0 {
			return false
		}
		role, err := c.hub.authorize(data.AccessToken, data.RestaurantID)
		if err != nil {
			// Unauthorized joins disconnect without a reply.
			log.Warn().Uint("restaurantId", data.RestaurantID).Msg("Rejected socket authentication")
			return false
		}
		c.authenticated = true
		c.restaurantID = data.RestaurantID
		c.role = role
		c.hub.Join(c, RestaurantRoom(data.RestaurantID, role))
	case "joinOrderRoom":
		var data joinOrderRoomData
		if err := json.Unmarshal(frame.Data, &data); err != nil || data.OrderID == 0 {
			// Malformed order id, drop the event.
			return true
		}
		c.hub.Join(c, OrderRoom(data.OrderID))
	default:
		// Unknown events are ignored.
	}
	return true
}

func (c *Client) sendEvent(event string, payload any) {
	data, err := json.Marshal(map[string]any{"event": event, "data": payload})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
