package sockets

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Server event names.
const (
	EventNewOrder           = "newOrder"
	EventOrderStatusUpdated = "orderStatusUpdated"
	EventError              = "errorMessage"
)

// Publisher is the notification side of the hub. Controllers receive it as a
// dependency; events are a refresh hint, never the state of record.
type Publisher interface {
	Publish(room, event string, payload any)
}

// AuthorizeFunc checks that the token's subject is an owner or staff member of
// the restaurant and returns the subject's role.
type AuthorizeFunc func(accessToken string, restaurantID uint) (role string, err error)

func RestaurantRoom(restaurantID uint, role string) string {
	return fmt.Sprintf("restaurant_%d_%s", restaurantID, role)
}

func OrderRoom(orderID uint) string {
	return fmt.Sprintf("order_%d", orderID)
}

type membership struct {
	client *Client
	room   string
}

type outbound struct {
	room string
	data []byte
}

// Hub tracks connected clients and their room membership. All state is owned
// by the Run goroutine; everything else talks to it over channels.
type Hub struct {
	authorize AuthorizeFunc

	register   chan *Client
	unregister chan *Client
	join       chan membership
	broadcast  chan outbound

	rooms   map[string]map[*Client]bool
	clients map[*Client]map[string]bool
}

func NewHub(authorize AuthorizeFunc) *Hub {
	return &Hub{
		authorize:  authorize,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		broadcast:  make(chan outbound, 64),
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]map[string]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = make(map[string]bool)
		case client := <-h.unregister:
			h.drop(client)
		case m := <-h.join:
			h.addToRoom(m.client, m.room)
		case out := <-h.broadcast:
			h.deliver(out)
		}
	}
}

// Publish marshals the event envelope and hands it to the Run loop. Delivery
// is at-most-once: disconnected or saturated clients miss the event.
func (h *Hub) Publish(room, event string, payload any) {
	data, err := json.Marshal(map[string]any{"event": event, "data": payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal socket event")
		return
	}
	h.broadcast <- outbound{room: room, data: data}
}

func (h *Hub) Register(client *Client) { h.register <- client }

func (h *Hub) Unregister(client *Client) { h.unregister <- client }

func (h *Hub) Join(client *Client, room string) {
	h.join <- membership{client: client, room: room}
}

func (h *Hub) addToRoom(client *Client, room string) {
	memberships, ok := h.clients[client]
	if !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
	memberships[room] = true
}

func (h *Hub) deliver(out outbound) {
	for client := range h.rooms[out.room] {
		select {
		case client.send <- out.data:
		default:
			// Slow consumer, drop it rather than block the hub.
			h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	memberships, ok := h.clients[client]
	if !ok {
		return
	}
	for room := range memberships {
		delete(h.rooms[room], client)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.clients, client)
	close(client.send)
}
