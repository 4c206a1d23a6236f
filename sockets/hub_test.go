package sockets

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func newTestClient(hub *Hub) *Client {
	return &Client{hub: hub, send: make(chan []byte, sendBufferSize)}
}

func receive(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.send:
		var event map[string]any
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("bad event payload: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected event: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishIsScopedToRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	staff := newTestClient(hub)
	other := newTestClient(hub)
	hub.Register(staff)
	hub.Register(other)
	hub.Join(staff, RestaurantRoom(1, "staff"))
	hub.Join(other, RestaurantRoom(2, "staff"))

	hub.Publish(RestaurantRoom(1, "staff"), EventNewOrder, map[string]any{"orderNo": 7})

	event := receive(t, staff)
	if event["event"] != EventNewOrder {
		t.Errorf("expected %s, got %v", EventNewOrder, event["event"])
	}
	assertSilent(t, other)
}

func TestAuthenticateJoinsRoleRoom(t *testing.T) {
	hub := NewHub(func(token string, restaurantID uint) (string, error) {
		if token == "good" && restaurantID == 1 {
			return "staff", nil
		}
		return "", errors.New("not a member")
	})
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	ok := client.handleFrame(clientFrame{
		Event: "authenticate",
		Data:  json.RawMessage(`{"accessToken":"good","restaurantId":1}`),
	})
	if !ok {
		t.Fatal("valid authentication should keep the connection")
	}

	hub.Publish(RestaurantRoom(1, "staff"), EventOrderStatusUpdated, map[string]any{"status": "ready"})
	event := receive(t, client)
	if event["event"] != EventOrderStatusUpdated {
		t.Errorf("expected %s, got %v", EventOrderStatusUpdated, event["event"])
	}
}

// A staff token for one restaurant must not admit the socket to another
// restaurant's staff room.
func TestAuthenticateRejectsForeignRestaurant(t *testing.T) {
	hub := NewHub(func(token string, restaurantID uint) (string, error) {
		if restaurantID == 1 {
			return "staff", nil
		}
		return "", errors.New("not a member")
	})
	go hub.Run()

	client := newTestClient(hub)
	hub.Register(client)

	ok := client.handleFrame(clientFrame{
		Event: "authenticate",
		Data:  json.RawMessage(`{"accessToken":"staff-of-1","restaurantId":2}`),
	})
	if ok {
		t.Fatal("foreign restaurant authentication should drop the connection")
	}

	hub.Publish(RestaurantRoom(2, "staff"), EventNewOrder, map[string]any{"orderNo": 1})
	assertSilent(t, client)
}

func TestJoinOrderRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	tracker := newTestClient(hub)
	hub.Register(tracker)

	if ok := tracker.handleFrame(clientFrame{
		Event: "joinOrderRoom",
		Data:  json.RawMessage(`{"orderId":42}`),
	}); !ok {
		t.Fatal("joinOrderRoom should keep the connection")
	}

	// Malformed order ids are dropped without killing the connection.
	if ok := tracker.handleFrame(clientFrame{
		Event: "joinOrderRoom",
		Data:  json.RawMessage(`{"orderId":"nope"}`),
	}); !ok {
		t.Fatal("malformed joinOrderRoom should only drop the event")
	}

	hub.Publish(OrderRoom(42), EventOrderStatusUpdated, map[string]any{"message": "Order #3 is now ready"})
	event := receive(t, tracker)
	if event["event"] != EventOrderStatusUpdated {
		t.Errorf("expected %s, got %v", EventOrderStatusUpdated, event["event"])
	}

	hub.Publish(OrderRoom(41), EventOrderStatusUpdated, map[string]any{"message": "other order"})
	assertSilent(t, tracker)
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	slow := &Client{hub: hub, send: make(chan []byte)} // no buffer, never read
	healthy := newTestClient(hub)
	hub.Register(slow)
	hub.Register(healthy)
	hub.Join(slow, OrderRoom(9))
	hub.Join(healthy, OrderRoom(9))

	hub.Publish(OrderRoom(9), EventOrderStatusUpdated, map[string]any{"message": "first"})
	receive(t, healthy)
	hub.Publish(OrderRoom(9), EventOrderStatusUpdated, map[string]any{"message": "second"})
	receive(t, healthy)

	// The second delivery to healthy proves the first broadcast is fully
	// processed, so the slow client has been dropped and its channel closed.
	select {
	case _, open := <-slow.send:
		if open {
			t.Error("slow client should have been dropped, not delivered to")
		}
	case <-time.After(time.Second):
		t.Error("slow client's send channel should be closed")
	}
}
