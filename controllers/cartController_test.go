package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

func TestCartSessionLifecycle(t *testing.T) {
	setupTestDB(t)
	server, _ := setupRouter(t)
	_, table, food := seedRestaurant(t, "spice-villa")

	body := fmt.Sprintf(`{"tableId":%d,"foodItemId":%d,"quantity":1}`, table.ID, food.ID)
	resp := doRequest(server, http.MethodPost, "/cart/spice-villa", body, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.SessionToken == "" {
		t.Fatal("a new cart should return its session token")
	}

	// Same item again bumps the quantity instead of adding a line.
	body = fmt.Sprintf(`{"tableId":%d,"sessionToken":%q,"foodItemId":%d,"quantity":2}`, table.ID, created.SessionToken, food.ID)
	if resp := doRequest(server, http.MethodPost, "/cart/spice-villa", body, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	resp = doRequest(server, http.MethodGet, "/cart/spice-villa/"+created.SessionToken, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var fetched struct {
		Cart models.Cart `json:"cart"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &fetched); err != nil {
		t.Fatal(err)
	}
	if len(fetched.Cart.Items) != 1 || fetched.Cart.Items[0].Quantity != 3 {
		t.Errorf("expected one line with quantity 3, got %+v", fetched.Cart.Items)
	}

	// An expired cart reads as absent.
	initializers.DB.Model(&models.Cart{}).
		Where("session_token = ?", created.SessionToken).
		Update("expires_at", time.Now().Add(-time.Minute))
	resp = doRequest(server, http.MethodGet, "/cart/spice-villa/"+created.SessionToken, "", nil)
	if resp.Code != http.StatusNotFound {
		t.Errorf("expired cart should be 404, got %d", resp.Code)
	}
}

func TestWriteToExpiredCartStartsFreshSession(t *testing.T) {
	setupTestDB(t)
	server, _ := setupRouter(t)
	_, table, food := seedRestaurant(t, "spice-villa")

	body := fmt.Sprintf(`{"tableId":%d,"foodItemId":%d,"quantity":3}`, table.ID, food.ID)
	resp := doRequest(server, http.MethodPost, "/cart/spice-villa", body, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		SessionToken string `json:"sessionToken"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	initializers.DB.Model(&models.Cart{}).
		Where("session_token = ?", created.SessionToken).
		Update("expires_at", time.Now().Add(-time.Minute))

	// Adding to an expired cart mints a fresh session under the same token
	// rather than bouncing the customer.
	body = fmt.Sprintf(`{"tableId":%d,"sessionToken":%q,"foodItemId":%d,"quantity":1}`,
		table.ID, created.SessionToken, food.ID)
	resp = doRequest(server, http.MethodPost, "/cart/spice-villa", body, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("write to expired cart should start over, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doRequest(server, http.MethodGet, "/cart/spice-villa/"+created.SessionToken, "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("fresh session should be readable, got %d", resp.Code)
	}
	var fetched struct {
		Cart models.Cart `json:"cart"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &fetched); err != nil {
		t.Fatal(err)
	}
	if len(fetched.Cart.Items) != 1 || fetched.Cart.Items[0].Quantity != 1 {
		t.Errorf("fresh session must not carry expired lines, got %+v", fetched.Cart.Items)
	}
	if fetched.Cart.Expired(time.Now()) {
		t.Error("fresh session should carry a live TTL")
	}
}
