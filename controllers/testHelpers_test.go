package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

func parseTestToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

type recordedEvent struct {
	Room    string
	Event   string
	Payload any
}

type stubPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *stubPublisher) Publish(room, event string, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Room: room, Event: event, Payload: payload})
}

func (s *stubPublisher) eventsFor(room string) []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []recordedEvent
	for _, e := range s.events {
		if e.Room == room {
			matched = append(matched, e)
		}
	}
	return matched
}

// setupTestDB points initializers.DB at a fresh in-memory sqlite database.
// The pool is capped at one connection: sqlite allows a single writer anyway,
// and the cap keeps every session on the same in-memory database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Table{},
		&models.FoodItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNoCounter{},
		&models.Payment{},
		&models.Subscription{},
		&models.Cart{},
		&models.CartItem{},
	)
	if err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	initializers.DB = db
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func setupRouter(t *testing.T) (*gin.Engine, *stubPublisher) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-jwt-secret")
	gin.SetMode(gin.TestMode)

	publisher := &stubPublisher{}
	oc := NewOrderController(publisher)
	pc := NewPaymentController(publisher)

	server := gin.New()
	server.POST("/auth/signup", Signup)
	server.POST("/auth/login", Login)
	server.GET("/subscription", fakeAuth(), GetSubscription)
	server.POST("/order/:restaurantSlug", oc.CreateOrder)
	server.GET("/order/by-ids", oc.GetOrdersByIds)
	server.GET("/order/:restaurantSlug", fakeAuth(), oc.GetOrders)
	server.GET("/order/:restaurantSlug/:orderId", oc.GetOrder)
	server.PATCH("/order/:restaurantSlug/:orderId/status", fakeAuth(), oc.UpdateOrderStatus)
	server.POST("/cart/:restaurantSlug", AddCartItem)
	server.GET("/cart/:restaurantSlug/:sessionToken", GetCart)
	server.POST("/payment/razorpay/order", pc.CreateGatewayOrder)
	server.POST("/payment/razorpay/webhook", pc.Webhook)
	server.POST("/payment/razorpay/verify", pc.Verify)
	return server, publisher
}

// fakeAuth mirrors middlewares.RequireAuth for tests that carry a token from
// generateJWT; requests without a token pass through unauthenticated.
func fakeAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			ctx.Next()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := parseTestToken(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		ctx.Set("user", claims)
		ctx.Next()
	}
}

func seedRestaurant(t *testing.T, slug string) (models.Restaurant, models.Table, models.FoodItem) {
	t.Helper()
	restaurant := models.Restaurant{
		Name:     slug,
		Slug:     slug,
		OwnerID:  1,
		Currency: "INR",
		TaxRate:  0.05,
	}
	if err := initializers.DB.Create(&restaurant).Error; err != nil {
		t.Fatalf("failed to seed restaurant: %v", err)
	}
	table := models.Table{RestaurantID: restaurant.ID, Number: 1, QRToken: uuid.NewString()}
	if err := initializers.DB.Create(&table).Error; err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}
	food := models.FoodItem{
		RestaurantID: restaurant.ID,
		Name:         "Paneer Tikka",
		Category:     "starters",
		Price:        240,
		IsAvailable:  true,
	}
	if err := initializers.DB.Create(&food).Error; err != nil {
		t.Fatalf("failed to seed food item: %v", err)
	}
	return restaurant, table, food
}

func seedStaffToken(t *testing.T, restaurantID uint) string {
	t.Helper()
	user := models.User{
		Fullname:     "Test Staff",
		Email:        uuid.NewString() + "@example.com",
		Password:     "irrelevant",
		Role:         "staff",
		RestaurantID: &restaurantID,
	}
	if err := initializers.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed staff user: %v", err)
	}
	token, err := generateJWT(user)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func doRequest(server *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder
}
