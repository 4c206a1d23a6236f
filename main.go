package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/controllers"
	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/routes"
	"github.com/dineqr/dineqr-api/sockets"
)

func init() {
	initializers.LoadEnv()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	initializers.StartCartSweeper(ctx, 5*time.Minute)

	hub := sockets.NewHub(controllers.AuthorizeSocket)
	go hub.Run()

	allowOrigins := []string{"http://localhost:3000"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		allowOrigins = strings.Split(origins, ",")
	}

	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	orderController := controllers.NewOrderController(hub)
	paymentController := controllers.NewPaymentController(hub)

	routes.DefaultRoutes(server)
	routes.AuthRoutes(server)
	routes.RestaurantRoutes(server)
	routes.OrderRoutes(server, orderController)
	routes.PaymentRoutes(server, paymentController)
	routes.CartRoutes(server)
	server.GET("/ws", sockets.ServeWS(hub))

	server.Run()
}
