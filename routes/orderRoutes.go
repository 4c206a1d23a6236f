package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/controllers"
	"github.com/dineqr/dineqr-api/middlewares"
)

func OrderRoutes(server *gin.Engine, oc *controllers.OrderController) {
	server.POST("/order/:restaurantSlug", oc.CreateOrder)
	server.GET("/order/by-ids", oc.GetOrdersByIds)
	server.GET("/order/:restaurantSlug", middlewares.RequireAuth(), middlewares.RequireRole("owner", "staff", "admin"), oc.GetOrders)
	server.GET("/order/:restaurantSlug/:orderId", oc.GetOrder)
	server.PATCH("/order/:restaurantSlug/:orderId/status", middlewares.RequireAuth(), middlewares.RequireRole("owner", "staff", "admin"), oc.UpdateOrderStatus)
}
