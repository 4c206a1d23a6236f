package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/controllers"
	"github.com/dineqr/dineqr-api/middlewares"
)

func RestaurantRoutes(server *gin.Engine) {
	server.POST("/restaurant", middlewares.RequireAuth(), middlewares.RequireRole("owner", "admin"), controllers.CreateRestaurant)
	server.GET("/restaurant/:slug/menu", controllers.GetMenu)
}
