package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/controllers"
)

func CartRoutes(server *gin.Engine) {
	server.POST("/cart/:restaurantSlug", controllers.AddCartItem)
	server.GET("/cart/:restaurantSlug/:sessionToken", controllers.GetCart)
}
