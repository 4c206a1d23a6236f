package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/controllers"
	"github.com/dineqr/dineqr-api/middlewares"
)

func AuthRoutes(server *gin.Engine) {
	auth := server.Group("/auth")
	{
		auth.POST("/signup", controllers.Signup)
		auth.POST("/login", controllers.Login)
	}
	server.GET("/subscription", middlewares.RequireAuth(), controllers.GetSubscription)
}
