package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/controllers"
)

func PaymentRoutes(server *gin.Engine, pc *controllers.PaymentController) {
	payment := server.Group("/payment/razorpay")
	{
		payment.POST("/order", pc.CreateGatewayOrder)
		payment.POST("/verify", pc.Verify)
		payment.POST("/webhook", pc.Webhook)
	}
}
