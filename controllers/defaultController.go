package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the DineQR API ❤️. Enjoy seamless interaction with this API.

The following are the endpoints for this API:

AUTH
- POST "/auth/signup" - Create staff/owner account (starts a starter trial)
- POST "/auth/login" - Access account

RESTAURANT
- POST "/restaurant" - Register a restaurant
- GET "/restaurant/:slug/menu" - Menu, tables and QR tokens for ordering

ORDER
- POST "/order/:restaurantSlug" - Place an order for a table
- GET "/order/:restaurantSlug" - List orders (staff)
- GET "/order/by-ids?restaurantSlug=&orderIds=" - Batch fetch for order history
- GET "/order/:restaurantSlug/:orderId" - Get order by ID
- PATCH "/order/:restaurantSlug/:orderId/status" - Move order through its lifecycle

CART
- POST "/cart/:restaurantSlug" - Add item to a table-session cart
- GET "/cart/:restaurantSlug/:sessionToken" - Fetch cart

PAYMENT
- POST "/payment/razorpay/order" - Open a checkout for an order
- POST "/payment/razorpay/verify" - Confirm a checkout from the client
- POST "/payment/razorpay/webhook" - Gateway webhook (signed)

SUBSCRIPTION
- GET "/subscription" - Current user's subscription

REALTIME
- GET "/ws" - Websocket: authenticate/joinOrderRoom, newOrder/orderStatusUpdated events`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
