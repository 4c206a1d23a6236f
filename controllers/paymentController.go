package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
	"github.com/dineqr/dineqr-api/sockets"
	"github.com/dineqr/dineqr-api/utils"
)

const (
	gatewayRazorpay = "razorpay"

	msgInvalidSignature      = "invalid webhook signature"
	msgPaymentRecordNotFound = "payment record not found"
)

// EventPaymentReceived is broadcast to the order room once capture is applied.
const EventPaymentReceived = "paymentReceived"

func razorpayBaseURL() string {
	if base := os.Getenv("RAZORPAY_BASE_URL"); base != "" {
		return base
	}
	return "https://api.razorpay.com"
}

type PaymentController struct {
	Sockets sockets.Publisher
}

func NewPaymentController(publisher sockets.Publisher) *PaymentController {
	return &PaymentController{Sockets: publisher}
}

// CreateGatewayOrder opens a checkout: creates a Razorpay order for the given
// POS order and stores a pending Payment linked to it.
func (pc *PaymentController) CreateGatewayOrder(ctx *gin.Context) {
	var body struct {
		RestaurantSlug string `json:"restaurantSlug" binding:"required"`
		OrderID        uint   `json:"orderId" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	restaurant, err := findRestaurantBySlug(body.RestaurantSlug)
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	var order models.Order
	if result := initializers.DB.
		Where("id = ? AND restaurant_id = ?", body.OrderID, restaurant.ID).
		First(&order); result.Error != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		return
	}
	if order.IsPaid {
		sendErrorResponse(ctx, http.StatusConflict, "order is already paid")
		return
	}

	receipt := uuid.NewString()
	gatewayOrder := map[string]any{
		// Razorpay amounts are in the smallest currency unit.
		"amount":   int64(math.Round(order.TotalAmount * 100)),
		"currency": restaurant.Currency,
		"receipt":  receipt,
		"notes":    map[string]string{"orderId": fmt.Sprint(order.ID)},
	}

	resp, err := resty.New().SetTimeout(30*time.Second).R().
		SetBasicAuth(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET")).
		SetHeader("Content-Type", "application/json").
		SetBody(gatewayOrder).
		Post(razorpayBaseURL() + "/v1/orders")
	if err != nil || resp.StatusCode() != http.StatusOK {
		log.Error().Err(err).Int("status", resp.StatusCode()).Msg("Razorpay order creation failed")
		sendErrorResponse(ctx, http.StatusBadGateway, "Failed to initiate payment")
		return
	}

	var gatewayResp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &gatewayResp); err != nil || gatewayResp.ID == "" {
		sendErrorResponse(ctx, http.StatusBadGateway, "Invalid response from payment gateway")
		return
	}

	notes, _ := json.Marshal(map[string]string{"orderId": fmt.Sprint(order.ID), "receipt": receipt})
	payment := models.Payment{
		OrderID:        order.ID,
		GatewayOrderID: gatewayResp.ID,
		TransactionID:  receipt,
		PaymentGateway: gatewayRazorpay,
		Amount:         order.TotalAmount,
		Status:         models.PaymentPending,
		Notes:          datatypes.JSON(notes),
	}
	if result := initializers.DB.Create(&payment); result.Error != nil {
		log.Error().Err(result.Error).Msg("Failed to store payment")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{
		"gatewayOrderId": gatewayResp.ID,
		"keyId":          os.Getenv("RAZORPAY_KEY_ID"),
		"amount":         gatewayOrder["amount"],
		"currency":       restaurant.Currency,
	})
}

type webhookPaymentEntity struct {
	ID      string            `json:"id"`
	OrderID string            `json:"order_id"`
	Status  string            `json:"status"`
	Notes   map[string]string `json:"notes"`
}

// Webhook handles gateway notifications. Signature or structural problems are
// 400 so the gateway retries; every business outcome after a valid signature
// is 200 so it never does.
func (pc *PaymentController) Webhook(ctx *gin.Context) {
	rawBody, err := ctx.GetRawData()
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	signature := ctx.GetHeader("X-Razorpay-Signature")
	if !utils.VerifySignature(rawBody, signature, os.Getenv("RAZORPAY_WEBHOOK_SECRET")) {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidSignature)
		return
	}

	var payload struct {
		Event   string `json:"event"`
		Payload struct {
			Payment struct {
				Entity webhookPaymentEntity `json:"entity"`
			} `json:"payment"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	entity := payload.Payload.Payment.Entity
	if entity.ID == "" || entity.OrderID == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	noteOrderID := entity.Notes["orderId"]
	var payment models.Payment
	result := initializers.DB.
		Where("gateway_order_id = ? AND payment_gateway = ? AND order_id = ? AND status = ?",
			entity.OrderID, gatewayRazorpay, noteOrderID, models.PaymentPending).
		First(&payment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// Benign for duplicate or unrelated webhooks, but a matching
			// gateway order with no local payment is a data-integrity smell.
			log.Warn().Str("gatewayOrderId", entity.OrderID).Msg("Webhook for unknown payment record")
			sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": msgPaymentRecordNotFound})
			return
		}
		log.Error().Err(result.Error).Msg("Payment lookup failed")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	var order models.Order
	if result := initializers.DB.First(&order, payment.OrderID); result.Error != nil {
		log.Warn().Uint("orderId", payment.OrderID).Msg("Webhook payment references missing order")
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "message": msgOrderNotFound})
		return
	}

	if order.IsPaid {
		// Duplicate delivery; make sure the payment row agrees and ack.
		if payment.Status != models.PaymentPaid {
			pc.markPaymentPaid(&payment, entity.ID)
		}
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true})
		return
	}

	switch entity.Status {
	case "captured":
		pc.applyCapture(&payment, &order, entity.ID)
	case "failed":
		if result := initializers.DB.Model(&payment).
			Updates(map[string]any{"status": models.PaymentFailed, "gateway_payment_id": entity.ID}); result.Error != nil {
			log.Error().Err(result.Error).Uint("paymentId", payment.ID).Msg("Failed to mark payment failed")
		}
	default:
		log.Debug().Str("status", entity.Status).Msg("Ignoring webhook payment status")
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true})
}

func (pc *PaymentController) markPaymentPaid(payment *models.Payment, gatewayPaymentID string) {
	if result := initializers.DB.Model(payment).
		Updates(map[string]any{"status": models.PaymentPaid, "gateway_payment_id": gatewayPaymentID}); result.Error != nil {
		log.Error().Err(result.Error).Uint("paymentId", payment.ID).Msg("Failed to mark payment paid")
	}
}

func (pc *PaymentController) applyCapture(payment *models.Payment, order *models.Order, gatewayPaymentID string) {
	pc.markPaymentPaid(payment, gatewayPaymentID)
	if result := initializers.DB.Model(order).Update("is_paid", true); result.Error != nil {
		log.Error().Err(result.Error).Uint("orderId", order.ID).Msg("Failed to mark order paid")
		return
	}
	pc.Sockets.Publish(sockets.OrderRoom(order.ID), EventPaymentReceived,
		gin.H{"message": fmt.Sprintf("Payment received for order #%d", order.OrderNo)})
}

// Verify is the client-side confirmation path after checkout. The checkout
// signature is HMAC(order_id + "|" + payment_id) with the key secret; the
// capture is then confirmed against the gateway before any state changes.
func (pc *PaymentController) Verify(ctx *gin.Context) {
	var body struct {
		RazorpayOrderID   string `json:"razorpayOrderId" binding:"required"`
		RazorpayPaymentID string `json:"razorpayPaymentId" binding:"required"`
		RazorpaySignature string `json:"razorpaySignature" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	payload := []byte(body.RazorpayOrderID + "|" + body.RazorpayPaymentID)
	if !utils.VerifySignature(payload, body.RazorpaySignature, os.Getenv("RAZORPAY_KEY_SECRET")) {
		sendErrorResponse(ctx, http.StatusBadRequest, "invalid payment signature")
		return
	}

	var payment models.Payment
	if result := initializers.DB.
		Where("gateway_order_id = ? AND payment_gateway = ?", body.RazorpayOrderID, gatewayRazorpay).
		First(&payment); result.Error != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgPaymentRecordNotFound)
		return
	}

	var order models.Order
	if result := initializers.DB.First(&order, payment.OrderID); result.Error != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		return
	}
	if order.IsPaid {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "order": order})
		return
	}

	resp, err := resty.New().SetTimeout(15*time.Second).R().
		SetBasicAuth(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET")).
		Get(razorpayBaseURL() + "/v1/payments/" + body.RazorpayPaymentID)
	if err != nil || resp.StatusCode() != http.StatusOK {
		log.Error().Err(err).Msg("Razorpay payment fetch failed")
		sendErrorResponse(ctx, http.StatusBadGateway, "Failed to confirm payment with gateway")
		return
	}

	var gatewayPayment struct {
		ID      string `json:"id"`
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body(), &gatewayPayment); err != nil {
		sendErrorResponse(ctx, http.StatusBadGateway, "Invalid response from payment gateway")
		return
	}
	if gatewayPayment.OrderID != body.RazorpayOrderID || gatewayPayment.Status != "captured" {
		sendErrorResponse(ctx, http.StatusBadRequest, "payment has not been captured")
		return
	}

	pc.applyCapture(&payment, &order, body.RazorpayPaymentID)
	order.IsPaid = true

	sendJSONResponse(ctx, http.StatusOK, gin.H{"success": true, "order": order})
}
