package controllers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
	"github.com/dineqr/dineqr-api/sockets"
)

const (
	msgOrderNotFound        = "order not found"
	msgFailedToCreateOrder  = "Failed to create order"
	msgFailedToFetchOrders  = "Failed to fetch orders"
	msgConcurrentStatusEdit = "order status changed concurrently, retry"
	msgDiscountExceedsTotal = "discount exceeds order total"

	statusUpdateAttempts = 3
)

// staffRoles receive staff-facing order broadcasts.
var staffRoles = []string{"owner", "staff", "admin"}

type OrderController struct {
	Sockets sockets.Publisher
}

func NewOrderController(publisher sockets.Publisher) *OrderController {
	return &OrderController{Sockets: publisher}
}

// orderEvent is the socket payload for order broadcasts. It is a refresh
// hint; clients re-fetch the order for authoritative state.
type orderEvent struct {
	OrderID uint               `json:"orderId"`
	OrderNo int                `json:"orderNo"`
	Status  models.OrderStatus `json:"status"`
	TableID uint               `json:"tableId"`
}

func (oc *OrderController) notifyStaff(restaurantID uint, event, message string, order *models.Order) {
	payload := gin.H{
		"message": message,
		"order": orderEvent{
			OrderID: order.ID,
			OrderNo: order.OrderNo,
			Status:  order.Status,
			TableID: order.TableID,
		},
	}
	for _, role := range staffRoles {
		oc.Sockets.Publish(sockets.RestaurantRoom(restaurantID, role), event, payload)
	}
}

// nextOrderNo bumps the restaurant's counter inside tx and returns the new
// value. The UPDATE takes a row lock that is held until the enclosing
// transaction commits, so concurrent creations serialize here and can never
// observe the same number. The counter row is created on first use.
func nextOrderNo(tx *gorm.DB, restaurantID uint) (int, error) {
	bump := func() (int64, error) {
		result := tx.Model(&models.OrderNoCounter{}).
			Where("restaurant_id = ?", restaurantID).
			UpdateColumn("last_no", gorm.Expr("last_no + ?", 1))
		return result.RowsAffected, result.Error
	}

	rows, err := bump()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		counter := models.OrderNoCounter{RestaurantID: restaurantID, LastNo: 0}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}},
			DoNothing: true,
		}).Create(&counter).Error; err != nil {
			return 0, err
		}
		if rows, err = bump(); err != nil {
			return 0, err
		}
		if rows == 0 {
			return 0, fmt.Errorf("order counter for restaurant %d missing after upsert", restaurantID)
		}
	}

	var counter models.OrderNoCounter
	if err := tx.Where("restaurant_id = ?", restaurantID).First(&counter).Error; err != nil {
		return 0, err
	}
	return counter.LastNo, nil
}

// CreateOrder places an order for a table. Prices come from the menu, never
// from the client; the amount invariant is checked before anything is written.
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	var body struct {
		TableID        uint    `json:"tableId" binding:"required"`
		DiscountAmount float64 `json:"discountAmount" binding:"gte=0"`
		Items          []struct {
			FoodItemID uint   `json:"foodItemId" binding:"required"`
			Variant    string `json:"variant"`
			Quantity   int    `json:"quantity" binding:"required,min=1"`
		} `json:"items" binding:"required,min=1,dive"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	var table models.Table
	if result := initializers.DB.
		Where("id = ? AND restaurant_id = ?", body.TableID, restaurant.ID).
		First(&table); result.Error != nil {
		sendErrorResponse(ctx, http.StatusNotFound, "table not found")
		return
	}

	order := models.Order{
		RestaurantID:   restaurant.ID,
		TableID:        table.ID,
		DiscountAmount: body.DiscountAmount,
		Status:         models.OrderPending,
	}
	for _, line := range body.Items {
		var food models.FoodItem
		if result := initializers.DB.
			Where("id = ? AND restaurant_id = ? AND is_available = ?", line.FoodItemID, restaurant.ID, true).
			First(&food); result.Error != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, fmt.Sprintf("food item %d is not available", line.FoodItemID))
			return
		}
		order.Items = append(order.Items, models.OrderItem{
			FoodItemID: food.ID,
			Name:       food.Name,
			Variant:    line.Variant,
			Quantity:   line.Quantity,
			UnitPrice:  food.Price,
			FinalPrice: food.Price * float64(line.Quantity),
		})
		order.Subtotal += food.Price * float64(line.Quantity)
	}
	order.Subtotal = roundMoney(order.Subtotal)
	order.TaxAmount = roundMoney(order.Subtotal * restaurant.TaxRate)
	order.TotalAmount = roundMoney(order.Subtotal + order.TaxAmount - order.DiscountAmount)
	if order.TotalAmount < 0 {
		sendErrorResponse(ctx, http.StatusBadRequest, msgDiscountExceedsTotal)
		return
	}

	if err := order.ValidateAmounts(); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
		return
	}

	err = initializers.DB.Transaction(func(tx *gorm.DB) error {
		orderNo, err := nextOrderNo(tx, restaurant.ID)
		if err != nil {
			return err
		}
		order.OrderNo = orderNo
		return tx.Create(&order).Error
	})
	if err != nil {
		log.Error().Err(err).Uint("restaurantId", restaurant.ID).Msg("Order creation failed")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToCreateOrder)
		return
	}

	oc.notifyStaff(restaurant.ID, sockets.EventNewOrder,
		fmt.Sprintf("New order #%d at table %d", order.OrderNo, table.Number), &order)

	sendJSONResponse(ctx, http.StatusCreated, gin.H{"order": order})
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// UpdateOrderStatus applies one lifecycle transition. The write is guarded on
// the status the check was made against, so a concurrent racer loses cleanly
// and the transition is re-evaluated against fresh state.
func (oc *OrderController) UpdateOrderStatus(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}
	if !isRestaurantMember(ctx, restaurant) {
		sendErrorResponse(ctx, http.StatusForbidden, msgNotRestaurantMember)
		return
	}

	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	var body struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if !body.Status.Valid() {
		sendErrorResponse(ctx, http.StatusBadRequest, fmt.Sprintf("unknown order status %q", body.Status))
		return
	}

	var order models.Order
	var previous models.OrderStatus
	for attempt := 0; ; attempt++ {
		if result := initializers.DB.
			Where("id = ? AND restaurant_id = ?", orderID, restaurant.ID).
			First(&order); result.Error != nil {
			sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
			return
		}

		previous = order.Status
		if err := previous.CanTransitionTo(body.Status); err != nil {
			var invalid *models.InvalidTransitionError
			if errors.As(err, &invalid) {
				sendErrorResponse(ctx, http.StatusUnprocessableEntity, invalid.Error())
				return
			}
			sendErrorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
			return
		}

		updates := map[string]any{"status": body.Status}
		if body.Status == models.OrderPreparing {
			if staffID, ok := currentUserID(ctx); ok {
				updates["kitchen_staff_id"] = staffID
			}
		}
		result := initializers.DB.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, previous).
			Updates(updates)
		if result.Error != nil {
			log.Error().Err(result.Error).Uint("orderId", order.ID).Msg("Status update failed")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
			return
		}
		if result.RowsAffected > 0 {
			break
		}
		if attempt+1 >= statusUpdateAttempts {
			sendErrorResponse(ctx, http.StatusConflict, msgConcurrentStatusEdit)
			return
		}
	}
	order.Status = body.Status

	message := fmt.Sprintf("Order #%d is now %s", order.OrderNo, order.Status)
	oc.notifyStaff(restaurant.ID, sockets.EventOrderStatusUpdated, message, &order)
	oc.Sockets.Publish(sockets.OrderRoom(order.ID), sockets.EventOrderStatusUpdated, gin.H{"message": message})

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message":        "Order status updated successfully.",
		"previousStatus": previous,
		"newStatus":      order.Status,
		"order":          order,
	})
}

// GetOrder returns the full order with its items and restaurant.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	orderID, err := strconv.Atoi(ctx.Param("orderId"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderId")
		return
	}

	var order models.Order
	if result := initializers.DB.Preload("Items").
		Where("id = ? AND restaurant_id = ?", orderID, restaurant.ID).
		First(&order); result.Error != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"order": order, "restaurant": restaurant})
}

// GetOrdersByIds batch-fetches orders for customer order history:
// /order/by-ids?restaurantSlug=...&orderIds=1,2,3
func (oc *OrderController) GetOrdersByIds(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Query("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	var ids []int
	for _, raw := range strings.Split(ctx.Query("orderIds"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			sendErrorResponse(ctx, http.StatusBadRequest, "Failed to parse orderIds")
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": []models.Order{}})
		return
	}

	var orders []models.Order
	if result := initializers.DB.Preload("Items").
		Where("restaurant_id = ? AND id IN ?", restaurant.ID, ids).
		Order("created_at desc").
		Find(&orders); result.Error != nil {
		log.Error().Err(result.Error).Msg("Batch order fetch failed")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToFetchOrders)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"orders": orders})
}

// GetOrders is the paginated staff listing with an optional status filter.
func (oc *OrderController) GetOrders(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}
	if !isRestaurantMember(ctx, restaurant) {
		sendErrorResponse(ctx, http.StatusForbidden, msgNotRestaurantMember)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "15"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 15
	}
	offset := (page - 1) * limit

	sortOrder := ctx.DefaultQuery("sort", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	query := initializers.DB.Preload("Items").Where("restaurant_id = ?", restaurant.ID)
	countQuery := initializers.DB.Model(&models.Order{}).Where("restaurant_id = ?", restaurant.ID)

	if status := ctx.Query("status"); status != "" {
		query = query.Where("status = ?", status)
		countQuery = countQuery.Where("status = ?", status)
	}

	var orders []models.Order
	if result := query.Order("created_at " + sortOrder).
		Limit(limit).Offset(offset).
		Find(&orders); result.Error != nil {
		log.Error().Err(result.Error).Msg("Order listing failed")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToFetchOrders)
		return
	}

	var count int64
	countQuery.Count(&count)
	totalPages := int(math.Ceil(float64(count) / float64(limit)))

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"orders": orders,
		"metadata": gin.H{
			"total":       count,
			"currentPage": page,
			"limit":       limit,
			"hasPrevPage": page > 1,
			"hasNextPage": totalPages > page,
		},
	})
}
