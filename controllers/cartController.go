package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

const (
	cartTTL = 2 * time.Hour

	msgCartNotFound       = "cart not found"
	msgFailedToCreateCart = "failed to create cart"
)

func createCart(restaurantID, tableID uint, sessionToken string) (models.Cart, error) {
	cart := models.Cart{
		RestaurantID: restaurantID,
		TableID:      tableID,
		SessionToken: sessionToken,
		ExpiresAt:    time.Now().Add(cartTTL),
	}
	return cart, initializers.DB.Create(&cart).Error
}

// AddCartItem adds an item to a table-session cart, creating the cart when
// the session token is new or the previous session has expired. Every write
// refreshes the TTL.
func AddCartItem(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	var body struct {
		TableID      uint   `json:"tableId" binding:"required"`
		SessionToken string `json:"sessionToken"`
		FoodItemID   uint   `json:"foodItemId" binding:"required"`
		Variant      string `json:"variant"`
		Quantity     int    `json:"quantity" binding:"required,min=1"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	var food models.FoodItem
	if result := initializers.DB.
		Where("id = ? AND restaurant_id = ? AND is_available = ?", body.FoodItemID, restaurant.ID, true).
		First(&food); result.Error != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "food item is not available")
		return
	}

	if body.SessionToken == "" {
		body.SessionToken = uuid.NewString()
	}

	var cart models.Cart
	err = initializers.DB.
		Where("restaurant_id = ? AND session_token = ?", restaurant.ID, body.SessionToken).
		First(&cart).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cart, err = createCart(restaurant.ID, body.TableID, body.SessionToken)
		if err != nil {
			log.Error().Err(err).Msg("Cart creation error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToCreateCart)
			return
		}
	case err != nil:
		log.Error().Err(err).Msg("Cart lookup error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	case cart.Expired(time.Now()):
		// An expired cart is as good as absent: retire it and start a fresh
		// session under the same token instead of bouncing the customer.
		if result := initializers.DB.Delete(&cart); result.Error != nil {
			log.Error().Err(result.Error).Msg("Expired cart cleanup error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
			return
		}
		cart, err = createCart(restaurant.ID, body.TableID, body.SessionToken)
		if err != nil {
			log.Error().Err(err).Msg("Cart creation error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToCreateCart)
			return
		}
	}

	// Same item and variant: bump the quantity instead of adding a line.
	var existing models.CartItem
	err = initializers.DB.
		Where("cart_id = ? AND food_item_id = ? AND variant = ?", cart.ID, body.FoodItemID, body.Variant).
		First(&existing).Error
	if err == nil {
		existing.Quantity += body.Quantity
		if result := initializers.DB.Save(&existing); result.Error != nil {
			log.Error().Err(result.Error).Msg("Cart item update error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
			return
		}
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		item := models.CartItem{
			CartID:     int(cart.ID),
			FoodItemID: food.ID,
			Name:       food.Name,
			Variant:    body.Variant,
			Quantity:   body.Quantity,
			UnitPrice:  food.Price,
		}
		if result := initializers.DB.Create(&item); result.Error != nil {
			log.Error().Err(result.Error).Msg("Cart item creation error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
			return
		}
	} else {
		log.Error().Err(err).Msg("Cart item lookup error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	if result := initializers.DB.Model(&cart).
		Update("expires_at", time.Now().Add(cartTTL)); result.Error != nil {
		log.Error().Err(result.Error).Msg("Cart TTL refresh error")
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message":      food.Name + " added to cart",
		"sessionToken": cart.SessionToken,
	})
}

// GetCart returns a live (non-expired) cart with its items.
func GetCart(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("restaurantSlug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	var cart models.Cart
	result := initializers.DB.
		Where("restaurant_id = ? AND session_token = ?", restaurant.ID, ctx.Param("sessionToken")).
		Preload("Items").
		First(&cart)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgCartNotFound)
		} else {
			log.Error().Err(result.Error).Msg("Cart fetch error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		}
		return
	}
	if cart.Expired(time.Now()) {
		sendErrorResponse(ctx, http.StatusNotFound, msgCartNotFound)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"cart": cart})
}
