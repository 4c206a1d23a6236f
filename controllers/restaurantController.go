package controllers

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

const (
	msgSlugTaken           = "a restaurant with this name already exists"
	msgRestaurantNotFound  = "restaurant not found"
	msgNotRestaurantMember = "not a member of this restaurant"
)

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}

func findRestaurantBySlug(slug string) (models.Restaurant, error) {
	var restaurant models.Restaurant
	result := initializers.DB.Where("slug = ?", slug).First(&restaurant)
	return restaurant, result.Error
}

func currentUserID(ctx *gin.Context) (uint, bool) {
	userClaims, exists := ctx.Get("user")
	if !exists {
		return 0, false
	}
	claims, ok := userClaims.(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, false
	}
	return uint(id), true
}

// isRestaurantMember reports whether the authenticated caller owns or works at
// the restaurant. Staff endpoints enforce the same membership rule as socket
// room joins, so a staff token from one restaurant cannot touch another's
// orders.
func isRestaurantMember(ctx *gin.Context, restaurant models.Restaurant) bool {
	userID, ok := currentUserID(ctx)
	if !ok {
		return false
	}
	if restaurant.OwnerID == userID {
		return true
	}
	var user models.User
	if result := initializers.DB.First(&user, userID); result.Error != nil {
		return false
	}
	return user.RestaurantID != nil && *user.RestaurantID == restaurant.ID
}

// CreateRestaurant registers a restaurant for the authenticated owner and
// provisions its tables with QR tokens.
func CreateRestaurant(ctx *gin.Context) {
	var body struct {
		Name       string  `json:"name" binding:"required"`
		Currency   string  `json:"currency"`
		TaxRate    float64 `json:"taxRate"`
		TableCount int     `json:"tableCount"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	ownerID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	slug := slugify(body.Name)
	if slug == "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if _, err := findRestaurantBySlug(slug); err == nil {
		sendErrorResponse(ctx, http.StatusConflict, msgSlugTaken)
		return
	}

	if body.Currency == "" {
		body.Currency = "INR"
	}
	if body.TableCount <= 0 {
		body.TableCount = 1
	}

	restaurant := models.Restaurant{
		Name:     body.Name,
		Slug:     slug,
		OwnerID:  ownerID,
		Currency: body.Currency,
		TaxRate:  body.TaxRate,
	}
	for i := 1; i <= body.TableCount; i++ {
		restaurant.Tables = append(restaurant.Tables, models.Table{
			Number:  i,
			QRToken: uuid.NewString(),
		})
	}

	if result := initializers.DB.Create(&restaurant); result.Error != nil {
		log.Error().Err(result.Error).Msg("Restaurant creation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	if result := initializers.DB.Model(&models.User{}).
		Where("id = ?", ownerID).
		Update("restaurant_id", restaurant.ID); result.Error != nil {
		log.Error().Err(result.Error).Uint("userId", ownerID).Msg("Failed to link owner to restaurant")
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{"restaurant": restaurant})
}

// GetMenu returns the QR-ordering menu: the restaurant, its tables and the
// currently available food items.
func GetMenu(ctx *gin.Context) {
	restaurant, err := findRestaurantBySlug(ctx.Param("slug"))
	if err != nil {
		sendErrorResponse(ctx, http.StatusNotFound, msgRestaurantNotFound)
		return
	}

	if result := initializers.DB.
		Preload("Tables").
		Preload("Menu", "is_available = ?", true).
		First(&restaurant, restaurant.ID); result.Error != nil {
		log.Error().Err(result.Error).Msg("Failed to load menu")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"restaurant": restaurant})
}
