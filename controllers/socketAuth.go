package controllers

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

var errNotAMember = errors.New("user is not a member of this restaurant")

// AuthorizeSocket verifies a socket client's access token and checks that its
// subject belongs to the restaurant whose room it wants to join. Used as the
// hub's AuthorizeFunc.
func AuthorizeSocket(accessToken string, restaurantID uint) (string, error) {
	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid access token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return "", errors.New("token has no subject")
	}

	var user models.User
	if result := initializers.DB.First(&user, uint(userID)); result.Error != nil {
		return "", errNotAMember
	}

	var restaurant models.Restaurant
	if result := initializers.DB.First(&restaurant, restaurantID); result.Error != nil {
		return "", errNotAMember
	}

	if restaurant.OwnerID == user.ID {
		return "owner", nil
	}
	if user.RestaurantID != nil && *user.RestaurantID == restaurantID && user.Role != "" {
		return user.Role, nil
	}
	return "", errNotAMember
}
