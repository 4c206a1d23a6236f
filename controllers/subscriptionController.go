package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

// GetSubscription returns the authenticated user's subscription.
func GetSubscription(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		sendErrorResponse(ctx, http.StatusUnauthorized, "User not found in context")
		return
	}

	var subscription models.Subscription
	if result := initializers.DB.Where("user_id = ?", userID).First(&subscription); result.Error != nil {
		sendErrorResponse(ctx, http.StatusNotFound, "no subscription for this user")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"subscription": subscription,
		"active":       subscription.Active(time.Now()),
	})
}
