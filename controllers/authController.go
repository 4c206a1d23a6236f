package controllers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/dineqr/dineqr-api/initializers"
	"github.com/dineqr/dineqr-api/models"
)

const (
	// Default cost for bcrypt password hashing
	bcryptCost = 10

	trialDays = 14

	// Standard response messages
	msgInvalidInput          = "invalid input"
	msgUserAlreadyExists     = "user already exists"
	msgFailedToHashPassword  = "failed to hash password"
	msgInvalidCredentials    = "invalid email or password"
	msgFailedToGenerateToken = "failed to generate token"
	msgInternalServerError   = "Internal server error"
	msgUserCreated           = "Account created successfully."
)

func sendJSONResponse(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePasswords(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func generateJWT(user models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour * 24 * 30).Unix(),
	}
	if user.RestaurantID != nil {
		claims["restaurant_id"] = *user.RestaurantID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	jwtSecret := os.Getenv("JWT_SECRET")
	return token.SignedString([]byte(jwtSecret))
}

func checkUserExists(email string) (bool, error) {
	var existingUser models.User
	result := initializers.DB.Where("email = ?", email).Find(&existingUser)
	return result.RowsAffected > 0, result.Error
}

// startTrialSubscription upserts the user's subscription row with a fresh
// starter trial. One row per user; dates are overwritten, not appended.
func startTrialSubscription(userID uint) error {
	now := time.Now()
	expires := now.Add(trialDays * 24 * time.Hour)
	subscription := models.Subscription{
		UserID:                userID,
		Plan:                  models.PlanStarter,
		IsTrial:               true,
		TrialExpiresAt:        &expires,
		SubscriptionStartDate: now,
		SubscriptionEndDate:   expires,
	}
	return initializers.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"plan", "is_trial", "trial_expires_at", "subscription_start_date", "subscription_end_date"}),
	}).Create(&subscription).Error
}

// Signup registers an owner or staff account and starts a starter trial.
func Signup(ctx *gin.Context) {
	var signUpData struct {
		Fullname string `json:"fullname" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required,min=8"`
		Role     string `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&signUpData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	exists, err := checkUserExists(signUpData.Email)
	if err != nil {
		log.Error().Err(err).Msg("Database error during user check")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}
	if exists {
		sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
		return
	}

	hashedPassword, err := hashPassword(signUpData.Password)
	if err != nil {
		log.Error().Err(err).Msg("Password hashing error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToHashPassword)
		return
	}

	role := signUpData.Role
	if role == "" {
		role = "owner"
	}

	user := models.User{
		Fullname: signUpData.Fullname,
		Email:    signUpData.Email,
		Phone:    signUpData.Phone,
		Password: hashedPassword,
		Role:     role,
	}
	if result := initializers.DB.Create(&user); result.Error != nil {
		log.Error().Err(result.Error).Msg("User creation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	if err := startTrialSubscription(user.ID); err != nil {
		log.Error().Err(err).Uint("userId", user.ID).Msg("Failed to start trial subscription")
	}

	sendJSONResponse(ctx, http.StatusCreated, gin.H{"message": msgUserCreated, "userId": user.ID})
}

// Login handles user authentication
func Login(ctx *gin.Context) {
	var loginData models.LoginData
	if err := ctx.ShouldBindJSON(&loginData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	var user models.User
	if result := initializers.DB.Where("email = ?", loginData.Email).First(&user); result.Error != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	if err := comparePasswords(user.Password, loginData.Password); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidCredentials)
		return
	}

	tokenString, err := generateJWT(user)
	if err != nil {
		log.Error().Err(err).Msg("JWT generation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"token": tokenString})
}
