package initializers

import (
	"github.com/rs/zerolog/log"

	"github.com/dineqr/dineqr-api/models"
)

func SyncDatabase() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.Restaurant{},
		&models.Table{},
		&models.FoodItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderNoCounter{},
		&models.Payment{},
		&models.Subscription{},
		&models.Cart{},
		&models.CartItem{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Database migration failed")
	}
	log.Info().Msg("Database synced successfully")
}
