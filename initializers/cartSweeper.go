package initializers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dineqr/dineqr-api/models"
)

// StartCartSweeper deletes expired carts on an interval until ctx is
// cancelled. It stands in for the TTL index a document store would provide.
func StartCartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepExpiredCarts()
			}
		}
	}()
}

func sweepExpiredCarts() {
	result := DB.Where("expires_at < ?", time.Now()).Delete(&models.Cart{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("Cart sweep failed")
		return
	}
	if result.RowsAffected > 0 {
		log.Debug().Int64("carts", result.RowsAffected).Msg("Swept expired carts")
	}
}
