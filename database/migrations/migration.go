package migrations

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/khankhulgun/maplayers/models"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.OverlayLayer{}); err != nil {
		return fmt.Errorf("migrate overlay layers: %w", err)
	}
	return nil
}
