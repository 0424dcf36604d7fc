package repository

import (
	"fmt"

	"gorm.io/gorm"

	"studykwork/internal/model"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Listing{}, &model.ListingImage{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}
