// Package database provides database constructors and schema bootstrap
package database

import (
	"fmt"

	"github.com/usersvc/usersvc/pkg/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for all persisted models. The
// users email unique index is created here and is the source of truth
// for email uniqueness.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
