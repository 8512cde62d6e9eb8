package dbutil

import (
	"gorm.io/gorm"
)

// FindOne runs the prepared query and returns the single matching record,
// or ErrNotFound when no row matches.
func FindOne[T any](db *gorm.DB) (*T, error) {
	var item T
	result := db.Find(&item)
	if result.Error != nil {
		return nil, WrapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &item, nil
}
