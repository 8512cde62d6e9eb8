package dbutil

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const DuplicateKeyErrorCode = "23505"

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// WrapError translates gorm and driver errors into the package sentinels.
// SQLite reports unique violations as plain text, Postgres as SQLSTATE 23505.
func WrapError(err error) error {
	var pgErr *pgconn.PgError

	if err == nil {
		return nil
	} else if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateKey) {
		return err
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	} else if errors.As(err, &pgErr) {
		if pgErr.Code == DuplicateKeyErrorCode {
			return ErrDuplicateKey
		}
	} else if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicateKey
	}

	return err
}
