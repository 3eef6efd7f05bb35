package postgres

import (
	"strings"

	"planner/internal/errors"

	"gorm.io/gorm"
)

// isUniqueConstraintViolation detects duplicate keys whether or not the dialector
// translates driver errors.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "sqlstate 23505") ||
		strings.Contains(errMsg, "duplicate key value")
}
