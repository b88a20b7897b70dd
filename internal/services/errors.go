package services

import (
	"errors"

	"grindhouse/scoreboard/internal/common"

	"gorm.io/gorm"
)

// storeFailure hides a store error behind an Internal kind. The cause is kept for logs.
func storeFailure(err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return common.NewInternal("Internal server error", err)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
