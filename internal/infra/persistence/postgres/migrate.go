package postgres

import (
	"context"

	"planner/internal/errors"
	"planner/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the credential and session tables.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&model.CredentialModel{}, &model.SessionModel{}); err != nil {
		return errors.Wrap(err, "failed to migrate auth tables")
	}

	return nil
}
