// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"time"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"
	"planner/internal/errors"
	"planner/internal/infra/persistence/model"

	"gorm.io/gorm"
)

// credentialRepository implements the repository.CredentialRepository interface.
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository is the constructor for credentialRepository.
func NewCredentialRepository(db *gorm.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

func (repo *credentialRepository) FindByUsername(ctx context.Context, username string) (*entity.Credential, error) {
	var credM model.CredentialModel
	err := repo.db.WithContext(ctx).
		Where("username = ?", username).
		Take(&credM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toCredentialDomain(&credM), nil
}

func (repo *credentialRepository) FindByID(ctx context.Context, id int64) (*entity.Credential, error) {
	var credM model.CredentialModel
	if err := repo.db.WithContext(ctx).Take(&credM, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrCredentialNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toCredentialDomain(&credM), nil
}

func (repo *credentialRepository) Create(ctx context.Context, username, passwordHash string) (*entity.Credential, error) {
	now := time.Now().UTC()
	credM := &model.CredentialModel{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := repo.db.WithContext(ctx).Create(credM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return nil, repository.ErrDuplicateUsername
		}

		return nil, errors.Wrap(err, "failed to create credential")
	}

	return toCredentialDomain(credM), nil
}

func (repo *credentialRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.CredentialModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update password hash")
	}
	if result.RowsAffected == 0 {
		return repository.ErrCredentialNotFound
	}

	return nil
}

func toCredentialDomain(m *model.CredentialModel) *entity.Credential {
	return &entity.Credential{
		ID:           m.ID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
