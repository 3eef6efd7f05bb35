package postgres

import (
	"context"
	"time"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"
	"planner/internal/errors"
	"planner/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sessionRepository implements the repository.SessionRepository interface.
// Expired rows are removed by DeleteExpired, driven by the janitor.
type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository is the constructor for sessionRepository.
func NewSessionRepository(db *gorm.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (*entity.Session, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate session id")
	}

	now := time.Now().UTC()
	sessM := &model.SessionModel{
		ID:         id,
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		LastSeenAt: now,
	}

	if err := repo.db.WithContext(ctx).Create(sessM).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	return toSessionDomain(sessM), nil
}

func (repo *sessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		// Not an id this store could have issued
		return nil, repository.ErrSessionNotFound
	}

	var sessM model.SessionModel
	if err := repo.db.WithContext(ctx).Where("id = ?", sessionID).Take(&sessM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSessionNotFound
		}

		return nil, errors.WithStack(err)
	}

	return toSessionDomain(&sessM), nil
}

func (repo *sessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return repository.ErrSessionNotFound
	}

	result := repo.db.WithContext(ctx).
		Model(&model.SessionModel{}).
		Where("id = ?", sessionID).
		Update("last_seen_at", at.UTC())
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to touch session")
	}
	if result.RowsAffected == 0 {
		return repository.ErrSessionNotFound
	}

	return nil
}

func (repo *sessionRepository) Destroy(ctx context.Context, id string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	if err := repo.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&model.SessionModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete session")
	}

	return nil
}

func (repo *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now().UTC()).
		Delete(&model.SessionModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete expired sessions")
	}

	return result.RowsAffected, nil
}

func toSessionDomain(m *model.SessionModel) *entity.Session {
	return &entity.Session{
		ID:         m.ID.String(),
		UserID:     m.UserID,
		CreatedAt:  m.CreatedAt,
		ExpiresAt:  m.ExpiresAt,
		LastSeenAt: m.LastSeenAt,
	}
}
