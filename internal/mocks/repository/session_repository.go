package repository

import (
	"context"
	"time"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"

	"github.com/stretchr/testify/mock"
)

var _ repository.SessionRepository = (*MockSessionRepository)(nil)

// MockSessionRepository is a mock of repository.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a mock whose expectations are asserted on cleanup.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, userID int64, ttl time.Duration) (*entity.Session, error) {
	args := m.Called(ctx, userID, ttl)
	sess, _ := args.Get(0).(*entity.Session)

	return sess, args.Error(1)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	args := m.Called(ctx, id)
	sess, _ := args.Get(0).(*entity.Session)

	return sess, args.Error(1)
}

func (m *MockSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockSessionRepository) Destroy(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}
