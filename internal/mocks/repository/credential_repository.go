// Package repository holds testify mocks for the domain repository interfaces.
package repository

import (
	"context"

	"planner/internal/domain/entity"
	"planner/internal/domain/repository"

	"github.com/stretchr/testify/mock"
)

var _ repository.CredentialRepository = (*MockCredentialRepository)(nil)

// MockCredentialRepository is a mock of repository.CredentialRepository.
type MockCredentialRepository struct {
	mock.Mock
}

// NewMockCredentialRepository creates a mock whose expectations are asserted on cleanup.
func NewMockCredentialRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCredentialRepository {
	m := &MockCredentialRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCredentialRepository) FindByUsername(ctx context.Context, username string) (*entity.Credential, error) {
	args := m.Called(ctx, username)
	cred, _ := args.Get(0).(*entity.Credential)

	return cred, args.Error(1)
}

func (m *MockCredentialRepository) FindByID(ctx context.Context, id int64) (*entity.Credential, error) {
	args := m.Called(ctx, id)
	cred, _ := args.Get(0).(*entity.Credential)

	return cred, args.Error(1)
}

func (m *MockCredentialRepository) Create(ctx context.Context, username, passwordHash string) (*entity.Credential, error) {
	args := m.Called(ctx, username, passwordHash)
	cred, _ := args.Get(0).(*entity.Credential)

	return cred, args.Error(1)
}

func (m *MockCredentialRepository) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}
