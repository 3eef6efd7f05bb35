// Package service holds testify mocks for the domain service interfaces.
package service

import (
	"context"

	"planner/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

var _ service.IdentityProvider = (*MockIdentityProvider)(nil)

// MockIdentityProvider is a mock of service.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

// NewMockIdentityProvider creates a mock whose expectations are asserted on cleanup.
func NewMockIdentityProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIdentityProvider {
	m := &MockIdentityProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockIdentityProvider) Name() string {
	return "mock"
}

func (m *MockIdentityProvider) Verify(ctx context.Context, token string) (*service.Identity, error) {
	args := m.Called(ctx, token)
	identity, _ := args.Get(0).(*service.Identity)

	return identity, args.Error(1)
}
