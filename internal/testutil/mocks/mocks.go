package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/foodgram/backend/internal/types"
)

// MockMediaStore is a mock implementation of the media storage backend
type MockMediaStore struct {
	mock.Mock
}

// Save mocks the Save method
func (m *MockMediaStore) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

// MockTokenValidator is a mock implementation of the token validator
// used by the auth middleware
type MockTokenValidator struct {
	mock.Mock
}

// ValidateToken mocks the ValidateToken method
func (m *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}
