package auth

import (
	"context"

	"github.com/google/uuid"
)

// MockJWTService is a JWTService whose behavior is set per test.
type MockJWTService struct {
	GenerateTokenFunc func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*Claims, error)
}

// Ensure MockJWTService implements JWTService interface
var _ JWTService = (*MockJWTService)(nil)

// NewMockJWTService returns a mock that accepts any non-empty token as the
// given user.
func NewMockJWTService(userID uuid.UUID) *MockJWTService {
	return &MockJWTService{
		GenerateTokenFunc: func(ctx context.Context, _ uuid.UUID) (string, error) {
			return "mock-token", nil
		},
		ValidateTokenFunc: func(ctx context.Context, tokenString string) (*Claims, error) {
			if tokenString == "" {
				return nil, ErrMissingToken
			}
			return &Claims{UserID: userID, Subject: userID.String()}, nil
		},
	}
}

// GenerateToken implements JWTService
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return m.GenerateTokenFunc(ctx, userID)
}

// ValidateToken implements JWTService
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	return m.ValidateTokenFunc(ctx, tokenString)
}
