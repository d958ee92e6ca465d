package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface
type authService struct {
	authAdapter driven.AuthAdapter
	tokenTTL    time.Duration
}

// NewAuthService creates a new AuthService. A non-positive ttl defaults to 24h.
func NewAuthService(authAdapter driven.AuthAdapter, tokenTTL time.Duration) driving.AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &authService{
		authAdapter: authAdapter,
		tokenTTL:    tokenTTL,
	}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	// Parse and validate JWT
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	// Check expiration
	if claims.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	if claims.Subject == "" || len(claims.Scopes) == 0 {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		Subject: claims.Subject,
		Scopes:  claims.Scopes,
	}, nil
}

// IssueToken mints a token for an API client
func (s *authService) IssueToken(ctx context.Context, subject string, scopes []domain.Scope) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	if len(scopes) == 0 {
		return "", fmt.Errorf("%w: at least one scope is required", domain.ErrInvalidInput)
	}
	for _, sc := range scopes {
		if sc != domain.ScopeChat && sc != domain.ScopeIngest {
			return "", fmt.Errorf("%w: unknown scope %q", domain.ErrInvalidInput, sc)
		}
	}
	return s.authAdapter.GenerateToken(domain.NewTokenClaims(subject, scopes, s.tokenTTL))
}
