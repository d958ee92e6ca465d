package driving

import (
	"context"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// AuthService validates API bearer tokens
type AuthService interface {
	// ValidateToken parses a token and returns the client's auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken mints a token for an API client
	IssueToken(ctx context.Context, subject string, scopes []domain.Scope) (string, error)
}
