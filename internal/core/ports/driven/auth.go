package driven

import "github.com/custodia-labs/sercha-assist/internal/core/domain"

// AuthAdapter handles API token cryptographic operations
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
