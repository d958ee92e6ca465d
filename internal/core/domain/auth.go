package domain

import "time"

// Scope limits what an API client token may call
type Scope string

const (
	ScopeChat   Scope = "chat"   // Chat and history endpoints
	ScopeIngest Scope = "ingest" // Ingestion and document management
)

// AuthContext contains authenticated client info for request context
type AuthContext struct {
	Subject string  `json:"subject"`
	Scopes  []Scope `json:"scopes"`
}

// HasScope reports whether the client may use the given scope
func (a *AuthContext) HasScope(scope Scope) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Subject   string  `json:"sub"`
	Scopes    []Scope `json:"scopes"`
	IssuedAt  int64   `json:"iat"`
	ExpiresAt int64   `json:"exp"`
}

// NewTokenClaims creates claims valid for ttl from now
func NewTokenClaims(subject string, scopes []Scope, ttl time.Duration) *TokenClaims {
	now := time.Now()
	return &TokenClaims{
		Subject:   subject,
		Scopes:    scopes,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

// IsExpired checks if the claims have expired
func (c *TokenClaims) IsExpired() bool {
	return time.Now().Unix() >= c.ExpiresAt
}
