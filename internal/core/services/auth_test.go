package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
	"github.com/custodia-labs/sercha-assist/internal/core/ports/driven/mocks"
)

func newTestAuthService() (*mocks.MockAuthAdapter, *authService) {
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(authAdapter, time.Hour).(*authService)
	return authAdapter, svc
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	_, svc := newTestAuthService()

	token, err := svc.IssueToken(context.Background(), "frontend", []domain.Scope{domain.ScopeChat})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authCtx, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authCtx.Subject != "frontend" {
		t.Errorf("expected subject frontend, got %s", authCtx.Subject)
	}
	if !authCtx.HasScope(domain.ScopeChat) {
		t.Error("expected chat scope")
	}
	if authCtx.HasScope(domain.ScopeIngest) {
		t.Error("did not expect ingest scope")
	}
}

func TestAuthService_IssueToken_InvalidInput(t *testing.T) {
	_, svc := newTestAuthService()

	tests := []struct {
		name    string
		subject string
		scopes  []domain.Scope
	}{
		{"empty subject", "  ", []domain.Scope{domain.ScopeChat}},
		{"no scopes", "frontend", nil},
		{"unknown scope", "frontend", []domain.Scope{"admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueToken(context.Background(), tt.subject, tt.scopes)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	authAdapter, svc := newTestAuthService()

	expired, _ := authAdapter.GenerateToken(&domain.TokenClaims{
		Subject:   "frontend",
		Scopes:    []domain.Scope{domain.ScopeChat},
		IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAt: time.Now().Add(-time.Hour).Unix(),
	})
	noScopes, _ := authAdapter.GenerateToken(domain.NewTokenClaims("frontend", nil, time.Hour))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", domain.ErrTokenInvalid},
		{"garbage", "not-a-token!", domain.ErrTokenInvalid},
		{"expired", expired, domain.ErrTokenExpired},
		{"no scopes", noScopes, domain.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewAuthService_DefaultTTL(t *testing.T) {
	svc := NewAuthService(mocks.NewMockAuthAdapter(), 0).(*authService)
	if svc.tokenTTL != 24*time.Hour {
		t.Errorf("expected 24h default, got %v", svc.tokenTTL)
	}
}
