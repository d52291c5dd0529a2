package auth

import (
	"testing"
	"time"
)

func TestTokenService_AccessTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute, 24*time.Hour)

	token, err := svc.IssueAccessToken(42)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	userID, err := svc.Verify(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected user ID 42, got %d", userID)
	}
}

func TestTokenService_RefreshTokenRejectedAsAccess(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute, 24*time.Hour)

	token, err := svc.IssueRefreshToken(42)
	if err != nil {
		t.Fatalf("IssueRefreshToken failed: %v", err)
	}

	if _, err := svc.Verify(token, TokenTypeAccess); err == nil {
		t.Error("Expected refresh token to be rejected when an access token is required")
	}
}

func TestTokenService_ExpiredTokenRejected(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute, 24*time.Hour)

	token, err := svc.IssueAccessToken(42)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	if _, err := svc.Verify(token, TokenTypeAccess); err == nil {
		t.Error("Expected expired token to be rejected")
	}
}

func TestTokenService_WrongSecretRejected(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute, 24*time.Hour)
	other := NewTokenService("other-secret", 30*time.Minute, 24*time.Hour)

	token, err := svc.IssueAccessToken(42)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}

	if _, err := other.Verify(token, TokenTypeAccess); err == nil {
		t.Error("Expected token signed with a different secret to be rejected")
	}
}

func TestTokenService_GarbageRejected(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute, 24*time.Hour)

	if _, err := svc.Verify("not-a-token", TokenTypeAccess); err == nil {
		t.Error("Expected malformed token to be rejected")
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword("password123", hash) {
		t.Error("Expected correct password to verify")
	}
	if CheckPassword("wrongpassword", hash) {
		t.Error("Expected wrong password to be rejected")
	}
}
