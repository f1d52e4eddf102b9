package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "secret", time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	claims, err := ValidateAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("UserID = %d, want 42", claims.UserID)
	}
}

func TestValidateRejects(t *testing.T) {
	valid, _ := GenerateAccessToken(1, "secret", time.Minute)
	defaultTTL, _ := GenerateAccessToken(1, "secret", -time.Minute)
	noUser, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte("secret"))

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"wrong secret", valid, "other"},
		{"garbage", "not-a-token", "secret"},
		{"missing user", noUser, "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateAccessToken(tt.token, tt.secret); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	// GenerateAccessToken treats ttl <= 0 as the default expiry
	if _, err := ValidateAccessToken(defaultTTL, "secret"); err != nil {
		t.Fatalf("non-positive ttl should use default expiry: %v", err)
	}
}
