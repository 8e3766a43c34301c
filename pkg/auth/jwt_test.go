package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignerRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewSigner("test-secret", "cosmetics-recommender")
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}

	token, err := signer.GenerateToken("ops", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := signer.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != "ops" || !claims.IsAdmin() {
		t.Errorf("claims = %+v, want admin ops", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	t.Parallel()

	signer, _ := NewSigner("test-secret", "cosmetics-recommender")
	other, _ := NewSigner("other-secret", "cosmetics-recommender")

	expired, _ := signer.GenerateToken("ops", RoleAdmin, -time.Minute)
	foreign, _ := other.GenerateToken("ops", RoleAdmin, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := signer.ValidateToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewSigner("", "x"); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("NewSigner(\"\") error = %v, want ErrMissingSecret", err)
	}
}
