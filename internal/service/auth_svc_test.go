package service

import (
	"testing"
	"time"

	"github.com/firdavsDev/video-streamer-go/internal/model"
)

func testAuthService() *AuthService {
	return NewAuthService(nil, "test-secret", 30*time.Minute, 7*24*time.Hour)
}

func testUser() *model.User {
	return &model.User{
		ID:       "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		Username: "admin",
		Role:     model.RoleSuperAdmin,
		IsActive: true,
	}
}

func TestTokenRoundtrip(t *testing.T) {
	s := testAuthService()

	pair, err := s.issueTokens(testUser())
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}
	if pair.TokenType != "bearer" {
		t.Errorf("tokenType = %q, want bearer", pair.TokenType)
	}
	if pair.ExpiresIn != int((30 * time.Minute).Seconds()) {
		t.Errorf("expiresIn = %d, want 1800", pair.ExpiresIn)
	}

	claims, err := s.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.Subject != "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d" {
		t.Errorf("subject = %q", claims.Subject)
	}
	if claims.Username != "admin" {
		t.Errorf("username = %q, want admin", claims.Username)
	}
	if claims.Role != model.RoleSuperAdmin {
		t.Errorf("role = %q, want %q", claims.Role, model.RoleSuperAdmin)
	}
}

func TestVerifyAccessToken_RejectsRefreshToken(t *testing.T) {
	s := testAuthService()

	pair, err := s.issueTokens(testUser())
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}

	if _, err := s.VerifyAccessToken(pair.RefreshToken); err == nil {
		t.Fatal("refresh token should be rejected as an access token")
	}
}

func TestVerifyAccessToken_RejectsWrongSecret(t *testing.T) {
	s := testAuthService()
	other := NewAuthService(nil, "different-secret", 30*time.Minute, 7*24*time.Hour)

	pair, err := other.issueTokens(testUser())
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}

	if _, err := s.VerifyAccessToken(pair.AccessToken); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}

func TestVerifyAccessToken_RejectsGarbage(t *testing.T) {
	s := testAuthService()
	for _, tok := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := s.VerifyAccessToken(tok); err == nil {
			t.Errorf("token %q should be rejected", tok)
		}
	}
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	s := NewAuthService(nil, "test-secret", -time.Minute, 7*24*time.Hour)

	pair, err := s.issueTokens(testUser())
	if err != nil {
		t.Fatalf("issueTokens: %v", err)
	}

	if _, err := s.VerifyAccessToken(pair.AccessToken); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	if errs := ValidatePasswordStrength("Str0ng!Pass"); len(errs) != 0 {
		t.Errorf("strong password rejected: %v", errs)
	}

	// "short" misses every rule; each of the rest misses exactly one.
	cases := []struct {
		password string
		wantErrs int
	}{
		{"short", 4},
		{"alllowercase1!", 1},
		{"ALLUPPERCASE1!", 1},
		{"NoDigitsHere!", 1},
		{"NoSpecials123", 1},
	}
	for _, c := range cases {
		if errs := ValidatePasswordStrength(c.password); len(errs) != c.wantErrs {
			t.Errorf("ValidatePasswordStrength(%q) = %d errors (%v), want %d", c.password, len(errs), errs, c.wantErrs)
		}
	}
}
