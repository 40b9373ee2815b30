package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cppla/dailydraw/config"
)

func useSecret(t *testing.T, secret string) {
	t.Helper()
	config.Set(config.AppConfig{JWTSecret: secret})
}

func TestTokenRoundTrip(t *testing.T) {
	useSecret(t, "test-secret")
	token, err := GenerateToken(7, "ann", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "ann" || claims.Subject != "ann" || claims.Issuer != tokenIssuer {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("token has no id")
	}
	other, _ := GenerateToken(7, "ann", time.Hour)
	if parsed, _ := ParseToken(other); parsed == nil || parsed.ID == claims.ID {
		t.Fatalf("token ids must differ per login")
	}
}

func TestParseTokenRejects(t *testing.T) {
	useSecret(t, "test-secret")

	expired, _ := GenerateToken(1, "ann", -time.Hour)
	if _, err := ParseToken(expired); err == nil {
		t.Fatalf("expired token accepted")
	}

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "ann",
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    "someone-else",
			Subject:   "ann",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, _ := foreign.SignedString([]byte("test-secret"))
	if _, err := ParseToken(signed); err == nil {
		t.Fatalf("token from another issuer accepted")
	}

	good, _ := GenerateToken(1, "ann", time.Hour)
	useSecret(t, "rotated")
	if _, err := ParseToken(good); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}
}

func TestBlacklistByTokenID(t *testing.T) {
	useSecret(t, "test-secret")
	token, _ := GenerateToken(1, "ben", time.Hour)
	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if IsTokenBlacklisted(claims.ID) {
		t.Fatalf("fresh token already revoked")
	}
	BlacklistToken(claims.ID, claims.Expiry(time.Now()))
	if !IsTokenBlacklisted(claims.ID) {
		t.Fatalf("logout did not revoke the token")
	}
}

func TestPasswordPolicy(t *testing.T) {
	cases := map[string]bool{
		"abc12":                  false,
		"abc123":                 true,
		"with space":             false,
		string(make([]byte, 65)): false,
	}
	for pw, want := range cases {
		if got := ValidPassword(pw); got != want {
			t.Fatalf("ValidPassword(%q) = %v, want %v", pw, got, want)
		}
	}
	if _, err := HashPassword("short"); err != ErrPasswordPolicy {
		t.Fatalf("hash of short password: %v", err)
	}
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "hunter22") || CheckPassword(hash, "hunter23") {
		t.Fatalf("CheckPassword mismatch")
	}
}
