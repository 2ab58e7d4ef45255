package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	claims := Claims{
		Sub:   "user-1",
		OrgID: "org-1",
		Role:  "owner",
		Iat:   time.Now().Unix(),
		Exp:   time.Now().Add(1 * time.Hour).Unix(),
	}
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.OrgID != claims.OrgID || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestHS256PortalClaims(t *testing.T) {
	claims := Claims{
		Sub:        "customer-7",
		OrgID:      "org-1",
		Role:       "customer",
		CustomerID: "customer-7",
		Iat:        time.Now().Unix(),
		Exp:        time.Now().Add(30 * time.Minute).Unix(),
	}
	token, err := SignHS256(claims, "portal-secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, "portal-secret")
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.CustomerID != claims.CustomerID {
		t.Fatalf("expected customer_id %q, got %q", claims.CustomerID, parsed.CustomerID)
	}
}

func TestHS256Expired(t *testing.T) {
	claims := Claims{
		Sub:   "user-1",
		OrgID: "org-1",
		Role:  "admin",
		Iat:   time.Now().Add(-2 * time.Hour).Unix(),
		Exp:   time.Now().Add(-1 * time.Hour).Unix(),
	}
	token, err := SignHS256(claims, "test-secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "test-secret"); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestVerifyRS256WrongKey(t *testing.T) {
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	// A token signed under an HS secret must never verify as RS256.
	token, err := SignHS256(Claims{Sub: "user-1", Exp: time.Now().Add(time.Hour).Unix()}, "secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := VerifyRS256(token, &other.PublicKey); err == nil {
		t.Fatal("expected RS256 verification to fail")
	}
}
