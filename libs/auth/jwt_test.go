package auth

import (
	"testing"
	"time"
)

func TestHS256RoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	token, err := issuer.Sign("sess-1")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.SessionID != "sess-1" || claims.Subject != "sess-1" {
		t.Fatalf("claims mismatch: got %+v", claims)
	}

	other, _ := NewIssuer("wrong-secret", time.Hour)
	if _, err := other.Verify(token); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.Sign("sess-2")
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGarbageRejected(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Hour)
	if _, err := issuer.Verify("badtoken"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("  ", time.Hour); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
