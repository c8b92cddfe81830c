package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret-key"

func TestIssueVerifyRoundtrip(t *testing.T) {
	issuer, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, expiresAt, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.ID == "" {
		t.Fatal("expected token id")
	}
}

func TestIssueUniqueTokenIDs(t *testing.T) {
	issuer, err := NewIssuer(testSecret)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, _, err := issuer.Issue("alice")
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		id, err := PeekID(token)
		if err != nil {
			t.Fatalf("peek: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate token id %q", id)
		}
		seen[id] = true
	}
}

func TestVerifyMalformed(t *testing.T) {
	issuer, _ := NewIssuer(testSecret)
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, ErrMalformedCredential) {
			t.Fatalf("token %q: expected ErrMalformedCredential, got %v", tok, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, _ := NewIssuer(testSecret)
	other, _ := NewIssuer("another-secret")
	token, _, err := other.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer, _ := NewIssuer(testSecret, WithIssuerClock(func() time.Time { return past }))
	token, _, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	verifier, _ := NewIssuer(testSecret)
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestPeekIDDoesNotRequireValidSignature(t *testing.T) {
	other, _ := NewIssuer("another-secret")
	token, _, err := other.Issue("mallory")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := PeekID(token)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if id == "" {
		t.Fatal("expected token id")
	}
}
