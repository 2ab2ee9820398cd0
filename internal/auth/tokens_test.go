package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "vidstream", time.Minute)
	userID := uuid.NewString()

	token, expires, err := issuer.Sign(userID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expected expiry in the future, got %s", expires)
	}
	got, err := issuer.Verify(token)
	if err != nil || got != userID {
		t.Fatalf("verify: got %q err %v", got, err)
	}
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "vidstream", time.Minute)
	userID := uuid.NewString()
	token, _, err := issuer.Sign(userID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	otherSecret := NewTokenIssuer("other", "vidstream", time.Minute)
	otherIssuer := NewTokenIssuer("secret", "someone-else", time.Minute)
	expired := NewTokenIssuer("secret", "vidstream", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(time.Hour) }

	cases := map[string]*TokenIssuer{"signature": otherSecret, "issuer": otherIssuer, "expired": expired}
	for name, verifier := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}

	if _, err := issuer.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected empty token rejection, got %v", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
