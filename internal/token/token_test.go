package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer([]byte("secret"), 30*time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	raw, expires, err := issuer.Issue("alice")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expires) <= 29*time.Minute {
		t.Errorf("unexpected expiry: %s", expires)
	}

	username, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if username != "alice" {
		t.Errorf("expected alice, got %q", username)
	}
}

func TestVerifyRejects(t *testing.T) {
	issuer, err := NewIssuer([]byte("secret"), time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	t.Run("garbage", func(t *testing.T) {
		if _, err := issuer.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("foreign secret", func(t *testing.T) {
		other, _ := NewIssuer([]byte("other"), time.Minute)
		raw, _, err := other.Issue("alice")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		if _, err := issuer.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		raw, _, err := issuer.Issue("alice")
		if err != nil {
			t.Fatalf("Issue failed: %v", err)
		}
		issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { issuer.now = time.Now }()
		if _, err := issuer.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestNewIssuerValidation(t *testing.T) {
	if _, err := NewIssuer(nil, time.Minute); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	if _, err := NewIssuer([]byte("secret"), 0); err == nil {
		t.Fatal("expected an error for a zero lifetime")
	}
}
