package utils

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "unit-test-secret-key"

func TestNewAccessToken_RequiresSecret(t *testing.T) {
	if _, err := NewAccessToken("", 1, 15); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("NewAccessToken with empty secret: err = %v, want ErrNoSecret", err)
	}
}

func TestAccessToken_Roundtrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, 15)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if tok.Token == "" {
		t.Fatal("NewAccessToken() returned empty token")
	}

	userID, exp, err := ParseAccessToken(testSecret, tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken() error = %v", err)
	}
	if userID != 42 {
		t.Errorf("subject = %d, want 42", userID)
	}
	if d := exp.Sub(time.Now()); d < 14*time.Minute || d > 16*time.Minute {
		t.Errorf("expiry %v away, want about 15 minutes", d)
	}
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	tok, _ := NewAccessToken(testSecret, 7, 15)
	if _, _, err := ParseAccessToken("another-secret", tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestParseAccessToken_Garbage(t *testing.T) {
	if _, _, err := ParseAccessToken(testSecret, "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: err = %v, want ErrInvalidToken", err)
	}
}

func TestParseAccessToken_Expired(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 9, -1)
	if err != nil {
		t.Fatalf("NewAccessToken() error = %v", err)
	}
	if _, _, err := ParseAccessToken(testSecret, tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestNewRefreshSecret_UniqueAndHashable(t *testing.T) {
	s1, err := NewRefreshSecret(30)
	if err != nil {
		t.Fatalf("NewRefreshSecret() error = %v", err)
	}
	s2, _ := NewRefreshSecret(30)
	if s1.Raw == s2.Raw {
		t.Error("two refresh secrets are identical")
	}
	if len(s1.Raw) != 48 { // 24 random bytes, hex encoded
		t.Errorf("raw secret length = %d, want 48", len(s1.Raw))
	}
	if HashRefreshSecret(s1.Raw) != HashRefreshSecret(s1.Raw) {
		t.Error("hash of the same secret is not stable")
	}
	if HashRefreshSecret(s1.Raw) == HashRefreshSecret(s2.Raw) {
		t.Error("different secrets share a hash")
	}
	if got := s1.Exp.Sub(time.Now()); got < 29*24*time.Hour {
		t.Errorf("expiry %v away, want about 30 days", got)
	}
}
