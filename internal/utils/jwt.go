package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA‑256 hashing for refresh secrets
	"encoding/hex"  // hex encoding of random bytes and digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrNoSecret is returned when token signing is attempted without a signing
// secret.  This is a deployment mistake, not a client error.
var ErrNoSecret = errors.New("jwt signing secret is not configured")

// ErrInvalidToken covers every way an access token can fail verification:
// bad signature, malformed structure or expiry.  Callers treat all of them
// alike so the cause is not leaked to clients.
var ErrInvalidToken = errors.New("invalid access token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short‑lived and presented in the Authorization header
// when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshSecret is the opaque secret handed to the client exactly once.
// Only its SHA‑256 hash is ever persisted; a stolen database row cannot be
// replayed as a refresh secret.
type RefreshSecret struct {
	Raw string    // raw secret returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The claims are
// the standard subject (sub), expiration (exp) and issued-at (iat).  It
// fails with ErrNoSecret when the signing secret is empty.
func NewAccessToken(secret string, userID uint64, ttlMin int) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, ErrNoSecret
	}
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a token and returns
// the subject user id and expiry.  Every failure mode maps to
// ErrInvalidToken.
func ParseAccessToken(secret, raw string) (uint64, time.Time, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything other than HMAC; accepting the
		// caller-chosen algorithm would defeat the signature check.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return 0, time.Time{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, time.Time{}, ErrInvalidToken
	}
	expClaim, err := claims.GetExpirationTime()
	if err != nil || expClaim == nil {
		return 0, time.Time{}, ErrInvalidToken
	}
	return uint64(sub), expClaim.Time, nil
}

// NewRefreshSecret returns a cryptographically random refresh secret (24
// bytes of entropy, hex encoded) and its expiration time.  The ttlDays
// parameter controls how many days the secret stays valid.
func NewRefreshSecret(ttlDays int) (RefreshSecret, error) {
	raw, err := randomHex(24) // 24 bytes -> 48 hex chars
	if err != nil {
		return RefreshSecret{}, err
	}
	return RefreshSecret{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshSecret returns the SHA‑256 hash of a raw refresh secret as a
// hex string.  The hash is deterministic, so it doubles as the lookup key
// for the refresh_tokens table without storing the secret itself.
func HashRefreshSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
