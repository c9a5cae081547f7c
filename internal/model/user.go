package model

import "time"

// User represents an account record as stored in the `users` table.
// The password hash is absent (nil) for accounts created through social
// sign-on; such accounts authenticate only via their provider id.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique, lowercased email address.
//  PasswordHash – bcrypt hashed password; nil for social-only accounts.
//  GoogleID     – Google subject id, unique when present.
//  FacebookID   – Facebook subject id, unique when present.
//  InstagramID  – Instagram subject id, unique when present.
//  Coins        – in-app coin balance.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64
	Email        string
	PasswordHash *string
	GoogleID     *string
	FacebookID   *string
	InstagramID  *string
	Coins        int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can authenticate locally.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ProviderID returns the stored subject id for the named provider, or nil
// when the account has never signed in through it.
func (u *User) ProviderID(provider string) *string {
	switch provider {
	case "google":
		return u.GoogleID
	case "facebook":
		return u.FacebookID
	case "instagram":
		return u.InstagramID
	}
	return nil
}

// Profile holds the public-facing identity of a user.  Usernames are stored
// lowercased for the uniqueness constraint while DisplayName preserves the
// casing the user typed.
type Profile struct {
	ID          uint64
	UserID      uint64
	Username    string // lowercased, unique
	DisplayName string // original casing
	Picture     string // media object key of the profile picture
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RefreshToken models a row in the `refresh_tokens` table.  The secret
// itself is never stored; TokenHash is its SHA‑256 hex digest and doubles
// as the unique lookup key.
//
// A token is usable iff RevokedAt is null and ExpiresAt is in the future.
type RefreshToken struct {
	ID          uint64
	UserID      uint64
	TokenHash   string
	CreatedByIP string
	UserAgent   string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// Revoked reports whether the token has been explicitly invalidated.
func (t *RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Valid reports whether the token can still be exchanged at the given time.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.Revoked() && now.Before(t.ExpiresAt)
}
