// Package service holds the business logic between the HTTP handlers and
// the repositories.  Services accept small store interfaces so tests can
// substitute in-memory fakes for MySQL and Redis.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/repository"
	"github.com/dhruvc/stylefeed/internal/utils"
)

// UserStore is the slice of UserRepo the auth service needs.
type UserStore interface {
	CreateWithProfile(ctx context.Context, email string, passwordHash *string, username string, googleID, facebookID, instagramID *string) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the slice of TokenRepo the auth service needs.
type TokenStore interface {
	Create(ctx context.Context, userID uint64, tokenHash, ip, userAgent string, exp time.Time) error
	Rotate(ctx context.Context, oldHash, newHash, ip, userAgent string, exp time.Time) (uint64, error)
	ListActiveByUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error)
	CountByUser(ctx context.Context, userID uint64) (int, error)
	RevokeByID(ctx context.Context, id uint64) error
}

// TokenBlacklist marks access tokens as revoked ahead of expiry.
type TokenBlacklist interface {
	Add(ctx context.Context, token string, ttl time.Duration) error
	Contains(ctx context.Context, token string) bool
}

// TokenPair is what every successful authentication returns: a signed
// access token and the refresh secret, each with its expiry.  The refresh
// secret leaves the server exactly once, here.
type TokenPair struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshSecret  string
	RefreshExpires time.Time
}

// AuthService orchestrates registration, login, logout, token refresh and
// social sign-on.
type AuthService struct {
	users     UserStore
	tokens    TokenStore
	blacklist TokenBlacklist

	jwtSecret      string
	accessTTLMin   int
	refreshTTLDays int
	bcryptCost     int
}

// NewAuthService wires an AuthService with its dependencies and token
// parameters.
func NewAuthService(users UserStore, tokens TokenStore, blacklist TokenBlacklist, jwtSecret string, accessTTLMin, refreshTTLDays, bcryptCost int) *AuthService {
	return &AuthService{
		users:          users,
		tokens:         tokens,
		blacklist:      blacklist,
		jwtSecret:      jwtSecret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
		bcryptCost:     bcryptCost,
	}
}

// issueTokens signs a new access token and persists a new refresh token
// for the user.  Every successful auth flow ends here.
func (s *AuthService) issueTokens(ctx context.Context, userID uint64, ip, userAgent string) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.jwtSecret, userID, s.accessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshSecret(s.refreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.tokens.Create(ctx, userID, utils.HashRefreshSecret(refresh.Raw), ip, userAgent, refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshSecret:  refresh.Raw,
		RefreshExpires: refresh.Exp,
	}, nil
}

// Register creates a local account with its profile and signs the user in.
// All password-policy violations are collected into one ValidationError;
// duplicate email or username surfaces as the repository sentinel.
func (s *AuthService) Register(ctx context.Context, email, username, password, ip, userAgent string) (TokenPair, error) {
	var reasons []string
	if strings.TrimSpace(email) == "" {
		reasons = append(reasons, "email is required")
	}
	if strings.TrimSpace(username) == "" {
		reasons = append(reasons, "username is required")
	}
	reasons = append(reasons, utils.ValidatePassword(password)...)
	if len(reasons) > 0 {
		return TokenPair{}, &ValidationError{Reasons: reasons}
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return TokenPair{}, err
	}
	userID, err := s.users.CreateWithProfile(ctx, email, &hash, username, nil, nil, nil)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issueTokens(ctx, userID, ip, userAgent)
}

// Login verifies credentials and issues a fresh token pair.  A new refresh
// token is created per login; existing sessions stay valid so a user can
// be signed in on several devices at once.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !u.HasPassword() || !utils.VerifyPassword(*u.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	return s.issueTokens(ctx, u.ID, ip, userAgent)
}

// Refresh exchanges a refresh secret for a brand-new token pair and spends
// the old secret in the same transaction.  A replayed secret — including
// the loser of two concurrent refreshes — fails with ErrInvalidToken and
// the winner's pair stays valid.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret, ip, userAgent string) (TokenPair, error) {
	refreshSecret = strings.TrimSpace(refreshSecret)
	if refreshSecret == "" {
		return TokenPair{}, ErrInvalidToken
	}
	newSecret, err := utils.NewRefreshSecret(s.refreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	userID, err := s.tokens.Rotate(ctx,
		utils.HashRefreshSecret(refreshSecret),
		utils.HashRefreshSecret(newSecret.Raw),
		ip, userAgent, newSecret.Exp)
	if errors.Is(err, repository.ErrNotFound) {
		return TokenPair{}, ErrInvalidToken
	}
	if err != nil {
		return TokenPair{}, err
	}
	access, err := utils.NewAccessToken(s.jwtSecret, userID, s.accessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:    access.Token,
		AccessExpires:  access.Exp,
		RefreshSecret:  newSecret.Raw,
		RefreshExpires: newSecret.Exp,
	}, nil
}

// Logout revokes the matching refresh token and blacklists the presented
// access token for its remaining lifetime.  The user's active tokens are a
// bounded set (one per live session) so scanning them for the hash match
// is cheap.  ErrNotFound means the user holds no refresh tokens at all;
// ErrInvalidToken means none of them match the presented secret.
func (s *AuthService) Logout(ctx context.Context, userID uint64, accessToken, refreshSecret string) error {
	n, err := s.tokens.CountByUser(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	active, err := s.tokens.ListActiveByUser(ctx, userID)
	if err != nil {
		return err
	}
	hash := utils.HashRefreshSecret(refreshSecret)
	var match *model.RefreshToken
	for i := range active {
		if active[i].TokenHash == hash {
			match = &active[i]
			break
		}
	}
	if match == nil {
		return ErrInvalidToken
	}
	if err := s.tokens.RevokeByID(ctx, match.ID); err != nil {
		return err
	}
	// Blacklist the access token so it dies with the session instead of
	// living out its remaining minutes.
	if _, exp, err := utils.ParseAccessToken(s.jwtSecret, accessToken); err == nil {
		_ = s.blacklist.Add(ctx, accessToken, time.Until(exp))
	}
	return nil
}

// RegisterSocial signs a user in (or up) through a social provider
// identity.  An existing account with a local password rejects the social
// identity outright; an existing passwordless account must present the
// same provider subject id it was created with.
func (s *AuthService) RegisterSocial(ctx context.Context, email, providerName, providerID, ip, userAgent string) (TokenPair, error) {
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	switch providerName {
	case "google", "facebook", "instagram":
	default:
		return TokenPair{}, ErrUnknownProvider
	}
	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.HasPassword() {
			return TokenPair{}, ErrAccountHasPassword
		}
		stored := u.ProviderID(providerName)
		if stored == nil || *stored != providerID {
			return TokenPair{}, ErrProviderMismatch
		}
		return s.issueTokens(ctx, u.ID, ip, userAgent)
	case errors.Is(err, repository.ErrNotFound):
		var googleID, facebookID, instagramID *string
		switch providerName {
		case "google":
			googleID = &providerID
		case "facebook":
			facebookID = &providerID
		case "instagram":
			instagramID = &providerID
		}
		username := usernameFromEmail(email)
		userID, err := s.users.CreateWithProfile(ctx, email, nil, username, googleID, facebookID, instagramID)
		if err != nil {
			return TokenPair{}, err
		}
		return s.issueTokens(ctx, userID, ip, userAgent)
	default:
		return TokenPair{}, err
	}
}

// IsTokenBlacklisted is consulted by the bearer gate before trusting a
// structurally valid access token.
func (s *AuthService) IsTokenBlacklisted(ctx context.Context, token string) bool {
	return s.blacklist.Contains(ctx, token)
}

// VerifyAccessToken checks signature and expiry and returns the subject
// user id.
func (s *AuthService) VerifyAccessToken(token string) (uint64, error) {
	userID, _, err := utils.ParseAccessToken(s.jwtSecret, token)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// usernameFromEmail derives an initial username for social accounts from
// the local part of the email address.
func usernameFromEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}
