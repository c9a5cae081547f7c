package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhruvc/stylefeed/internal/model"
	"github.com/dhruvc/stylefeed/internal/repository"
	"github.com/dhruvc/stylefeed/internal/utils"
)

// ----- in-memory fakes -----

type fakeUserStore struct {
	nextID uint64
	users  map[string]*model.User // by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}}
}

func (f *fakeUserStore) CreateWithProfile(_ context.Context, email string, passwordHash *string, _ string, googleID, facebookID, instagramID *string) (uint64, error) {
	if _, ok := f.users[email]; ok {
		return 0, repository.ErrEmailExists
	}
	f.nextID++
	f.users[email] = &model.User{
		ID:           f.nextID,
		Email:        email,
		PasswordHash: passwordHash,
		GoogleID:     googleID,
		FacebookID:   facebookID,
		InstagramID:  instagramID,
	}
	return f.nextID, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return *u, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

type fakeTokenStore struct {
	nextID uint64
	rows   []model.RefreshToken
}

func (f *fakeTokenStore) Create(_ context.Context, userID uint64, tokenHash, ip, userAgent string, exp time.Time) error {
	f.nextID++
	f.rows = append(f.rows, model.RefreshToken{
		ID: f.nextID, UserID: userID, TokenHash: tokenHash,
		CreatedByIP: ip, UserAgent: userAgent, ExpiresAt: exp,
	})
	return nil
}

func (f *fakeTokenStore) Rotate(ctx context.Context, oldHash, newHash, ip, userAgent string, exp time.Time) (uint64, error) {
	now := time.Now().UTC()
	for i := range f.rows {
		r := &f.rows[i]
		if r.TokenHash == oldHash && r.Valid(now) {
			r.RevokedAt = &now
			if err := f.Create(ctx, r.UserID, newHash, ip, userAgent, exp); err != nil {
				return 0, err
			}
			return r.UserID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (f *fakeTokenStore) ListActiveByUser(_ context.Context, userID uint64) ([]model.RefreshToken, error) {
	now := time.Now().UTC()
	var out []model.RefreshToken
	for _, r := range f.rows {
		if r.UserID == userID && r.Valid(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) CountByUser(_ context.Context, userID uint64) (int, error) {
	n := 0
	for _, r := range f.rows {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeTokenStore) RevokeByID(_ context.Context, id uint64) error {
	now := time.Now().UTC()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].RevokedAt = &now
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeBlacklist struct {
	entries map[string]time.Time
}

func newFakeBlacklist() *fakeBlacklist { return &fakeBlacklist{entries: map[string]time.Time{}} }

func (f *fakeBlacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	f.entries[token] = time.Now().Add(ttl)
	return nil
}

func (f *fakeBlacklist) Contains(_ context.Context, token string) bool {
	exp, ok := f.entries[token]
	return ok && time.Now().Before(exp)
}

func newTestAuthService() (*AuthService, *fakeUserStore, *fakeTokenStore, *fakeBlacklist) {
	users := newFakeUserStore()
	tokens := &fakeTokenStore{}
	blacklist := newFakeBlacklist()
	// bcrypt cost 4 keeps each hash in the low milliseconds
	svc := NewAuthService(users, tokens, blacklist, "test-secret", 15, 30, 4)
	return svc, users, tokens, blacklist
}

const goodPassword = "Abcdefg1"

// ----- Register -----

func TestRegister_IssuesPair(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService()

	pair, err := svc.Register(context.Background(), "a@example.com", "alice", goodPassword, "1.2.3.4", "ua")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshSecret)
	assert.Len(t, tokens.rows, 1)
	// only the hash is stored, never the secret
	assert.Equal(t, utils.HashRefreshSecret(pair.RefreshSecret), tokens.rows[0].TokenHash)
}

func TestRegister_CollectsEveryViolation(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), "", "", "abc", "", "")
	ve, ok := IsValidation(err)
	require.True(t, ok, "want ValidationError, got %v", err)
	// missing email, missing username, and three password rules
	assert.Len(t, ve.Reasons, 5)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "a@example.com", "alice2", goodPassword, "", "")
	assert.ErrorIs(t, err, repository.ErrEmailExists)
}

// ----- Login -----

func TestLogin_Succeeds(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "a@example.com", goodPassword, "", "")
	require.NoError(t, err)

	userID, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), userID)
}

func TestLogin_UniformFailure(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	// unknown email and wrong password are indistinguishable
	_, errUnknown := svc.Login(ctx, "nobody@example.com", goodPassword, "", "")
	_, errWrong := svc.Login(ctx, "a@example.com", "Wrong1234", "", "")
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
}

func TestLogin_PasswordlessAccountRejectsLocal(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.RegisterSocial(ctx, "s@example.com", "google", "sub-1", "", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "s@example.com", goodPassword, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ----- Refresh -----

func TestRefresh_RotatesSecret(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	first, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshSecret, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshSecret, second.RefreshSecret)

	// the spent secret cannot be replayed
	_, err = svc.Refresh(ctx, first.RefreshSecret, "", "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the fresh secret still works
	_, err = svc.Refresh(ctx, second.RefreshSecret, "", "")
	assert.NoError(t, err)
}

func TestRefresh_UnknownSecret(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.Refresh(context.Background(), "never-issued-secret", "", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// ----- Logout -----

func TestLogout_RevokesAndBlacklists(t *testing.T) {
	svc, _, tokens, blacklist := newTestAuthService()
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	err = svc.Logout(ctx, 1, pair.AccessToken, pair.RefreshSecret)
	require.NoError(t, err)

	// refresh token revoked: replay fails
	_, err = svc.Refresh(ctx, pair.RefreshSecret, "", "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, tokens.rows[0].Revoked())

	// access token blacklisted with the remaining lifetime
	assert.True(t, svc.IsTokenBlacklisted(ctx, pair.AccessToken))
	assert.False(t, blacklist.Contains(ctx, "some-other-token"))
}

func TestLogout_NoTokensAtAll(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	err := svc.Logout(context.Background(), 99, "", "whatever")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLogout_WrongSecret(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	err = svc.Logout(ctx, 1, pair.AccessToken, "not-the-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// the session survives a failed logout
	_, err = svc.Refresh(ctx, pair.RefreshSecret, "", "")
	assert.NoError(t, err)
}

// ----- Social sign-on -----

func TestRegisterSocial_CreatesPasswordlessAccount(t *testing.T) {
	svc, users, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.RegisterSocial(ctx, "s@example.com", "google", "sub-1", "", "")
	require.NoError(t, err)

	u, err := users.GetByEmail(ctx, "s@example.com")
	require.NoError(t, err)
	assert.False(t, u.HasPassword())
	require.NotNil(t, u.GoogleID)
	assert.Equal(t, "sub-1", *u.GoogleID)
}

func TestRegisterSocial_ReturningUser(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.RegisterSocial(ctx, "s@example.com", "google", "sub-1", "", "")
	require.NoError(t, err)

	pair, err := svc.RegisterSocial(ctx, "s@example.com", "google", "sub-1", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestRegisterSocial_PasswordAccountRefuses(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	_, err = svc.RegisterSocial(ctx, "a@example.com", "google", "sub-1", "", "")
	assert.ErrorIs(t, err, ErrAccountHasPassword)
}

func TestRegisterSocial_ProviderMismatch(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.RegisterSocial(ctx, "s@example.com", "google", "sub-1", "", "")
	require.NoError(t, err)

	// different subject id on the same provider
	_, err = svc.RegisterSocial(ctx, "s@example.com", "google", "sub-2", "", "")
	assert.ErrorIs(t, err, ErrProviderMismatch)

	// same email arriving through a different provider
	_, err = svc.RegisterSocial(ctx, "s@example.com", "facebook", "sub-1", "", "")
	assert.ErrorIs(t, err, ErrProviderMismatch)
}

func TestRegisterSocial_UnknownProvider(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.RegisterSocial(context.Background(), "s@example.com", "myspace", "sub-1", "", "")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

// ----- bearer verification -----

func TestVerifyAccessToken_RejectsTampered(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	pair, err := svc.Register(ctx, "a@example.com", "alice", goodPassword, "", "")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.AccessToken + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
