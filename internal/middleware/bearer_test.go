package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fakeVerifier struct {
	userID      uint64
	blacklisted map[string]bool
}

func (f *fakeVerifier) IsTokenBlacklisted(_ context.Context, token string) bool {
	return f.blacklisted[token]
}

func (f *fakeVerifier) VerifyAccessToken(token string) (uint64, error) {
	if token == "valid" {
		return f.userID, nil
	}
	return 0, echo.ErrUnauthorized
}

// gateTest runs one request through BearerGate and reports what the inner
// handler observed.
func gateTest(t *testing.T, v *fakeVerifier, authHeader string) (uint64, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID uint64
	var gotOK bool
	h := BearerGate(v)(func(c echo.Context) error {
		gotID, gotOK = CurrentUserID(c)
		return c.NoContent(http.StatusOK)
	})
	assert.NoError(t, h(c))
	assert.Equal(t, http.StatusOK, rec.Code, "the gate must never reject by itself")
	return gotID, gotOK
}

func TestBearerGate_ValidToken(t *testing.T) {
	v := &fakeVerifier{userID: 7, blacklisted: map[string]bool{}}
	id, ok := gateTest(t, v, "Bearer valid")
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)
}

func TestBearerGate_AnonymousCases(t *testing.T) {
	v := &fakeVerifier{userID: 7, blacklisted: map[string]bool{"revoked": true}}
	cases := map[string]string{
		"no header":         "",
		"wrong scheme":      "Basic dXNlcjpwYXNz",
		"empty bearer":      "Bearer ",
		"invalid token":     "Bearer garbage",
		"blacklisted token": "Bearer revoked",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			_, ok := gateTest(t, v, header)
			assert.False(t, ok, "request should stay anonymous")
		})
	}
}

func TestBearerGate_BlacklistBeatsValidity(t *testing.T) {
	// even a token the verifier would accept is anonymous once revoked
	v := &fakeVerifier{userID: 7, blacklisted: map[string]bool{"valid": true}}
	_, ok := gateTest(t, v, "Bearer valid")
	assert.False(t, ok)
}

func TestLoginRequired(t *testing.T) {
	e := echo.New()

	guarded := LoginRequired()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// anonymous request is rejected
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	assert.NoError(t, guarded(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// authenticated request passes
	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.Set("user_id", uint64(7))
	assert.NoError(t, guarded(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
