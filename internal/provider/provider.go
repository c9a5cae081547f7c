// Package provider implements social sign-on against the OAuth providers
// the app supports.  Each provider wraps an oauth2.Config for the standard
// authorization-code flow and exposes the same small surface, so the auth
// service never has to know which provider it is talking to.  The registry
// is built once at startup and passed by reference to the routes that need
// it; there is no package-level mutable state.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/dhruvc/stylefeed/internal/config"
)

// Identity is the provider-independent result of a completed OAuth
// exchange: who the provider says the user is.
type Identity struct {
	Email      string // may be empty for providers that do not expose email
	ProviderID string // provider-scoped stable subject id
}

// Provider is one social sign-on integration.
type Provider interface {
	// Name returns the lowercase provider name used in routes and in the
	// users table columns (google, facebook, instagram).
	Name() string
	// AuthURL returns the URL to redirect the user to, carrying the given
	// anti-CSRF state.
	AuthURL(state string) string
	// Exchange trades the callback code for the user's identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}

// Registry maps provider names to configured providers.
type Registry map[string]Provider

// NewRegistry builds the providers that have credentials configured.
// Providers without credentials are simply absent and their routes return
// not-found.
func NewRegistry(cfg config.Config) Registry {
	reg := Registry{}
	if cfg.Google.ClientID != "" {
		reg["google"] = newGoogle(cfg.Google)
	}
	if cfg.Facebook.ClientID != "" {
		reg["facebook"] = newFacebook(cfg.Facebook)
	}
	if cfg.Instagram.ClientID != "" {
		reg["instagram"] = newInstagram(cfg.Instagram)
	}
	return reg
}

// Lookup returns the named provider, or nil when not configured.
func (r Registry) Lookup(name string) Provider { return r[name] }

// fetchProfile performs the authenticated profile request that follows a
// successful code exchange and decodes the JSON response into out.
func fetchProfile(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token, url string, out any) error {
	client := conf.Client(ctx, tok)
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("provider: profile request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider: profile request returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("provider: decoding profile: %w", err)
	}
	return nil
}
