package provider

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dhruvc/stylefeed/internal/config"
)

// googleProvider implements Provider for Google sign-in.
type googleProvider struct {
	conf *oauth2.Config
}

func newGoogle(cfg config.OAuthProviderConfig) *googleProvider {
	return &googleProvider{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Scopes:       []string{"openid", "email"},
		Endpoint:     google.Endpoint,
	}}
}

func (p *googleProvider) Name() string { return "google" }

func (p *googleProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// googleProfile is the subset of the userinfo response we need.
type googleProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *googleProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("provider: google code exchange: %w", err)
	}
	var prof googleProfile
	if err := fetchProfile(ctx, p.conf, tok, "https://www.googleapis.com/oauth2/v2/userinfo", &prof); err != nil {
		return Identity{}, err
	}
	if prof.ID == "" {
		return Identity{}, fmt.Errorf("provider: google returned an empty subject id")
	}
	return Identity{Email: prof.Email, ProviderID: prof.ID}, nil
}
