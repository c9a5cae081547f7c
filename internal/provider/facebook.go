package provider

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"

	"github.com/dhruvc/stylefeed/internal/config"
)

type facebookProvider struct {
	conf *oauth2.Config
}

func newFacebook(cfg config.OAuthProviderConfig) *facebookProvider {
	return &facebookProvider{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Scopes:       []string{"email"},
		Endpoint:     facebook.Endpoint,
	}}
}

func (p *facebookProvider) Name() string { return "facebook" }

func (p *facebookProvider) AuthURL(state string) string {
	return p.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type facebookProfile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (p *facebookProvider) Exchange(ctx context.Context, code string) (Identity, error) {
	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("provider: facebook code exchange: %w", err)
	}
	var prof facebookProfile
	if err := fetchProfile(ctx, p.conf, tok, "https://graph.facebook.com/me?fields=id,email", &prof); err != nil {
		return Identity{}, err
	}
	if prof.ID == "" {
		return Identity{}, fmt.Errorf("provider: facebook returned an empty subject id")
	}
	return Identity{Email: prof.Email, ProviderID: prof.ID}, nil
}
