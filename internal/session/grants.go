package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"golang.org/x/oauth2"
)

const (
	SpotifyAuthURL  = "https://accounts.spotify.com/authorize"
	SpotifyTokenURL = "https://accounts.spotify.com/api/token"
	DeezerAuthURL   = "https://connect.deezer.com/oauth/auth.php"
)

// Deezer issues non-expiring tokens (expires=0) when offline_access is granted.
const offlineTokenLifetime = 365 * 24 * time.Hour

// grant is the provider-specific half of a [Session].
type grant interface {
	authorizationURL(state string) string
	exchange(ctx context.Context, code string) (*models.Credential, error)
	implicit(fragment string, now time.Time) (*models.Credential, error)
	refresh(ctx context.Context, refreshToken string) (*models.Credential, error)
}

// codeGrant implements the OAuth 2.0 authorization code grant.
type codeGrant struct {
	config *oauth2.Config
	client *http.Client
}

func newCodeGrant(cfg shared.SpotifyConfig, authURL, tokenURL string, client *http.Client) *codeGrant {
	return &codeGrant{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		client: client,
	}
}

func (g *codeGrant) authorizationURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

func (g *codeGrant) withClient(ctx context.Context) context.Context {
	if g.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, g.client)
}

func (g *codeGrant) exchange(ctx context.Context, code string) (*models.Credential, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", shared.ErrAuthExchange)
	}

	token, err := g.config.Exchange(g.withClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExchange, err)
	}

	cred, err := credentialFromToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExchange, err)
	}
	return cred, nil
}

func (g *codeGrant) refresh(ctx context.Context, refreshToken string) (*models.Credential, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: no refresh token", shared.ErrAuthRefresh)
	}

	token, err := g.config.TokenSource(g.withClient(ctx), &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthRefresh, err)
	}

	cred, err := credentialFromToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthRefresh, err)
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	return cred, nil
}

func (g *codeGrant) implicit(string, time.Time) (*models.Credential, error) {
	return nil, fmt.Errorf("%w: implicit grant", shared.ErrUnsupportedOperation)
}

// credentialFromToken rejects tokens without an access token or expiry.
func credentialFromToken(t *oauth2.Token) (*models.Credential, error) {
	if t.AccessToken == "" {
		return nil, errors.New("response missing access_token")
	}
	if t.Expiry.IsZero() {
		return nil, errors.New("response missing expires_in")
	}
	return &models.Credential{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}, nil
}

// implicitGrant implements the OAuth 2.0 implicit grant used by Deezer.
type implicitGrant struct {
	authURL     string
	appID       string
	redirectURI string
	perms       []string
}

func newImplicitGrant(cfg shared.DeezerConfig, authURL string) *implicitGrant {
	return &implicitGrant{authURL: authURL, appID: cfg.AppID, redirectURI: cfg.RedirectURI, perms: cfg.Perms}
}

func (g *implicitGrant) authorizationURL(string) string {
	v := url.Values{}
	v.Set("app_id", g.appID)
	v.Set("redirect_uri", g.redirectURI)
	v.Set("perms", strings.Join(g.perms, ","))
	v.Set("response_type", "token")
	return g.authURL + "?" + v.Encode()
}

func (g *implicitGrant) exchange(context.Context, string) (*models.Credential, error) {
	return nil, fmt.Errorf("%w: code exchange", shared.ErrUnsupportedOperation)
}

func (g *implicitGrant) refresh(context.Context, string) (*models.Credential, error) {
	return nil, fmt.Errorf("%w: refresh", shared.ErrUnsupportedOperation)
}

// implicit parses "access_token=...&expires_in=..." from a callback fragment.
// Deezer spells the lifetime "expires"; both are accepted.
func (g *implicitGrant) implicit(fragment string, now time.Time) (*models.Credential, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthExchange, err)
	}

	if reason := values.Get("error_reason"); reason != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthExchange, reason)
	}

	access := values.Get("access_token")
	if access == "" {
		return nil, fmt.Errorf("%w: fragment missing access_token", shared.ErrAuthExchange)
	}

	raw := values.Get("expires_in")
	if raw == "" {
		raw = values.Get("expires")
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return nil, fmt.Errorf("%w: fragment has invalid expires_in %q", shared.ErrAuthExchange, raw)
	}

	lifetime := time.Duration(seconds) * time.Second
	if seconds == 0 {
		lifetime = offlineTokenLifetime
	}
	return &models.Credential{AccessToken: access, Expiry: now.Add(lifetime)}, nil
}
