package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"golang.org/x/oauth2"
)

// Prober confirms that an unexpired access token is still accepted by its provider.
type Prober interface {
	Probe(ctx context.Context, accessToken string) error
}

// ProberFunc adapts a function to [Prober].
type ProberFunc func(ctx context.Context, accessToken string) error

func (f ProberFunc) Probe(ctx context.Context, accessToken string) error { return f(ctx, accessToken) }

// Options configures a [Session]. Zero values select production defaults.
type Options struct {
	Prober     Prober
	HTTPClient *http.Client
	Logger     *log.Logger
	Now        func() time.Time

	// AuthURL and TokenURL override the provider endpoints.
	AuthURL  string
	TokenURL string
}

// Session manages the credential of a single provider.
type Session struct {
	provider models.Provider
	store    models.TokenStore
	grant    grant
	prober   Prober
	logger   *log.Logger
	now      func() time.Time

	mu sync.Mutex
}

func newSession(p models.Provider, store models.TokenStore, g grant, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		provider: p,
		store:    store,
		grant:    g,
		prober:   opts.Prober,
		logger:   shared.WithLogger(opts.Logger, "provider", p.String()),
		now:      opts.Now,
	}
}

// NewSpotify creates the primary provider session using the authorization code grant.
func NewSpotify(cfg shared.SpotifyConfig, store models.TokenStore, opts Options) *Session {
	authURL, tokenURL := SpotifyAuthURL, SpotifyTokenURL
	if opts.AuthURL != "" {
		authURL = opts.AuthURL
	}
	if opts.TokenURL != "" {
		tokenURL = opts.TokenURL
	}
	return newSession(models.Spotify, store, newCodeGrant(cfg, authURL, tokenURL, opts.HTTPClient), opts)
}

// NewDeezer creates the secondary provider session using the implicit grant.
func NewDeezer(cfg shared.DeezerConfig, store models.TokenStore, opts Options) *Session {
	authURL := DeezerAuthURL
	if opts.AuthURL != "" {
		authURL = opts.AuthURL
	}
	return newSession(models.Deezer, store, newImplicitGrant(cfg, authURL), opts)
}

// Provider returns the provider this session manages.
func (s *Session) Provider() models.Provider { return s.provider }

// AuthorizationURL returns the consent URL for the provider. It performs no I/O.
//
// state is included when non-empty; the implicit grant ignores it.
func (s *Session) AuthorizationURL(state string) string {
	return s.grant.authorizationURL(state)
}

// ExchangeCode trades an authorization code for a credential and stores it.
func (s *Session) ExchangeCode(ctx context.Context, code string) (*models.Credential, error) {
	cred, err := s.grant.exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Put(ctx, s.provider, cred); err != nil {
		return nil, fmt.Errorf("%w: failed to store credential: %v", shared.ErrAuthExchange, err)
	}
	s.logger.Info("authorized", "expires", cred.Expiry.Format(time.RFC3339))
	return cred, nil
}

// CompleteImplicit stores the credential carried in an implicit-grant callback fragment.
func (s *Session) CompleteImplicit(ctx context.Context, fragment string) (*models.Credential, error) {
	cred, err := s.grant.implicit(fragment, s.now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Put(ctx, s.provider, cred); err != nil {
		return nil, fmt.Errorf("%w: failed to store credential: %v", shared.ErrAuthExchange, err)
	}
	s.logger.Info("authorized", "expires", cred.Expiry.Format(time.RFC3339))
	return cred, nil
}

// Refresh renews the credential with refreshToken and stores the result.
func (s *Session) Refresh(ctx context.Context, refreshToken string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refreshLocked(ctx, refreshToken)
}

// refreshLocked logs the provider out when the refresh itself fails. An
// unsupported refresh leaves the credential alone.
func (s *Session) refreshLocked(ctx context.Context, refreshToken string) (*models.Credential, error) {
	cred, err := s.grant.refresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, shared.ErrAuthRefresh) {
			s.clearLocked(ctx)
		}
		return nil, err
	}

	if err := s.store.Put(ctx, s.provider, cred); err != nil {
		s.clearLocked(ctx)
		return nil, fmt.Errorf("%w: failed to store credential: %v", shared.ErrAuthRefresh, err)
	}
	s.logger.Debug("refreshed", "expires", cred.Expiry.Format(time.RFC3339))
	return cred, nil
}

// IsValid reports whether the provider can be called right now.
//
// An expired credential is refreshed at most once; when that is impossible the
// provider is logged out. An unexpired credential is confirmed with the prober.
func (s *Session) IsValid(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.store.Get(ctx, s.provider)
	if err != nil {
		s.logger.Warn("failed to read credential", "error", err)
		return false
	}
	if cred == nil {
		return false
	}

	if cred.Expired(s.now()) {
		if _, err := s.refreshLocked(ctx, cred.RefreshToken); err != nil {
			s.logger.Warn("credential expired", "error", err)
			if !errors.Is(err, shared.ErrAuthRefresh) {
				s.clearLocked(ctx)
			}
			return false
		}
		return true
	}

	if s.prober == nil {
		return true
	}
	if err := s.prober.Probe(ctx, cred.AccessToken); err != nil {
		s.logger.Warn("liveness probe failed", "error", err)
		return false
	}
	return true
}

// Logout removes the stored credential. It never fails; store errors are logged.
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked(ctx)
}

func (s *Session) clearLocked(ctx context.Context) {
	if err := s.store.Clear(ctx, s.provider); err != nil {
		s.logger.Error("failed to clear credential", "error", err)
		return
	}
	s.logger.Info("logged out")
}

// Token returns the stored credential as an [oauth2.Token], refreshing it first when expired.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, err := s.store.Get(ctx, s.provider)
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	if cred == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrNotAuthenticated, s.provider)
	}

	if cred.Expired(s.now()) {
		if cred, err = s.refreshLocked(ctx, cred.RefreshToken); err != nil {
			return nil, err
		}
	}

	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       cred.Expiry,
	}, nil
}

// TokenSource adapts the session to [oauth2.TokenSource] for building provider HTTP clients.
func (s *Session) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, session: s}
}

type tokenSource struct {
	ctx     context.Context
	session *Session
}

func (ts tokenSource) Token() (*oauth2.Token, error) { return ts.session.Token(ts.ctx) }
