package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/server"
	"github.com/desertthunder/swipe/internal/session"
	"github.com/desertthunder/swipe/internal/shared"
	"github.com/urfave/cli/v3"
)

// deezerTokenPath receives the fragment forwarded by the Deezer callback page.
const deezerTokenPath = "/deezer/token"

func parseProvider(s string) (models.Provider, error) {
	switch models.Provider(strings.ToLower(s)) {
	case models.Spotify:
		return models.Spotify, nil
	case models.Deezer:
		return models.Deezer, nil
	default:
		return "", fmt.Errorf("%w: unknown provider %q (spotify or deezer)", shared.ErrInvalidArgument, s)
	}
}

func (r *Runner) providerSession(p models.Provider) *session.Session {
	if p == models.Deezer {
		return r.deezerS
	}
	return r.spotifyS
}

// AuthLogin runs the browser authorization flow for a provider and stores the credential.
//
// Starts a local HTTP server on the redirect URI, opens the consent page and waits for the callback.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	p, err := parseProvider(cmd.StringArg("provider"))
	if err != nil {
		return err
	}

	if p == models.Spotify {
		if err := r.config.Validate(); err != nil {
			return err
		}
	} else if err := r.config.ValidateDeezer(); err != nil {
		return err
	}

	if err := r.sessions(); err != nil {
		return err
	}

	cred, err := r.doOAuth(ctx, p, cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.writePlainln("✓ %s authorization successful", providerName(p))
	r.writePlain("  Token expires %s\n", cred.Expiry.Local().Format(time.RFC1123))
	return nil
}

// doOAuth executes the authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, p models.Provider, noBrowser bool) (*models.Credential, error) {
	s := r.providerSession(p)
	state := shared.GenerateID()

	var handler server.CallbackHandler
	var redirect string
	switch p {
	case models.Spotify:
		redirect = r.config.Credentials.Spotify.RedirectURI
		path, err := callbackPath(redirect)
		if err != nil {
			return nil, err
		}
		handler = server.NewOAuthHandler(s, providerName(p), path, state)
	case models.Deezer:
		redirect = r.config.Credentials.Deezer.RedirectURI
		path, err := callbackPath(redirect)
		if err != nil {
			return nil, err
		}
		handler = server.NewImplicitHandler(s, providerName(p), path, deezerTokenPath)
	}

	ln, err := server.Listen(r.config.Server.Host, r.config.Server.Port)
	if err != nil {
		return nil, err
	}

	authURL := s.AuthorizationURL(state)
	r.writePlain("→ Opening browser for %s authorization...\n", providerName(p))
	if noBrowser {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	} else if err := r.openURL(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization on %s (2 minute timeout)...\n", redirect)
	return server.NewCallbackServer(r.logger, server.DefaultCallbackTimeout).Await(ctx, ln, handler)
}

func callbackPath(redirectURI string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("%w: redirect_uri %q has no path", shared.ErrInvalidConfig, redirectURI)
	}
	return u.Path, nil
}

func providerName(p models.Provider) string {
	switch p {
	case models.Spotify:
		return "Spotify"
	case models.Deezer:
		return "Deezer"
	default:
		return string(p)
	}
}

// AuthStatus checks every provider, refreshing expired credentials where possible.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions(); err != nil {
		return err
	}

	statuses, authenticated := r.aggregator.Check(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"authenticated": authenticated, "providers": statuses}, true)
	}

	for _, st := range statuses {
		if st.Valid {
			r.writePlain("%-8s ✓ Authenticated\n", providerName(st.Provider))
		} else {
			r.writePlain("%-8s ✗ Not authenticated\n", providerName(st.Provider))
		}
	}
	return nil
}

// AuthLogout removes stored credentials for one provider, or for all of them.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.sessions(); err != nil {
		return err
	}

	arg := cmd.StringArg("provider")
	if arg == "" {
		r.aggregator.LogoutAll(ctx)
		return r.writePlain("✓ Logged out of all providers\n")
	}

	p, err := parseProvider(arg)
	if err != nil {
		return err
	}
	r.providerSession(p).Logout(ctx)
	return r.writePlain("✓ Logged out of %s\n", providerName(p))
}
