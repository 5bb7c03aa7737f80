package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
)

// SpotifyAPIURL is the Web API root. zmb3/spotify appends paths directly, so it ends in a slash.
const SpotifyAPIURL = "https://api.spotify.com/v1/"

// SpotifyOptions configures a [SpotifyService].
type SpotifyOptions struct {
	BaseURL string // defaults to [SpotifyAPIURL]
	Retry   bool   // retry rate-limited requests after Retry-After
	Logger  *log.Logger
}

// SpotifyService reads and writes the signed-in user's Spotify library.
type SpotifyService struct {
	client *spotify.Client
	logger *log.Logger
}

// NewSpotifyService creates a [SpotifyService] that sends requests through httpClient.
//
// httpClient is expected to authorize requests, e.g. [oauth2.NewClient] over a session token source.
func NewSpotifyService(httpClient *http.Client, opts SpotifyOptions) *SpotifyService {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &SpotifyService{
		client: spotify.New(httpClient, spotifyClientOptions(opts.BaseURL, opts.Retry)...),
		logger: shared.WithLogger(opts.Logger, "service", "spotify"),
	}
}

func spotifyClientOptions(baseURL string, retry bool) []spotify.ClientOption {
	var opts []spotify.ClientOption
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, spotify.WithBaseURL(baseURL))
	}
	if retry {
		opts = append(opts, spotify.WithRetry(true))
	}
	return opts
}

// SavedTracks returns one page of the user's saved tracks, most recently saved first.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) ([]models.TrackRef, error) {
	page, err := s.client.CurrentUsersTracks(ctx, spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch saved tracks at offset %d: %w", offset, err)
	}

	tracks := make([]models.TrackRef, 0, len(page.Tracks))
	for _, saved := range page.Tracks {
		tracks = append(tracks, convertTrack(saved.FullTrack))
	}

	s.logger.Debug("fetched saved tracks", "offset", offset, "count", len(tracks), "total", page.Total)
	return tracks, nil
}

// ArtistTopTracks returns the artist's most popular tracks in market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID, market string) ([]models.TrackRef, error) {
	full, err := s.client.GetArtistsTopTracks(ctx, spotify.ID(artistID), market)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch top tracks for artist %s: %w", artistID, err)
	}

	tracks := make([]models.TrackRef, 0, len(full))
	for _, t := range full {
		tracks = append(tracks, convertTrack(t))
	}
	return tracks, nil
}

// SaveTracks adds tracks to the user's library.
func (s *SpotifyService) SaveTracks(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	spotifyIDs := make([]spotify.ID, len(ids))
	for i, id := range ids {
		spotifyIDs[i] = spotify.ID(id)
	}

	if err := s.client.AddTracksToLibrary(ctx, spotifyIDs...); err != nil {
		return fmt.Errorf("failed to save tracks: %w", err)
	}
	s.logger.Info("saved tracks", "ids", ids)
	return nil
}

// Profile returns the signed-in user along with the size of their library.
func (s *SpotifyService) Profile(ctx context.Context) (*models.Profile, error) {
	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch current user: %w", err)
	}

	page, err := s.client.CurrentUsersTracks(ctx, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to count saved tracks: %w", err)
	}

	return &models.Profile{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Country:     user.Country,
		Product:     user.Product,
		SavedTracks: int(page.Total),
	}, nil
}

// convertTrack maps a Spotify track onto a [models.TrackRef], crediting the first artist.
func convertTrack(t spotify.FullTrack) models.TrackRef {
	ref := models.TrackRef{
		ID:    t.ID.String(),
		Title: t.Name,
		Album: t.Album.Name,
	}
	if len(t.Artists) > 0 {
		ref.Artist = t.Artists[0].Name
		ref.ArtistID = t.Artists[0].ID.String()
	}
	if len(t.Album.Images) > 0 {
		ref.ArtworkURL = t.Album.Images[0].URL
	}
	return ref
}

// SpotifyProber confirms an access token by fetching the current user.
type SpotifyProber struct {
	BaseURL string
	Client  *http.Client // base transport; the token is attached per probe
}

func (p SpotifyProber) Probe(ctx context.Context, accessToken string) error {
	if p.Client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.Client)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))

	client := spotify.New(httpClient, spotifyClientOptions(p.BaseURL, false)...)
	if _, err := client.CurrentUser(ctx); err != nil {
		return fmt.Errorf("spotify rejected access token: %w", err)
	}
	return nil
}
