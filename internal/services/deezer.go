package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"golang.org/x/time/rate"
)

// DeezerAPIURL is the root of the public Deezer API.
const DeezerAPIURL = "https://api.deezer.com"

const (
	defaultDeezerRate    = 8.0
	defaultDeezerRetries = 3
	defaultDeezerBackoff = 250 * time.Millisecond
)

// DeezerOptions configures a [DeezerService]. Zero values select defaults.
type DeezerOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	RateLimit  float64       // requests per second
	MaxRetries int           // attempts per request
	Backoff    time.Duration // first retry delay, doubled per attempt
	Logger     *log.Logger
}

// DeezerService searches the Deezer catalog for preview audio.
type DeezerService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	logger     *log.Logger
}

// NewDeezerService creates a [DeezerService].
func NewDeezerService(opts DeezerOptions) *DeezerService {
	if opts.BaseURL == "" {
		opts.BaseURL = DeezerAPIURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultDeezerRate
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultDeezerRetries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultDeezerBackoff
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &DeezerService{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     shared.WithLogger(opts.Logger, "service", "deezer"),
	}
}

type deezerArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type deezerAlbum struct {
	Title       string `json:"title"`
	CoverMedium string `json:"cover_medium"`
}

// DeezerTrack is a track object from the search endpoint.
type DeezerTrack struct {
	ID      int64        `json:"id"`
	Title   string       `json:"title"`
	Preview string       `json:"preview"`
	Artist  deezerArtist `json:"artist"`
	Album   deezerAlbum  `json:"album"`
}

// deezerError is returned with status 200 when a request is rejected.
type deezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type deezerSearchResponse struct {
	Data  []DeezerTrack `json:"data"`
	Total int           `json:"total"`
	Error *deezerError  `json:"error,omitempty"`
}

type deezerUser struct {
	ID    int64        `json:"id"`
	Name  string       `json:"name"`
	Error *deezerError `json:"error,omitempty"`
}

// SearchTracks runs a free-text track search and returns hits in the provider's ranking order.
func (s *DeezerService) SearchTracks(ctx context.Context, query string) ([]models.Preview, error) {
	var resp deezerSearchResponse
	if err := s.doRequest(ctx, "/search", url.Values{"q": {query}}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("deezer search error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	previews := make([]models.Preview, 0, len(resp.Data))
	for _, t := range resp.Data {
		previews = append(previews, models.Preview{
			ID:     strconv.FormatInt(t.ID, 10),
			Title:  t.Title,
			Artist: t.Artist.Name,
			URL:    t.Preview,
		})
	}
	return previews, nil
}

// Probe confirms accessToken by fetching the token owner.
func (s *DeezerService) Probe(ctx context.Context, accessToken string) error {
	var user deezerUser
	if err := s.doRequest(ctx, "/user/me", url.Values{"access_token": {accessToken}}, &user); err != nil {
		return err
	}
	if user.Error != nil {
		return fmt.Errorf("deezer rejected access token: %s", user.Error.Message)
	}
	if user.ID == 0 {
		return fmt.Errorf("deezer returned no user for access token")
	}
	return nil
}

// doRequest performs a rate-limited GET and decodes the JSON body into result.
func (s *DeezerService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	reqURL := s.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	resp, err := s.doWithRetry(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("deezer API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (s *DeezerService) doWithRetry(ctx context.Context, reqURL string) (*http.Response, error) {
	for attempt := range s.maxRetries {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request canceled: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if ctxErr := ctx.Err(); ctxErr != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return nil, fmt.Errorf("request canceled: %w", ctxErr)
		}

		retryAfter, retry := shouldRetry(resp, err)
		if !retry || attempt == s.maxRetries-1 {
			if err != nil {
				return nil, fmt.Errorf("request failed after %d attempts: %w", attempt+1, err)
			}
			return resp, nil
		}

		if err != nil {
			s.logger.Warn("retrying request", "attempt", attempt+1, "error", err)
		} else {
			s.logger.Warn("retrying request", "attempt", attempt+1, "status", resp.StatusCode)
			resp.Body.Close()
		}

		delay := s.backoff * time.Duration(1<<attempt)
		if retryAfter > 0 {
			delay = retryAfter
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts", s.maxRetries)
}

func shouldRetry(resp *http.Response, err error) (time.Duration, bool) {
	if err != nil {
		return 0, true
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return parseRetryAfter(resp), true
	}
	return 0, false
}

func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(raw); err == nil {
		if until := time.Until(when); until > 0 {
			return until
		}
	}
	return 0
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
