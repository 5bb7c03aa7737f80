package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/catalog"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/preview"
	"github.com/desertthunder/swipe/internal/repositories"
	"github.com/desertthunder/swipe/internal/services"
	"github.com/desertthunder/swipe/internal/session"
	"github.com/desertthunder/swipe/internal/shared"
	"github.com/desertthunder/swipe/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Endpoints overrides provider URLs. Empty fields use the production endpoints.
type Endpoints struct {
	SpotifyAPI   string
	SpotifyAuth  string
	SpotifyToken string
	DeezerAPI    string
	DeezerAuth   string
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Provider sessions and services are built on first use so that setup commands work
// without credentials or a database.
type Runner struct {
	config     *shared.Config
	configPath string
	envPath    string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	endpoints  Endpoints
	openURL    func(string) error

	db         *sql.DB
	store      models.TokenStore
	spotifyS   *session.Session
	deezerS    *session.Session
	aggregator *session.Aggregator
	spotify    *services.SpotifyService
	deezer     *services.DeezerService
	fetcher    *catalog.Fetcher
	reconciler *tasks.Reconciler
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      models.TokenStore // defaults to the SQLite credential repository
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Endpoints  Endpoints
	OpenURL    func(string) error // defaults to [shared.OpenBrowser]
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		endpoints:  opts.Endpoints,
		openURL:    opts.OpenURL,
		store:      opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, profileCommand, likedCommand, discoverCommand, swipeCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration from the root flags. A missing config file falls back to defaults.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	r.envPath = cmd.String("env")

	if r.config == nil {
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	if err := shared.OverlayEnv(r.config, r.envPath); err != nil {
		return ctx, err
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.configPath == "" {
		return shared.DefaultConfig(), nil
	}
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(r.configPath)
}

// After releases the database handle.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the logger used by commands and services built afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// sessions builds the token store and both provider sessions.
func (r *Runner) sessions() error {
	if r.aggregator != nil {
		return nil
	}
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}

	if r.store == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.db = db
		r.store = repositories.NewCredentialRepository(db)
	}

	spotifyAPI := r.endpoints.SpotifyAPI
	if spotifyAPI == "" {
		spotifyAPI = services.SpotifyAPIURL
	}

	r.deezer = services.NewDeezerService(services.DeezerOptions{
		BaseURL:    r.endpoints.DeezerAPI,
		HTTPClient: r.httpClient,
		RateLimit:  r.config.Discovery.SearchRate,
		MaxRetries: r.config.Discovery.SearchRetries,
		Logger:     r.logger,
	})

	r.spotifyS = session.NewSpotify(r.config.Credentials.Spotify, r.store, session.Options{
		Prober:     services.SpotifyProber{BaseURL: spotifyAPI, Client: r.httpClient},
		HTTPClient: r.httpClient,
		Logger:     r.logger,
		AuthURL:    r.endpoints.SpotifyAuth,
		TokenURL:   r.endpoints.SpotifyToken,
	})
	r.deezerS = session.NewDeezer(r.config.Credentials.Deezer, r.store, session.Options{
		Prober:  r.deezer,
		Logger:  r.logger,
		AuthURL: r.endpoints.DeezerAuth,
	})
	r.aggregator = session.NewAggregator(r.spotifyS, r.deezerS)
	r.aggregator.OnLogout(func() { r.logger.Info("all providers logged out") })
	return nil
}

// discovery builds the catalog, preview and reconciliation pipeline over an
// authenticated Spotify client.
func (r *Runner) discovery(ctx context.Context) error {
	if err := r.sessions(); err != nil {
		return err
	}
	if r.reconciler != nil {
		return nil
	}

	if !r.aggregator.Valid(ctx, models.Spotify) {
		return fmt.Errorf("%w: run 'swipe auth login spotify' first", shared.ErrNotAuthenticated)
	}

	base := context.WithValue(context.Background(), oauth2.HTTPClient, r.httpClient)
	client := oauth2.NewClient(base, r.spotifyS.TokenSource(base))
	r.spotify = services.NewSpotifyService(client, services.SpotifyOptions{
		BaseURL: r.endpoints.SpotifyAPI,
		Retry:   true,
		Logger:  r.logger,
	})

	d := r.config.Discovery
	opts := catalog.Options{
		SeedTracks: d.SeedTracks,
		Market:     r.market(d.Market),
		Limit:      d.CandidateLimit,
		Logger:     r.logger,
	}
	if d.Shuffle {
		opts.Shuffle = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r.fetcher = catalog.NewFetcher(r.spotify, opts)
	r.reconciler = tasks.NewReconciler(r.fetcher, preview.NewMatcher(r.deezer), tasks.ReconcilerOpts{
		Workers: d.SearchWorkers,
		Logger:  r.logger,
	})
	return nil
}

// market resolves the top-track market from config, reading the profile
// country once when configured to do so.
func (r *Runner) market(configured string) catalog.MarketFunc {
	if configured != shared.MarketFromProfile {
		return func(context.Context) (string, error) { return configured, nil }
	}

	var country string
	return func(ctx context.Context) (string, error) {
		if country != "" {
			return country, nil
		}
		p, err := r.spotify.Profile(ctx)
		if err != nil {
			return "", err
		}
		country = p.Country
		return country, nil
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
