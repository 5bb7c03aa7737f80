package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Discovery   DiscoveryConfig   `toml:"discovery"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Deezer  DeezerConfig  `toml:"deezer"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// DeezerConfig contains the Deezer application registration used for the implicit grant.
type DeezerConfig struct {
	AppID       string   `toml:"app_id"`
	RedirectURI string   `toml:"redirect_uri"`
	Perms       []string `toml:"perms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DiscoveryConfig tunes the recommendation pipeline.
type DiscoveryConfig struct {
	Market          string  `toml:"market"`
	SeedTracks      int     `toml:"seed_tracks"`
	Shuffle         bool    `toml:"shuffle"`
	CandidateLimit  int     `toml:"candidate_limit"`
	SearchWorkers   int     `toml:"search_workers"`
	SearchRate      float64 `toml:"search_rate"`
	SearchRetries   int     `toml:"search_retries"`
	MaxEmptyRefills int     `toml:"max_empty_refills"`
}

// LogConfig selects the log level and the file used while the TUI owns the terminal.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MarketFromProfile makes top-track lookups use the signed-in user's country.
const MarketFromProfile = "from_profile"

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig writes c to path as TOML, replacing any existing file.
func SaveConfig(path string, c *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// OverlayEnv loads dotenv (when present) into the process environment and
// copies any provider secrets found there over the values in c.
//
// Variables already set in the environment win over the dotenv file.
func OverlayEnv(c *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}

	overlay := map[string]*string{
		"SPOTIFY_CLIENT_ID":     &c.Credentials.Spotify.ClientID,
		"SPOTIFY_CLIENT_SECRET": &c.Credentials.Spotify.ClientSecret,
		"SPOTIFY_REDIRECT_URI":  &c.Credentials.Spotify.RedirectURI,
		"DEEZER_APP_ID":         &c.Credentials.Deezer.AppID,
		"DEEZER_REDIRECT_URI":   &c.Credentials.Deezer.RedirectURI,
	}
	for key, dst := range overlay {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// placeholderPrefix marks the unfilled values shipped in config.example.toml.
const placeholderPrefix = "your_"

func unset(v string) bool {
	return v == "" || strings.HasPrefix(v, placeholderPrefix)
}

// Validate checks that the primary provider is configured.
//
// Template placeholders such as "your_spotify_client_id" count as missing.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	if unset(sp.ClientID) || unset(sp.ClientSecret) || sp.RedirectURI == "" {
		return fmt.Errorf("%w: spotify client_id, client_secret and redirect_uri are required", ErrMissingCredentials)
	}
	if c.Discovery.SeedTracks < 1 {
		return fmt.Errorf("%w: discovery.seed_tracks must be positive", ErrInvalidConfig)
	}
	return nil
}

// ValidateDeezer checks that the secondary provider can be authorized.
func (c *Config) ValidateDeezer() error {
	dz := c.Credentials.Deezer
	if unset(dz.AppID) || dz.RedirectURI == "" {
		return fmt.Errorf("%w: deezer app_id and redirect_uri are required", ErrMissingCredentials)
	}
	return nil
}
