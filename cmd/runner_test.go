package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/swipe/internal/formatter"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/repositories"
	"github.com/desertthunder/swipe/internal/shared"
	tu "github.com/desertthunder/swipe/internal/testing"
)

func trackJSON(id, name string) map[string]any {
	return map[string]any{
		"id":      id,
		"name":    name,
		"artists": []map[string]any{{"id": "a1", "name": "Band"}},
		"album": map[string]any{
			"id":     "al-" + id,
			"name":   name + " LP",
			"images": []map[string]any{{"url": "https://i.scdn.co/" + id, "height": 640, "width": 640}},
		},
	}
}

// fakeProviders serves the Spotify Web API under /v1, its token endpoint at
// /token, and the Deezer API under /deezer.
type fakeProviders struct {
	saved []map[string]any
	top   []map[string]any
	hits  []map[string]any
}

func newFakeProviders(t *testing.T) (*fakeProviders, *httptest.Server) {
	t.Helper()
	f := &fakeProviders{
		saved: []map[string]any{trackJSON("s1", "Old Song")},
		top:   []map[string]any{trackJSON("c1", "Hit"), trackJSON("s1", "Old Song")},
		hits: []map[string]any{
			{"id": 1, "title": "Hit", "preview": "https://cdns.example.com/1.mp3", "artist": map[string]any{"name": "Band"}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer live" && auth != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"status":401,"message":"invalid token"}}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch path := strings.TrimPrefix(r.URL.Path, "/v1/"); {
		case path == "me":
			json.NewEncoder(w).Encode(map[string]any{
				"id": "user-1", "display_name": "Listener", "email": "l@example.com",
				"country": "SE", "product": "premium",
			})
		case path == "me/tracks":
			items := []map[string]any{}
			for _, tr := range f.saved {
				items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": tr})
			}
			json.NewEncoder(w).Encode(map[string]any{"items": items, "total": len(f.saved)})
		case path == "artists/a1/top-tracks":
			json.NewEncoder(w).Encode(map[string]any{"tracks": f.top})
		default:
			t.Errorf("unexpected spotify request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.PostForm.Get("code") != "abc" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"r2","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/deezer/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": f.hits, "total": len(f.hits)})
	})
	mux.HandleFunc("/deezer/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "dz" {
			fmt.Fprint(w, `{"error":{"type":"OAuthException","message":"invalid token","code":300}}`)
			return
		}
		fmt.Fprint(w, `{"id":7,"name":"listener"}`)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return f, ts
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port
}

func liveCredential() *models.Credential {
	return &models.Credential{AccessToken: "live", RefreshToken: "r1", Expiry: time.Now().Add(time.Hour)}
}

// newTestRunner wires a Runner to ts with an in-memory token store.
func newTestRunner(t *testing.T, ts *httptest.Server, store models.TokenStore) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "swipe.db")
	config.Credentials.Spotify.ClientID = "client-id"
	config.Credentials.Spotify.ClientSecret = "client-secret"
	config.Credentials.Deezer.AppID = "42"
	config.Discovery.Market = "SE"
	config.Discovery.Shuffle = false
	config.Log.File = ""

	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config:     config,
		Store:      store,
		Logger:     tu.NewDiscardLogger(),
		Output:     output,
		HTTPClient: ts.Client(),
		Endpoints: Endpoints{
			SpotifyAPI:   ts.URL + "/v1/",
			SpotifyAuth:  ts.URL + "/authorize",
			SpotifyToken: ts.URL + "/token",
			DeezerAPI:    ts.URL + "/deezer",
			DeezerAuth:   ts.URL + "/deezer/auth",
		},
		OpenURL: func(string) error { return errors.New("no browser in tests") },
	})
	return r, output
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	env := filepath.Join(t.TempDir(), "missing.env")
	return newApp(r).Run(ctx, append([]string{"swipe", "--env", env}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := repositories.NewMemoryStore()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "custom.toml",
				Store:      store,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "custom.toml" {
				t.Errorf("expected configPath custom.toml, got %q", runner.configPath)
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if runner.openURL == nil {
				t.Error("expected default browser opener")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "{\n  \"key\": \"value\"\n}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got := output.String(); got != "{\"key\":\"value\"}\n" {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), true)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			w := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &w})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("Hello %s %d\n", "world", 42); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "Hello world 42\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("test"); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "profile", "liked", "discover", "swipe"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %q, got %q", i, name, commands[i].Name)
			}
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		t.Run("creates file from template", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			output := &bytes.Buffer{}
			r := NewRunner(RunnerOpts{Logger: tu.NewDiscardLogger(), Output: output})

			if err := run(t, r, "--config", path, "setup", "config"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			tu.AssertFileExists(t, path)
			if !strings.Contains(tu.MustReadFile(t, path), "[credentials.spotify]") {
				t.Error("expected template content")
			}
			if !strings.Contains(output.String(), "Config written") {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("refuses to overwrite without force", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("# mine\n"), 0600)
			r := NewRunner(RunnerOpts{Logger: tu.NewDiscardLogger(), Output: &bytes.Buffer{}})

			err := run(t, r, "--config", path, "setup", "config")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
			if tu.MustReadFile(t, path) != "# mine\n" {
				t.Error("expected existing file untouched")
			}
		})

		t.Run("overwrites with force", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("# mine\n"), 0600)
			r := NewRunner(RunnerOpts{Logger: tu.NewDiscardLogger(), Output: &bytes.Buffer{}})

			if err := run(t, r, "--config", path, "setup", "config", "--force"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(tu.MustReadFile(t, path), "[discovery]") {
				t.Error("expected template content")
			}
		})

		t.Run("persists credentials from the environment", func(t *testing.T) {
			t.Setenv("SPOTIFY_CLIENT_ID", "env-client")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "env-secret")

			path := filepath.Join(t.TempDir(), "config.toml")
			r := NewRunner(RunnerOpts{Logger: tu.NewDiscardLogger(), Output: &bytes.Buffer{}})

			if err := run(t, r, "--config", path, "setup", "config", "--from-env"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			config, err := shared.LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load written config: %v", err)
			}
			if config.Credentials.Spotify.ClientID != "env-client" || config.Credentials.Spotify.ClientSecret != "env-secret" {
				t.Errorf("expected env credentials, got %+v", config.Credentials.Spotify)
			}
		})
	})

	t.Run("database", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(t.TempDir(), "nested", "swipe.db")
		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Config: config, Logger: tu.NewDiscardLogger(), Output: output})

		if err := run(t, r, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}

func TestAuth(t *testing.T) {
	t.Run("parseProvider", func(t *testing.T) {
		tests := []struct {
			in      string
			want    models.Provider
			wantErr bool
		}{
			{"spotify", models.Spotify, false},
			{"Deezer", models.Deezer, false},
			{"", "", true},
			{"tidal", "", true},
		}

		for _, tt := range tests {
			got, err := parseProvider(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseProvider(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseProvider(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("callbackPath", func(t *testing.T) {
		tests := []struct {
			uri     string
			want    string
			wantErr bool
		}{
			{"http://127.0.0.1:3000/callback", "/callback", false},
			{"http://localhost:8080/deezer/callback", "/deezer/callback", false},
			{"http://127.0.0.1:3000", "", true},
			{"://bad", "", true},
		}

		for _, tt := range tests {
			got, err := callbackPath(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Errorf("callbackPath(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("callbackPath(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		}
	})

	t.Run("status", func(t *testing.T) {
		_, ts := newFakeProviders(t)

		t.Run("plain", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			store.Put(context.Background(), models.Spotify, liveCredential())
			r, output := newTestRunner(t, ts, store)

			if err := run(t, r, "auth", "status"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "Spotify  ✓ Authenticated") {
				t.Errorf("expected spotify authenticated, got %q", output.String())
			}
			if !strings.Contains(output.String(), "Deezer   ✗ Not authenticated") {
				t.Errorf("expected deezer unauthenticated, got %q", output.String())
			}
		})

		t.Run("json", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			store.Put(context.Background(), models.Deezer, &models.Credential{AccessToken: "dz", Expiry: time.Now().Add(time.Hour)})
			r, output := newTestRunner(t, ts, store)

			if err := run(t, r, "auth", "status", "--json"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			var got struct {
				Authenticated bool `json:"authenticated"`
				Providers     []struct {
					Provider string `json:"provider"`
					Valid    bool   `json:"valid"`
				} `json:"providers"`
			}
			if err := json.Unmarshal(output.Bytes(), &got); err != nil {
				t.Fatalf("invalid JSON %q: %v", output.String(), err)
			}
			if !got.Authenticated {
				t.Error("expected authenticated with a valid secondary provider")
			}
			if len(got.Providers) != 2 || got.Providers[0].Valid || !got.Providers[1].Valid {
				t.Errorf("unexpected providers %+v", got.Providers)
			}
		})

		t.Run("expired credential without refresh is cleared", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			store.Put(context.Background(), models.Deezer, &models.Credential{AccessToken: "dz", Expiry: time.Now().Add(-time.Minute)})
			r, _ := newTestRunner(t, ts, store)

			if err := run(t, r, "auth", "status"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cred, _ := store.Get(context.Background(), models.Deezer); cred != nil {
				t.Error("expected expired deezer credential to be cleared")
			}
		})
	})

	t.Run("logout", func(t *testing.T) {
		_, ts := newFakeProviders(t)
		ctx := context.Background()

		t.Run("one provider", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			store.Put(ctx, models.Spotify, liveCredential())
			store.Put(ctx, models.Deezer, &models.Credential{AccessToken: "dz", Expiry: time.Now().Add(time.Hour)})
			r, output := newTestRunner(t, ts, store)

			if err := run(t, r, "auth", "logout", "deezer"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if cred, _ := store.Get(ctx, models.Deezer); cred != nil {
				t.Error("expected deezer credential removed")
			}
			if cred, _ := store.Get(ctx, models.Spotify); cred == nil {
				t.Error("expected spotify credential kept")
			}
			if !strings.Contains(output.String(), "Logged out of Deezer") {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("all providers", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			store.Put(ctx, models.Spotify, liveCredential())
			store.Put(ctx, models.Deezer, &models.Credential{AccessToken: "dz", Expiry: time.Now().Add(time.Hour)})
			r, _ := newTestRunner(t, ts, store)

			if err := run(t, r, "auth", "logout"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			for _, p := range []models.Provider{models.Spotify, models.Deezer} {
				if cred, _ := store.Get(ctx, p); cred != nil {
					t.Errorf("expected %s credential removed", p)
				}
			}
		})

		t.Run("unknown provider", func(t *testing.T) {
			r, _ := newTestRunner(t, ts, repositories.NewMemoryStore())
			if err := run(t, r, "auth", "logout", "tidal"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("login", func(t *testing.T) {
		_, ts := newFakeProviders(t)
		ctx := context.Background()

		t.Run("spotify code flow", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			r, output := newTestRunner(t, ts, store)
			port := freePort(t)
			r.config.Server.Port = port
			r.config.Credentials.Spotify.RedirectURI = fmt.Sprintf("http://127.0.0.1:%d/callback", port)

			var opened string
			r.openURL = func(authURL string) error {
				opened = authURL
				u, err := url.Parse(authURL)
				if err != nil {
					return err
				}
				callback := r.config.Credentials.Spotify.RedirectURI + "?code=abc&state=" + u.Query().Get("state")
				go func() {
					if resp, err := http.Get(callback); err == nil {
						resp.Body.Close()
					}
				}()
				return nil
			}

			if err := run(t, r, "auth", "login", "spotify"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.HasPrefix(opened, ts.URL+"/authorize?") {
				t.Errorf("expected consent page on fake auth server, got %q", opened)
			}

			cred, _ := store.Get(ctx, models.Spotify)
			if cred == nil || cred.AccessToken != "fresh" || cred.RefreshToken != "r2" {
				t.Errorf("expected exchanged credential stored, got %+v", cred)
			}
			if !strings.Contains(output.String(), "Spotify authorization successful") {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("deezer implicit flow", func(t *testing.T) {
			store := repositories.NewMemoryStore()
			r, _ := newTestRunner(t, ts, store)
			port := freePort(t)
			r.config.Server.Port = port
			r.config.Credentials.Deezer.RedirectURI = fmt.Sprintf("http://127.0.0.1:%d/deezer/callback", port)

			r.openURL = func(authURL string) error {
				if !strings.Contains(authURL, "response_type=token") {
					t.Errorf("expected implicit grant URL, got %q", authURL)
				}
				forwarded := fmt.Sprintf("http://127.0.0.1:%d%s?access_token=dz&expires=0", port, deezerTokenPath)
				go func() {
					if resp, err := http.Get(forwarded); err == nil {
						resp.Body.Close()
					}
				}()
				return nil
			}

			if err := run(t, r, "auth", "login", "deezer"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			cred, _ := store.Get(ctx, models.Deezer)
			if cred == nil || cred.AccessToken != "dz" {
				t.Fatalf("expected deezer credential stored, got %+v", cred)
			}
			if time.Until(cred.Expiry) < 300*24*time.Hour {
				t.Errorf("expected offline token lifetime, got expiry %v", cred.Expiry)
			}
		})

		t.Run("missing spotify credentials", func(t *testing.T) {
			t.Setenv("SPOTIFY_CLIENT_ID", "")
			r, _ := newTestRunner(t, ts, repositories.NewMemoryStore())
			r.config.Credentials.Spotify.ClientID = ""

			if err := run(t, r, "auth", "login"); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("template placeholders are rejected", func(t *testing.T) {
			t.Setenv("SPOTIFY_CLIENT_ID", "")
			t.Setenv("SPOTIFY_CLIENT_SECRET", "")
			t.Setenv("DEEZER_APP_ID", "")
			r, _ := newTestRunner(t, ts, repositories.NewMemoryStore())
			r.config.Credentials = shared.DefaultConfig().Credentials
			r.openURL = func(string) error {
				t.Error("expected no browser flow with template credentials")
				return nil
			}

			for _, provider := range []string{"spotify", "deezer"} {
				if err := run(t, r, "auth", "login", provider); !errors.Is(err, shared.ErrMissingCredentials) {
					t.Errorf("%s: expected ErrMissingCredentials, got %v", provider, err)
				}
			}
		})

		t.Run("unknown provider", func(t *testing.T) {
			r, _ := newTestRunner(t, ts, repositories.NewMemoryStore())
			if err := run(t, r, "auth", "login", "tidal"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestLibrary(t *testing.T) {
	_, ts := newFakeProviders(t)
	ctx := context.Background()

	authed := func(t *testing.T) (*Runner, *bytes.Buffer) {
		store := repositories.NewMemoryStore()
		store.Put(ctx, models.Spotify, liveCredential())
		return newTestRunner(t, ts, store)
	}

	t.Run("requires spotify authentication", func(t *testing.T) {
		for _, command := range []string{"profile", "liked", "discover"} {
			r, _ := newTestRunner(t, ts, repositories.NewMemoryStore())
			if err := run(t, r, command); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("%s: expected ErrNotAuthenticated, got %v", command, err)
			}
		}
	})

	t.Run("profile", func(t *testing.T) {
		r, output := authed(t)
		if err := run(t, r, "profile"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Listener", "user-1", "SE", "premium", "Saved songs: 1"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("expected %q in output %q", want, output.String())
			}
		}
	})

	t.Run("profile json", func(t *testing.T) {
		r, output := authed(t)
		if err := run(t, r, "profile", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var profile models.Profile
		if err := json.Unmarshal(output.Bytes(), &profile); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if profile.ID != "user-1" || profile.SavedTracks != 1 {
			t.Errorf("unexpected profile %+v", profile)
		}
	})

	t.Run("liked to stdout", func(t *testing.T) {
		r, output := authed(t)
		if err := run(t, r, "liked"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "1. Band - Old Song") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("liked export follows extension", func(t *testing.T) {
		r, _ := authed(t)
		path := filepath.Join(t.TempDir(), "liked.csv")

		if err := run(t, r, "liked", "-o", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		content := tu.MustReadFile(t, path)
		if !strings.HasPrefix(content, "ID,Title,Artist") || !strings.Contains(content, "s1,Old Song,Band") {
			t.Errorf("unexpected csv %q", content)
		}
	})

	t.Run("liked export with explicit format", func(t *testing.T) {
		r, _ := authed(t)
		path := filepath.Join(t.TempDir(), "liked.txt")

		if err := run(t, r, "liked", "-o", path, "-f", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var listing formatter.Listing
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, path)), &listing); err != nil {
			t.Fatalf("expected JSON export: %v", err)
		}
		if len(listing.Tracks) != 1 || listing.Tracks[0].ID != "s1" {
			t.Errorf("unexpected listing %+v", listing)
		}
	})

	t.Run("liked rejects unknown format", func(t *testing.T) {
		r, _ := authed(t)
		if err := run(t, r, "liked", "-f", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("discover", func(t *testing.T) {
		r, output := authed(t)
		if err := run(t, r, "discover"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "1. Band - Hit") {
			t.Errorf("expected candidate in output %q", output.String())
		}
		if strings.Contains(output.String(), "Old Song") {
			t.Error("expected saved track excluded from recommendations")
		}
	})

	t.Run("discover json", func(t *testing.T) {
		r, output := authed(t)
		if err := run(t, r, "discover", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var listing formatter.Listing
		if err := json.Unmarshal(output.Bytes(), &listing); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(listing.Tracks) != 1 {
			t.Fatalf("expected 1 playable track, got %d", len(listing.Tracks))
		}
		if got := listing.Tracks[0]; got.ID != "c1" || got.PreviewURL != "https://cdns.example.com/1.mp3" {
			t.Errorf("unexpected track %+v", got)
		}
	})

	t.Run("discover with no previews", func(t *testing.T) {
		f, ts := newFakeProviders(t)
		f.hits = nil

		store := repositories.NewMemoryStore()
		store.Put(ctx, models.Spotify, liveCredential())
		r, _ := newTestRunner(t, ts, store)

		if err := run(t, r, "discover"); !errors.Is(err, shared.ErrEmptyQueue) {
			t.Errorf("expected ErrEmptyQueue, got %v", err)
		}
	})
}
