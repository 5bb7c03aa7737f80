// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
)

// NewDiscardLogger returns a logger that drops all output
func NewDiscardLogger() *log.Logger {
	return log.New(io.Discard)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FailingStore is a [models.TokenStore] whose every call fails
type FailingStore struct{}

func (FailingStore) Get(context.Context, models.Provider) (*models.Credential, error) {
	return nil, errors.New("store unavailable")
}

func (FailingStore) Put(context.Context, models.Provider, *models.Credential) error {
	return errors.New("store unavailable")
}

func (FailingStore) Clear(context.Context, models.Provider) error {
	return errors.New("store unavailable")
}

// FakeLibrary serves saved tracks and artist top tracks from memory.
//
// Saved is paged by the limit and offset of each call. A non-nil error field fails the matching call.
type FakeLibrary struct {
	Saved     []models.TrackRef
	TopTracks map[string][]models.TrackRef

	SavedErr    error
	SavedErrAt  int // offset at which SavedErr is returned
	TopErr      error
	SaveErr     error
	ArtistDelay func(artistID string)

	mu         sync.Mutex
	SavedCalls int
	TopCalls   []string
	SavedIDs   []string
	TopMarkets []string
}

func (f *FakeLibrary) SavedTracks(_ context.Context, limit, offset int) ([]models.TrackRef, error) {
	f.mu.Lock()
	f.SavedCalls++
	f.mu.Unlock()

	if f.SavedErr != nil && offset >= f.SavedErrAt {
		return nil, f.SavedErr
	}
	if offset >= len(f.Saved) {
		return nil, nil
	}
	end := min(offset+limit, len(f.Saved))
	return append([]models.TrackRef(nil), f.Saved[offset:end]...), nil
}

func (f *FakeLibrary) ArtistTopTracks(_ context.Context, artistID, market string) ([]models.TrackRef, error) {
	if f.ArtistDelay != nil {
		f.ArtistDelay(artistID)
	}

	f.mu.Lock()
	f.TopCalls = append(f.TopCalls, artistID)
	f.TopMarkets = append(f.TopMarkets, market)
	f.mu.Unlock()

	if f.TopErr != nil {
		return nil, f.TopErr
	}
	return f.TopTracks[artistID], nil
}

func (f *FakeLibrary) SaveTracks(_ context.Context, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.SavedIDs = append(f.SavedIDs, ids...)
	return nil
}

// TopCallCount returns the number of artist top-track calls made so far
func (f *FakeLibrary) TopCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.TopCalls)
}

// Track builds a [models.TrackRef] with artwork for tests
func Track(id, title, artist string) models.TrackRef {
	return models.TrackRef{
		ID:         id,
		Title:      title,
		Artist:     artist,
		ArtistID:   "artist-" + artist,
		Album:      title + " (Album)",
		ArtworkURL: "https://img.example.com/" + id + ".jpg",
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
