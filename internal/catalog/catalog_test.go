package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	tu "github.com/desertthunder/swipe/internal/testing"
)

func savedTracks(n int) []models.TrackRef {
	tracks := make([]models.TrackRef, n)
	for i := range tracks {
		tracks[i] = tu.Track(fmt.Sprintf("s%d", i), fmt.Sprintf("Saved %d", i), fmt.Sprintf("A%d", i%3))
	}
	return tracks
}

func ids(tracks []models.TrackRef) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func newFetcher(lib Library, opts Options) *Fetcher {
	opts.Logger = tu.NewDiscardLogger()
	return NewFetcher(lib, opts)
}

func TestFetchSavedTracks(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name      string
		saved     int
		wantCalls int
	}{
		{name: "empty library", saved: 0, wantCalls: 1},
		{name: "single short page", saved: 12, wantCalls: 1},
		{name: "exact page boundary", saved: 50, wantCalls: 2},
		{name: "several pages", saved: 120, wantCalls: 3},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			lib := &tu.FakeLibrary{Saved: savedTracks(tt.saved)}
			got, err := newFetcher(lib, Options{}).FetchSavedTracks(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.saved {
				t.Errorf("expected %d tracks, got %d", tt.saved, len(got))
			}
			if lib.SavedCalls != tt.wantCalls {
				t.Errorf("expected %d page requests, got %d", tt.wantCalls, lib.SavedCalls)
			}
			if tt.saved > 0 && !reflect.DeepEqual(ids(got), ids(lib.Saved)) {
				t.Error("expected pages concatenated in order")
			}
		})
	}

	t.Run("failing page discards partial results", func(t *testing.T) {
		lib := &tu.FakeLibrary{Saved: savedTracks(120), SavedErr: errors.New("boom"), SavedErrAt: 100}
		got, err := newFetcher(lib, Options{}).FetchSavedTracks(ctx)
		if !errors.Is(err, shared.ErrCatalogFetch) {
			t.Errorf("expected ErrCatalogFetch, got %v", err)
		}
		if got != nil {
			t.Errorf("expected no partial results, got %d", len(got))
		}
	})
}

func TestFetchCandidates(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds from recent artists and excludes saved", func(t *testing.T) {
		saved := []models.TrackRef{
			tu.Track("s1", "One", "Alpha"),
			tu.Track("s2", "Two", "Beta"),
			tu.Track("s3", "Three", "Alpha"),
			tu.Track("s4", "Four", "Gamma"),
			tu.Track("s5", "Five", "Beta"),
			tu.Track("s6", "Six", "Delta"),
		}
		lib := &tu.FakeLibrary{
			Saved: saved,
			TopTracks: map[string][]models.TrackRef{
				"artist-Alpha": {tu.Track("c1", "Alpha Hit", "Alpha"), tu.Track("s3", "Three", "Alpha")},
				"artist-Beta":  {tu.Track("c2", "Beta Hit", "Beta"), tu.Track("c1", "Alpha Hit", "Alpha")},
				"artist-Gamma": {tu.Track("c3", "Gamma Hit", "Gamma")},
				"artist-Delta": {tu.Track("c4", "Delta Hit", "Delta")},
			},
		}

		got, err := newFetcher(lib, Options{}).FetchCandidates(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if want := []string{"c1", "c2", "c3"}; !reflect.DeepEqual(ids(got), want) {
			t.Errorf("expected %v, got %v", want, ids(got))
		}
		if lib.TopCallCount() != 3 {
			t.Errorf("expected one top-tracks call per distinct seed artist, got %d", lib.TopCallCount())
		}
		for _, m := range lib.TopMarkets {
			if m != "US" {
				t.Errorf("expected default market US, got %s", m)
			}
		}
	})

	t.Run("fewer than five saved tracks", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Saved: []models.TrackRef{tu.Track("s1", "One", "Alpha")},
			TopTracks: map[string][]models.TrackRef{
				"artist-Alpha": {tu.Track("c1", "Alpha Hit", "Alpha")},
			},
		}

		got, err := newFetcher(lib, Options{}).FetchCandidates(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 candidate, got %d", len(got))
		}
	})

	t.Run("market from resolver", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Saved:     []models.TrackRef{tu.Track("s1", "One", "Alpha")},
			TopTracks: map[string][]models.TrackRef{"artist-Alpha": {tu.Track("c1", "Hit", "Alpha")}},
		}
		market := func(context.Context) (string, error) { return "SE", nil }

		if _, err := newFetcher(lib, Options{Market: market}).FetchCandidates(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lib.TopMarkets[0] != "SE" {
			t.Errorf("expected market SE, got %s", lib.TopMarkets[0])
		}
	})

	t.Run("no saved tracks", func(t *testing.T) {
		lib := &tu.FakeLibrary{}
		if _, err := newFetcher(lib, Options{}).FetchCandidates(ctx); !errors.Is(err, shared.ErrNoSeedData) {
			t.Errorf("expected ErrNoSeedData, got %v", err)
		}
		if lib.TopCallCount() != 0 {
			t.Error("expected no top-track requests")
		}
	})

	t.Run("everything already saved", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Saved:     []models.TrackRef{tu.Track("s1", "One", "Alpha")},
			TopTracks: map[string][]models.TrackRef{"artist-Alpha": {tu.Track("s1", "One", "Alpha")}},
		}
		if _, err := newFetcher(lib, Options{}).FetchCandidates(ctx); !errors.Is(err, shared.ErrNoCandidates) {
			t.Errorf("expected ErrNoCandidates, got %v", err)
		}
	})

	t.Run("top tracks failure", func(t *testing.T) {
		lib := &tu.FakeLibrary{Saved: savedTracks(3), TopErr: errors.New("502")}
		if _, err := newFetcher(lib, Options{}).FetchCandidates(ctx); !errors.Is(err, shared.ErrCatalogFetch) {
			t.Errorf("expected ErrCatalogFetch, got %v", err)
		}
	})

	t.Run("saved tracks failure", func(t *testing.T) {
		lib := &tu.FakeLibrary{SavedErr: errors.New("401")}
		if _, err := newFetcher(lib, Options{}).FetchCandidates(ctx); !errors.Is(err, shared.ErrCatalogFetch) {
			t.Errorf("expected ErrCatalogFetch, got %v", err)
		}
	})

	t.Run("merge order does not depend on completion order", func(t *testing.T) {
		lib := &tu.FakeLibrary{
			Saved: []models.TrackRef{tu.Track("s1", "One", "Slow"), tu.Track("s2", "Two", "Fast")},
			TopTracks: map[string][]models.TrackRef{
				"artist-Slow": {tu.Track("c1", "Slow Hit", "Slow")},
				"artist-Fast": {tu.Track("c2", "Fast Hit", "Fast")},
			},
			ArtistDelay: func(id string) {
				if id == "artist-Slow" {
					time.Sleep(20 * time.Millisecond)
				}
			},
		}

		got, err := newFetcher(lib, Options{}).FetchCandidates(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := []string{"c1", "c2"}; !reflect.DeepEqual(ids(got), want) {
			t.Errorf("expected seed order %v, got %v", want, ids(got))
		}
	})

	t.Run("shuffle and limit", func(t *testing.T) {
		top := make([]models.TrackRef, 30)
		for i := range top {
			top[i] = tu.Track(fmt.Sprintf("c%d", i), fmt.Sprintf("Hit %d", i), "Alpha")
		}
		lib := &tu.FakeLibrary{
			Saved:     []models.TrackRef{tu.Track("s1", "One", "Alpha")},
			TopTracks: map[string][]models.TrackRef{"artist-Alpha": top},
		}

		a, err := newFetcher(lib, Options{Shuffle: rand.New(rand.NewSource(7)), Limit: 10}).FetchCandidates(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, _ := newFetcher(lib, Options{Shuffle: rand.New(rand.NewSource(7)), Limit: 10}).FetchCandidates(ctx)

		if len(a) != 10 {
			t.Errorf("expected limit of 10, got %d", len(a))
		}
		if !reflect.DeepEqual(ids(a), ids(b)) {
			t.Error("expected the same seed to give the same order")
		}
		if reflect.DeepEqual(ids(a), ids(top[:10])) {
			t.Error("expected shuffled order")
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("SeedArtists", func(t *testing.T) {
		tracks := []models.TrackRef{
			{ID: "1", ArtistID: "a"},
			{ID: "2", ArtistID: "b"},
			{ID: "3", ArtistID: "a"},
			{ID: "4"},
			{ID: "5", ArtistID: "c"},
			{ID: "6", ArtistID: "d"},
		}
		if got, want := SeedArtists(tracks, 5), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		if got := SeedArtists(nil, 5); len(got) != 0 {
			t.Errorf("expected no seeds, got %v", got)
		}
	})

	t.Run("Union", func(t *testing.T) {
		got := Union(
			[]models.TrackRef{{ID: "1", Title: "first"}, {ID: "2"}},
			[]models.TrackRef{{ID: "1", Title: "second"}, {ID: "3"}},
		)
		if want := []string{"1", "2", "3"}; !reflect.DeepEqual(ids(got), want) {
			t.Errorf("expected %v, got %v", want, ids(got))
		}
		if got[0].Title != "first" {
			t.Errorf("expected first occurrence kept, got %q", got[0].Title)
		}
	})

	t.Run("Exclude", func(t *testing.T) {
		got := Exclude(
			[]models.TrackRef{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			[]models.TrackRef{{ID: "2"}},
		)
		if want := []string{"1", "3"}; !reflect.DeepEqual(ids(got), want) {
			t.Errorf("expected %v, got %v", want, ids(got))
		}
	})
}
