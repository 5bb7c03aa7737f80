// Package catalog reads the primary provider's library and derives
// recommendation candidates from it.
//
// Candidates are the top tracks of the artists behind the most recently saved
// tracks, minus anything already saved.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"golang.org/x/sync/errgroup"
)

// PageSize is the saved-tracks page size; a shorter page ends pagination.
const PageSize = 50

const (
	defaultSeedTracks = 5
	defaultMarket     = "US"
	defaultWorkers    = 4
)

// Library is the primary-provider API the fetcher reads from.
type Library interface {
	SavedTracks(ctx context.Context, limit, offset int) ([]models.TrackRef, error)
	ArtistTopTracks(ctx context.Context, artistID, market string) ([]models.TrackRef, error)
}

// MarketFunc resolves the market used for top-track lookups.
type MarketFunc func(ctx context.Context) (string, error)

// Options configures a [Fetcher]. Zero values select defaults and keep
// candidate order deterministic.
type Options struct {
	SeedTracks int        // most recent saved tracks used as seeds (default 5)
	Market     MarketFunc // default "US"
	Workers    int        // concurrent top-track requests (default 4)
	Shuffle    *rand.Rand // shuffles candidates when set
	Limit      int        // caps candidates when positive
	Logger     *log.Logger
}

// Fetcher implements saved-track and candidate retrieval.
type Fetcher struct {
	library Library
	opts    Options
	logger  *log.Logger
}

// NewFetcher creates a [Fetcher] over library.
func NewFetcher(library Library, opts Options) *Fetcher {
	if opts.SeedTracks <= 0 {
		opts.SeedTracks = defaultSeedTracks
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Fetcher{library: library, opts: opts, logger: shared.WithLogger(opts.Logger, "component", "catalog")}
}

// FetchSavedTracks returns every saved track, most recent first.
//
// Pages are requested until one comes back shorter than [PageSize]. A failing
// page discards everything fetched so far.
func (f *Fetcher) FetchSavedTracks(ctx context.Context) ([]models.TrackRef, error) {
	var all []models.TrackRef
	for offset := 0; ; offset += PageSize {
		page, err := f.library.SavedTracks(ctx, PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: saved tracks: %v", shared.ErrCatalogFetch, err)
		}
		all = append(all, page...)
		if len(page) < PageSize {
			break
		}
	}

	f.logger.Debug("fetched library", "tracks", len(all))
	return all, nil
}

// FetchCandidates returns top tracks of recently saved artists that are not already saved.
func (f *Fetcher) FetchCandidates(ctx context.Context) ([]models.TrackRef, error) {
	saved, err := f.FetchSavedTracks(ctx)
	if err != nil {
		return nil, err
	}
	if len(saved) == 0 {
		return nil, shared.ErrNoSeedData
	}

	seeds := SeedArtists(saved, f.opts.SeedTracks)
	if len(seeds) == 0 {
		return nil, fmt.Errorf("%w: recent saved tracks have no artist", shared.ErrNoSeedData)
	}

	market, err := f.market(ctx)
	if err != nil {
		return nil, err
	}

	topTracks, err := f.fetchTopTracks(ctx, seeds, market)
	if err != nil {
		return nil, err
	}

	candidates := Exclude(Union(topTracks...), saved)
	if len(candidates) == 0 {
		return nil, shared.ErrNoCandidates
	}

	if f.opts.Shuffle != nil {
		f.opts.Shuffle.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}
	if f.opts.Limit > 0 && len(candidates) > f.opts.Limit {
		candidates = candidates[:f.opts.Limit]
	}

	f.logger.Info("fetched candidates", "seeds", len(seeds), "market", market, "candidates", len(candidates))
	return candidates, nil
}

func (f *Fetcher) market(ctx context.Context) (string, error) {
	if f.opts.Market == nil {
		return defaultMarket, nil
	}
	market, err := f.opts.Market(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: market: %v", shared.ErrCatalogFetch, err)
	}
	if market == "" {
		return defaultMarket, nil
	}
	return market, nil
}

// fetchTopTracks queries every seed concurrently; results keep seed order.
func (f *Fetcher) fetchTopTracks(ctx context.Context, seeds []string, market string) ([][]models.TrackRef, error) {
	results := make([][]models.TrackRef, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Workers)
	for i, artistID := range seeds {
		g.Go(func() error {
			tracks, err := f.library.ArtistTopTracks(gctx, artistID, market)
			if err != nil {
				return err
			}
			results[i] = tracks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: top tracks: %v", shared.ErrCatalogFetch, err)
	}
	return results, nil
}

// SeedArtists returns the distinct first-artist ids of the first n tracks, in order.
func SeedArtists(tracks []models.TrackRef, n int) []string {
	if n > len(tracks) {
		n = len(tracks)
	}

	seen := make(map[string]struct{}, n)
	var seeds []string
	for _, t := range tracks[:n] {
		if t.ArtistID == "" {
			continue
		}
		if _, ok := seen[t.ArtistID]; ok {
			continue
		}
		seen[t.ArtistID] = struct{}{}
		seeds = append(seeds, t.ArtistID)
	}
	return seeds
}

// Union concatenates groups, keeping the first track seen for each id.
func Union(groups ...[]models.TrackRef) []models.TrackRef {
	seen := make(map[string]struct{})
	var out []models.TrackRef
	for _, group := range groups {
		for _, t := range group {
			if t.ID == "" {
				continue
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// Exclude drops tracks whose id appears in saved.
func Exclude(tracks, saved []models.TrackRef) []models.TrackRef {
	exclusion := make(map[string]struct{}, len(saved))
	for _, t := range saved {
		exclusion[t.ID] = struct{}{}
	}

	out := make([]models.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := exclusion[t.ID]; !ok {
			out = append(out, t)
		}
	}
	return out
}
