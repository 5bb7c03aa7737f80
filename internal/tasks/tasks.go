package tasks

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
	"golang.org/x/sync/errgroup"
)

const defaultSearchWorkers = 8

// CandidateSource produces recommendation candidates.
type CandidateSource interface {
	FetchCandidates(ctx context.Context) ([]models.TrackRef, error)
}

// PreviewFinder looks up preview audio for a track. (nil, nil) means no match.
type PreviewFinder interface {
	Search(ctx context.Context, title, artist string) (*models.Preview, error)
}

// ReconcilerOpts configures a [Reconciler].
type ReconcilerOpts struct {
	Workers int // concurrent preview searches (default 8)
	Logger  *log.Logger
}

// Reconciler joins primary-provider candidates with secondary-provider previews.
type Reconciler struct {
	source  CandidateSource
	finder  PreviewFinder
	workers int
	logger  *log.Logger
}

// NewReconciler creates a [Reconciler].
func NewReconciler(source CandidateSource, finder PreviewFinder, opts ReconcilerOpts) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = defaultSearchWorkers
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Reconciler{
		source:  source,
		finder:  finder,
		workers: opts.Workers,
		logger:  shared.WithLogger(opts.Logger, "component", "reconciler"),
	}
}

// Reconcile runs one reconciliation pass and returns a fresh [Queue].
//
// Candidate errors are returned unchanged. An empty result is [shared.ErrEmptyQueue].
func (r *Reconciler) Reconcile(ctx context.Context, progress chan<- ProgressUpdate) (*Queue, error) {
	sendProgress(progress, fetchCandidatesUpdate())

	candidates, err := r.source.FetchCandidates(ctx)
	if err != nil {
		return nil, err
	}

	unique := Dedupe(candidates)
	sendProgress(progress, deduplicateUpdate(len(candidates), len(unique)))

	previews, err := r.searchAll(ctx, progress, unique)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.PlayableTrack, 0, len(unique))
	for i, t := range unique {
		if pt, ok := Playable(t, previews[i]); ok {
			tracks = append(tracks, pt)
		}
	}
	sendProgress(progress, gateUpdate(len(tracks), len(unique)))

	r.logger.Info("reconciled", "candidates", len(candidates), "unique", len(unique), "playable", len(tracks))
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: none of %d candidates had a preview and artwork", shared.ErrEmptyQueue, len(unique))
	}
	return NewQueue(tracks), nil
}

// searchAll looks up every track concurrently. previews[i] belongs to tracks[i].
func (r *Reconciler) searchAll(ctx context.Context, progress chan<- ProgressUpdate, tracks []models.TrackRef) ([]*models.Preview, error) {
	previews := make([]*models.Preview, len(tracks))
	var done atomic.Int32

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, t := range tracks {
		g.Go(func() error {
			p, err := r.finder.Search(ctx, t.Title, t.Artist)
			if err != nil {
				r.logger.Warn("preview search failed", "title", t.Title, "artist", t.Artist, "error", err)
				p = nil
			}
			previews[i] = p
			sendProgress(progress, searchPreviewUpdate(int(done.Add(1)), len(tracks), t, p != nil))
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return previews, nil
}

// Dedupe removes tracks whose identity key was already seen, keeping order.
func Dedupe(tracks []models.TrackRef) []models.TrackRef {
	seen := make(map[string]struct{}, len(tracks))
	out := make([]models.TrackRef, 0, len(tracks))
	for _, t := range tracks {
		key := t.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Playable joins t with p when both carry what the swipe card needs.
func Playable(t models.TrackRef, p *models.Preview) (models.PlayableTrack, bool) {
	if p == nil || p.URL == "" || t.ArtworkURL == "" {
		return models.PlayableTrack{}, false
	}
	return models.PlayableTrack{TrackRef: t, PreviewURL: p.URL}, true
}
