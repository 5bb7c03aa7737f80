package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
)

const defaultMaxEmptyRefills = 3

// Queue is an ordered set of playable tracks with a cursor.
//
// The cursor is in [0, Len()]; Len() means exhausted.
type Queue struct {
	tracks []models.PlayableTrack
	cursor int
}

// NewQueue creates a [Queue] positioned at the first track.
func NewQueue(tracks []models.PlayableTrack) *Queue {
	return &Queue{tracks: tracks}
}

func (q *Queue) Len() int { return len(q.tracks) }

func (q *Queue) Cursor() int { return q.cursor }

// Exhausted reports whether every track has been decided.
func (q *Queue) Exhausted() bool { return q.cursor >= len(q.tracks) }

// Current returns the track under the cursor.
func (q *Queue) Current() (models.PlayableTrack, bool) {
	if q.Exhausted() {
		return models.PlayableTrack{}, false
	}
	return q.tracks[q.cursor], true
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []models.PlayableTrack {
	return append([]models.PlayableTrack(nil), q.tracks...)
}

func (q *Queue) advance() {
	if q.cursor < len(q.tracks) {
		q.cursor++
	}
}

// QueueSource reconciles a new [Queue].
type QueueSource interface {
	Reconcile(ctx context.Context, progress chan<- ProgressUpdate) (*Queue, error)
}

// Saver adds tracks to the user's library.
type Saver interface {
	SaveTracks(ctx context.Context, ids ...string) error
}

// SwipeQueueOpts configures a [SwipeQueue].
type SwipeQueueOpts struct {
	MaxEmptyRefills int                   // consecutive empty passes before giving up (default 3)
	Progress        chan<- ProgressUpdate // optional
	Logger          *log.Logger
}

// Decision describes an applied swipe.
type Decision struct {
	Track     models.PlayableTrack
	Direction models.Direction
	Saved     bool  // the track was added to the library
	SaveErr   error // non-nil when a like could not be saved
	Refilled  bool  // the swipe exhausted the queue and a new one was loaded
}

// SwipeQueue applies like/skip decisions to the current queue and refills it when exhausted.
//
// Provider calls run outside the lock, so Current and Position stay
// responsive while a save or refill is in flight. Only one Load or Decide
// runs at a time; an overlapping call fails with [shared.ErrQueueBusy].
type SwipeQueue struct {
	source     QueueSource
	saver      Saver
	maxRefills int
	progress   chan<- ProgressUpdate
	logger     *log.Logger

	mu    sync.Mutex
	queue *Queue
	busy  bool
}

// NewSwipeQueue creates a [SwipeQueue]. Call [SwipeQueue.Load] before deciding.
func NewSwipeQueue(source QueueSource, saver Saver, opts SwipeQueueOpts) *SwipeQueue {
	if opts.MaxEmptyRefills <= 0 {
		opts.MaxEmptyRefills = defaultMaxEmptyRefills
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &SwipeQueue{
		source:     source,
		saver:      saver,
		maxRefills: opts.MaxEmptyRefills,
		progress:   opts.Progress,
		logger:     shared.WithLogger(opts.Logger, "component", "queue"),
	}
}

// acquire marks the queue busy. It fails when another Load or Decide is running.
func (c *SwipeQueue) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return shared.ErrQueueBusy
	}
	c.busy = true
	return nil
}

func (c *SwipeQueue) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Load reconciles a new queue and replaces the current one with the cursor at 0.
//
// On failure the current queue, exhausted or not, is kept.
func (c *SwipeQueue) Load(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	return c.refill(ctx)
}

// Current returns the track awaiting a decision.
func (c *SwipeQueue) Current() (models.PlayableTrack, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue == nil {
		return models.PlayableTrack{}, shared.ErrQueueExhausted
	}
	t, ok := c.queue.Current()
	if !ok {
		return models.PlayableTrack{}, shared.ErrQueueExhausted
	}
	return t, nil
}

// Position returns the cursor and queue length.
func (c *SwipeQueue) Position() (cursor, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.queue == nil {
		return 0, 0
	}
	return c.queue.Cursor(), c.queue.Len()
}

// Decide applies dir to the current track and advances the cursor by one.
//
// A like saves the track first; a failed save is recorded on the returned
// [Decision] and the swipe still counts. When the swipe exhausts the queue a
// refill runs. If it fails the applied [Decision] is returned together with
// the refill error, and the exhausted queue stays until [SwipeQueue.Load]
// succeeds.
func (c *SwipeQueue) Decide(ctx context.Context, dir models.Direction) (Decision, error) {
	if err := c.acquire(); err != nil {
		return Decision{}, err
	}
	defer c.release()

	c.mu.Lock()
	q := c.queue
	var track models.PlayableTrack
	ok := false
	if q != nil {
		track, ok = q.Current()
	}
	c.mu.Unlock()
	if !ok {
		return Decision{}, shared.ErrQueueExhausted
	}

	d := Decision{Track: track, Direction: dir}
	if dir == models.Like {
		if err := c.saver.SaveTracks(ctx, track.ID); err != nil {
			c.logger.Warn("failed to save liked track", "id", track.ID, "title", track.Title, "error", err)
			d.SaveErr = err
		} else {
			d.Saved = true
		}
	}

	c.mu.Lock()
	q.advance()
	exhausted := q.Exhausted()
	c.logger.Debug("decided", "direction", dir, "id", track.ID, "cursor", q.Cursor(), "len", q.Len())
	c.mu.Unlock()

	if exhausted {
		if err := c.refill(ctx); err != nil {
			return d, err
		}
		d.Refilled = true
	}
	return d, nil
}

// refill reconciles until a non-empty queue arrives, a non-empty error
// occurs, or maxRefills consecutive passes come back empty. The lock is only
// taken to swap in the new queue.
func (c *SwipeQueue) refill(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		sendProgress(c.progress, refillUpdate(attempt, c.maxRefills))

		q, err := c.source.Reconcile(ctx, c.progress)
		if err == nil {
			c.mu.Lock()
			c.queue = q
			c.mu.Unlock()
			c.logger.Info("queue loaded", "tracks", q.Len())
			return nil
		}

		if !errors.Is(err, shared.ErrEmptyQueue) && !errors.Is(err, shared.ErrNoCandidates) {
			return err
		}
		if attempt >= c.maxRefills {
			return fmt.Errorf("%w: %d consecutive passes were empty: %v", shared.ErrRefillExhausted, attempt, err)
		}
		c.logger.Warn("reconciliation produced no tracks, retrying", "attempt", attempt, "error", err)
	}
}
