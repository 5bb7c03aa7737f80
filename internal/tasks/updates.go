package tasks

import (
	"fmt"

	"github.com/desertthunder/swipe/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCandidates Phase = iota
	Deduplicate
	SearchPreviews
	GatePlayable
	Refill
)

func (p Phase) String() string {
	switch p {
	case FetchCandidates:
		return "fetch_candidates"
	case Deduplicate:
		return "deduplicate"
	case SearchPreviews:
		return "search_previews"
	case GatePlayable:
		return "gate_playable"
	case Refill:
		return "refill"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchCandidatesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCandidates,
		Step:    0,
		Total:   1,
		Message: "Fetching recommendations from Spotify...",
	}
}

func deduplicateUpdate(before, after int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Deduplicate,
		Step:    after,
		Total:   before,
		Message: fmt.Sprintf("%d candidates, %d unique", before, after),
	}
}

func searchPreviewUpdate(step, total int, t models.TrackRef, found bool) ProgressUpdate {
	mark := "✗"
	if found {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   SearchPreviews,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, t.Artist, t.Title),
	}
}

func gateUpdate(kept, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GatePlayable,
		Step:    kept,
		Total:   total,
		Message: fmt.Sprintf("%d of %d tracks are playable", kept, total),
	}
}

func refillUpdate(attempt, limit int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Refill,
		Step:    attempt,
		Total:   limit,
		Message: fmt.Sprintf("Queue finished, fetching more (attempt %d/%d)...", attempt, limit),
	}
}
