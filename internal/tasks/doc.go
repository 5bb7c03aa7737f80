// Package tasks turns recommendation candidates into a swipeable queue.
//
// # Reconciliation
//
// [Reconciler.Reconcile] runs one pass:
//
//  1. Fetch candidates from the primary provider
//  2. Drop duplicates by identity key (lowercased title and artist), keeping the first
//  3. Search a preview for every remaining track concurrently; a failed search
//     counts as "no preview" and never aborts the pass
//  4. Keep tracks that have both a preview URL and artwork
//
// Output order always follows step 2, whatever order the searches finish in.
// Results are written into positional slots and read back in order.
//
// # Swiping
//
// [SwipeQueue] holds the current [Queue] and a cursor. Every decision advances
// the cursor by one; a like also saves the track to the user's library, and a
// failed save is reported on the [Decision] without blocking the swipe. When
// the cursor passes the last track a new pass is reconciled. Consecutive empty
// passes are bounded so an exhausted catalog ends in [shared.ErrRefillExhausted]
// instead of looping.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use
// select with default, so a slow or absent reader never blocks a pass.
package tasks
