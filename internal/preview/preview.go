// Package preview finds playable preview audio for primary-provider tracks on
// the secondary provider.
//
// Matching is a heuristic: a single free-text query is issued and the first
// hit is taken as the match. There is no confidence scoring, so a wrong but
// playable hit is possible.
package preview

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
)

// Searcher runs a free-text track search on the secondary provider.
type Searcher interface {
	SearchTracks(ctx context.Context, query string) ([]models.Preview, error)
}

var disallowed = regexp.MustCompile(`[^\w\s-]`)

// Query builds the search string for a track: "<title> <artist> track:<title>"
// with the field prefix and punctuation removed.
func Query(title, artist string) string {
	q := fmt.Sprintf("%s %s track:%s", title, artist, title)
	q = strings.ReplaceAll(q, "track:", "")
	q = disallowed.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// Matcher looks up previews through a [Searcher].
type Matcher struct {
	searcher Searcher
}

// NewMatcher creates a [Matcher].
func NewMatcher(s Searcher) *Matcher {
	return &Matcher{searcher: s}
}

// Search returns the first hit for the track, or (nil, nil) when there is none.
func (m *Matcher) Search(ctx context.Context, title, artist string) (*models.Preview, error) {
	hits, err := m.searcher.SearchTracks(ctx, Query(title, artist))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPreviewSearch, err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	hit := hits[0]
	return &hit, nil
}
