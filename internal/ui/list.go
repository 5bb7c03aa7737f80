package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/swipe/internal/models"
)

var _ list.Item = likedItem{}

// likedItem wraps a liked [models.PlayableTrack] to implement [list.Item].
type likedItem struct {
	track models.PlayableTrack
	saved bool
}

func (i likedItem) FilterValue() string { return i.track.Title }
func (i likedItem) Title() string       { return i.track.Title }
func (i likedItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	if !i.saved {
		desc += " • not saved"
	}
	return desc
}
