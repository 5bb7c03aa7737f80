package models

import (
	"context"
	"strings"
	"time"
)

// Provider names a music service a [Credential] belongs to.
type Provider string

const (
	Spotify Provider = "spotify" // primary: catalog, library and recommendations
	Deezer  Provider = "deezer"  // secondary: preview audio search
)

func (p Provider) String() string { return string(p) }

// Credential is an access token with an absolute expiry.
//
// RefreshToken is empty for providers that only support the implicit grant.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Expired reports whether the credential has expired at now.
func (c *Credential) Expired(now time.Time) bool {
	return !now.Before(c.Expiry)
}

// TrackRef is a track as reported by the primary provider.
type TrackRef struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	ArtistID   string `json:"artist_id"`
	Album      string `json:"album"`
	ArtworkURL string `json:"artwork_url,omitempty"`
}

// Key returns the cross-provider identity key of the track.
func (t TrackRef) Key() string { return IdentityKey(t.Title, t.Artist) }

// Preview is a secondary-provider search hit.
type Preview struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	URL    string `json:"url"`
}

// PlayableTrack is a [TrackRef] that passed the playability gate.
type PlayableTrack struct {
	TrackRef
	PreviewURL string `json:"preview_url"`
}

// Profile is the signed-in primary account.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	SavedTracks int    `json:"saved_tracks"`
}

// Direction is a swipe decision.
type Direction int

const (
	Skip Direction = iota
	Like
)

func (d Direction) String() string {
	if d == Like {
		return "like"
	}
	return "skip"
}

// IdentityKey joins a title and artist into the key used to deduplicate tracks
// across providers.
func IdentityKey(title, artist string) string {
	return strings.ToLower(title) + "-" + strings.ToLower(artist)
}

// TokenStore persists one [Credential] per [Provider].
//
// Get returns (nil, nil) when nothing is stored.
type TokenStore interface {
	Get(ctx context.Context, p Provider) (*Credential, error)
	Put(ctx context.Context, p Provider, c *Credential) error
	Clear(ctx context.Context, p Provider) error
}
