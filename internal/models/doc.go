// Package models defines the value types shared by the discovery pipeline.
//
// The package contains two categories of types:
//
// 1. Provider data: immutable values read from the music services
//   - [TrackRef] : a track in the primary provider's catalog
//   - [Preview] : a search hit from the secondary provider carrying preview audio
//   - [PlayableTrack] : a [TrackRef] joined with its preview URL
//   - [Profile] : the signed-in primary account
//
// 2. Session data: values persisted between runs
//   - [Credential] : an access token, optional refresh token and absolute expiry
//   - [Provider] : the identifier a credential is stored under
//
// Tracks coming from different providers are joined on [IdentityKey], which
// lowercases the title and artist name.
package models
