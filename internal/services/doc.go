// Package services wraps the HTTP APIs of the music providers.
//
// Key Implementations:
//   - [SpotifyService] : saved tracks, artist top tracks, library writes and the
//     user profile, built on github.com/zmb3/spotify/v2
//   - [DeezerService] : public track search returning preview URLs, rate
//     limited with golang.org/x/time/rate and retried on 429 and 5xx
//
// Each provider also exposes a liveness probe ([SpotifyProber],
// [DeezerService.Probe]) used by the session package to confirm that an
// unexpired access token is still accepted.
//
// Provider payloads are converted to [models.TrackRef] and [models.Preview]
// at this boundary; nothing above this package sees provider types.
package services
