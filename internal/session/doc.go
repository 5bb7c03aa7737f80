// Package session owns the credential lifecycle of each music provider.
//
// A [Session] wraps one provider's authorization grant and a
// [models.TokenStore]. Two grants are supported:
//
//   - Authorization code (Spotify): [Session.ExchangeCode] trades a callback
//     code for tokens and [Session.Refresh] renews them with HTTP Basic client
//     authentication.
//   - Implicit (Deezer): the access token arrives in the callback fragment and
//     is stored by [Session.CompleteImplicit]; exchange and refresh return
//     [shared.ErrUnsupportedOperation] without touching the network.
//
// [Session.IsValid] is the single gate used before any provider call. It runs
// under a per-session mutex so concurrent callers never race the
// read, refresh, write sequence. An expired credential gets one refresh
// attempt; if that fails only this provider is logged out. An unexpired
// credential is confirmed with a liveness [Prober]; a failed probe reports
// invalid but keeps the credential.
//
// [Aggregator] combines sessions for the shell: authenticated when any
// provider is, with logout fanned out to every session and its listeners.
package session
