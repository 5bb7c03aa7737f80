// Package repositories implements local persistence of provider credentials.
//
// Credentials are stored as flat key/value rows so the layout stays readable
// with any SQLite client:
//
//	spotify_access_token   opaque token
//	spotify_refresh_token  opaque token (primary provider only)
//	spotify_token_expiry   absolute expiry, epoch milliseconds
//	deezer_access_token    ...
//
// Key Implementations:
//   - [CredentialRepository] : SQLite-backed [models.TokenStore]
//   - [MemoryStore] : process-local [models.TokenStore] for tests and dry runs
package repositories
