package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Session errors
	ErrAuthExchange         = fmt.Errorf("authorization exchange failed")
	ErrAuthRefresh          = fmt.Errorf("token refresh failed")
	ErrUnsupportedOperation = fmt.Errorf("operation not supported by provider")
	ErrNotAuthenticated     = fmt.Errorf("not authenticated")
	ErrStateMismatch        = fmt.Errorf("oauth state mismatch")
	ErrTimeout              = fmt.Errorf("operation timed out")

	// Catalog and preview errors
	ErrCatalogFetch  = fmt.Errorf("catalog fetch failed")
	ErrNoSeedData    = fmt.Errorf("no saved tracks to seed recommendations")
	ErrNoCandidates  = fmt.Errorf("no recommendation candidates")
	ErrPreviewSearch = fmt.Errorf("preview search failed")

	// Queue errors
	ErrEmptyQueue      = fmt.Errorf("no playable tracks")
	ErrQueueExhausted  = fmt.Errorf("queue exhausted")
	ErrRefillExhausted = fmt.Errorf("gave up refilling queue")
	ErrQueueBusy       = fmt.Errorf("queue is busy")

	// Playback errors
	ErrPlayback = fmt.Errorf("playback failed")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
