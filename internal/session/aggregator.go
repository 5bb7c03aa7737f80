package session

import (
	"context"
	"sync"

	"github.com/desertthunder/swipe/internal/models"
)

// Validator is the part of a [Session] the [Aggregator] needs.
type Validator interface {
	Provider() models.Provider
	IsValid(ctx context.Context) bool
	Logout(ctx context.Context)
}

// ProviderStatus is the validity of one provider at the time of a check.
type ProviderStatus struct {
	Provider models.Provider `json:"provider"`
	Valid    bool            `json:"valid"`
}

// Aggregator reports combined authentication state across providers.
type Aggregator struct {
	sessions []Validator

	mu        sync.Mutex
	listeners []func()
}

// NewAggregator creates an [Aggregator] over sessions, checked in the given order.
func NewAggregator(sessions ...Validator) *Aggregator {
	return &Aggregator{sessions: sessions}
}

// Status checks every session and returns one entry per provider.
func (a *Aggregator) Status(ctx context.Context) []ProviderStatus {
	statuses := make([]ProviderStatus, len(a.sessions))
	for i, s := range a.sessions {
		statuses[i] = ProviderStatus{Provider: s.Provider(), Valid: s.IsValid(ctx)}
	}
	return statuses
}

// IsAuthenticated reports whether at least one provider is valid.
//
// Every session is checked so expired credentials are refreshed or cleared
// even when an earlier provider is already valid.
func (a *Aggregator) IsAuthenticated(ctx context.Context) bool {
	_, ok := a.Check(ctx)
	return ok
}

// Check runs one validity pass and returns the per-provider statuses along
// with whether any provider is valid.
func (a *Aggregator) Check(ctx context.Context) ([]ProviderStatus, bool) {
	statuses := a.Status(ctx)
	ok := false
	for _, st := range statuses {
		ok = ok || st.Valid
	}
	return statuses, ok
}

// Valid reports whether the session for p is valid. Unknown providers are invalid.
func (a *Aggregator) Valid(ctx context.Context, p models.Provider) bool {
	for _, s := range a.sessions {
		if s.Provider() == p {
			return s.IsValid(ctx)
		}
	}
	return false
}

// OnLogout registers fn to run after every [Aggregator.LogoutAll].
func (a *Aggregator) OnLogout(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.listeners = append(a.listeners, fn)
}

// LogoutAll logs out every provider and then notifies listeners.
func (a *Aggregator) LogoutAll(ctx context.Context) {
	for _, s := range a.sessions {
		s.Logout(ctx)
	}

	a.mu.Lock()
	listeners := append([]func(){}, a.listeners...)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
