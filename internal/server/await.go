package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/swipe/internal/models"
	"github.com/desertthunder/swipe/internal/shared"
)

const DefaultCallbackTimeout = 2 * time.Minute

// CallbackHandler is a [Handler] that reports a single [CallbackResult].
type CallbackHandler interface {
	Handler
	Result() <-chan CallbackResult
}

// CallbackServer serves one [CallbackHandler] until it reports.
type CallbackServer struct {
	logger  *log.Logger
	timeout time.Duration
}

// NewCallbackServer creates a [CallbackServer]. A zero timeout uses [DefaultCallbackTimeout].
func NewCallbackServer(logger *log.Logger, timeout time.Duration) *CallbackServer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}
	return &CallbackServer{logger: logger, timeout: timeout}
}

// Listen opens the callback address.
func Listen(host string, port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, fmt.Sprint(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for callback: %w", err)
	}
	return ln, nil
}

// Await serves h on ln and returns the credential it reports.
//
// The listener is closed before Await returns.
func (s *CallbackServer) Await(ctx context.Context, ln net.Listener, h CallbackHandler) (*models.Credential, error) {
	router := NewBasicRouter(Recover(s.logger), Logging(s.logger))
	router.Handler(h)

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("waiting for callback", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("error shutting down server", "error", err)
		}
	}()

	timeout := time.NewTimer(s.timeout)
	defer timeout.Stop()

	var result CallbackResult
	select {
	case result = <-h.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: no callback after %s", shared.ErrTimeout, s.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return nil, err
	}
	if result.Credential == nil {
		return nil, fmt.Errorf("%w: no credential received", shared.ErrAuthExchange)
	}
	return result.Credential, nil
}
