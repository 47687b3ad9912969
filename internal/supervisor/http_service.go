// Custoda - Multi-Tenant Property Operations Platform
// Copyright 2026 Custoda Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/custodahq/custoda

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// listener matches the *http.Server lifecycle so tests can substitute a
// fake.
type listener interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPService adapts an *http.Server to suture.Service. ListenAndServe
// blocks without watching a context, so the wrapper runs it in a
// goroutine and translates cancellation into a bounded graceful
// Shutdown.
type HTTPService struct {
	server          listener
	shutdownTimeout time.Duration
}

// NewHTTPService wraps srv. shutdownTimeout bounds the drain of active
// connections on shutdown; zero means 10 seconds.
func NewHTTPService(srv listener, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: srv, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. http.ErrServerClosed is the normal
// result of Shutdown and is not treated as a failure.
func (h *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		// The serve context is already canceled; the drain needs its own.
		drainCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
		if err := h.server.Shutdown(drainCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

func (h *HTTPService) String() string {
	return "http-server"
}
