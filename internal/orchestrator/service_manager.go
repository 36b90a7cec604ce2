package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type closer struct {
	name string
	fn   func() error
}

// ServiceManager runs the HTTP server until the context ends and then
// shuts it down, followed by the registered resources in reverse order.
type ServiceManager struct {
	server          *http.Server
	shutdownTimeout time.Duration
	closers         []closer
}

// NewServiceManager creates a new service manager
func NewServiceManager(server *http.Server, shutdownTimeout time.Duration) *ServiceManager {
	return &ServiceManager{server: server, shutdownTimeout: shutdownTimeout}
}

// OnShutdown registers fn to run after the server has stopped.
func (sm *ServiceManager) OnShutdown(name string, fn func() error) {
	sm.closers = append(sm.closers, closer{name: name, fn: fn})
}

// Run serves until ctx is cancelled or the listener fails.
func (sm *ServiceManager) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", sm.server.Addr).
			Msg("Server starting")

		if err := sm.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("serve: %w", err)
			log.Error().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down gracefully...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), sm.shutdownTimeout)
	defer cancel()
	if err := sm.server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		if runErr == nil {
			runErr = fmt.Errorf("shutdown: %w", err)
		}
	}

	sm.shutdownServices()
	log.Info().Msg("Service shutdown complete")
	return runErr
}

func (sm *ServiceManager) shutdownServices() {
	for i := len(sm.closers) - 1; i >= 0; i-- {
		c := sm.closers[i]
		log.Info().Str("service", c.name).Msg("Closing...")
		if err := c.fn(); err != nil {
			log.Warn().Err(err).Str("service", c.name).Msg("Close failed")
		}
	}
}
