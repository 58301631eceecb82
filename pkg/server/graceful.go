// Package server runs an http.Server until its context ends or the process
// is signalled, then drains connections and runs shutdown hooks.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-settingstext/pkg/logging"
)

// DefaultShutdownTimeout bounds connection draining
const DefaultShutdownTimeout = 30 * time.Second

// ConfigReloadFunc reloads configuration on SIGHUP
type ConfigReloadFunc func() error

// ShutdownHook runs after the HTTP server has drained
type ShutdownHook func(ctx context.Context) error

// GracefulServer wraps an HTTP server with signal-driven shutdown and
// configuration reload
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	shutdownTimeout time.Duration

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	shutdownErr  error

	mu             sync.RWMutex
	configReloadFn ConfigReloadFunc
	hooks          []ShutdownHook
}

// Option configures a GracefulServer
type Option func(*GracefulServer)

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(gs *GracefulServer) { gs.logger = logging.OrDefault(l) }
}

// WithShutdownTimeout sets how long Shutdown waits for connections
func WithShutdownTimeout(d time.Duration) Option {
	return func(gs *GracefulServer) {
		if d > 0 {
			gs.shutdownTimeout = d
		}
	}
}

// NewGracefulServer wraps srv
func NewGracefulServer(srv *http.Server, opts ...Option) *GracefulServer {
	gs := &GracefulServer{
		server:          srv,
		logger:          logging.NewNopLogger(),
		shutdownTimeout: DefaultShutdownTimeout,
		shutdownCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(gs)
	}
	return gs
}

// OnShutdown registers a hook run, in registration order, after draining
func (gs *GracefulServer) OnShutdown(hook ShutdownHook) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, hook)
}

// ListenAndServe listens on the server's Addr and calls Serve
func (gs *GracefulServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}
	return gs.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, SIGINT or SIGTERM
// arrives, or Shutdown is called. SIGHUP reloads configuration.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() { errCh <- gs.server.Serve(ln) }()
	gs.logger.Info("http server listening", logging.String("addr", ln.Addr().String()))

	for {
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			gs.logger.Info("context done, starting graceful shutdown")
			return gs.Shutdown()

		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				if err := gs.ReloadConfig(); err != nil {
					gs.logger.Error("configuration reload failed", logging.Error(err))
				}
				continue
			}
			gs.logger.Info("signal received, starting graceful shutdown", logging.String("signal", sig.String()))
			return gs.Shutdown()
		}
	}
}

// Shutdown drains the server and runs the hooks. Only the first call does
// any work; later calls return its result.
func (gs *GracefulServer) Shutdown() error {
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), gs.shutdownTimeout)
		defer cancel()

		errs := []error{gs.server.Shutdown(ctx)}

		gs.mu.RLock()
		hooks := append([]ShutdownHook(nil), gs.hooks...)
		gs.mu.RUnlock()
		for _, hook := range hooks {
			errs = append(errs, hook(ctx))
		}

		gs.shutdownErr = errors.Join(errs...)
		if gs.shutdownErr != nil {
			gs.logger.Error("shutdown finished with errors", logging.Error(gs.shutdownErr))
		} else {
			gs.logger.Info("shutdown complete")
		}
	})
	return gs.shutdownErr
}

// IsShuttingDown reports whether shutdown has started
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel closes when shutdown starts
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function called on SIGHUP
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig runs the reload function, if any
func (gs *GracefulServer) ReloadConfig() error {
	gs.mu.RLock()
	reloadFn := gs.configReloadFn
	gs.mu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}

	gs.logger.Info("reloading configuration")
	if err := reloadFn(); err != nil {
		return err
	}
	gs.logger.Info("configuration reload complete")
	return nil
}
