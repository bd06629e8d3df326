// Package server runs an express application on a network listener using
// fasthttp or net/http as the transport.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/valyala/fasthttp"

	"github.com/jpl-au/express"
	"github.com/jpl-au/express/config"
	"github.com/jpl-au/express/httpx"
)

// Server owns the transport server for one express application and manages
// its lifecycle: construct, serve, shut down.
type Server struct {
	app    *express.App
	cfg    config.ServerConfig
	logger *slog.Logger

	fast    *fasthttp.Server
	std     *http.Server
	closing atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server for app. Routes must be registered on app before
// serving starts.
func New(app *express.App, cfg config.ServerConfig, opts ...Option) (*Server, error) {
	if app == nil {
		return nil, errors.New("server: nil app")
	}
	s := &Server{
		app:    app,
		cfg:    cfg,
		logger: app.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	switch cfg.Transport {
	case config.TransportFastHTTP, "":
		s.cfg.Transport = config.TransportFastHTTP
		s.fast = &fasthttp.Server{
			Handler:      httpx.FastHTTP(app),
			Name:         cfg.Name,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}
	case config.TransportNetHTTP:
		s.std = &http.Server{
			Handler:      httpx.NetHTTP(app),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}
	default:
		return nil, fmt.Errorf("server: unknown transport %q", cfg.Transport)
	}
	return s, nil
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, waiting for in-flight requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", ln.Addr().String()),
			slog.String("transport", s.cfg.Transport),
		)
		errCh <- s.serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	shutdownCtx := context.Background()
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(shutdownCtx, s.cfg.ShutdownTimeout)
		defer cancel()
	}
	if err := s.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) serve(ln net.Listener) error {
	var err error
	if s.fast != nil {
		err = s.fast.Serve(ln)
	} else {
		err = s.std.Serve(ln)
	}
	// Errors from the closed listener after Shutdown are expected.
	if err != nil && (s.closing.Load() || errors.Is(err, http.ErrServerClosed)) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for active requests to
// finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)
	if s.std != nil {
		if err := s.std.Shutdown(ctx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- s.fast.Shutdown() }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("server: shutdown: %w", ctx.Err())
	}
}

// Listen serves app on port with the default configuration until SIGINT or
// SIGTERM is received.
func Listen(app *express.App, port int) error {
	cfg := config.Defaults().Server
	cfg.Port = port

	s, err := New(app, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.ListenAndServe(ctx)
}
