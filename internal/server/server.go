// Package server owns the process lifecycle: the shared browser is acquired
// before any request is served and released exactly once on the way out.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"webhook-bridge/internal/application/port/output"
)

var (
	ErrAlreadyStarted = errors.New("server already started")
	ErrNotReady       = errors.New("server not ready")
	ErrShutdown       = errors.New("server shut down during startup")
)

type State int32

const (
	StateUninitialized State = iota
	StateStarting
	StateReady
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// BrowserFactory must not return a typed-nil BrowserPort on error.
type BrowserFactory func(ctx context.Context) (output.BrowserPort, error)

// HandlerFactory builds the request handler around the ready browser.
type HandlerFactory func(browser output.BrowserPort) http.Handler

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Server struct {
	cfg        Config
	logger     output.LoggerPort
	metrics    output.MetricsPort
	newBrowser BrowserFactory
	newHandler HandlerFactory

	mu         sync.Mutex
	state      State
	browser    output.BrowserPort
	httpServer *http.Server

	releaseOnce sync.Once
}

func New(
	cfg Config,
	logger output.LoggerPort,
	metrics output.MetricsPort,
	newBrowser BrowserFactory,
	newHandler HandlerFactory,
) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:        cfg,
		logger:     logger.Named("server"),
		metrics:    metrics,
		newBrowser: newBrowser,
		newHandler: newHandler,
	}
}

func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Server) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Start launches the browser and builds the handler. A failed launch leaves
// the server Stopped with everything released.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrAlreadyStarted, st)
	}
	s.state = StateStarting
	s.mu.Unlock()

	s.logger.Info("Initializing browser")
	browser, err := s.newBrowser(ctx)
	if err != nil {
		s.logger.Error("Error initializing browser", "error", err)
		s.setState(StateShuttingDown)
		s.release(browser)
		s.setState(StateStopped)
		return fmt.Errorf("start browser: %w", err)
	}

	handler := s.newHandler(browser)

	s.mu.Lock()
	if s.state != StateStarting {
		s.mu.Unlock()
		s.release(browser)
		return ErrShutdown
	}
	s.browser = browser
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	s.state = StateReady
	s.mu.Unlock()

	s.metrics.BrowserReady(true)
	s.logger.Info("Browser initialized")
	return nil
}

// Serve blocks until Shutdown. It returns nil on a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	srv, st := s.httpServer, s.state
	s.mu.Unlock()
	if st != StateReady || srv == nil {
		_ = ln.Close()
		return fmt.Errorf("%w (state %s)", ErrNotReady, st)
	}

	s.logger.Info("Server listening", "addr", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Shutdown drains in-flight requests and then closes the browser. It is safe
// to call in any state, including after a failed Start, and more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	s.state = StateShuttingDown
	srv, browser := s.httpServer, s.browser
	s.mu.Unlock()

	s.logger.Info("Shutting down server")

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	s.release(browser)
	s.setState(StateStopped)

	s.logger.Info("Server stopped")
	return errors.Join(errs...)
}

// Run starts, serves and shuts down. It returns once ctx is cancelled and
// cleanup has finished, or as soon as startup or serving fails.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.ListenAndServe()
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Server forced to shutdown", "error", err)
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

func (s *Server) release(browser output.BrowserPort) {
	if browser == nil {
		return
	}
	s.releaseOnce.Do(func() {
		browser.Close()
		s.metrics.BrowserReady(false)
		s.logger.Info("Browser closed")
	})
}
