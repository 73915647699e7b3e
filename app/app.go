// Package app manages the lifecycle of servers and their cleanup functions:
// run everything, wait for a signal, shut down gracefully.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/transport"
)

var (
	ErrAlreadyStarted = errors.New("application already started")
)

// Application runs servers until a shutdown signal arrives
type Application struct {
	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration
	signals         []os.Signal
	servers         []transport.Server
	closeFuncs      []CloseFunc
	mu              sync.Mutex
	started         bool
}

// CloseFunc is a named cleanup function executed during shutdown
type CloseFunc struct {
	Name string
	Fn   func(context.Context) error
}

// Option configures an Application
type Option func(*Application)

// WithContext sets the root context
func WithContext(ctx context.Context) Option {
	return func(app *Application) {
		if ctx != nil {
			app.ctx, app.cancel = context.WithCancel(ctx)
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown timeout
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(app *Application) {
		if timeout > 0 {
			app.shutdownTimeout = timeout
		}
	}
}

// WithServer adds a server to the application
func WithServer(server transport.Server) Option {
	return func(app *Application) {
		if server != nil {
			app.servers = append(app.servers, server)
		}
	}
}

// WithClose registers a cleanup function executed during shutdown
func WithClose(name string, fn func(context.Context) error) Option {
	return func(app *Application) {
		if fn == nil {
			log.Warn().Str("name", name).Msg("nil close function ignored")
			return
		}
		app.closeFuncs = append(app.closeFuncs, CloseFunc{Name: name, Fn: fn})
	}
}

// New creates an Application with the given options
func New(options ...Option) *Application {
	app := &Application{
		shutdownTimeout: 30 * time.Second,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT},
	}

	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, opt := range options {
		opt(app)
	}

	return app
}

// Run starts every server and blocks until a signal arrives or a server
// fails, then shuts everything down gracefully
func (app *Application) Run() error {
	app.mu.Lock()
	if app.started {
		app.mu.Unlock()
		return ErrAlreadyStarted
	}
	app.started = true
	app.mu.Unlock()

	defer app.cancel()

	g, ctx := errgroup.WithContext(app.ctx)

	for _, server := range app.servers {
		g.Go(func() error {
			if err := server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, app.signals...)
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		case <-ctx.Done():
		}

		return app.shutdown()
	})

	return g.Wait()
}

// Stop triggers a shutdown from outside
func (app *Application) Stop() {
	app.cancel()
}

func (app *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, server := range app.servers {
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
			errs = append(errs, err)
		}
	}

	for _, close := range app.closeFuncs {
		if err := close.Fn(ctx); err != nil {
			log.Error().Err(err).Str("name", close.Name).Msg("close function failed")
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
