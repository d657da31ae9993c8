// Package app wires the client services together and owns their lifecycle.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/roomwatch/internal/config"
)

// View selects which dashboard the process renders.
type View int

const (
	// RoomControl shows status tiles, the user roster and light/override
	// controls, with a short activity console.
	RoomControl View = iota
	// LogStorage shows the long activity console with stats refresh,
	// cleanup and storage commands.
	LogStorage
)

// Title returns the frame title for the view.
func (v View) Title() string {
	if v == LogStorage {
		return "Room Monitor - Log Console"
	}
	return "Room Monitor - Control"
}

// App is the application container managing all services and their lifecycle.
type App struct {
	cfg      *config.Config
	services *Services
	ctx      context.Context
	cancel   context.CancelFunc
}

// New creates an App with all services initialized but not started.
func New(cfg *config.Config, view View) (*App, error) {
	services, err := NewServices(cfg, view)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		services: services,
	}, nil
}

// Start launches all services. The provided context is used for cancellation.
func (a *App) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)

	// Quit command and fatal errors cancel the app context to trigger shutdown
	onStop := func() {
		a.cancel()
	}

	if err := a.services.Start(a.ctx, onStop); err != nil {
		return err
	}

	log.Info().Msg("roomwatch started")
	return nil
}

// Stop gracefully shuts down all services.
func (a *App) Stop() error {
	log.Info().Msg("Shutting down...")

	if a.cancel != nil {
		a.cancel()
	}

	if a.services != nil {
		a.services.Stop()
	}

	return nil
}

// Wait blocks until the application context is cancelled.
func (a *App) Wait() {
	if a.ctx != nil {
		<-a.ctx.Done()
	}
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
