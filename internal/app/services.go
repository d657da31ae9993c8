package app

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/roomwatch/internal/api"
	"github.com/dokzlo13/roomwatch/internal/config"
	"github.com/dokzlo13/roomwatch/internal/console"
	"github.com/dokzlo13/roomwatch/internal/dispatch"
	"github.com/dokzlo13/roomwatch/internal/events"
	"github.com/dokzlo13/roomwatch/internal/metrics"
	"github.com/dokzlo13/roomwatch/internal/reconcile"
	"github.com/dokzlo13/roomwatch/internal/render"
	"github.com/dokzlo13/roomwatch/internal/state"
	"github.com/dokzlo13/roomwatch/internal/stats"
	"github.com/dokzlo13/roomwatch/internal/stream"
)

// Services is a container for all client services.
type Services struct {
	cfg  *config.Config
	view View

	Session string

	State      *state.State
	Console    *console.Console
	Stats      *stats.Cache
	Metrics    *metrics.Metrics
	API        *api.Client
	Reconciler *reconcile.Reconciler
	Dispatcher *dispatch.Dispatcher
	Stream     *stream.Stream
	Writer     *render.Writer

	wg sync.WaitGroup
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config, view View) (*Services, error) {
	s := &Services{
		cfg:     cfg,
		view:    view,
		Session: uuid.NewString(),
	}

	s.State = state.New()
	s.Console = console.New(cfg.Console.Capacity, cfg.Console.Follow)
	s.Stats = stats.New(time.Now())
	s.Metrics = metrics.New()
	s.API = api.NewClient(cfg.Server.Address, s.Session, cfg.Server.Timeout.Duration())
	s.Reconciler = reconcile.New(s.State, s.Console, s.Stats)
	s.Dispatcher = dispatch.New(s.API, s.State, s.Console, s.Metrics)
	s.Stream = stream.New(
		cfg.Server.Address,
		s.Session,
		cfg.Server.ReconnectDelay.Duration(),
		s.Reconciler.Ingest,
		s.Reconciler.OnStatus,
		s.Metrics,
	)
	s.Writer = render.NewWriter(os.Stdout, cfg.Render.Colors)

	return s, nil
}

// Start launches all service goroutines. onStop is called when the user
// quits from the command reader.
func (s *Services) Start(ctx context.Context, onStop func()) error {
	log.Info().
		Str("server", s.cfg.Server.Address).
		Str("session", s.Session).
		Int("console_capacity", s.cfg.Console.Capacity).
		Msg("Starting services")

	// Startup fetches. Neither is fatal: the dashboard degrades to id-only
	// names or an empty console and the stream fills in the rest.
	switch s.view {
	case RoomControl:
		s.loadDirectory(ctx)
	case LogStorage:
		s.backfillConsole(ctx)
	}

	// Event stream with forever-reconnect
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Stream.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Event stream terminated")
		}
	}()

	// Frame redraw and relative-time refresh tick
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.renderLoop(ctx)
	}()

	// Periodic stats refresh (log/storage view only)
	if s.view == LogStorage && s.cfg.Stats.RefreshInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.statsLoop(ctx)
		}()
	}

	// Interactive commands on stdin
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.readCommands(ctx, os.Stdin, onStop)
	}()

	// Metrics/health server
	if s.cfg.Metrics.Enabled {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			srv := metrics.NewServer(s.cfg.Metrics.Host, s.cfg.Metrics.Port, s.Metrics)
			if err := srv.Run(ctx, s.cfg.GetShutdownTimeout()); err != nil {
				log.Error().Err(err).Msg("Metrics server error")
			}
		}()
	}

	return nil
}

// Stop waits for service goroutines to drain. The app context is already
// cancelled by the time this runs.
func (s *Services) Stop() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Debug().Msg("Services stopped")
	case <-time.After(s.cfg.GetShutdownTimeout()):
		log.Warn().Msg("Service shutdown timed out")
	}
}

// loadDirectory populates the user directory once. The stream never updates
// it afterwards.
func (s *Services) loadDirectory(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.Timeout.Duration())
	defer cancel()

	users, err := s.API.Users(fetchCtx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load user directory")
		return
	}

	directory := make(map[string]string, len(users))
	for id, info := range users {
		directory[id] = info.Name
	}
	s.State.SetDirectory(directory)
	log.Info().Int("users", len(directory)).Msg("User directory loaded")
}

// backfillConsole replays the receiver's retained messages into the console
// so a fresh log view is not empty.
func (s *Services) backfillConsole(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.Timeout.Duration())
	defer cancel()

	data, err := s.API.InitData(fetchCtx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load initial messages")
		return
	}

	for _, raw := range data.Messages {
		env, err := events.Decode(raw)
		if err != nil {
			log.Warn().Err(err).Msg("Skipping malformed backlog message")
			continue
		}
		s.Reconciler.Ingest(env)
	}
	log.Info().Int("messages", len(data.Messages)).Msg("Console backfilled")
}

func (s *Services) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Render.Interval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.renderFrame(time.Now())
		}
	}
}

func (s *Services) renderFrame(now time.Time) {
	room := s.State.Room()

	frame := render.Frame{
		Title:     s.view.Title(),
		Now:       now,
		Room:      room,
		Status:    s.State.Status(),
		Roster:    render.Roster(room.UsersInRoom, s.State.DisplayName),
		Console:   render.ConsoleWindow(s.Console),
		Following: s.Console.Following(),
		Stats:     s.Stats.Snapshot(),
		ShowTiles: s.view == RoomControl,
	}

	if err := s.Writer.Write(frame); err != nil {
		log.Error().Err(err).Msg("Frame render failed")
	}
}

func (s *Services) statsLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Stats.RefreshInterval.Duration())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshStats(ctx)
		}
	}
}

func (s *Services) refreshStats(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.Timeout.Duration())
	defer cancel()

	resp, err := s.API.Stats(fetchCtx)
	if err != nil {
		log.Warn().Err(err).Msg("Stats refresh failed")
		return
	}

	s.Stats.ApplyFetched(resp.UptimeStats.TotalMessages, resp.TotalMessagesToday, resp.UptimeStats.LastSeen)
}
