package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/roomwatch/internal/console"
	"github.com/dokzlo13/roomwatch/internal/events"
)

// readCommands turns stdin lines into the view's control actions. These are
// the terminal stand-ins for the dashboard buttons.
func (s *Services) readCommands(ctx context.Context, in io.Reader, onStop func()) {
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if cmd == "" {
			continue
		}

		if s.runCommand(ctx, cmd, onStop) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("Command input closed")
	}
}

// runCommand executes one command; returns true when the app should quit.
func (s *Services) runCommand(ctx context.Context, cmd string, onStop func()) bool {
	switch cmd {
	case "quit", "exit", "q":
		onStop()
		return true

	case "clear":
		s.Console.Clear()
		return false

	case "follow":
		following := s.Console.ToggleFollow()
		log.Info().Bool("follow", following).Msg("Console follow toggled")
		return false
	}

	if s.view == RoomControl {
		switch cmd {
		case "on":
			s.Dispatcher.SetLight(ctx, true)
			return false
		case "off":
			s.Dispatcher.SetLight(ctx, false)
			return false
		case "override":
			s.Dispatcher.ToggleOverride(ctx)
			return false
		}
	} else {
		switch cmd {
		case "stats":
			s.refreshStats(ctx)
			return false
		case "cleanup":
			s.runCleanup(ctx)
			return false
		case "storage":
			s.showStorage(ctx)
			return false
		}
	}

	s.Console.Append(console.Entry{
		Time:    time.Now().Format(events.TimeLayout),
		Kind:    console.KindInfo,
		Message: fmt.Sprintf("Unknown command %q. Available: %s", cmd, s.commandList()),
	})
	return false
}

func (s *Services) commandList() string {
	if s.view == RoomControl {
		return "on, off, override, clear, follow, quit"
	}
	return "stats, cleanup, storage, clear, follow, quit"
}

// runCleanup triggers a forced cleanup on the receiver and reports the
// result in the console.
func (s *Services) runCleanup(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.Timeout.Duration())
	defer cancel()

	ts := time.Now().Format(events.TimeLayout)
	result, err := s.API.Cleanup(fetchCtx, true)
	if err != nil {
		s.Console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindError,
			Message: err.Error(),
		})
		return
	}

	s.Console.Append(console.Entry{
		Time: ts,
		Kind: console.KindControl,
		Message: fmt.Sprintf("Cleanup done: %d files deleted, %.2f MB freed",
			result.FilesDeleted, result.SpaceFreedMB),
	})
}

// showStorage fetches the receiver's storage metrics into a console entry.
func (s *Services) showStorage(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.Timeout.Duration())
	defer cancel()

	ts := time.Now().Format(events.TimeLayout)
	info, err := s.API.StorageInfo(fetchCtx)
	if err != nil {
		s.Console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindError,
			Message: err.Error(),
		})
		return
	}

	s.Console.Append(console.Entry{
		Time: ts,
		Kind: console.KindInfo,
		Message: fmt.Sprintf("Storage: %.2f MB in %d files, disk %.1f%% used",
			info.DataDirSizeMB, info.DataDirFileCount, info.DiskUsedPercent),
		Details: console.DetailJSON(map[string]any{
			"oldest_file":      info.OldestFile,
			"oldest_file_date": info.OldestFileDate,
			"disk_free_mb":     info.DiskFreeMB,
			"disk_total_mb":    info.DiskTotalMB,
			"max_log_size_mb":  info.MaxLogSizeMB,
			"max_days_to_keep": info.MaxDaysToKeep,
		}),
	})
}
