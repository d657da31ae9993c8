package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dokzlo13/roomwatch/internal/console"
	"github.com/dokzlo13/roomwatch/internal/state"
	"github.com/dokzlo13/roomwatch/internal/stats"
)

// consoleLines is how many console entries fit into one frame.
const consoleLines = 12

// ansi escape codes per style class. Only used when colors are enabled.
var ansi = map[string]string{
	"status-on":         "\033[33m",
	"status-off":        "\033[90m",
	"status-open":       "\033[31m",
	"status-closed":     "\033[32m",
	"status-present":    "\033[36m",
	"status-empty":      "\033[90m",
	"lum-bright":        "\033[33m",
	"lum-partial":       "\033[37m",
	"lum-dark":          "\033[34m",
	"override-on":       "\033[35m",
	"override-off":      "\033[32m",
	"status-online":     "\033[32m",
	"status-offline":    "\033[31m",
	"conn-connected":    "\033[32m",
	"conn-connecting":   "\033[33m",
	"conn-disconnected": "\033[31m",
}

const ansiReset = "\033[0m"

// Frame is everything one terminal redraw needs, assembled by the caller so
// the writer itself stays a pure function of its input.
type Frame struct {
	Title     string
	Now       time.Time
	Room      state.Room
	Status    state.ConnectionStatus
	Roster    []UserRow
	Console   []console.Entry
	Following bool
	Stats     stats.Snapshot

	// ShowTiles toggles the status tile block (the log/storage view renders
	// console and stats only).
	ShowTiles bool
}

// Writer renders frames to a terminal.
type Writer struct {
	out    io.Writer
	colors bool
}

// NewWriter creates a frame writer.
func NewWriter(out io.Writer, colors bool) *Writer {
	return &Writer{out: out, colors: colors}
}

// Write renders one frame. Rendering equal frames produces identical bytes.
func (w *Writer) Write(f Frame) error {
	var b strings.Builder

	if w.colors {
		// Clear screen and home cursor between redraws
		b.WriteString("\033[2J\033[H")
	}

	fmt.Fprintf(&b, "=== %s === %s\n", f.Title, f.Now.Format("2006-01-02 15:04:05"))
	b.WriteString("\n")

	if f.ShowTiles {
		w.writeTiles(&b, f)
		w.writeRoster(&b, f)
	}

	w.writeStats(&b, f)
	w.writeConsole(&b, f)

	_, err := io.WriteString(w.out, b.String())
	return err
}

func (w *Writer) writeTiles(b *strings.Builder, f Frame) {
	rows := []struct {
		name string
		tile Tile
	}{
		{"light", Light(f.Room.LightOn)},
		{"door", Door(f.Room.DoorOpen)},
		{"presence", Presence(f.Room.UserPresent)},
		{"luminosity", Luminosity(f.Room.Luminosity)},
		{"override", Override(f.Room.ManualOverride)},
		{"arduino", Arduino(f.Room.ArduinoConnected)},
		{"stream", Connection(f.Status)},
	}

	for _, row := range rows {
		fmt.Fprintf(b, "  %-11s %s %s\n", row.name, row.tile.Glyph, w.styled(row.tile))
	}

	if f.Room.LastUpdate != nil {
		fmt.Fprintf(b, "  %-11s   %s\n", "updated", stats.RelativeSince(f.Now, f.Room.LastUpdate))
	}
	if f.Room.DetectedUser != "" {
		fmt.Fprintf(b, "  %-11s   %s\n", "detected", f.Room.DetectedUser)
	}
	b.WriteString("\n")
}

func (w *Writer) writeRoster(b *strings.Builder, f Frame) {
	b.WriteString("  In the room:\n")
	if len(f.Roster) == 0 {
		fmt.Fprintf(b, "    %s\n", NoUsersPlaceholder)
	} else {
		for _, row := range f.Roster {
			fmt.Fprintf(b, "    %s %s\n", row.Glyph, row.Name)
		}
	}
	b.WriteString("\n")
}

func (w *Writer) writeStats(b *strings.Builder, f Frame) {
	fmt.Fprintf(b, "  messages: %d total, %d today | last seen %s | uptime %s\n\n",
		f.Stats.TotalMessages,
		f.Stats.MessagesToday,
		stats.RelativeSince(f.Now, f.Stats.LastSeen),
		stats.Uptime(f.Now, f.Stats.SessionStart),
	)
}

func (w *Writer) writeConsole(b *strings.Builder, f Frame) {
	follow := "paused"
	if f.Following {
		follow = "following"
	}
	fmt.Fprintf(b, "  Activity (%s):\n", follow)

	for _, e := range f.Console {
		badge := ""
		if e.User != "" {
			badge = fmt.Sprintf(" [%s]", e.User)
		}
		fmt.Fprintf(b, "  %s %-8s%s %s\n", e.Time, e.Kind, badge, e.Message)
		if e.Details != "" {
			for _, line := range strings.Split(e.Details, "\n") {
				fmt.Fprintf(b, "      %s\n", line)
			}
		}
	}
}

func (w *Writer) styled(t Tile) string {
	if !w.colors {
		return t.Label
	}
	code, ok := ansi[t.Class]
	if !ok {
		return t.Label
	}
	return code + t.Label + ansiReset
}

// ConsoleWindow selects which entries a frame shows: the newest when
// following, the oldest retained otherwise.
func ConsoleWindow(c *console.Console) []console.Entry {
	if c.Following() {
		return c.Tail(consoleLines)
	}
	return c.Head(consoleLines)
}
