// Package render projects the room snapshot onto display primitives. The
// projection is pure: equal input always yields equal tiles, so a redraw of
// unchanged state is a no-op visually.
package render

import (
	"fmt"

	"github.com/dokzlo13/roomwatch/internal/state"
)

// Tile is one status indicator: a short label, a glyph and a style class.
type Tile struct {
	Label string
	Glyph string
	Class string
}

// Luminosity thresholds. The upper bound of each band is exclusive: 700 is
// still partial, 701 is bright; 300 is dark, 301 is partial.
const (
	luminosityBright  = 700
	luminosityPartial = 300
)

// Light projects the light state.
func Light(on bool) Tile {
	if on {
		return Tile{Label: "ON", Glyph: "☀", Class: "status-on"}
	}
	return Tile{Label: "OFF", Glyph: "○", Class: "status-off"}
}

// Door projects the door state.
func Door(open bool) Tile {
	if open {
		return Tile{Label: "OPEN", Glyph: "▢", Class: "status-open"}
	}
	return Tile{Label: "CLOSED", Glyph: "■", Class: "status-closed"}
}

// Presence projects the presence sensor state.
func Presence(present bool) Tile {
	if present {
		return Tile{Label: "DETECTED", Glyph: "☺", Class: "status-present"}
	}
	return Tile{Label: "EMPTY", Glyph: "∅", Class: "status-empty"}
}

// Luminosity projects a sensor reading onto a brightness band.
func Luminosity(value int) Tile {
	switch {
	case value > luminosityBright:
		return Tile{Label: fmt.Sprintf("%d (bright)", value), Glyph: "☀", Class: "lum-bright"}
	case value > luminosityPartial:
		return Tile{Label: fmt.Sprintf("%d (partial)", value), Glyph: "◑", Class: "lum-partial"}
	default:
		return Tile{Label: fmt.Sprintf("%d (dark)", value), Glyph: "☾", Class: "lum-dark"}
	}
}

// Override projects the manual override flag.
func Override(enabled bool) Tile {
	if enabled {
		return Tile{Label: "MANUAL", Glyph: "✋", Class: "override-on"}
	}
	return Tile{Label: "AUTO", Glyph: "⚙", Class: "override-off"}
}

// Arduino projects the controller connectivity flag.
func Arduino(connected bool) Tile {
	if connected {
		return Tile{Label: "ONLINE", Glyph: "✔", Class: "status-online"}
	}
	return Tile{Label: "OFFLINE", Glyph: "✖", Class: "status-offline"}
}

// Connection projects the event stream status.
func Connection(s state.ConnectionStatus) Tile {
	switch s {
	case state.StatusConnected:
		return Tile{Label: "CONNECTED", Glyph: "●", Class: "conn-connected"}
	case state.StatusConnecting:
		return Tile{Label: "CONNECTING", Glyph: "◌", Class: "conn-connecting"}
	default:
		return Tile{Label: "DISCONNECTED", Glyph: "○", Class: "conn-disconnected"}
	}
}

// UserRow is one line of the room roster.
type UserRow struct {
	Glyph string
	Name  string
}

// NoUsersPlaceholder is shown when the roster is empty.
const NoUsersPlaceholder = "no users in room"

// Roster projects the ordered user-id list through the directory lookup.
func Roster(ids []string, displayName func(string) string) []UserRow {
	rows := make([]UserRow, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, UserRow{Glyph: "☺", Name: displayName(id)})
	}
	return rows
}
