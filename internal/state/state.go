// Package state holds the client-side snapshot of the room: the view-model
// every other component reads from and the reconciler writes into. One State
// value exists per process; it is passed by reference, never held in a
// package-level global.
package state

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dokzlo13/roomwatch/internal/events"
)

// ConnectionStatus reflects the event stream lifecycle.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Room is the reconciled room snapshot.
type Room struct {
	DoorOpen         bool
	LightOn          bool
	UserPresent      bool
	Luminosity       int
	LastUpdate       *time.Time
	DetectedUser     string // empty = nobody identified
	UsersInRoom      []string
	ArduinoConnected bool
	ManualOverride   bool
}

// Patch is a partial room update as sent in the receiver's system_state
// object. Pointer fields distinguish "absent" from zero values: only fields
// present in the JSON overwrite the snapshot, everything else is preserved.
type Patch struct {
	DoorOpen         *bool     `json:"door_open"`
	LightOn          *bool     `json:"light_on"`
	UserPresent      *bool     `json:"user_present"`
	Luminosity       *int      `json:"luminosity"`
	LastUpdate       *string   `json:"last_update"`
	DetectedUser     *string   `json:"detected_user"`
	UsersInRoom      *[]string `json:"users_in_room"`
	ArduinoConnected *bool     `json:"arduino_connected"`
	ManualOverride   *bool     `json:"manual_override"`
}

// DecodePatch parses a system_state JSON object into a Patch.
func DecodePatch(raw json.RawMessage) (Patch, error) {
	var p Patch
	if err := json.Unmarshal(raw, &p); err != nil {
		return Patch{}, fmt.Errorf("failed to decode state patch: %w", err)
	}
	return p, nil
}

// State owns the room snapshot, the stream connection status and the user
// directory. All access goes through the mutex; the reconciler is the only
// writer of the room snapshot, but command responses may race with stream
// updates and simply apply last-wins.
type State struct {
	mu        sync.RWMutex
	room      Room
	status    ConnectionStatus
	directory map[string]string
}

// New creates a State with all-unknown defaults.
func New() *State {
	return &State{
		status:    StatusConnecting,
		directory: make(map[string]string),
	}
}

// Apply merges a partial update into the room snapshot. Fields absent from
// the patch keep their previous value; fields present fully replace it
// (last write wins, duplicates are harmless).
func (s *State) Apply(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.DoorOpen != nil {
		s.room.DoorOpen = *p.DoorOpen
	}
	if p.LightOn != nil {
		s.room.LightOn = *p.LightOn
	}
	if p.UserPresent != nil {
		s.room.UserPresent = *p.UserPresent
	}
	if p.Luminosity != nil {
		v := *p.Luminosity
		if v < 0 {
			v = 0
		}
		s.room.Luminosity = v
	}
	if p.LastUpdate != nil {
		if t, err := time.ParseInLocation(events.TimeLayout, *p.LastUpdate, time.Local); err == nil {
			s.room.LastUpdate = &t
		}
	}
	if p.DetectedUser != nil {
		s.room.DetectedUser = *p.DetectedUser
	}
	if p.UsersInRoom != nil {
		s.room.UsersInRoom = append([]string(nil), (*p.UsersInRoom)...)
	}
	if p.ArduinoConnected != nil {
		s.room.ArduinoConnected = *p.ArduinoConnected
	}
	if p.ManualOverride != nil {
		s.room.ManualOverride = *p.ManualOverride
	}
}

// SetManualOverride sets the override flag directly (override events carry
// it outside of system_state).
func (s *State) SetManualOverride(enabled bool) {
	s.mu.Lock()
	s.room.ManualOverride = enabled
	s.mu.Unlock()
}

// Room returns a copy of the current snapshot.
func (s *State) Room() Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room := s.room
	room.UsersInRoom = append([]string(nil), s.room.UsersInRoom...)
	if s.room.LastUpdate != nil {
		t := *s.room.LastUpdate
		room.LastUpdate = &t
	}
	return room
}

// SetStatus records the stream connection status.
func (s *State) SetStatus(status ConnectionStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

// Status returns the stream connection status.
func (s *State) Status() ConnectionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetDirectory replaces the user directory. Populated once at startup from
// the receiver's user listing; the stream does not update it.
func (s *State) SetDirectory(users map[string]string) {
	s.mu.Lock()
	s.directory = make(map[string]string, len(users))
	for id, name := range users {
		s.directory[id] = name
	}
	s.mu.Unlock()
}

// DisplayName resolves a user id to its display name, falling back to
// "User {id}" for ids the directory does not know.
func (s *State) DisplayName(id string) string {
	s.mu.RLock()
	name, ok := s.directory[id]
	s.mu.RUnlock()

	if !ok || name == "" {
		return fmt.Sprintf("User %s", id)
	}
	return name
}
