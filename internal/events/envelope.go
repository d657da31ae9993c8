// Package events defines the envelope shape shared by every message the
// receiver pushes over its event stream.
package events

import (
	"encoding/json"
	"time"
)

// Kind is the event discriminator carried in the envelope's "type" field.
type Kind string

const (
	KindInitialState Kind = "initial_state"
	KindUpdate       Kind = "update"
	KindWelcome      Kind = "welcome"
	KindOverride     Kind = "override"
	KindStats        Kind = "stats"
	KindMessage      Kind = "message"
)

// TimeLayout is the timestamp format the receiver uses everywhere.
const TimeLayout = "2006-01-02 15:04:05"

// StatsPayload carries the counters pushed with a stats event.
type StatsPayload struct {
	TotalMessages int    `json:"total_messages"`
	MessagesToday int    `json:"messages_today"`
	LastSeen      string `json:"last_seen"`
}

// Envelope is one decoded event-stream message. Fields beyond Type and
// Timestamp are only meaningful for their corresponding kind; absent fields
// decode to zero values and must not be trusted blindly.
type Envelope struct {
	Type      Kind   `json:"type"`
	Timestamp string `json:"timestamp"`

	// initial_state / update
	SystemState json.RawMessage `json:"system_state"`

	// welcome
	User string `json:"user"`

	// override
	Enabled bool `json:"enabled"`

	// stats
	Stats *StatsPayload `json:"stats"`

	// message
	Data map[string]any `json:"data"`

	// Raw is the original frame, kept for opaque logging of unknown kinds.
	Raw []byte `json:"-"`
}

// Decode parses a single event-stream frame into an Envelope.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	env.Raw = append([]byte(nil), frame...)
	return env, nil
}

// Known reports whether the kind is part of the dispatch table.
func (k Kind) Known() bool {
	switch k {
	case KindInitialState, KindUpdate, KindWelcome, KindOverride, KindStats, KindMessage:
		return true
	}
	return false
}

// TimeOr returns the envelope timestamp, falling back to now formatted in
// the receiver's layout when the server did not send one.
func (e Envelope) TimeOr(now time.Time) string {
	if e.Timestamp != "" {
		return e.Timestamp
	}
	return now.Format(TimeLayout)
}
