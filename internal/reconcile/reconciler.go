// Package reconcile folds decoded stream envelopes into the view-model and
// the activity console. Ingest is the single entry point: every envelope,
// whatever its shape, either lands as a state change, a console entry, a
// stats update, or a diagnostic line. Nothing here may panic on backend data.
package reconcile

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/roomwatch/internal/console"
	"github.com/dokzlo13/roomwatch/internal/events"
	"github.com/dokzlo13/roomwatch/internal/state"
	"github.com/dokzlo13/roomwatch/internal/stats"
)

// Reconciler applies envelopes to the shared view-model.
type Reconciler struct {
	state   *state.State
	console *console.Console
	stats   *stats.Cache
	now     func() time.Time
}

// New creates a reconciler writing into the given state, console and stats
// cache.
func New(st *state.State, con *console.Console, sc *stats.Cache) *Reconciler {
	return &Reconciler{
		state:   st,
		console: con,
		stats:   sc,
		now:     time.Now,
	}
}

// WithClock replaces the local clock used for missing timestamps.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Ingest dispatches one envelope by kind.
func (r *Reconciler) Ingest(env events.Envelope) {
	ts := env.TimeOr(r.now())

	switch env.Type {
	case events.KindInitialState:
		r.applyState(env, ts, "Initial state received")

	case events.KindUpdate:
		r.applyState(env, ts, "System state updated")

	case events.KindWelcome:
		user := env.User
		if user == "" {
			user = "unknown"
		}
		r.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindWelcome,
			Message: fmt.Sprintf("Welcome, %s", user),
			User:    env.User,
		})

	case events.KindOverride:
		r.state.SetManualOverride(env.Enabled)
		msg := "Manual override disabled"
		if env.Enabled {
			msg = "Manual override enabled"
		}
		r.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindControl,
			Message: msg,
		})

	case events.KindStats:
		// Stats feed the counters display only, never the console
		if env.Stats != nil {
			r.stats.ApplyPayload(*env.Stats)
		}

	case events.KindMessage:
		r.console.Append(r.messageEntry(env, ts))

	default:
		r.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindInfo,
			Message: fmt.Sprintf("Unrecognized event: %s", string(env.Raw)),
		})
	}
}

// OnStatus records connection transitions in the state and the console.
func (r *Reconciler) OnStatus(status state.ConnectionStatus) {
	prev := r.state.Status()
	r.state.SetStatus(status)
	if prev == status {
		return
	}

	ts := r.now().Format(events.TimeLayout)
	switch status {
	case state.StatusConnected:
		r.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindInfo,
			Message: "Connected to event stream",
		})
	case state.StatusDisconnected:
		r.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindError,
			Message: "Event stream disconnected, retrying",
		})
	}
}

func (r *Reconciler) applyState(env events.Envelope, ts, message string) {
	if len(env.SystemState) == 0 {
		log.Debug().Str("type", string(env.Type)).Msg("State event without system_state")
		return
	}

	patch, err := state.DecodePatch(env.SystemState)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to decode system_state")
		return
	}

	r.state.Apply(patch)
	r.console.Append(console.Entry{
		Time:    ts,
		Kind:    console.KindUpdate,
		Message: message,
		Details: console.DetailRaw(env.SystemState),
	})
}

// messageEntry summarizes a relayed device message by its source and status;
// any remaining payload fields become the details block.
func (r *Reconciler) messageEntry(env events.Envelope, ts string) console.Entry {
	source := "unknown"
	status := ""

	rest := make(map[string]any, len(env.Data))
	for k, v := range env.Data {
		switch k {
		case "source":
			if s, ok := v.(string); ok && s != "" {
				source = s
			}
		case "status":
			if s, ok := v.(string); ok {
				status = s
			}
		default:
			rest[k] = v
		}
	}

	msg := source
	if status != "" {
		msg = fmt.Sprintf("%s: %s", source, status)
	}

	return console.Entry{
		Time:    ts,
		Kind:    console.KindMessage,
		Message: msg,
		Details: console.DetailJSON(rest),
	}
}
