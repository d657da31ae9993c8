// Package dispatch sends user-initiated control commands to the receiver and
// folds the responses back into the view-model and the console. Commands are
// fire-and-forget: no retry, no de-duplication, overlapping responses apply
// in arrival order.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/roomwatch/internal/api"
	"github.com/dokzlo13/roomwatch/internal/console"
	"github.com/dokzlo13/roomwatch/internal/events"
	"github.com/dokzlo13/roomwatch/internal/metrics"
	"github.com/dokzlo13/roomwatch/internal/state"
)

// Dispatcher issues control commands against the shared view-model.
type Dispatcher struct {
	api     *api.Client
	state   *state.State
	console *console.Console
	mets    *metrics.Metrics
	now     func() time.Time
}

// New creates a dispatcher.
func New(client *api.Client, st *state.State, con *console.Console, mets *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		api:     client,
		state:   st,
		console: con,
		mets:    mets,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for console timestamps.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// SetLight sends an on/off command, carrying the current override flag.
func (d *Dispatcher) SetLight(ctx context.Context, on bool) {
	command := "off"
	okMsg := "Light turned off"
	if on {
		command = "on"
		okMsg = "Light turned on"
	}

	override := d.state.Room().ManualOverride
	resp, err := d.api.LightControl(ctx, command, override)
	d.fold(resp, err, okMsg)
}

// SetOverride enables or disables the manual override.
func (d *Dispatcher) SetOverride(ctx context.Context, enable bool) {
	okMsg := "Manual override disabled"
	if enable {
		okMsg = "Manual override enabled"
	}

	resp, err := d.api.SetOverride(ctx, enable)
	d.fold(resp, err, okMsg)
}

// ToggleOverride flips the override from its current value.
func (d *Dispatcher) ToggleOverride(ctx context.Context) {
	d.SetOverride(ctx, !d.state.Room().ManualOverride)
}

// OverrideLabel is the affordance text for the override toggle.
func (d *Dispatcher) OverrideLabel() string {
	if d.state.Room().ManualOverride {
		return "Disable Override"
	}
	return "Enable Override"
}

// fold applies a command outcome: success merges the returned state and logs
// one control entry; any failure logs one error entry and leaves the state
// at last-known-good.
func (d *Dispatcher) fold(resp *api.CommandResponse, err error, okMsg string) {
	ts := d.now().Format(events.TimeLayout)

	if err != nil {
		d.mets.Commands.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("Command failed")
		d.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindError,
			Message: err.Error(),
		})
		return
	}

	if !resp.Success() {
		d.mets.Commands.WithLabelValues("rejected").Inc()
		msg := resp.Message
		if msg == "" {
			msg = "Command rejected by server"
		}
		d.console.Append(console.Entry{
			Time:    ts,
			Kind:    console.KindError,
			Message: msg,
		})
		return
	}

	if len(resp.State) > 0 {
		if patch, perr := state.DecodePatch(resp.State); perr == nil {
			d.state.Apply(patch)
		} else {
			log.Warn().Err(perr).Msg("Failed to decode command response state")
		}
	}

	d.mets.Commands.WithLabelValues("success").Inc()
	msg := okMsg
	if resp.Message != "" {
		msg = resp.Message
	}
	d.console.Append(console.Entry{
		Time:    ts,
		Kind:    console.KindControl,
		Message: msg,
	})
}
