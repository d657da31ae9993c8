// Package stream consumes the receiver's SSE endpoint. No Go SSE client
// library fit the receiver's framing, so the stream is read directly off the
// HTTP response body, same as a browser EventSource would.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/roomwatch/internal/events"
	"github.com/dokzlo13/roomwatch/internal/metrics"
	"github.com/dokzlo13/roomwatch/internal/state"
)

// Sink receives every decoded envelope, in stream order.
type Sink func(events.Envelope)

// StatusFunc is notified on every connection status transition.
type StatusFunc func(state.ConnectionStatus)

// Stream owns the long-lived /events connection. Run serializes connects:
// at most one connection is open at a time, and every drop schedules exactly
// one reconnect after a fixed delay, forever.
type Stream struct {
	url        string
	session    string
	delay      time.Duration
	httpClient *http.Client
	sink       Sink
	onStatus   StatusFunc
	mets       *metrics.Metrics
}

// New creates a stream for the receiver at baseURL.
func New(baseURL, session string, delay time.Duration, sink Sink, onStatus StatusFunc, mets *metrics.Metrics) *Stream {
	return &Stream{
		url:     fmt.Sprintf("%s/events?session=%s", strings.TrimRight(baseURL, "/"), session),
		session: session,
		delay:   delay,
		// No timeout - this is a long-lived connection
		httpClient: &http.Client{},
		sink:       sink,
		onStatus:   onStatus,
		mets:       mets,
	}
}

// Run listens to the event stream with automatic reconnection until the
// context is cancelled.
func (s *Stream) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		s.onStatus(state.StatusConnecting)

		err := s.connect(ctx)
		if ctx.Err() != nil {
			return nil
		}

		s.onStatus(state.StatusDisconnected)
		s.mets.Reconnects.Inc()

		log.Warn().
			Err(err).
			Dur("delay", s.delay).
			Msg("Event stream disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.delay):
		}
	}
}

func (s *Stream) connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", s.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	log.Info().Str("session", s.session).Msg("Connected to event stream")
	s.onStatus(state.StatusConnected)

	scanner := bufio.NewScanner(resp.Body)
	var dataBuffer strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		// Comment lines carry keepalives
		if strings.HasPrefix(line, ":") {
			continue
		}

		// The receiver's suggested retry interval is ignored; the delay is
		// fixed by configuration
		if strings.HasPrefix(line, "retry:") {
			continue
		}

		// Empty line marks end of event
		if line == "" {
			if dataBuffer.Len() > 0 {
				s.processFrame(dataBuffer.String())
				dataBuffer.Reset()
			}
			continue
		}

		// Collect data lines
		if strings.HasPrefix(line, "data: ") {
			dataBuffer.WriteString(strings.TrimPrefix(line, "data: "))
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return fmt.Errorf("event stream closed by server")
}

// processFrame decodes one frame and hands it to the sink. A malformed frame
// is logged and dropped; it must not disturb the frames around it.
func (s *Stream) processFrame(data string) {
	env, err := events.Decode([]byte(data))
	if err != nil {
		s.mets.ParseErrors.Inc()
		log.Warn().Err(err).Str("data", data).Msg("Failed to parse event")
		return
	}

	s.mets.Events.WithLabelValues(string(env.Type)).Inc()
	s.sink(env)
}
