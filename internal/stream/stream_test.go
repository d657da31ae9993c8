package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dokzlo13/roomwatch/internal/events"
	"github.com/dokzlo13/roomwatch/internal/metrics"
	"github.com/dokzlo13/roomwatch/internal/state"
)

// recorder collects sink envelopes and status transitions.
type recorder struct {
	mu       sync.Mutex
	envs     []events.Envelope
	statuses []state.ConnectionStatus
}

func (r *recorder) sink(env events.Envelope) {
	r.mu.Lock()
	r.envs = append(r.envs, env)
	r.mu.Unlock()
}

func (r *recorder) status(s state.ConnectionStatus) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

func (r *recorder) envelopes() []events.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Envelope(nil), r.envs...)
}

func (r *recorder) transitions() []state.ConnectionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]state.ConnectionStatus(nil), r.statuses...)
}

func (r *recorder) waitEnvelopes(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(r.envelopes()) >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d envelopes, have %d", n, len(r.envelopes()))
}

// sseHandler writes the given frames on the first connection and then holds
// every later connection open, recording connect times.
type sseHandler struct {
	mu       sync.Mutex
	frames   []string
	connects []time.Time
	firstEnd time.Time
	hold     chan struct{}
}

func newSSEHandler(frames ...string) *sseHandler {
	return &sseHandler{frames: frames, hold: make(chan struct{})}
}

func (h *sseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.connects = append(h.connects, time.Now())
	n := len(h.connects)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)

	if n == 1 {
		fmt.Fprint(w, "retry: 10000\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		for _, frame := range h.frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
		}
		flusher.Flush()
		h.mu.Lock()
		h.firstEnd = time.Now()
		h.mu.Unlock()
		return // server closes, client must reconnect
	}

	flusher.Flush()
	select {
	case <-h.hold:
	case <-r.Context().Done():
	}
}

func (h *sseHandler) connectCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connects)
}

func (h *sseHandler) waitConnects(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.connectCount() >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d connects, have %d", n, h.connectCount())
}

func TestRun_DeliversEnvelopesInOrder(t *testing.T) {
	handler := newSSEHandler(
		`{"type":"update","system_state":{"light_on":true}}`,
		`{"type":"welcome","user":"Alice"}`,
	)
	srv := httptest.NewServer(handler)
	defer srv.Close()
	defer close(handler.hold)

	rec := &recorder{}
	mets := metrics.New()
	s := New(srv.URL, "test-session", 20*time.Millisecond, rec.sink, rec.status, mets)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	rec.waitEnvelopes(t, 2)
	envs := rec.envelopes()
	if envs[0].Type != events.KindUpdate || envs[1].Type != events.KindWelcome {
		t.Errorf("envelope order = %v, %v", envs[0].Type, envs[1].Type)
	}
}

func TestRun_DropSchedulesSingleReconnect(t *testing.T) {
	delay := 100 * time.Millisecond
	handler := newSSEHandler(`{"type":"update","system_state":{}}`)
	srv := httptest.NewServer(handler)
	defer srv.Close()
	defer close(handler.hold)

	rec := &recorder{}
	s := New(srv.URL, "test-session", delay, rec.sink, rec.status, metrics.New())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	handler.waitConnects(t, 2)

	handler.mu.Lock()
	firstEnd := handler.firstEnd
	second := handler.connects[1]
	handler.mu.Unlock()

	if gap := second.Sub(firstEnd); gap < delay {
		t.Errorf("reconnected after %v, want at least %v", gap, delay)
	}

	// Exactly one reconnect was scheduled for the drop; the second
	// connection is held open so no further connects may appear
	time.Sleep(3 * delay)
	if got := handler.connectCount(); got != 2 {
		t.Errorf("connect count = %d, want 2", got)
	}

	// The drop flipped the status to disconnected before the retry
	var sawDisconnect bool
	for _, st := range rec.transitions() {
		if st == state.StatusDisconnected {
			sawDisconnect = true
		}
	}
	if !sawDisconnect {
		t.Errorf("no disconnected transition in %v", rec.transitions())
	}
}

func TestRun_MalformedFrameDiscarded(t *testing.T) {
	handler := newSSEHandler(
		`this is not json`,
		`{"type":"update","system_state":{"door_open":true}}`,
	)
	srv := httptest.NewServer(handler)
	defer srv.Close()
	defer close(handler.hold)

	rec := &recorder{}
	mets := metrics.New()
	s := New(srv.URL, "test-session", 20*time.Millisecond, rec.sink, rec.status, mets)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	rec.waitEnvelopes(t, 1)

	// The bad frame never reached the sink; the one after it did
	envs := rec.envelopes()
	if len(envs) != 1 || envs[0].Type != events.KindUpdate {
		t.Errorf("envelopes = %+v", envs)
	}
	if got := testutil.ToFloat64(mets.ParseErrors); got != 1 {
		t.Errorf("parse errors = %v, want 1", got)
	}
}

func TestRun_CancelStopsReconnecting(t *testing.T) {
	handler := newSSEHandler()
	srv := httptest.NewServer(handler)
	defer srv.Close()
	defer close(handler.hold)

	rec := &recorder{}
	s := New(srv.URL, "test-session", 10*time.Millisecond, rec.sink, rec.status, metrics.New())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	handler.waitConnects(t, 1)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v on cancel, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
