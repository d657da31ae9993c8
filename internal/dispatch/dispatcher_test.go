package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dokzlo13/roomwatch/internal/api"
	"github.com/dokzlo13/roomwatch/internal/console"
	"github.com/dokzlo13/roomwatch/internal/metrics"
	"github.com/dokzlo13/roomwatch/internal/state"
)

func testDispatcher(t *testing.T, handler http.Handler) (*Dispatcher, *state.State, *console.Console, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := state.New()
	con := console.New(100, true)
	client := api.NewClient(srv.URL, "test-session", 2*time.Second)
	d := New(client, st, con, metrics.New()).WithClock(func() time.Time {
		return time.Date(2026, 8, 30, 10, 0, 0, 0, time.Local)
	})
	return d, st, con, srv
}

func TestSetLight_Success(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/light/control" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","state":{"light_on":true}}`))
	})

	d, st, con, _ := testDispatcher(t, handler)
	d.SetLight(context.Background(), true)

	if gotBody["command"] != "on" {
		t.Errorf("command = %v, want on", gotBody["command"])
	}
	if gotBody["override"] != false {
		t.Errorf("override = %v, want false (current state)", gotBody["override"])
	}

	if !st.Room().LightOn {
		t.Error("returned state not merged")
	}

	entries := con.Entries()
	if len(entries) != 1 {
		t.Fatalf("console has %d entries, want exactly 1", len(entries))
	}
	if entries[0].Kind != console.KindControl {
		t.Errorf("entry kind = %q, want control", entries[0].Kind)
	}
}

func TestSetLight_CarriesCurrentOverride(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"success"}`))
	})

	d, st, _, _ := testDispatcher(t, handler)
	st.SetManualOverride(true)
	d.SetLight(context.Background(), false)

	if gotBody["override"] != true {
		t.Errorf("override = %v, want true", gotBody["override"])
	}
	if gotBody["command"] != "off" {
		t.Errorf("command = %v, want off", gotBody["command"])
	}
}

func TestSetLight_BackendRejection(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","message":"Arduino not connected"}`))
	})

	d, st, con, _ := testDispatcher(t, handler)
	d.SetLight(context.Background(), true)

	if st.Room().LightOn {
		t.Error("state changed on rejected command")
	}

	entries := con.Entries()
	if len(entries) != 1 || entries[0].Kind != console.KindError {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Message != "Arduino not connected" {
		t.Errorf("message = %q, want server-provided message", entries[0].Message)
	}
}

func TestSetLight_TransportError(t *testing.T) {
	d, st, con, srv := testDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	d.SetLight(context.Background(), true)

	if st.Room().LightOn {
		t.Error("state changed on transport error")
	}
	entries := con.Entries()
	if len(entries) != 1 || entries[0].Kind != console.KindError {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSetOverride(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/override" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"success","state":{"manual_override":true}}`))
	})

	d, st, con, _ := testDispatcher(t, handler)
	d.SetOverride(context.Background(), true)

	if gotBody["enable"] != true {
		t.Errorf("enable = %v, want true", gotBody["enable"])
	}
	if !st.Room().ManualOverride {
		t.Error("override state not merged")
	}
	if con.Len() != 1 {
		t.Errorf("console has %d entries, want 1", con.Len())
	}
}

func TestOverrideLabel(t *testing.T) {
	d, st, _, _ := testDispatcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if got := d.OverrideLabel(); got != "Enable Override" {
		t.Errorf("label = %q, want 'Enable Override'", got)
	}
	st.SetManualOverride(true)
	if got := d.OverrideLabel(); got != "Disable Override" {
		t.Errorf("label = %q, want 'Disable Override'", got)
	}
}

func TestToggleOverride(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"status":"success"}`))
	})

	d, st, _, _ := testDispatcher(t, handler)
	st.SetManualOverride(true)
	d.ToggleOverride(context.Background())

	if gotBody["enable"] != false {
		t.Errorf("enable = %v, want false (toggled from true)", gotBody["enable"])
	}
}
