package stats

import (
	"testing"
	"time"

	"github.com/dokzlo13/roomwatch/internal/events"
)

func TestApplyPayload_LastWriteWins(t *testing.T) {
	c := New(time.Now())

	c.ApplyPayload(events.StatsPayload{TotalMessages: 10, MessagesToday: 2, LastSeen: "2026-08-30 09:00:00"})
	c.ApplyFetched(42, 7, "2026-08-30 09:30:00")

	snap := c.Snapshot()
	if snap.TotalMessages != 42 || snap.MessagesToday != 7 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.LastSeen == nil || snap.LastSeen.Minute() != 30 {
		t.Errorf("LastSeen = %v", snap.LastSeen)
	}
}

func TestApplyPayload_EmptyLastSeenKept(t *testing.T) {
	c := New(time.Now())
	c.ApplyPayload(events.StatsPayload{LastSeen: "2026-08-30 09:00:00"})
	c.ApplyPayload(events.StatsPayload{TotalMessages: 5})

	if c.Snapshot().LastSeen == nil {
		t.Error("empty last_seen cleared the cached value")
	}
}

func TestRelativeSince(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)

	cases := []struct {
		ago  time.Duration
		want string
	}{
		{5 * time.Second, "just now"},
		{45 * time.Second, "45s ago"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}

	for _, tc := range cases {
		ts := now.Add(-tc.ago)
		if got := RelativeSince(now, &ts); got != tc.want {
			t.Errorf("RelativeSince(-%v) = %q, want %q", tc.ago, got, tc.want)
		}
	}

	if got := RelativeSince(now, nil); got != "never" {
		t.Errorf("RelativeSince(nil) = %q, want never", got)
	}
}

func TestUptime(t *testing.T) {
	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.Local)
	now := start.Add(1*time.Hour + 2*time.Minute + 3*time.Second)

	if got := Uptime(now, start); got != "01:02:03" {
		t.Errorf("Uptime = %q, want 01:02:03", got)
	}
	if got := Uptime(start, start); got != "00:00:00" {
		t.Errorf("Uptime at start = %q, want 00:00:00", got)
	}
}
