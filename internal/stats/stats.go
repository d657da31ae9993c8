// Package stats caches the receiver's message counters and derives the
// relative "last seen" and uptime displays from local timestamps only.
package stats

import (
	"fmt"
	"sync"
	"time"

	"github.com/dokzlo13/roomwatch/internal/events"
)

// Snapshot is a point-in-time copy of the cached counters.
type Snapshot struct {
	TotalMessages int
	MessagesToday int
	LastSeen      *time.Time
	SessionStart  time.Time
}

// Cache holds the latest stats pushed by the stream or fetched over REST.
// Whichever source wrote last wins; the two are not coordinated.
type Cache struct {
	mu            sync.Mutex
	totalMessages int
	messagesToday int
	lastSeen      *time.Time
	sessionStart  time.Time
}

// New creates a cache anchored at the given session start.
func New(sessionStart time.Time) *Cache {
	return &Cache{sessionStart: sessionStart}
}

// ApplyPayload folds a stats event payload into the cache.
func (c *Cache) ApplyPayload(p events.StatsPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalMessages = p.TotalMessages
	c.messagesToday = p.MessagesToday
	c.setLastSeen(p.LastSeen)
}

// ApplyFetched folds a /stats response into the cache.
func (c *Cache) ApplyFetched(totalMessages, messagesToday int, lastSeen string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalMessages = totalMessages
	c.messagesToday = messagesToday
	c.setLastSeen(lastSeen)
}

func (c *Cache) setLastSeen(raw string) {
	if raw == "" {
		return
	}
	if t, err := time.ParseInLocation(events.TimeLayout, raw, time.Local); err == nil {
		c.lastSeen = &t
	}
}

// Snapshot returns a copy of the cached counters.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		TotalMessages: c.totalMessages,
		MessagesToday: c.messagesToday,
		SessionStart:  c.sessionStart,
	}
	if c.lastSeen != nil {
		t := *c.lastSeen
		snap.LastSeen = &t
	}
	return snap
}

// RelativeSince renders how long ago t was, for the "last seen" display.
func RelativeSince(now time.Time, t *time.Time) string {
	if t == nil {
		return "never"
	}
	d := now.Sub(*t)
	switch {
	case d < 0:
		return "just now"
	case d < 10*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// Uptime renders the elapsed session time as HH:MM:SS.
func Uptime(now, start time.Time) string {
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
