// Package console maintains the bounded activity log shown under the status
// tiles. Entries arrive in event order and the oldest fall off the end once
// the capacity is reached.
package console

import (
	"encoding/json"
	"sync"
)

// Kind tags an entry for styling.
type Kind string

const (
	KindInfo    Kind = "info"
	KindError   Kind = "error"
	KindWelcome Kind = "welcome"
	KindUpdate  Kind = "update"
	KindControl Kind = "control"
	KindMessage Kind = "message"
	KindStats   Kind = "stats"
)

// Entry is one visual line of the activity log.
type Entry struct {
	Time    string // receiver-format timestamp
	Kind    Kind
	Message string
	User    string // optional user badge
	Details string // optional pretty-printed JSON block
}

// Console is a bounded FIFO of entries with a follow (auto-scroll) toggle.
type Console struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
	follow   bool
}

// New creates a console retaining at most capacity entries.
func New(capacity int, follow bool) *Console {
	if capacity <= 0 {
		capacity = 100
	}
	return &Console{
		capacity: capacity,
		follow:   follow,
	}
}

// Append adds an entry, evicting the oldest once over capacity.
func (c *Console) Append(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, e)
	if len(c.entries) > c.capacity {
		over := len(c.entries) - c.capacity
		c.entries = append([]Entry(nil), c.entries[over:]...)
	}
}

// Clear empties the log immediately.
func (c *Console) Clear() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Len returns the number of retained entries.
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the configured retention limit.
func (c *Console) Capacity() int {
	return c.capacity
}

// Entries returns a copy of all retained entries, oldest first.
func (c *Console) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Tail returns up to n of the newest entries, oldest first.
func (c *Console) Tail(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || len(c.entries) == 0 {
		return nil
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	return append([]Entry(nil), c.entries[len(c.entries)-n:]...)
}

// Head returns up to n of the oldest entries.
func (c *Console) Head(n int) []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= 0 || len(c.entries) == 0 {
		return nil
	}
	if n > len(c.entries) {
		n = len(c.entries)
	}
	return append([]Entry(nil), c.entries[:n]...)
}

// ToggleFollow flips the auto-scroll behavior and returns the new value.
func (c *Console) ToggleFollow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.follow = !c.follow
	return c.follow
}

// Following reports whether the view tracks the newest entry.
func (c *Console) Following() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.follow
}

// DetailJSON pretty-prints a value for an entry's details block. Returns ""
// when the value cannot be marshalled or is empty.
func DetailJSON(v any) string {
	if v == nil {
		return ""
	}
	if m, ok := v.(map[string]any); ok && len(m) == 0 {
		return ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// DetailRaw pretty-prints raw JSON for an entry's details block. Returns the
// input unchanged when it is not valid JSON.
func DetailRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return DetailJSON(v)
}
