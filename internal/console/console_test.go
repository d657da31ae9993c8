package console

import (
	"fmt"
	"testing"
)

func TestAppend_CapacityFIFO(t *testing.T) {
	c := New(3, true)

	for i := 0; i < 10; i++ {
		c.Append(Entry{Message: fmt.Sprintf("entry %d", i)})
		if c.Len() > 3 {
			t.Fatalf("console grew past capacity: %d", c.Len())
		}
	}

	entries := c.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	// Oldest evicted first: entries 7, 8, 9 remain
	for i, want := range []string{"entry 7", "entry 8", "entry 9"} {
		if entries[i].Message != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Message, want)
		}
	}
}

func TestClear(t *testing.T) {
	c := New(5, true)
	c.Append(Entry{Message: "a"})
	c.Append(Entry{Message: "b"})

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", c.Len())
	}

	// Still usable after clear
	c.Append(Entry{Message: "c"})
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestTailAndHead(t *testing.T) {
	c := New(10, true)
	for i := 0; i < 5; i++ {
		c.Append(Entry{Message: fmt.Sprintf("entry %d", i)})
	}

	tail := c.Tail(2)
	if len(tail) != 2 || tail[0].Message != "entry 3" || tail[1].Message != "entry 4" {
		t.Errorf("Tail(2) = %v", tail)
	}

	head := c.Head(2)
	if len(head) != 2 || head[0].Message != "entry 0" || head[1].Message != "entry 1" {
		t.Errorf("Head(2) = %v", head)
	}

	if got := c.Tail(100); len(got) != 5 {
		t.Errorf("Tail(100) returned %d entries, want 5", len(got))
	}
	if got := c.Tail(0); got != nil {
		t.Errorf("Tail(0) = %v, want nil", got)
	}
}

func TestToggleFollow(t *testing.T) {
	c := New(5, true)
	if !c.Following() {
		t.Error("expected follow enabled initially")
	}
	if c.ToggleFollow() {
		t.Error("ToggleFollow should disable follow")
	}
	if c.Following() {
		t.Error("follow should be off")
	}
}

func TestDetailJSON(t *testing.T) {
	if got := DetailJSON(nil); got != "" {
		t.Errorf("DetailJSON(nil) = %q, want empty", got)
	}
	if got := DetailJSON(map[string]any{}); got != "" {
		t.Errorf("DetailJSON(empty map) = %q, want empty", got)
	}
	got := DetailJSON(map[string]any{"temp": 21.5})
	if got == "" || got[0] != '{' {
		t.Errorf("DetailJSON = %q, want pretty JSON object", got)
	}
}

func TestDetailRaw_InvalidJSONPassedThrough(t *testing.T) {
	if got := DetailRaw([]byte("not json")); got != "not json" {
		t.Errorf("DetailRaw = %q", got)
	}
	if got := DetailRaw(nil); got != "" {
		t.Errorf("DetailRaw(nil) = %q, want empty", got)
	}
}
