package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestMemoryLoggerNumbersEvents(t *testing.T) {
	l := NewMemoryLogger()
	if got := l.LastEvent(); got.Seq != 0 {
		t.Fatalf("empty logger LastEvent: got seq %d", got.Seq)
	}

	l.Log(NewCombatStartEvent("Case", []string{"Sentry Drone"}))
	l.Log(NewDamageEvent(1, "player", "Case", "Sentry Drone", 6, 2, 4))
	l.Log(NewDamageEvent(1, "enemy", "Sentry Drone", "Case", 6, 0, 6))

	events := l.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, e := range events {
		if e.Seq != i+1 {
			t.Errorf("event %d: got seq %d", i, e.Seq)
		}
	}

	hits := l.EventsOfType(EventDamage)
	if len(hits) != 2 {
		t.Fatalf("expected 2 damage events, got %d", len(hits))
	}
	if hits[0].Amount != 4 || hits[0].Target != "Sentry Drone" {
		t.Errorf("first hit: got %+v", hits[0])
	}
	if l.LastEvent().Actor != "Sentry Drone" {
		t.Errorf("LastEvent: got %+v", l.LastEvent())
	}
}

func TestTextLoggerWritesLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewTextLogger(&buf)
	l.Log(NewCombatStartEvent("Case", []string{"Tracer", "Sentry Drone"}))
	l.Log(NewDamageEvent(2, "player", "Case", "Tracer", 9, 0, 9))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "=== Case engages Tracer, Sentry Drone ===") {
		t.Errorf("combat start line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "T2  player") {
		t.Errorf("damage line prefix: %q", lines[1])
	}
	if !strings.Contains(lines[1], "Case hits Tracer for 9 (9 incoming, 0 blocked)") {
		t.Errorf("damage line details: %q", lines[1])
	}
	if len(l.Events()) != 2 {
		t.Errorf("TextLogger should also keep events, got %d", len(l.Events()))
	}
}

func TestFormatAll(t *testing.T) {
	events := []GameEvent{
		NewInvalidActionEvent(3, "player", "Case", "not enough action points"),
	}
	out := FormatAll(events)
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("FormatAll should end each line with a newline: %q", out)
	}
	if !strings.Contains(out, "Case: invalid action (not enough action points)") {
		t.Errorf("FormatAll: %q", out)
	}
}
