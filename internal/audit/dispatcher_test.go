package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("disabled dispatcher must be nil")
	}
	d.Emit(context.Background(), Event{EventType: EventLogin})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher must report zero drops")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: EventLogout})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink and buffer of 1")
	}

	close(sink.release)
	d.Close()
}

func TestDispatcherCloseDelivers(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, NewJSONWriterSink(&buf))

	d.Emit(context.Background(), Event{EventType: EventLogin, UserID: "u1", Success: true})
	d.Emit(context.Background(), Event{EventType: EventLogout, UserID: "u1", Success: true})
	d.Close()

	if d.Delivered() != 2 {
		t.Fatalf("expected 2 delivered events, got %d", d.Delivered())
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSON lines, got %d: %q", len(lines), buf.String())
	}
	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if first.EventType != EventLogin || first.UserID != "u1" {
		t.Fatalf("unexpected first event: %+v", first)
	}
}
