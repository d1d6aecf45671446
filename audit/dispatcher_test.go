package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"
)

type collectingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *collectingSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *collectingSink) all() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func TestDispatcherDeliversToSink(t *testing.T) {
	sink := &collectingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), Event{Type: TypeLogin, UserID: "u1", Success: true})
	}
	d.Close()

	if got := len(sink.all()); got != 5 {
		t.Errorf("delivered %d events, want 5", got)
	}
	if d.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", d.Dropped())
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &collectingSink{})
	if d != nil {
		t.Fatal("disabled dispatcher should be nil")
	}
	// All methods are safe on nil.
	d.Emit(context.Background(), Event{Type: TypeLogin})
	d.Close()
	if d.Dropped() != 0 {
		t.Error("nil Dropped != 0")
	}
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Emit(context.Context, Event) {
	<-s.release
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	sink := &blockingSink{release: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// One event occupies the sink, one fills the buffer, the rest must drop
	// without blocking this goroutine.
	deadline := time.After(2 * time.Second)
	for i := 0; i < 10; i++ {
		done := make(chan struct{})
		go func() {
			d.Emit(context.Background(), Event{Type: TypeLogin})
			close(done)
		}()
		select {
		case <-done:
		case <-deadline:
			t.Fatal("Emit blocked with DropIfFull set")
		}
	}
	if d.Dropped() == 0 {
		t.Error("expected dropped events")
	}
	close(sink.release)
	d.Close()
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := &collectingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64, DropIfFull: true}, sink)
	for i := 0; i < 30; i++ {
		d.Emit(context.Background(), Event{Type: TypeRefresh})
	}
	d.Close()
	if got := len(sink.all()); got != 30 {
		t.Errorf("delivered %d events after Close, want 30", got)
	}
	// Emit after Close is a no-op.
	d.Emit(context.Background(), Event{Type: TypeRefresh})
	if got := len(sink.all()); got != 30 {
		t.Errorf("event delivered after Close: %d", got)
	}
}

func TestChannelSinkDropsWhenFull(t *testing.T) {
	s := NewChannelSink(1)
	s.Emit(context.Background(), Event{Type: TypeLogin})
	s.Emit(context.Background(), Event{Type: TypeRefresh})

	select {
	case event := <-s.C:
		if event.Type != TypeLogin {
			t.Errorf("first event = %q", event.Type)
		}
	default:
		t.Fatal("channel empty")
	}
	select {
	case event := <-s.C:
		t.Errorf("unexpected second event %q", event.Type)
	default:
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONWriterSink(&buf)
	s.Emit(context.Background(), Event{Type: TypeLoginLocked, UserID: "u1", Reason: "too many failures"})

	line := strings.TrimSpace(buf.String())
	var decoded Event
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, line)
	}
	if decoded.Type != TypeLoginLocked || decoded.UserID != "u1" {
		t.Errorf("decoded = %+v", decoded)
	}
}
