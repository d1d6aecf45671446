// Package audit emits security-relevant auth events to a pluggable sink
// without blocking the flows that produce them. Event storage and querying
// are the consumer's concern.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by the auth service.
const (
	TypeRegister       = "register"
	TypeLogin          = "login"
	TypeLoginLocked    = "login_locked"
	TypeRefresh        = "refresh"
	TypeRefreshReuse   = "refresh_reuse"
	TypePasswordChange = "password_change"
	TypeProfileUpdate  = "profile_update"
	TypeAccountDelete  = "account_delete"
)

// Event is one security-relevant occurrence.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	UserID    string            `json:"user_id,omitempty"`
	ClientIP  string            `json:"client_ip,omitempty"`
	Success   bool              `json:"success"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink consumes events. Emit must tolerate concurrent calls; slow sinks cost
// dispatcher buffer space, not caller latency.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a channel, dropping when it is full.
// Useful in tests and for bridging to custom pipelines.
type ChannelSink struct {
	C chan Event
}

// NewChannelSink creates a sink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{C: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(_ context.Context, event Event) {
	select {
	case s.C <- event:
	default:
	}
}

// JSONWriterSink writes one JSON object per line to a writer.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONWriterSink wraps a writer, typically a log file or os.Stderr.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(event)
}
