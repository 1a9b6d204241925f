package goGate

import (
	"io"

	"github.com/MrEthical07/goGate/internal/audit"
)

// AuditEvent is one audit record emitted by the store, transport and engine.
type AuditEvent = audit.Event

// AuditSink receives audit events. Emit must not block for long; the engine
// delivers through a buffered dispatcher when auditing is enabled.
type AuditSink = audit.Sink

// NoOpSink drops audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers audit events in a channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

const (
	AuditEventLogin              = audit.EventLogin
	AuditEventLoginRejected      = audit.EventLoginRejected
	AuditEventLogout             = audit.EventLogout
	AuditEventSessionInvalidated = audit.EventSessionInvalidated
	AuditEventHydrated           = audit.EventHydrated
	AuditEventRecordDiscarded    = audit.EventRecordDiscarded
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
