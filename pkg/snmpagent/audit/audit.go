// Package audit records a structured trail of security-relevant agent
// actions (every SetRequest outcome, every trap sent, every engine-ID
// discovery) as JSON lines, using the same formatter/transport split the
// rest of this codebase's pipeline packages use: format/json serialises,
// transport/file delivers (spec.md §7's counters track aggregate outcomes;
// AuditEvent gives operators the per-action record behind them).
package audit

import (
	"time"

	fmtjson "github.com/vpbank/snmpagent/format/json"
	"github.com/vpbank/snmpagent/models"
	"github.com/vpbank/snmpagent/transport/file"
)

// Log serialises and delivers AuditEvents. A nil *Log is valid and silently
// drops every event, so callers never need a nil check before recording.
type Log struct {
	formatter *fmtjson.JSONFormatter
	transport file.Transport
}

// New builds a Log that writes one JSON line per event to transport.
func New(transport file.Transport) *Log {
	return &Log{
		formatter: fmtjson.New(fmtjson.Config{}, nil),
		transport: transport,
	}
}

// Record formats and delivers one event, stamping Timestamp if it is zero.
// A formatting or delivery failure is returned to the caller, which may
// ignore it. A nil Log, or one with no transport, records nothing and
// returns nil.
func (l *Log) Record(event models.AuditEvent) error {
	if l == nil || l.transport == nil {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := l.formatter.Format(&event)
	if err != nil {
		return err
	}
	return l.transport.Send(data)
}
