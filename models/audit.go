package models

import "time"

// AuditEvent records one security-relevant agent action for the structured
// audit trail (spec.md §7 error-handling policy: per-varbind outcomes and
// drop reasons are tracked via counters; AuditEvent is the corresponding
// durable record of what happened, for operators who need more than a
// counter delta).
type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"` // "set", "trap", "discover"
	User      string    `json:"user,omitempty"`
	OID       string    `json:"oid,omitempty"`
	Result    string    `json:"result"` // "ok", "error", or a keeper error kind name
	Detail    string    `json:"detail,omitempty"`
}
