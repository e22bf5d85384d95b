// Package json implements the JSON formatter for the agent's structured
// audit trail (spec.md §7 error-handling policy). Every recorded
// AuditEvent is serialised to JSON before being handed to a transport
// (typically transport/file, writing one line per event).
package json

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vpbank/snmpagent/models"
)

// Formatter serialises a models.AuditEvent into a byte slice. Alternative
// formatters can be added by implementing this interface without touching
// the audit package that calls it.
type Formatter interface {
	Format(event *models.AuditEvent) ([]byte, error)
}

// Config controls JSONFormatter behaviour.
type Config struct {
	// PrettyPrint emits indented, human-readable JSON when true.
	PrettyPrint bool

	// Indent is the indent string used when PrettyPrint=true. Defaults to
	// two spaces when empty and PrettyPrint=true.
	Indent string
}

// JSONFormatter implements Formatter using encoding/json from the standard
// library. It is safe for concurrent use by multiple goroutines; all fields
// are immutable after construction.
type JSONFormatter struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs a JSONFormatter. If logger is nil, a no-op logger is
// substituted so the formatter never panics on a nil receiver.
func New(cfg Config, logger *slog.Logger) *JSONFormatter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}
	if cfg.PrettyPrint && cfg.Indent == "" {
		cfg.Indent = "  "
	}
	return &JSONFormatter{cfg: cfg, logger: logger}
}

// Format serialises event to JSON. It returns a non-nil error when event is
// nil or when json.Marshal itself fails. The returned byte slice is always non-nil on
// success.
func (f *JSONFormatter) Format(event *models.AuditEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("format/json: event must not be nil")
	}

	var (
		data []byte
		err  error
	)
	if f.cfg.PrettyPrint {
		data, err = json.MarshalIndent(event, "", f.cfg.Indent)
	} else {
		data, err = json.Marshal(event)
	}
	if err != nil {
		f.logger.Error("format/json: marshal failed", "kind", event.Kind, "error", err.Error())
		return nil, fmt.Errorf("format/json: marshal: %w", err)
	}

	f.logger.Debug("format/json: formatted audit event", "kind", event.Kind, "bytes", len(data))
	return data, nil
}

// noopWriter discards all log output when no logger is provided.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
