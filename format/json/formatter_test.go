package json_test

import (
	stdjson "encoding/json"
	"strings"
	"testing"
	"time"

	fmtjson "github.com/vpbank/snmpagent/format/json"
	"github.com/vpbank/snmpagent/models"
)

var testTimestamp = time.Date(2026, 2, 26, 10, 30, 0, 123_000_000, time.UTC)

var fullEvent = models.AuditEvent{
	Timestamp: testTimestamp,
	Kind:      "set",
	User:      "admin",
	OID:       "1.3.6.1.2.1.1.5.0",
	Result:    "ok",
	Detail:    "sysName updated",
}

func mustFormat(t *testing.T, f *fmtjson.JSONFormatter, e *models.AuditEvent) []byte {
	t.Helper()
	b, err := f.Format(e)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return b
}

func unmarshal(t *testing.T, data []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := stdjson.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v\nraw: %s", err, data)
	}
	return out
}

func TestNew_NilLoggerDoesNotPanic(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{}, nil)
	if f == nil {
		t.Fatal("New returned nil")
	}
}

func TestNew_DefaultIndentForPrettyPrint(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{PrettyPrint: true}, nil)
	data := mustFormat(t, f, &fullEvent)
	if !strings.Contains(string(data), "\n") {
		t.Error("pretty-print output should contain newlines")
	}
}

func TestNew_CustomIndent(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{PrettyPrint: true, Indent: "\t"}, nil)
	data := mustFormat(t, f, &fullEvent)
	if !strings.Contains(string(data), "\t") {
		t.Error("custom-indent output should contain tab characters")
	}
}

func TestFormat_NilEventReturnsError(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{}, nil)
	_, err := f.Format(nil)
	if err == nil {
		t.Error("expected non-nil error for nil event")
	}
}

func TestFormat_TopLevelKeys(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{}, nil)
	doc := unmarshal(t, mustFormat(t, f, &fullEvent))
	for _, key := range []string{"timestamp", "kind", "user", "oid", "result", "detail"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("top-level key %q missing", key)
		}
	}
}

func TestFormat_TimestampIsRFC3339(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{}, nil)
	doc := unmarshal(t, mustFormat(t, f, &fullEvent))
	ts, ok := doc["timestamp"].(string)
	if !ok {
		t.Fatal("timestamp is not a string")
	}
	parsed, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		t.Fatalf("timestamp %q is not RFC3339Nano: %v", ts, err)
	}
	if !parsed.Equal(testTimestamp) {
		t.Errorf("timestamp round-trip: got %v, want %v", parsed, testTimestamp)
	}
}

func TestFormat_Fields(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{}, nil)
	doc := unmarshal(t, mustFormat(t, f, &fullEvent))
	if doc["kind"] != "set" {
		t.Errorf("kind = %v", doc["kind"])
	}
	if doc["user"] != "admin" {
		t.Errorf("user = %v", doc["user"])
	}
	if doc["oid"] != "1.3.6.1.2.1.1.5.0" {
		t.Errorf("oid = %v", doc["oid"])
	}
	if doc["result"] != "ok" {
		t.Errorf("result = %v", doc["result"])
	}
}

func TestFormat_OptionalFieldsOmittedWhenEmpty(t *testing.T) {
	e := models.AuditEvent{Timestamp: testTimestamp, Kind: "discover", Result: "ok"}
	f := fmtjson.New(fmtjson.Config{}, nil)
	doc := unmarshal(t, mustFormat(t, f, &e))
	for _, key := range []string{"user", "oid", "detail"} {
		if _, ok := doc[key]; ok {
			t.Errorf("expected %q to be omitted when empty", key)
		}
	}
}

func TestFormat_CompactHasNoNewlines(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{PrettyPrint: false}, nil)
	data := mustFormat(t, f, &fullEvent)
	if strings.Contains(string(data), "\n") {
		t.Error("compact output must not contain newlines")
	}
}

func TestFormat_PrettyAndCompactEquivalent(t *testing.T) {
	fCompact := fmtjson.New(fmtjson.Config{}, nil)
	fPretty := fmtjson.New(fmtjson.Config{PrettyPrint: true}, nil)

	compact := mustFormat(t, fCompact, &fullEvent)
	pretty := mustFormat(t, fPretty, &fullEvent)

	var dc, dp interface{}
	if err := stdjson.Unmarshal(compact, &dc); err != nil {
		t.Fatalf("unmarshal compact: %v", err)
	}
	if err := stdjson.Unmarshal(pretty, &dp); err != nil {
		t.Fatalf("unmarshal pretty: %v", err)
	}
	rc, _ := stdjson.Marshal(dc)
	rp, _ := stdjson.Marshal(dp)
	if string(rc) != string(rp) {
		t.Errorf("compact and pretty-print produce different structures")
	}
}

func TestFormat_ValidJSON(t *testing.T) {
	f := fmtjson.New(fmtjson.Config{}, nil)
	data := mustFormat(t, f, &fullEvent)
	if !stdjson.Valid(data) {
		t.Errorf("output is not valid JSON: %s", data)
	}
}
