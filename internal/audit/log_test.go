package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"loandesk.org/internal/auth"
	"loandesk.org/internal/obs"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	orig := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(orig) })
	return &buf
}

func TestLogEventEnrichesFromContext(t *testing.T) {
	buf := captureLog(t)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = auth.ContextWithUser(ctx, &auth.User{Username: "admin1", Role: auth.RoleAdmin})

	err := LogEvent(ctx, "contract.update", map[string]any{"contract": "LC-1"})
	if err != nil {
		t.Fatalf("log event: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("entry is not valid JSON: %v", err)
	}
	if entry["event"] != "contract.update" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["username"] != "admin1" || entry["role"] != "admin" {
		t.Fatalf("expected actor in entry, got %v", entry)
	}
	fields := entry["fields"].(map[string]any)
	if fields["contract"] != "LC-1" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
