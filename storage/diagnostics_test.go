package storage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestLogAndQueryDiagnosticEvents(t *testing.T) {
	store := newTestStore(t)

	now := nowUnixMilli()
	messageID := "msg-7"

	if err := store.LogDiagnosticEvent(DiagnosticEvent{
		EventType: "list_slow",
		Details:   `{"ms":1200}`,
		Severity:  DiagnosticSeverityInfo,
		Timestamp: now - 1_000,
	}); err != nil {
		t.Fatalf("LogDiagnosticEvent list_slow failed: %v", err)
	}
	if err := store.LogDiagnosticEvent(DiagnosticEvent{
		EventType: EventFetchFailed,
		MessageID: &messageID,
		Details:   `{"op":"update"}`,
		Severity:  DiagnosticSeverityWarning,
		Timestamp: now,
	}); err != nil {
		t.Fatalf("LogDiagnosticEvent fetch_failed failed: %v", err)
	}

	all, err := store.GetDiagnosticEvents(DiagnosticEventFilter{Limit: 10})
	if err != nil {
		t.Fatalf("GetDiagnosticEvents all failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 diagnostic events, got %d", len(all))
	}
	if all[0].EventType != EventFetchFailed {
		t.Fatalf("expected newest event type %s, got %q", EventFetchFailed, all[0].EventType)
	}

	filtered, err := store.GetDiagnosticEvents(DiagnosticEventFilter{
		MessageID: messageID,
		Severity:  DiagnosticSeverityWarning,
	})
	if err != nil {
		t.Fatalf("GetDiagnosticEvents filtered failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected 1 filtered event, got %d", len(filtered))
	}
	if filtered[0].Details != `{"op":"update"}` {
		t.Fatalf("unexpected filtered event details: %q", filtered[0].Details)
	}
}

func TestRecordFailureStoresOperationAndError(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordFailure("delete", "msg-3", errors.New("connection refused")); err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if err := store.RecordFailure("list", "", nil); err != nil {
		t.Fatalf("RecordFailure with nil error should be a no-op, got %v", err)
	}

	events, err := store.GetDiagnosticEvents(DiagnosticEventFilter{EventType: EventFetchFailed})
	if err != nil {
		t.Fatalf("GetDiagnosticEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(events))
	}
	if events[0].MessageID == nil || *events[0].MessageID != "msg-3" {
		t.Fatalf("expected message id msg-3, got %v", events[0].MessageID)
	}

	var details map[string]string
	if err := json.Unmarshal([]byte(events[0].Details), &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details["op"] != "delete" || details["error"] != "connection refused" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestLogDiagnosticEventValidation(t *testing.T) {
	store := newTestStore(t)

	if err := store.LogDiagnosticEvent(DiagnosticEvent{}); err == nil {
		t.Fatalf("expected missing event type to fail")
	}
	if err := store.LogDiagnosticEvent(DiagnosticEvent{EventType: "x", Severity: "critical"}); err == nil {
		t.Fatalf("expected invalid severity to fail")
	}
	if err := store.LogDiagnosticEvent(DiagnosticEvent{EventType: "x", Details: "not json"}); err == nil {
		t.Fatalf("expected invalid details to fail")
	}
}

func TestDiagnosticRetentionPrunesOldRows(t *testing.T) {
	store := newTestStore(t)
	store.SetRetention(1 * time.Second)

	now := nowUnixMilli()

	if err := store.LogDiagnosticEvent(DiagnosticEvent{
		EventType: "old_event",
		Details:   `{"state":"old"}`,
		Timestamp: now - 10_000,
	}); err != nil {
		t.Fatalf("LogDiagnosticEvent old_event failed: %v", err)
	}
	if err := store.LogDiagnosticEvent(DiagnosticEvent{
		EventType: "new_event",
		Details:   `{"state":"new"}`,
		Timestamp: now,
	}); err != nil {
		t.Fatalf("LogDiagnosticEvent new_event failed: %v", err)
	}

	events, err := store.GetDiagnosticEvents(DiagnosticEventFilter{Limit: 10})
	if err != nil {
		t.Fatalf("GetDiagnosticEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after retention prune, got %d", len(events))
	}
	if events[0].EventType != "new_event" {
		t.Fatalf("expected retained event type new_event, got %q", events[0].EventType)
	}
}
