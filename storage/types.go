package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates a requested row does not exist.
	ErrNotFound = errors.New("storage: record not found")
)

const (
	// WriteOpCreate journals a message create.
	WriteOpCreate = "create"
	// WriteOpUpdate journals a message body update.
	WriteOpUpdate = "update"
	// WriteOpDelete journals a message delete.
	WriteOpDelete = "delete"
)

const (
	// WriteStatusPending means the request was issued and has not resolved.
	WriteStatusPending = "pending"
	// WriteStatusConfirmed means the backend acknowledged the write.
	WriteStatusConfirmed = "confirmed"
	// WriteStatusFailed means the request failed or never resolved.
	WriteStatusFailed = "failed"
)

const (
	// DiagnosticSeverityInfo marks an event kept for context only.
	DiagnosticSeverityInfo = "info"
	// DiagnosticSeverityWarning marks a recoverable failure such as a rejected backend call.
	DiagnosticSeverityWarning = "warning"
	// DiagnosticSeverityError marks a failure the user should look at.
	DiagnosticSeverityError = "error"
)

// WriteRecord is one journaled write request against the message backend.
type WriteRecord struct {
	RequestID  string
	Operation  string
	MessageID  *string
	Status     string
	Error      *string
	StartedAt  int64
	FinishedAt *int64
}

// WriteFilter narrows GetWrites results.
type WriteFilter struct {
	Status    string
	Operation string
	MessageID string
	Limit     int
	Offset    int
}

// DiagnosticEvent is a structured record of a client-side failure.
type DiagnosticEvent struct {
	ID        int64
	EventType string
	MessageID *string
	Details   string
	Severity  string
	Timestamp int64
}

// DiagnosticEventFilter narrows GetDiagnosticEvents results.
type DiagnosticEventFilter struct {
	EventType     string
	MessageID     string
	Severity      string
	FromTimestamp *int64
	ToTimestamp   *int64
	Limit         int
	Offset        int
}

type scanner interface {
	Scan(dest ...any) error
}

func validateWriteOp(op string) error {
	switch op {
	case WriteOpCreate, WriteOpUpdate, WriteOpDelete:
		return nil
	default:
		return fmt.Errorf("invalid write operation %q", op)
	}
}

func validateWriteStatus(status string) error {
	switch status {
	case WriteStatusPending, WriteStatusConfirmed, WriteStatusFailed:
		return nil
	default:
		return fmt.Errorf("invalid write status %q", status)
	}
}

func validateDiagnosticSeverity(severity string) error {
	switch severity {
	case DiagnosticSeverityInfo, DiagnosticSeverityWarning, DiagnosticSeverityError:
		return nil
	default:
		return fmt.Errorf("invalid diagnostic severity %q", severity)
	}
}

func normalizeLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullString(ptr *string) sql.NullString {
	if ptr == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *ptr, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nowUnixMilli() int64 {
	return time.Now().UnixMilli()
}
