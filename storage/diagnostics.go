package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EventFetchFailed is logged whenever a backend round trip fails.
const EventFetchFailed = "fetch_failed"

// RecordFailure logs a failed backend operation as a warning diagnostic event.
func (s *Store) RecordFailure(op, messageID string, failure error) error {
	if failure == nil {
		return nil
	}
	details, err := json.Marshal(map[string]string{
		"op":    op,
		"error": failure.Error(),
	})
	if err != nil {
		return fmt.Errorf("encode failure details: %w", err)
	}

	return s.LogDiagnosticEvent(DiagnosticEvent{
		EventType: EventFetchFailed,
		MessageID: optionalString(strings.TrimSpace(messageID)),
		Details:   string(details),
		Severity:  DiagnosticSeverityWarning,
	})
}

// LogDiagnosticEvent inserts a structured event and applies retention pruning.
func (s *Store) LogDiagnosticEvent(event DiagnosticEvent) error {
	if strings.TrimSpace(event.EventType) == "" {
		return errors.New("event_type is required")
	}
	if event.Severity == "" {
		event.Severity = DiagnosticSeverityInfo
	}
	if err := validateDiagnosticSeverity(event.Severity); err != nil {
		return err
	}
	if event.Details == "" {
		event.Details = "{}"
	}
	if !json.Valid([]byte(event.Details)) {
		return errors.New("details must be valid JSON text")
	}
	if event.Timestamp == 0 {
		event.Timestamp = nowUnixMilli()
	}

	_, err := s.db.Exec(
		`INSERT INTO diagnostic_events (
			event_type,
			message_id,
			details,
			severity,
			timestamp
		) VALUES (?, ?, ?, ?, ?)`,
		event.EventType,
		nullString(event.MessageID),
		event.Details,
		event.Severity,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert diagnostic event %q: %w", event.EventType, err)
	}

	if cutoff := s.retentionCutoff(); cutoff > 0 {
		if _, err := s.PruneDiagnosticEvents(cutoff); err != nil {
			return fmt.Errorf("prune diagnostic events: %w", err)
		}
	}

	return nil
}

// GetDiagnosticEvents returns recent events with optional filtering.
func (s *Store) GetDiagnosticEvents(filter DiagnosticEventFilter) ([]DiagnosticEvent, error) {
	if filter.Severity != "" {
		if err := validateDiagnosticSeverity(filter.Severity); err != nil {
			return nil, err
		}
	}
	limit, offset := normalizeLimit(filter.Limit, filter.Offset)

	query := strings.Builder{}
	query.WriteString(`SELECT
		id,
		event_type,
		message_id,
		details,
		severity,
		timestamp
	FROM diagnostic_events`)

	where := make([]string, 0, 5)
	args := make([]any, 0, 7)

	if filter.EventType != "" {
		where = append(where, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.MessageID != "" {
		where = append(where, "message_id = ?")
		args = append(args, filter.MessageID)
	}
	if filter.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, filter.Severity)
	}
	if filter.FromTimestamp != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, *filter.FromTimestamp)
	}
	if filter.ToTimestamp != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, *filter.ToTimestamp)
	}

	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}
	query.WriteString(" ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("get diagnostic events: %w", err)
	}
	defer rows.Close()

	events := make([]DiagnosticEvent, 0)
	for rows.Next() {
		event, err := scanDiagnosticEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diagnostic event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostic event rows: %w", err)
	}

	return events, nil
}

// PruneDiagnosticEvents removes events older than cutoffTimestamp.
func (s *Store) PruneDiagnosticEvents(cutoffTimestamp int64) (int64, error) {
	if cutoffTimestamp <= 0 {
		return 0, errors.New("cutoff timestamp must be > 0")
	}

	res, err := s.db.Exec(`DELETE FROM diagnostic_events WHERE timestamp < ?`, cutoffTimestamp)
	if err != nil {
		return 0, fmt.Errorf("prune diagnostic events: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for diagnostic event prune: %w", err)
	}

	return rowsAffected, nil
}

func scanDiagnosticEvent(row scanner) (*DiagnosticEvent, error) {
	var (
		event     DiagnosticEvent
		messageID sql.NullString
	)
	if err := row.Scan(
		&event.ID,
		&event.EventType,
		&messageID,
		&event.Details,
		&event.Severity,
		&event.Timestamp,
	); err != nil {
		return nil, err
	}

	event.MessageID = stringPtr(messageID)
	return &event, nil
}
