package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// BeginWrite records a write request as pending before it is sent.
func (s *Store) BeginWrite(op, requestID, messageID string) error {
	if err := validateWriteOp(op); err != nil {
		return err
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return errors.New("request_id is required")
	}

	_, err := s.db.Exec(
		`INSERT INTO write_journal (
			request_id,
			operation,
			message_id,
			status,
			started_at
		) VALUES (?, ?, ?, ?, ?)`,
		requestID,
		op,
		nullString(optionalString(strings.TrimSpace(messageID))),
		WriteStatusPending,
		nowUnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert write %q: %w", requestID, err)
	}
	return nil
}

// FinishWrite resolves a pending write. A nil failure marks it confirmed.
// A non-empty messageID fills in identifiers only known after the request.
func (s *Store) FinishWrite(requestID, messageID string, failure error) error {
	status := WriteStatusConfirmed
	var errText *string
	if failure != nil {
		status = WriteStatusFailed
		text := failure.Error()
		errText = &text
	}

	res, err := s.db.Exec(
		`UPDATE write_journal
		SET status = ?,
			error = ?,
			finished_at = ?,
			message_id = COALESCE(?, message_id)
		WHERE request_id = ?`,
		status,
		nullString(errText),
		nowUnixMilli(),
		nullString(optionalString(strings.TrimSpace(messageID))),
		requestID,
	)
	if err != nil {
		return fmt.Errorf("finish write %q: %w", requestID, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read rows affected for write %q: %w", requestID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if cutoff := s.retentionCutoff(); cutoff > 0 {
		if _, err := s.PruneWrites(cutoff); err != nil {
			return fmt.Errorf("prune writes: %w", err)
		}
	}
	return nil
}

// AbandonPendingWrites fails every write still pending, typically left over
// from a previous run that exited before its requests resolved.
func (s *Store) AbandonPendingWrites(reason string) (int64, error) {
	if reason == "" {
		reason = "abandoned"
	}
	res, err := s.db.Exec(
		`UPDATE write_journal
		SET status = ?, error = ?, finished_at = ?
		WHERE status = ?`,
		WriteStatusFailed,
		reason,
		nowUnixMilli(),
		WriteStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon pending writes: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for abandoned writes: %w", err)
	}
	return rowsAffected, nil
}

// GetWrite loads a single journal row.
func (s *Store) GetWrite(requestID string) (*WriteRecord, error) {
	row := s.db.QueryRow(
		`SELECT
			request_id,
			operation,
			message_id,
			status,
			error,
			started_at,
			finished_at
		FROM write_journal
		WHERE request_id = ?`,
		requestID,
	)

	record, err := scanWriteRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get write %q: %w", requestID, err)
	}
	return record, nil
}

// GetWrites returns journaled writes newest first.
func (s *Store) GetWrites(filter WriteFilter) ([]WriteRecord, error) {
	if filter.Status != "" {
		if err := validateWriteStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	if filter.Operation != "" {
		if err := validateWriteOp(filter.Operation); err != nil {
			return nil, err
		}
	}
	limit, offset := normalizeLimit(filter.Limit, filter.Offset)

	query := strings.Builder{}
	query.WriteString(`SELECT
		request_id,
		operation,
		message_id,
		status,
		error,
		started_at,
		finished_at
	FROM write_journal`)

	where := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Operation != "" {
		where = append(where, "operation = ?")
		args = append(args, filter.Operation)
	}
	if filter.MessageID != "" {
		where = append(where, "message_id = ?")
		args = append(args, filter.MessageID)
	}

	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}
	query.WriteString(" ORDER BY started_at DESC, rowid DESC LIMIT ? OFFSET ?")
	args = append(args, limit, offset)

	rows, err := s.db.Query(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("get writes: %w", err)
	}
	defer rows.Close()

	records := make([]WriteRecord, 0)
	for rows.Next() {
		record, err := scanWriteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan write row: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate write rows: %w", err)
	}

	return records, nil
}

// PruneWrites removes resolved writes that finished before cutoffTimestamp.
// Pending rows are never pruned.
func (s *Store) PruneWrites(cutoffTimestamp int64) (int64, error) {
	if cutoffTimestamp <= 0 {
		return 0, errors.New("cutoff timestamp must be > 0")
	}

	res, err := s.db.Exec(
		`DELETE FROM write_journal WHERE status != ? AND finished_at < ?`,
		WriteStatusPending,
		cutoffTimestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("prune writes: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read rows affected for write prune: %w", err)
	}
	return rowsAffected, nil
}

func scanWriteRecord(row scanner) (*WriteRecord, error) {
	var (
		record     WriteRecord
		messageID  sql.NullString
		errText    sql.NullString
		finishedAt sql.NullInt64
	)
	if err := row.Scan(
		&record.RequestID,
		&record.Operation,
		&messageID,
		&record.Status,
		&errText,
		&record.StartedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	record.MessageID = stringPtr(messageID)
	record.Error = stringPtr(errText)
	record.FinishedAt = int64Ptr(finishedAt)
	return &record, nil
}
