package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RecordExecution inserts a sandbox execution record.
func (s *SQLiteStore) RecordExecution(ctx context.Context, e *Execution) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if e.ID == "" {
		e.ID = generateID()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (id, session_id, engine, language, status, error, output_size, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Engine, e.Language, string(e.Status),
		nullString(e.Error), e.OutputSize, e.Duration.Milliseconds(), e.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	return nil
}

// ListExecutions returns the most recent executions, newest first.
func (s *SQLiteStore) ListExecutions(ctx context.Context, sessionID string, limit int) ([]*Execution, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, engine, language, status, error, output_size, duration_ms, started_at
		FROM executions
		WHERE (? = '' OR session_id = ?)
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, sessionID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var execs []*Execution
	for rows.Next() {
		var (
			e          Execution
			status     string
			errMsg     sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Engine, &e.Language, &status,
			&errMsg, &e.OutputSize, &durationMS, &e.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		e.Status = BuildStatus(status)
		e.Error = errMsg.String
		e.Duration = time.Duration(durationMS) * time.Millisecond
		execs = append(execs, &e)
	}
	return execs, rows.Err()
}
