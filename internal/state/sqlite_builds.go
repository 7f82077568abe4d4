package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// RecordBuild inserts a build record. A missing ID or start time is filled in.
func (s *SQLiteStore) RecordBuild(ctx context.Context, b *Build) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if b.ID == "" {
		b.ID = generateID()
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now().UTC()
	}

	langs, err := marshalList(b.Languages)
	if err != nil {
		return err
	}
	args, err := marshalList(b.ExtraArgs)
	if err != nil {
		return err
	}

	s.logger.Debug("recording build",
		slog.String("id", b.ID),
		slog.String("session", b.SessionID),
		slog.String("status", string(b.Status)))

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO builds (id, session_id, digest, package, languages, extra_args, status, error, file_count, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SessionID, b.Digest, b.Package, langs, args, string(b.Status),
		nullString(b.Error), b.FileCount, b.Duration.Milliseconds(), b.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// ListBuilds returns the most recent builds, newest first.
// An empty sessionID lists builds of all sessions.
func (s *SQLiteStore) ListBuilds(ctx context.Context, sessionID string, limit int) ([]*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, digest, package, languages, extra_args, status, error, file_count, duration_ms, started_at
		FROM builds
		WHERE (? = '' OR session_id = ?)
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, sessionID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*Build
	for rows.Next() {
		var (
			b          Build
			langs      string
			args       string
			status     string
			errMsg     sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&b.ID, &b.SessionID, &b.Digest, &b.Package, &langs, &args,
			&status, &errMsg, &b.FileCount, &durationMS, &b.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		b.Status = BuildStatus(status)
		b.Error = errMsg.String
		b.Duration = time.Duration(durationMS) * time.Millisecond
		if b.Languages, err = unmarshalList(langs); err != nil {
			return nil, err
		}
		if b.ExtraArgs, err = unmarshalList(args); err != nil {
			return nil, err
		}
		builds = append(builds, &b)
	}
	return builds, rows.Err()
}

// Stats summarizes all recorded history.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM builds),
			(SELECT COUNT(*) FROM builds WHERE status = 'failed'),
			(SELECT COUNT(*) FROM executions),
			(SELECT COUNT(DISTINCT session_id) FROM builds)`,
	).Scan(&st.Builds, &st.FailedBuilds, &st.Executions, &st.Sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return &st, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("failed to encode list: %w", err)
	}
	return string(data), nil
}

func unmarshalList(data string) ([]string, error) {
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to decode list: %w", err)
	}
	return items, nil
}

// nullString returns a sql.NullString for optional string fields.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
