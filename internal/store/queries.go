package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when no session matches.
var ErrSessionNotFound = errors.New("session not found")

// Session operations

// InsertSession records a new session.
func (s *Store) InsertSession(sess *Session) error {
	query := `
		INSERT INTO sessions
		(root, id, started_at, reason, hashed, snapshot_path, vault_dir, file_count, total_bytes, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	status := sess.Status
	if status == "" {
		status = StatusStarted
	}

	_, err := s.db.Exec(query,
		sess.Root,
		sess.ID,
		sess.StartedAt.Format(time.RFC3339),
		sess.Reason,
		sess.Hashed,
		sess.SnapshotPath,
		sess.VaultDir,
		sess.FileCount,
		sess.TotalBytes,
		status,
	)
	if err != nil {
		return wrapErr(err, "failed to insert session %s", sess.ID)
	}
	return nil
}

// FinishRelocation stores the totals of a relocation run and its status.
func (s *Store) FinishRelocation(root, id string, files int, bytes int64, status string) error {
	query := `
		UPDATE sessions SET file_count = ?, total_bytes = ?, status = ?
		WHERE root = ? AND id = ?
	`

	res, err := s.db.Exec(query, files, bytes, status, root, id)
	if err != nil {
		return wrapErr(err, "failed to update session %s", id)
	}
	return requireRow(res, id)
}

// RecordRestore stores the outcome of a restore.
func (s *Store) RecordRestore(root, id string, out RestoreOutcome) error {
	status := StatusRestored
	if out.Rejected > 0 || out.Failed > 0 {
		status = StatusPartiallyRestored
	}

	query := `
		UPDATE sessions
		SET status = ?, restored_at = ?, restored = ?, rejected = ?, failed = ?
		WHERE root = ? AND id = ?
	`

	res, err := s.db.Exec(query,
		status,
		out.At.Format(time.RFC3339),
		out.Restored,
		out.Rejected,
		out.Failed,
		root,
		id,
	)
	if err != nil {
		return wrapErr(err, "failed to record restore for session %s", id)
	}
	return requireRow(res, id)
}

// GetSession retrieves a session by root and ID.
func (s *Store) GetSession(root, id string) (*Session, error) {
	query := sessionColumns + ` WHERE root = ? AND id = ?`

	sess, err := scanSession(s.db.QueryRow(query, root, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, wrapErr(err, "failed to get session %s", id)
	}
	return sess, nil
}

// LatestSession returns the most recent session for root.
func (s *Store) LatestSession(root string) (*Session, error) {
	query := sessionColumns + ` WHERE root = ? ORDER BY id DESC LIMIT 1`

	sess, err := scanSession(s.db.QueryRow(query, root))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no sessions for %s", ErrSessionNotFound, root)
	}
	if err != nil {
		return nil, wrapErr(err, "failed to get latest session")
	}
	return sess, nil
}

// ListSessions returns sessions newest first. An empty root lists every root.
func (s *Store) ListSessions(root string) ([]*Session, error) {
	query := sessionColumns + ` WHERE (? = '' OR root = ?) ORDER BY started_at DESC, id DESC`

	rows, err := s.db.Query(query, root, root)
	if err != nil {
		return nil, wrapErr(err, "failed to list sessions")
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// Move operations

// InsertMove records one relocation.
func (s *Store) InsertMove(m *Move) error {
	query := `
		INSERT INTO moves (root, session_id, rel_path, vault_path, size_bytes, moved_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		m.Root,
		m.SessionID,
		m.RelPath,
		m.VaultPath,
		m.SizeBytes,
		m.MovedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return wrapErr(err, "failed to insert move %s", m.RelPath)
	}
	return nil
}

// GetMoves returns the moves of a session in the order they happened.
func (s *Store) GetMoves(root, id string) ([]*Move, error) {
	query := `
		SELECT root, session_id, rel_path, vault_path, size_bytes, moved_at
		FROM moves
		WHERE root = ? AND session_id = ?
		ORDER BY id
	`

	rows, err := s.db.Query(query, root, id)
	if err != nil {
		return nil, wrapErr(err, "failed to get moves for session %s", id)
	}
	defer rows.Close()

	var moves []*Move
	for rows.Next() {
		var m Move
		var movedAt string
		if err := rows.Scan(&m.Root, &m.SessionID, &m.RelPath, &m.VaultPath, &m.SizeBytes, &movedAt); err != nil {
			return nil, fmt.Errorf("failed to scan move row: %w", err)
		}
		m.MovedAt, err = time.Parse(time.RFC3339Nano, movedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse moved_at for %s: %w", m.RelPath, err)
		}
		moves = append(moves, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating moves: %w", err)
	}
	return moves, nil
}

// Renames returns vault path -> original path for moves renamed on a
// collision.
func (s *Store) Renames(root, id string) (map[string]string, error) {
	moves, err := s.GetMoves(root, id)
	if err != nil {
		return nil, err
	}

	renames := make(map[string]string)
	for _, m := range moves {
		if m.VaultPath != m.RelPath {
			renames[m.VaultPath] = m.RelPath
		}
	}
	return renames, nil
}

const sessionColumns = `
	SELECT root, id, started_at, reason, hashed, snapshot_path, vault_dir,
	       file_count, total_bytes, status, restored_at, restored, rejected, failed
	FROM sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var startedAt string
	var reason sql.NullString
	var restoredAt sql.NullString

	err := row.Scan(
		&sess.Root,
		&sess.ID,
		&startedAt,
		&reason,
		&sess.Hashed,
		&sess.SnapshotPath,
		&sess.VaultDir,
		&sess.FileCount,
		&sess.TotalBytes,
		&sess.Status,
		&restoredAt,
		&sess.Restored,
		&sess.Rejected,
		&sess.Failed,
	)
	if err != nil {
		return nil, err
	}

	sess.Reason = reason.String
	sess.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for session %s: %w", sess.ID, err)
	}

	if restoredAt.Valid && restoredAt.String != "" {
		t, err := time.Parse(time.RFC3339, restoredAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse restored_at for session %s: %w", sess.ID, err)
		}
		sess.RestoredAt = &t
	}
	return &sess, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of session %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}
