package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/beacon/internal/session"
)

// LoadSession returns the stored session for a vendor type.
// found is false, with a nil error, when none has been saved.
func (s *Store) LoadSession(ctx context.Context, vendor string) (session.Session, bool, error) {
	var sess session.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, creation_timestamp, last_access_timestamp, count
		FROM sessions
		WHERE vendor = ?
	`, vendor).Scan(&sess.ID, &sess.CreationTimestamp, &sess.LastAccessTimestamp, &sess.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Session{}, false, nil
	}
	if err != nil {
		return session.Session{}, false, fmt.Errorf("load session %q: %w", vendor, err)
	}
	return sess, true, nil
}

// SaveSession stores the session for a vendor type, replacing any previous
// one.
func (s *Store) SaveSession(ctx context.Context, vendor string, sess session.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (vendor, session_id, creation_timestamp, last_access_timestamp, count)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(vendor) DO UPDATE SET
			session_id = excluded.session_id,
			creation_timestamp = excluded.creation_timestamp,
			last_access_timestamp = excluded.last_access_timestamp,
			count = excluded.count
	`, vendor, sess.ID, sess.CreationTimestamp, sess.LastAccessTimestamp, sess.Count)
	if err != nil {
		return fmt.Errorf("save session %q: %w", vendor, err)
	}
	return nil
}

// Sessions returns every stored session keyed by vendor type.
func (s *Store) Sessions(ctx context.Context) (map[string]session.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor, session_id, creation_timestamp, last_access_timestamp, count
		FROM sessions
		ORDER BY vendor COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]session.Session)
	for rows.Next() {
		var vendor string
		var sess session.Session
		if err := rows.Scan(&vendor, &sess.ID, &sess.CreationTimestamp, &sess.LastAccessTimestamp, &sess.Count); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out[vendor] = sess
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
