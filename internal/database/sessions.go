package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SessionRecord represents a login session stored in the database.
type SessionRecord struct {
	ID        string
	DriverID  int64
	Visits    int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateSession inserts a new session record.
func (db *DB) CreateSession(ctx context.Context, id string, driverID int64, expiresAt time.Time) (*SessionRecord, error) {
	now := time.Now()
	_, err := db.exec(ctx, `
		INSERT INTO sessions (id, driver_id, visits, expires_at, created_at)
		VALUES (?, ?, 0, ?, ?)
	`, id, driverID, expiresAt.UTC(), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SessionRecord{
		ID:        id,
		DriverID:  driverID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID.
func (db *DB) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	session := &SessionRecord{}
	err := db.queryRow(ctx, `
		SELECT id, driver_id, visits, expires_at, created_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.DriverID, &session.Visits, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session by ID.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	_, err := db.exec(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ExtendSession updates a session's expiration time.
func (db *DB) ExtendSession(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := db.exec(ctx, "UPDATE sessions SET expires_at = ? WHERE id = ?", expiresAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	return nil
}

// IncrementSessionVisits bumps the session's visit counter and returns the new value.
func (db *DB) IncrementSessionVisits(ctx context.Context, id string) (int, error) {
	var visits int
	err := db.queryRow(ctx, `
		UPDATE sessions SET visits = visits + 1 WHERE id = ? RETURNING visits
	`, id).Scan(&visits)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to record visit: %w", err)
	}
	return visits, nil
}

// DeleteExpiredSessions removes sessions that expired before now.
// Expiry times are stored in UTC so the text comparison is chronological.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.exec(ctx, "DELETE FROM sessions WHERE expires_at < ?", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
