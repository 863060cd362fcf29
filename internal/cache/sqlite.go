package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"openlift/tracking-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	author_id   TEXT NOT NULL,
	ended_at    TEXT,
	created_at  TEXT NOT NULL,
	modified_at TEXT NOT NULL,
	payload     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_author ON sessions(author_id, created_at DESC);
`

// sqliteSessionCache implements SessionCache on an embedded sqlite database.
// The session tree is stored as one JSON blob per row; the flattened layout
// only matters for the remote store, where children are queried on their own.
type sqliteSessionCache struct {
	db *sql.DB
}

// NewSQLiteSessionCache opens (or creates) the cache database at path.
// Use ":memory:" for an ephemeral cache.
func NewSQLiteSessionCache(path string) (SessionCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session cache: %w", err)
	}
	// A single writer keeps "synchronous CRUD" semantics simple.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session cache schema: %w", err)
	}
	return &sqliteSessionCache{db: db}, nil
}

// Put upserts the whole session tree.
func (c *sqliteSessionCache) Put(ctx context.Context, session *domain.WorkoutSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.ID.Hex(), err)
	}

	var endedAt sql.NullString
	if session.EndedAt != nil {
		endedAt = sql.NullString{String: session.EndedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"), Valid: true}
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO sessions (id, author_id, ended_at, created_at, modified_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ended_at    = excluded.ended_at,
			modified_at = excluded.modified_at,
			payload     = excluded.payload`,
		session.ID.Hex(),
		session.AuthorID.Hex(),
		endedAt,
		session.DateCreated.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		session.DateModified.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		payload,
	)
	if err != nil {
		return fmt.Errorf("caching session %s: %w", session.ID.Hex(), err)
	}
	return nil
}

// Get returns the cached tree, or ErrNotFound.
func (c *sqliteSessionCache) Get(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM sessions WHERE id = ?`, id.Hex()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached session %s: %w", id.Hex(), err)
	}

	var session domain.WorkoutSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decoding cached session %s: %w", id.Hex(), err)
	}
	return &session, nil
}

// Delete removes a cached session. Deleting an absent id is not an error.
func (c *sqliteSessionCache) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.Hex()); err != nil {
		return fmt.Errorf("deleting cached session %s: %w", id.Hex(), err)
	}
	return nil
}

// GetByAuthor returns all cached sessions for a user, newest first by
// creation date, the same order the remote listing uses.
func (c *sqliteSessionCache) GetByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.WorkoutSession, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT payload FROM sessions WHERE author_id = ? ORDER BY created_at DESC`,
		authorID.Hex())
	if err != nil {
		return nil, fmt.Errorf("querying cached sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.WorkoutSession
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning cached session: %w", err)
		}
		var session domain.WorkoutSession
		if err := json.Unmarshal(payload, &session); err != nil {
			return nil, fmt.Errorf("decoding cached session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Close closes the underlying database.
func (c *sqliteSessionCache) Close() error {
	return c.db.Close()
}
