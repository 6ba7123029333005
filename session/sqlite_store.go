package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Keys in the local_storage table
const (
	TokenKey     = "token"
	ExpiresAtKey = "token_expires_at"
)

// schema creates the key/value table that plays the role of browser local storage
const schema = `CREATE TABLE IF NOT EXISTS local_storage (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
)`

type storageRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// SQLiteStore persists the session under fixed keys in a SQLite database
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a store and makes sure the schema exists
func NewSQLiteStore(db *sqlx.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create local_storage: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the token and its optional expiry
func (s *SQLiteStore) Load(ctx context.Context) (*Session, error) {
	query, args, err := sqlx.In("SELECT key, value FROM local_storage WHERE key IN (?)", []string{TokenKey, ExpiresAtKey})
	if err != nil {
		return nil, err
	}

	var rows []storageRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	sess := &Session{}
	for _, row := range rows {
		switch row.Key {
		case TokenKey:
			sess.Token = row.Value
		case ExpiresAtKey:
			expiresAt, err := time.Parse(time.RFC3339, row.Value)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", ExpiresAtKey, err)
			}
			sess.ExpiresAt = expiresAt
		}
	}
	if sess.Token == "" {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Save replaces the stored session
func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	upsert := `INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := tx.ExecContext(ctx, upsert, TokenKey, sess.Token, now); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if sess.ExpiresAt.IsZero() {
		if _, err := tx.ExecContext(ctx, "DELETE FROM local_storage WHERE key = ?", ExpiresAtKey); err != nil {
			return fmt.Errorf("clear expiry: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, upsert, ExpiresAtKey, sess.ExpiresAt.UTC().Format(time.RFC3339), now); err != nil {
			return fmt.Errorf("store expiry: %w", err)
		}
	}
	return tx.Commit()
}

// Clear removes the token and its expiry
func (s *SQLiteStore) Clear(ctx context.Context) error {
	query, args, err := sqlx.In("DELETE FROM local_storage WHERE key IN (?)", []string{TokenKey, ExpiresAtKey})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	return err
}
