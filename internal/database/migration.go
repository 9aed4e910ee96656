package database

import (
	"context"
	"fmt"
)

// The users table is the whole token store. No schema versioning.
const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	token      TEXT PRIMARY KEY,
	session_id TEXT NOT NULL DEFAULT '0',
	authorized BOOLEAN NOT NULL DEFAULT FALSE,
	model      TEXT NOT NULL
)`

const createSessionIndex = `CREATE INDEX IF NOT EXISTS idx_users_session_id ON users (session_id)`

func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range []string{createUsersTable, createSessionIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
