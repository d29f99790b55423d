package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"
)

//nolint:gochecknoglobals
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT    NOT NULL UNIQUE,
		email         TEXT    NOT NULL UNIQUE COLLATE NOCASE,
		password_hash BLOB    NOT NULL,
		created_at    TEXT    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS types (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT    NOT NULL UNIQUE,
		created_by INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT ON UPDATE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS creatures (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		name          TEXT    NOT NULL UNIQUE,
		description   TEXT    NOT NULL DEFAULT '',
		type_id       INTEGER NOT NULL REFERENCES types(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		image         TEXT,
		health_score  INTEGER NOT NULL DEFAULT 0,
		defense_score INTEGER NOT NULL DEFAULT 0,
		attack_score  INTEGER NOT NULL DEFAULT 0,
		heads         INTEGER,
		created_at    TEXT    NOT NULL,
		created_by    INTEGER NOT NULL REFERENCES users(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		is_hybrid     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS combats (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		result     TEXT    NOT NULL,
		creature_1 INTEGER NOT NULL REFERENCES creatures(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		creature_2 INTEGER NOT NULL REFERENCES creatures(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		created_at TEXT    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hybrids (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		creature_id INTEGER NOT NULL UNIQUE REFERENCES creatures(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		parent_1    INTEGER NOT NULL REFERENCES creatures(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		parent_2    INTEGER NOT NULL REFERENCES creatures(id) ON DELETE RESTRICT ON UPDATE CASCADE,
		created_at  TEXT    NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_creatures_type ON creatures(type_id)`,
	`CREATE INDEX IF NOT EXISTS idx_creatures_created ON creatures(created_at, id)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}
