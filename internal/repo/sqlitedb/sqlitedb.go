// Package sqlitedb owns the single SQLite database shared by all stores.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/clock"
	"github.com/mkrupp/bestiary/internal/infra/logging"
)

// Config holds configuration for the SQLite database.
type Config struct {
	// Path is the filesystem path to the SQLite database file
	Path string `env:"PATH" default:"var/storage/bestiary.db"`

	// BusyTimeout is how long a connection waits on a locked database
	BusyTimeout time.Duration `env:"BUSY_TIMEOUT" default:"5s"`
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the database handle. Writes are serialised through a mutex because
// SQLite allows a single writer at a time.
type DB struct {
	db        *sql.DB
	log       logging.Logger
	clock     clock.Clock
	writeLock *sync.Mutex
}

// Open opens (creating if needed) the database at cfg.Path, enables foreign
// keys and applies the schema.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	log := logging.GetLogger("repo.sqlitedb").With(
		logging.Group("db", "path", cfg.Path),
	)

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("ping db: %w", err), db.Close())
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	if err := migrate(ctx, db); err != nil {
		return nil, errors.Join(fmt.Errorf("migrate db: %w", err), db.Close())
	}

	log.DebugContext(ctx, "database ready")

	return &DB{
		db:        db,
		log:       log,
		clock:     clock.New(),
		writeLock: new(sync.Mutex),
	}, nil
}

// WithClock replaces the clock used for created_at timestamps.
func (d *DB) WithClock(c clock.Clock) *DB {
	d.clock = c

	return d
}

// Now returns the current timestamp in storage format.
func (d *DB) Now() string {
	return domain.FormatTime(d.clock.Now())
}

// Reader returns the handle for read-only queries.
func (d *DB) Reader() Querier {
	return d.db
}

// Write runs fn while holding the write lock.
func (d *DB) Write(ctx context.Context, fn func(q Querier) error) error {
	d.writeLock.Lock()
	defer d.writeLock.Unlock()

	return fn(d.db)
}

// Tx runs fn inside a transaction while holding the write lock. The
// transaction is committed when fn returns nil and rolled back otherwise.
func (d *DB) Tx(ctx context.Context, fn func(q Querier) error) (err error) {
	d.writeLock.Lock()
	defer d.writeLock.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				d.log.ErrorContext(ctx, "rollback failed", "error", rbErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Close closes the database.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// ConstraintCode returns the extended SQLite result code of a constraint
// violation, or 0 when err is not one.
func ConstraintCode(err error) int {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return 0
	}

	switch code := liteErr.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE,
		sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
		sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
		sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return code
	default:
		return 0
	}
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY violation.
func IsUniqueViolation(err error) bool {
	code := ConstraintCode(err)

	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// IsForeignKeyViolation reports whether err is a FOREIGN KEY violation.
func IsForeignKeyViolation(err error) bool {
	return ConstraintCode(err) == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// NullInt converts an optional int for a nullable column.
func NullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// IntPtr converts a nullable column back into an optional int.
func IntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}

	i := int(v.Int64)

	return &i
}
