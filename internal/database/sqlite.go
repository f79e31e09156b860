package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mattn/go-sqlite3"

	"multidist/internal/database/migrations"
	"multidist/internal/database/sqlc"
	"multidist/internal/ledger"
)

// SQLiteDatabase implements ledger.Database using SQLite.
// Ledger records and token custody live in the same database, so one
// ledger operation is one SQLite transaction.
type SQLiteDatabase struct {
	db      *sql.DB
	queries *sqlc.Queries
	clock   clockwork.Clock
}

// NewSQLiteDatabase creates a new SQLite database connection.
// path can be a file path or ":memory:" for in-memory database.
// A nil clock uses the real clock.
func NewSQLiteDatabase(path string, clock clockwork.Clock) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return NewSQLiteDatabaseFromDB(db, clock), nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock clockwork.Clock) *SQLiteDatabase {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SQLiteDatabase{
		db:      db,
		queries: sqlc.New(db),
		clock:   clock,
	}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
//
// The pool is limited to a single connection: SQLite allows one writer at a
// time anyway, and an in-memory database exists only on the connection that
// created it.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := path + "?_busy_timeout=5000&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Update runs fn in a write transaction. The transaction commits only if fn returns nil.
func (s *SQLiteDatabase) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&sqliteTx{q: s.queries.WithTx(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// View runs fn in a deferred transaction that is always rolled back.
// The DSN makes BeginTx issue BEGIN IMMEDIATE, which would take the write
// lock, so View opens its own transaction on a pinned connection and only
// holds a shared lock while fn reads.
// Must not be called from inside Update: the pool has a single connection.
func (s *SQLiteDatabase) View(ctx context.Context, fn func(tx ledger.Tx) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN DEFERRED"); err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer conn.ExecContext(context.Background(), "ROLLBACK")

	return fn(&sqliteTx{q: sqlc.New(conn)})
}

// Operation journal

func (s *SQLiteDatabase) CreateOperation(ctx context.Context, name, parameters string) (*ledger.Operation, error) {
	op, err := s.queries.InsertOperation(ctx, sqlc.InsertOperationParams{
		StartedAt:  s.clock.Now().UTC(),
		Operation:  name,
		Parameters: parameters,
	})
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return operationFromRow(op), nil
}

func (s *SQLiteDatabase) FinishOperation(ctx context.Context, id int64, status string) error {
	err := s.queries.UpdateOperationFinished(ctx, sqlc.UpdateOperationFinishedParams{
		FinishedAt: sql.NullTime{Time: s.clock.Now().UTC(), Valid: true},
		Status:     status,
		ID:         id,
	})
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) ListOperations(ctx context.Context, limit int) ([]*ledger.Operation, error) {
	ops, err := s.queries.GetOperations(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}

	result := make([]*ledger.Operation, len(ops))
	for i := range ops {
		result[i] = operationFromRow(ops[i])
	}
	return result, nil
}

func (s *SQLiteDatabase) MaxOperationID(ctx context.Context) (int64, error) {
	id, err := s.queries.GetMaxOperationID(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting max operation ID: %w", err)
	}
	return id, nil
}

func operationFromRow(row sqlc.Operation) *ledger.Operation {
	op := &ledger.Operation{
		ID:         row.ID,
		Name:       row.Operation,
		Parameters: row.Parameters,
		Status:     row.Status,
		StartedAt:  row.StartedAt,
	}
	if row.FinishedAt.Valid {
		t := row.FinishedAt.Time
		op.FinishedAt = &t
	}
	return op
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// isUniqueViolation reports whether err is a primary key or unique constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Compile-time check that SQLiteDatabase implements ledger.Database interface
var _ ledger.Database = (*SQLiteDatabase)(nil)
