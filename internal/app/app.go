package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"multidist/internal/address"
	"multidist/internal/archive"
	"multidist/internal/config"
	"multidist/internal/database"
	"multidist/internal/encryption"
	"multidist/internal/ledger"
	"multidist/internal/metrics"
)

// Options tune how an app is built. The zero value is the CLI default.
type Options struct {
	Verbose bool            // log debug records to stderr
	Stderr  io.Writer       // defaults to os.Stderr
	Clock   clockwork.Clock // defaults to the real clock
}

// MultidistApp is the application layer between the CLI and ledger.Service.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw base58 addresses, journals mutating commands, and
// snapshots the ledger database to the archive on Close.
type MultidistApp struct {
	cfg       *config.Config
	db        ledger.Database
	archive   archive.Archive
	encryptor encryption.Encryptor
	service   *ledger.Service
	metrics   *metrics.Collector
	registry  *prometheus.Registry
	logger    *slog.Logger
	op        *Operation
	logFile   *os.File
}

// NewMultidistApp creates a fully wired app from the given config.
// operation identifies the CLI command being run (e.g. "commit", "claim").
// The caller must call Close when done.
func NewMultidistApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*MultidistApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	programID, err := cfg.Program()
	if err != nil {
		return nil, err
	}

	if len(cfg.Archives) == 0 {
		return nil, fmt.Errorf("no archives configured")
	}
	arc, err := archive.NewArchiveFromConfig(ctx, cfg.Archives[0])
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.LedgerID, opts.Clock)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run `multidist db migrate`): %w", err)
	}

	// A snapshot taken after an operation this database never saw means
	// another host has moved the ledger on.
	remoteVersion, err := arc.Version(ctx, cfg.LedgerID, archive.SnapshotItem)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking archived snapshot version: %w", err)
	}
	localMax, err := db.MaxOperationID(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("checking local journal: %w", err)
	}
	if remoteVersion > localMax {
		db.Close()
		return nil, fmt.Errorf("local ledger is behind the archive (local=%d, archive=%d): run `multidist snapshot restore`", localMax, remoteVersion)
	}

	opID := opts.Clock.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, opts.Stderr, opts.Verbose)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	svc := ledger.NewService(db, address.NewDeriver(programID), &slogAdapter{l: logger}, opts.Clock, collector)

	return &MultidistApp{
		cfg:       cfg,
		db:        db,
		archive:   arc,
		encryptor: enc,
		service:   svc,
		metrics:   collector,
		registry:  registry,
		logger:    logger,
		op:        NewOperation(operation, ""),
		logFile:   logFile,
	}, nil
}

// Service returns the ledger service, for the read API.
func (a *MultidistApp) Service() *ledger.Service { return a.service }

// Metrics returns the collector the service records into.
func (a *MultidistApp) Metrics() *metrics.Collector { return a.metrics }

// Gatherer returns the registry holding the app's metrics.
func (a *MultidistApp) Gatherer() prometheus.Gatherer { return a.registry }

// Logger returns the app logger.
func (a *MultidistApp) Logger() *slog.Logger { return a.logger }

// Operation returns the operation this app was created for.
func (a *MultidistApp) Operation() *Operation { return a.op }

// persistOperation saves the operation to the journal, giving it an ID.
// This should only be called for ledger-mutating commands.
func (a *MultidistApp) persistOperation(ctx context.Context, params string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = params
	rec, err := a.db.CreateOperation(ctx, a.op.Name, params)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = rec.ID
	return nil
}

// mutate journals the operation, runs fn and records its outcome.
func (a *MultidistApp) mutate(ctx context.Context, params []string, fn func() error) error {
	if err := a.persistOperation(ctx, strings.Join(params, " ")); err != nil {
		return err
	}
	err := fn()
	a.op.Fail(err)
	return err
}

// parseAddresses decodes name/value pairs in order, stopping at the first error.
func parseAddresses(pairs ...[2]string) ([]solana.PublicKey, error) {
	keys := make([]solana.PublicKey, len(pairs))
	for i, p := range pairs {
		pk, err := ledger.ParseAddress(p[0], p[1])
		if err != nil {
			return nil, err
		}
		keys[i] = pk
	}
	return keys, nil
}

func param(name string, v any) string {
	return fmt.Sprintf("%s=%v", name, v)
}

// Close finalizes the operation and closes all resources.
// For persisted operations: finishes the journal record, snapshots the
// database and uploads it to the archive. Other operations just close.
func (a *MultidistApp) Close() error {
	ctx := context.Background()
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.op.Persisted() {
		if err := a.db.FinishOperation(ctx, a.op.ID, a.op.Status); err != nil {
			keep(fmt.Errorf("finishing operation: %w", err))
		}

		snapshot, err := a.snapshot()
		keep(err)
		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}
		if snapshot != "" {
			keep(a.upload(ctx, snapshot, a.op.ID))
			os.Remove(snapshot)
		}
	} else {
		if err := a.db.Close(); err != nil {
			keep(fmt.Errorf("closing database: %w", err))
		}
	}

	if firstErr != nil {
		a.logger.Error("closing app", "operation", a.op.Name, "error", firstErr)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

// snapshot writes a consistent copy of the database to a temp file and
// returns its path.
func (a *MultidistApp) snapshot() (string, error) {
	tmp, err := os.CreateTemp("", "multidist-snapshot-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp file for snapshot: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to overwrite an existing file.
	os.Remove(path)

	if err := a.db.BackupTo(path); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("snapshotting database: %w", err)
	}
	return path, nil
}

// upload encrypts the snapshot at path and stores it in the archive.
func (a *MultidistApp) upload(ctx context.Context, path string, version int64) error {
	plain, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer plain.Close()

	sealed, err := os.CreateTemp("", "multidist-snapshot-*.enc")
	if err != nil {
		return fmt.Errorf("creating temp file for encrypted snapshot: %w", err)
	}
	defer os.Remove(sealed.Name())
	defer sealed.Close()

	if err := a.encryptor.Encrypt(plain, sealed); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	size, err := sealed.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("sizing encrypted snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding encrypted snapshot: %w", err)
	}

	if err := a.archive.Put(ctx, a.cfg.LedgerID, archive.SnapshotItem, sealed, size, version); err != nil {
		return fmt.Errorf("uploading snapshot to archive %s: %w", a.archive.Name(), err)
	}
	a.logger.Debug("snapshot archived", "archive", a.archive.Name(), "version", version, "bytes", size)
	return nil
}
