// Package archive stores ledger database snapshots away from the machine
// running the ledger. Each ledger has named items (currently only "db"),
// and each item carries the version it was taken at so a stale local
// database can be detected before it is written to.
package archive

import (
	"context"
	"errors"
	"io"
)

// SnapshotItem is the name under which database snapshots are stored.
const SnapshotItem = "db"

// ErrNotFound is returned by Get when nothing has been stored under the name.
var ErrNotFound = errors.New("archive item not found")

// Archive is a snapshot storage backend.
// All operations stream through io.Reader/io.Writer.
type Archive interface {
	// Name returns the configured archive name.
	Name() string

	// Put stores an item for a ledger, replacing any previous one.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, ledgerID, name string, r io.Reader, size int64, version int64) error

	// Get writes the item to w. Returns ErrNotFound if absent.
	Get(ctx context.Context, ledgerID, name string, w io.Writer) error

	// Version returns the version of the stored item, or 0 if none is stored.
	Version(ctx context.Context, ledgerID, name string) (int64, error)

	// ValidateSetup verifies that the archive is reachable and writable.
	ValidateSetup(ctx context.Context) error
}
