package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileSystemArchive stores items as files:
//
//	<root>/
//	  <ledgerID>/
//	    db            (latest snapshot)
//	    db.version    (operation id the snapshot was taken after)
type FileSystemArchive struct {
	name string
	root string
}

// NewFileSystemArchive creates a filesystem archive rooted at the given path.
func NewFileSystemArchive(name, root string) (*FileSystemArchive, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}
	return &FileSystemArchive{name: name, root: root}, nil
}

func (a *FileSystemArchive) Name() string { return a.name }

func (a *FileSystemArchive) itemPath(ledgerID, name string) string {
	return filepath.Join(a.root, ledgerID, name)
}

// Put writes the item and then its version file. A crash between the two
// leaves a newer item with an older version, which Version callers treat
// as not ahead.
func (a *FileSystemArchive) Put(_ context.Context, ledgerID, name string, r io.Reader, size int64, version int64) error {
	destPath := a.itemPath(ledgerID, name)
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	if err := writeFileAtomic(destPath, r, size); err != nil {
		return err
	}

	versionData := strings.NewReader(strconv.FormatInt(version, 10))
	return writeFileAtomic(destPath+".version", versionData, versionData.Size())
}

func (a *FileSystemArchive) Get(_ context.Context, ledgerID, name string, w io.Writer) error {
	f, err := os.Open(a.itemPath(ledgerID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s for ledger %s: %w", name, ledgerID, ErrNotFound)
		}
		return fmt.Errorf("failed to open item: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read item: %w", err)
	}
	return nil
}

func (a *FileSystemArchive) Version(_ context.Context, ledgerID, name string) (int64, error) {
	data, err := os.ReadFile(a.itemPath(ledgerID, name) + ".version")
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup checks that the root is a writable directory.
func (a *FileSystemArchive) ValidateSetup(context.Context) error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("archive root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("archive root is not a directory: %s", a.root)
	}

	probe, err := os.CreateTemp(a.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("archive root not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

// writeFileAtomic writes r to destPath via a temp file in the same directory and a rename.
func writeFileAtomic(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ Archive = (*FileSystemArchive)(nil)
