package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

type memoryItem struct {
	data    []byte
	version int64
}

// MemoryArchive keeps items in memory. Useful for tests.
// This implementation is safe for concurrent use.
type MemoryArchive struct {
	name  string
	items map[string]memoryItem // "ledgerID/name" -> item
	mu    sync.RWMutex
}

// NewMemoryArchive creates an empty in-memory archive with the given name.
func NewMemoryArchive(name string) *MemoryArchive {
	return &MemoryArchive{
		name:  name,
		items: make(map[string]memoryItem),
	}
}

func itemKey(ledgerID, name string) string {
	return ledgerID + "/" + name
}

func (m *MemoryArchive) Name() string { return m.name }

func (m *MemoryArchive) Put(_ context.Context, ledgerID, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read item: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[itemKey(ledgerID, name)] = memoryItem{data: data, version: version}
	return nil
}

func (m *MemoryArchive) Get(_ context.Context, ledgerID, name string, w io.Writer) error {
	m.mu.RLock()
	item, ok := m.items[itemKey(ledgerID, name)]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%s for ledger %s: %w", name, ledgerID, ErrNotFound)
	}
	if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
		return fmt.Errorf("failed to write item: %w", err)
	}
	return nil
}

func (m *MemoryArchive) Version(_ context.Context, ledgerID, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.items[itemKey(ledgerID, name)].version, nil
}

func (m *MemoryArchive) ValidateSetup(context.Context) error {
	return nil
}

var _ Archive = (*MemoryArchive)(nil)
