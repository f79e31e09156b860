package testutil

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"multidist/internal/address"
	"multidist/internal/database"
	"multidist/internal/ledger"
)

// Ledger bundles a service with the store and clock behind it.
type Ledger struct {
	*ledger.Service
	DB    *database.SQLiteDatabase
	Clock *clockwork.FakeClock
}

// NewTestLedger creates a service over a fresh in-memory database, deriving
// addresses under the default program id.
func NewTestLedger(t *testing.T) *Ledger {
	t.Helper()
	clock := FixedClock()
	db := NewTestDatabase(t, clock)
	svc := ledger.NewService(db, address.NewDeriver(address.DefaultProgramID), ledger.NewNopLogger(), clock, nil)
	return &Ledger{Service: svc, DB: db, Clock: clock}
}

// NewKey returns a fresh random identity.
func NewKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// NewMint creates a mint with 6 decimals owned by authority.
func (l *Ledger) NewMint(t *testing.T, authority solana.PublicKey) solana.PublicKey {
	t.Helper()
	m, err := l.CreateMint(context.Background(), authority, 6)
	if err != nil {
		t.Fatalf("CreateMint() error = %v", err)
	}
	return m.Address
}

// Fund mints amount of mint to owner. authority must be the mint authority.
func (l *Ledger) Fund(t *testing.T, mint, authority, owner solana.PublicKey, amount uint64) {
	t.Helper()
	if _, err := l.MintTokens(context.Background(), authority, mint, owner, amount); err != nil {
		t.Fatalf("MintTokens() error = %v", err)
	}
}

// Balance returns owner's balance of mint, zero when the account is missing.
func (l *Ledger) Balance(t *testing.T, owner, mint solana.PublicKey) uint64 {
	t.Helper()
	bal, err := l.TokenBalance(context.Background(), owner, mint)
	if err != nil {
		t.Fatalf("TokenBalance() error = %v", err)
	}
	return bal
}
