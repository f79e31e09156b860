package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Store runs ledger operations as indivisible transactions.
// Update commits only if fn returns nil; any error rolls back every write
// made through the Tx, including token movements.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view of ledger state and token custody.
// Lookups return (nil, nil) when the record does not exist.
type Tx interface {
	Entities
	Custody
}

// Entities reads and writes the four ledger records, addressed by their derived identity.
type Entities interface {
	GetCollection(ctx context.Context, addr solana.PublicKey) (*Collection, error)
	InsertCollection(ctx context.Context, c *Collection) error

	// AddCollected increments lifetime_tokens_collected only if the result
	// stays within max_collectable_tokens. Fails with KindCapacityExceeded otherwise.
	AddCollected(ctx context.Context, addr solana.PublicKey, amount uint64) error

	GetCollectionUserState(ctx context.Context, addr solana.PublicKey) (*CollectionUserState, error)
	// AddDeposited increments a depositor's deposited_amount, creating the record on first use.
	AddDeposited(ctx context.Context, st *CollectionUserState, amount uint64) error
	// SumDeposited scans every depositor of a collection. Used only by audits.
	SumDeposited(ctx context.Context, collection solana.PublicKey) (uint64, error)

	GetDistribution(ctx context.Context, addr solana.PublicKey) (*Distribution, error)
	InsertDistribution(ctx context.Context, d *Distribution) error
	// ListDistributions returns the distributions whose collection field matches, oldest first.
	ListDistributions(ctx context.Context, collection solana.PublicKey) ([]*Distribution, error)
	AddDistributionDeposit(ctx context.Context, addr solana.PublicKey, amount uint64) error
	// AddDistributed increments distributed_tokens only while it stays within
	// lifetime_deposited_tokens. Fails with KindVaultUnderfunded otherwise.
	AddDistributed(ctx context.Context, addr solana.PublicKey, amount uint64) error

	GetDistributionUserState(ctx context.Context, addr solana.PublicKey) (*DistributionUserState, error)
	// AddReceived increments a depositor's received_amount, creating the record on first use.
	AddReceived(ctx context.Context, st *DistributionUserState, amount uint64) error
}

// Custody is the token primitive: mints, accounts and atomic balance moves.
// Every method fails with a structured *Error when a precondition fails.
type Custody interface {
	// CreateMint registers a new token type. Fails with KindAlreadyExists if taken.
	CreateMint(ctx context.Context, mint, authority solana.PublicKey, decimals uint8) (*Mint, error)
	GetMint(ctx context.Context, mint solana.PublicKey) (*Mint, error)

	// EnsureAccount returns owner's associated account for mint, creating it empty if needed.
	EnsureAccount(ctx context.Context, owner, mint solana.PublicKey) (*TokenAccount, error)
	GetAccount(ctx context.Context, account solana.PublicKey) (*TokenAccount, error)
	// Balance returns the amount held by account. Fails with KindNotFound if absent.
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// Transfer moves amount between two accounts of the same mint. signer must own from.
	// A zero amount is a no-op after validation.
	Transfer(ctx context.Context, from, to, signer solana.PublicKey, amount uint64) error
	// MintTo increases supply and credits to. signer must be the mint authority.
	MintTo(ctx context.Context, mint, to, signer solana.PublicKey, amount uint64) error
	// Burn debits from and decreases supply. signer must own from.
	Burn(ctx context.Context, mint, from, signer solana.PublicKey, amount uint64) error
}

// Journal records CLI operations that mutate the ledger.
type Journal interface {
	CreateOperation(ctx context.Context, name, parameters string) (*Operation, error)
	FinishOperation(ctx context.Context, id int64, status string) error
	// ListOperations returns the most recent operations, newest first.
	ListOperations(ctx context.Context, limit int) ([]*Operation, error)
	// MaxOperationID returns 0 for an empty journal.
	MaxOperationID(ctx context.Context) (int64, error)
}

// Database is the full persistence surface used by the application layer.
type Database interface {
	Store
	Journal

	// CheckMigrations verifies the schema is at the latest version.
	CheckMigrations() error
	// BackupTo writes a consistent copy of the database to destPath.
	BackupTo(destPath string) error
	Close() error
}
