package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"multidist/internal/database/sqlc"
	"multidist/internal/ledger"
)

// sqliteTx implements ledger.Tx over one SQLite transaction.
type sqliteTx struct {
	q *sqlc.Queries
}

// amount converts a ledger amount to its INTEGER column representation.
func amount(v uint64) (int64, error) {
	if v > ledger.MaxAmount {
		return 0, ledger.Errorf(ledger.KindOverflow, "", "amount %d exceeds %d", v, ledger.MaxAmount)
	}
	return int64(v), nil
}

// keyParser decodes stored base58 addresses, keeping the first failure.
type keyParser struct {
	err error
}

func (p *keyParser) parse(s string) solana.PublicKey {
	if p.err != nil {
		return solana.PublicKey{}
	}
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		p.err = fmt.Errorf("corrupt address %q: %w", s, err)
	}
	return pk
}

// Collections

func (t *sqliteTx) GetCollection(ctx context.Context, addr solana.PublicKey) (*ledger.Collection, error) {
	row, err := t.q.GetCollection(ctx, addr.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding collection: %w", err)
	}

	var p keyParser
	c := &ledger.Collection{
		Address:                 p.parse(row.Address),
		Authority:               p.parse(row.Authority),
		BaseMint:                p.parse(row.BaseMint),
		Vault:                   p.parse(row.Vault),
		ReceiptMint:             p.parse(row.ReceiptMint),
		BurnOnCommit:            row.BurnOnCommit,
		MaxCollectableTokens:    uint64(row.MaxCollectableTokens),
		LifetimeTokensCollected: uint64(row.LifetimeTokensCollected),
		Counter:                 uint64(row.Counter),
		Bump:                    uint8(row.Bump),
		CreatedAt:               row.CreatedAt,
	}
	if p.err != nil {
		return nil, p.err
	}
	return c, nil
}

func (t *sqliteTx) InsertCollection(ctx context.Context, c *ledger.Collection) error {
	maxTokens, err := amount(c.MaxCollectableTokens)
	if err != nil {
		return err
	}
	err = t.q.InsertCollection(ctx, sqlc.InsertCollectionParams{
		Address:              c.Address.String(),
		Authority:            c.Authority.String(),
		BaseMint:             c.BaseMint.String(),
		Vault:                c.Vault.String(),
		ReceiptMint:          c.ReceiptMint.String(),
		BurnOnCommit:         c.BurnOnCommit,
		MaxCollectableTokens: maxTokens,
		Counter:              int64(c.Counter), // stored bit for bit; read back with uint64()
		Bump:                 int64(c.Bump),
		CreatedAt:            c.CreatedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Errorf(ledger.KindAlreadyExists, "", "collection %s already exists", c.Address)
		}
		return fmt.Errorf("inserting collection: %w", err)
	}
	return nil
}

func (t *sqliteTx) AddCollected(ctx context.Context, addr solana.PublicKey, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	rows, err := t.q.AddCollected(ctx, sqlc.AddCollectedParams{Amount: n, Address: addr.String()})
	if err != nil {
		return fmt.Errorf("adding collected tokens: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindCapacityExceeded, "", "adding %d to collection %s exceeds its cap", v, addr)
	}
	return nil
}

func (t *sqliteTx) GetCollectionUserState(ctx context.Context, addr solana.PublicKey) (*ledger.CollectionUserState, error) {
	row, err := t.q.GetCollectionUserState(ctx, addr.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding collection user state: %w", err)
	}

	var p keyParser
	st := &ledger.CollectionUserState{
		Address:         p.parse(row.Address),
		Collection:      p.parse(row.Collection),
		Owner:           p.parse(row.Owner),
		DepositedAmount: uint64(row.DepositedAmount),
	}
	if p.err != nil {
		return nil, p.err
	}
	return st, nil
}

func (t *sqliteTx) AddDeposited(ctx context.Context, st *ledger.CollectionUserState, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	rows, err := t.q.AddDeposited(ctx, sqlc.AddDepositedParams{
		Address:         st.Address.String(),
		Collection:      st.Collection.String(),
		Owner:           st.Owner.String(),
		DepositedAmount: n,
	})
	if err != nil {
		return fmt.Errorf("adding deposit: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindOverflow, "", "deposit of %s overflows", st.Owner)
	}
	return nil
}

func (t *sqliteTx) SumDeposited(ctx context.Context, collection solana.PublicKey) (uint64, error) {
	total, err := t.q.SumDeposited(ctx, collection.String())
	if err != nil {
		return 0, fmt.Errorf("summing deposits: %w", err)
	}
	return uint64(total), nil
}

// Distributions

func distributionFromRow(row sqlc.Distribution) (*ledger.Distribution, error) {
	var p keyParser
	d := &ledger.Distribution{
		Address:                 p.parse(row.Address),
		Collection:              p.parse(row.Collection),
		RewardMint:              p.parse(row.RewardMint),
		Vault:                   p.parse(row.Vault),
		LifetimeDepositedTokens: uint64(row.LifetimeDepositedTokens),
		DistributedTokens:       uint64(row.DistributedTokens),
		Bump:                    uint8(row.Bump),
		CreatedAt:               row.CreatedAt,
	}
	if p.err != nil {
		return nil, p.err
	}
	return d, nil
}

func (t *sqliteTx) GetDistribution(ctx context.Context, addr solana.PublicKey) (*ledger.Distribution, error) {
	row, err := t.q.GetDistribution(ctx, addr.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding distribution: %w", err)
	}
	return distributionFromRow(row)
}

func (t *sqliteTx) InsertDistribution(ctx context.Context, d *ledger.Distribution) error {
	err := t.q.InsertDistribution(ctx, sqlc.InsertDistributionParams{
		Address:    d.Address.String(),
		Collection: d.Collection.String(),
		RewardMint: d.RewardMint.String(),
		Vault:      d.Vault.String(),
		Bump:       int64(d.Bump),
		CreatedAt:  d.CreatedAt,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ledger.Errorf(ledger.KindAlreadyExists, "", "distribution of %s for collection %s already exists", d.RewardMint, d.Collection)
		}
		return fmt.Errorf("inserting distribution: %w", err)
	}
	return nil
}

func (t *sqliteTx) ListDistributions(ctx context.Context, collection solana.PublicKey) ([]*ledger.Distribution, error) {
	rows, err := t.q.ListDistributionsByCollection(ctx, collection.String())
	if err != nil {
		return nil, fmt.Errorf("listing distributions: %w", err)
	}

	result := make([]*ledger.Distribution, 0, len(rows))
	for _, row := range rows {
		d, err := distributionFromRow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

func (t *sqliteTx) AddDistributionDeposit(ctx context.Context, addr solana.PublicKey, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	rows, err := t.q.AddDistributionDeposit(ctx, sqlc.AddDistributionDepositParams{Amount: n, Address: addr.String()})
	if err != nil {
		return fmt.Errorf("adding distribution deposit: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindOverflow, "", "lifetime deposits of distribution %s overflow", addr)
	}
	return nil
}

func (t *sqliteTx) AddDistributed(ctx context.Context, addr solana.PublicKey, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	rows, err := t.q.AddDistributed(ctx, sqlc.AddDistributedParams{Amount: n, Address: addr.String()})
	if err != nil {
		return fmt.Errorf("adding distributed tokens: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindVaultUnderfunded, "", "paying %d from distribution %s exceeds its lifetime deposits", v, addr)
	}
	return nil
}

func (t *sqliteTx) GetDistributionUserState(ctx context.Context, addr solana.PublicKey) (*ledger.DistributionUserState, error) {
	row, err := t.q.GetDistributionUserState(ctx, addr.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding distribution user state: %w", err)
	}

	var p keyParser
	st := &ledger.DistributionUserState{
		Address:        p.parse(row.Address),
		Distribution:   p.parse(row.Distribution),
		Owner:          p.parse(row.Owner),
		ReceivedAmount: uint64(row.ReceivedAmount),
	}
	if p.err != nil {
		return nil, p.err
	}
	return st, nil
}

func (t *sqliteTx) AddReceived(ctx context.Context, st *ledger.DistributionUserState, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	rows, err := t.q.AddReceived(ctx, sqlc.AddReceivedParams{
		Address:        st.Address.String(),
		Distribution:   st.Distribution.String(),
		Owner:          st.Owner.String(),
		ReceivedAmount: n,
	})
	if err != nil {
		return fmt.Errorf("adding received tokens: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindOverflow, "", "received amount of %s overflows", st.Owner)
	}
	return nil
}
