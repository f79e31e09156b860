package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"multidist/internal/address"
	"multidist/internal/database/sqlc"
	"multidist/internal/ledger"
)

// Mints

func (t *sqliteTx) CreateMint(ctx context.Context, mint, authority solana.PublicKey, decimals uint8) (*ledger.Mint, error) {
	_, err := t.q.InsertMint(ctx, sqlc.InsertMintParams{
		Address:   mint.String(),
		Authority: authority.String(),
		Decimals:  int64(decimals),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ledger.Errorf(ledger.KindAlreadyExists, "", "mint %s already exists", mint)
		}
		return nil, fmt.Errorf("creating mint: %w", err)
	}
	return &ledger.Mint{Address: mint, Authority: authority, Decimals: decimals}, nil
}

func (t *sqliteTx) GetMint(ctx context.Context, mint solana.PublicKey) (*ledger.Mint, error) {
	row, err := t.q.GetMint(ctx, mint.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding mint: %w", err)
	}

	var p keyParser
	m := &ledger.Mint{
		Address:   p.parse(row.Address),
		Authority: p.parse(row.Authority),
		Decimals:  uint8(row.Decimals),
		Supply:    uint64(row.Supply),
	}
	if p.err != nil {
		return nil, p.err
	}
	return m, nil
}

// Token accounts

func (t *sqliteTx) EnsureAccount(ctx context.Context, owner, mint solana.PublicKey) (*ledger.TokenAccount, error) {
	addr, err := address.TokenAccount(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("deriving token account: %w", err)
	}

	existing, err := t.GetAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	m, err := t.GetMint(ctx, mint)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ledger.Errorf(ledger.KindNotFound, "", "mint %s does not exist", mint)
	}

	_, err = t.q.InsertTokenAccount(ctx, sqlc.InsertTokenAccountParams{
		Address: addr.String(),
		Mint:    mint.String(),
		Owner:   owner.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating token account: %w", err)
	}
	return &ledger.TokenAccount{Address: addr, Mint: mint, Owner: owner}, nil
}

func (t *sqliteTx) GetAccount(ctx context.Context, account solana.PublicKey) (*ledger.TokenAccount, error) {
	row, err := t.q.GetTokenAccount(ctx, account.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding token account: %w", err)
	}

	var p keyParser
	acct := &ledger.TokenAccount{
		Address: p.parse(row.Address),
		Mint:    p.parse(row.Mint),
		Owner:   p.parse(row.Owner),
		Amount:  uint64(row.Amount),
	}
	if p.err != nil {
		return nil, p.err
	}
	return acct, nil
}

func (t *sqliteTx) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	acct, err := t.mustAccount(ctx, account)
	if err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

func (t *sqliteTx) mustAccount(ctx context.Context, account solana.PublicKey) (*ledger.TokenAccount, error) {
	acct, err := t.GetAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ledger.Errorf(ledger.KindNotFound, "", "token account %s does not exist", account)
	}
	return acct, nil
}

func (t *sqliteTx) mustMint(ctx context.Context, mint solana.PublicKey) (*ledger.Mint, error) {
	m, err := t.GetMint(ctx, mint)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ledger.Errorf(ledger.KindNotFound, "", "mint %s does not exist", mint)
	}
	return m, nil
}

// Balance moves

func (t *sqliteTx) debit(ctx context.Context, account solana.PublicKey, v uint64, n int64) error {
	rows, err := t.q.DebitTokenAccount(ctx, sqlc.DebitTokenAccountParams{Amount: n, Address: account.String()})
	if err != nil {
		return fmt.Errorf("debiting token account: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindInsufficientFunds, "", "token account %s holds less than %d", account, v)
	}
	return nil
}

func (t *sqliteTx) credit(ctx context.Context, account solana.PublicKey, v uint64, n int64) error {
	rows, err := t.q.CreditTokenAccount(ctx, sqlc.CreditTokenAccountParams{Amount: n, Address: account.String()})
	if err != nil {
		return fmt.Errorf("crediting token account: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindOverflow, "", "crediting %d to token account %s overflows", v, account)
	}
	return nil
}

func (t *sqliteTx) Transfer(ctx context.Context, from, to, signer solana.PublicKey, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	src, err := t.mustAccount(ctx, from)
	if err != nil {
		return err
	}
	dst, err := t.mustAccount(ctx, to)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(signer) {
		return ledger.Errorf(ledger.KindUnauthorized, "", "%s does not own token account %s", signer, from)
	}
	if !src.Mint.Equals(dst.Mint) {
		return ledger.Errorf(ledger.KindInvalidArgument, "", "token accounts %s and %s hold different mints", from, to)
	}
	if v == 0 {
		return nil
	}

	if err := t.debit(ctx, from, v, n); err != nil {
		return err
	}
	return t.credit(ctx, to, v, n)
}

func (t *sqliteTx) MintTo(ctx context.Context, mint, to, signer solana.PublicKey, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	m, err := t.mustMint(ctx, mint)
	if err != nil {
		return err
	}
	if !m.Authority.Equals(signer) {
		return ledger.Errorf(ledger.KindUnauthorized, "", "%s is not the authority of mint %s", signer, mint)
	}
	dst, err := t.mustAccount(ctx, to)
	if err != nil {
		return err
	}
	if !dst.Mint.Equals(mint) {
		return ledger.Errorf(ledger.KindInvalidArgument, "", "token account %s does not hold mint %s", to, mint)
	}
	if v == 0 {
		return nil
	}

	rows, err := t.q.IncreaseMintSupply(ctx, sqlc.IncreaseMintSupplyParams{Amount: n, Address: mint.String()})
	if err != nil {
		return fmt.Errorf("increasing mint supply: %w", err)
	}
	if rows == 0 {
		return ledger.Errorf(ledger.KindOverflow, "", "supply of mint %s overflows", mint)
	}
	return t.credit(ctx, to, v, n)
}

func (t *sqliteTx) Burn(ctx context.Context, mint, from, signer solana.PublicKey, v uint64) error {
	n, err := amount(v)
	if err != nil {
		return err
	}
	if _, err := t.mustMint(ctx, mint); err != nil {
		return err
	}
	src, err := t.mustAccount(ctx, from)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(signer) {
		return ledger.Errorf(ledger.KindUnauthorized, "", "%s does not own token account %s", signer, from)
	}
	if !src.Mint.Equals(mint) {
		return ledger.Errorf(ledger.KindInvalidArgument, "", "token account %s does not hold mint %s", from, mint)
	}
	if v == 0 {
		return nil
	}

	if err := t.debit(ctx, from, v, n); err != nil {
		return err
	}
	rows, err := t.q.DecreaseMintSupply(ctx, sqlc.DecreaseMintSupplyParams{Amount: n, Address: mint.String()})
	if err != nil {
		return fmt.Errorf("decreasing mint supply: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("supply of mint %s is below burned amount %d", mint, v)
	}
	return nil
}
