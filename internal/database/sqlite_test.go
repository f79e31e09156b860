package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"multidist/internal/address"
	"multidist/internal/ledger"
)

var testTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()

	db, err := NewSQLiteDatabase(":memory:", clockwork.NewFakeClockAt(testTime))
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if _, err := db.db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// update runs fn in a write transaction and fails the test on error.
func update(t *testing.T, db *SQLiteDatabase, fn func(tx ledger.Tx) error) {
	t.Helper()
	if err := db.Update(context.Background(), fn); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
}

// fundedAccount creates a mint and an account for owner holding amount tokens.
func fundedAccount(t *testing.T, db *SQLiteDatabase, owner solana.PublicKey, amount uint64) (mint, account solana.PublicKey) {
	t.Helper()
	ctx := context.Background()
	mint = newKey()
	authority := newKey()

	update(t, db, func(tx ledger.Tx) error {
		if _, err := tx.CreateMint(ctx, mint, authority, 6); err != nil {
			return err
		}
		acct, err := tx.EnsureAccount(ctx, owner, mint)
		if err != nil {
			return err
		}
		account = acct.Address
		return tx.MintTo(ctx, mint, account, authority, amount)
	})
	return mint, account
}

func balance(t *testing.T, db *SQLiteDatabase, account solana.PublicKey) uint64 {
	t.Helper()
	var got uint64
	err := db.View(context.Background(), func(tx ledger.Tx) error {
		var err error
		got, err = tx.Balance(context.Background(), account)
		return err
	})
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	return got
}

func TestSQLiteDatabase_Mints(t *testing.T) {
	ctx := context.Background()

	t.Run("returns nil when mint not found", func(t *testing.T) {
		db := newTestDB(t)

		err := db.View(ctx, func(tx ledger.Tx) error {
			m, err := tx.GetMint(ctx, newKey())
			if err != nil {
				return err
			}
			if m != nil {
				t.Errorf("GetMint() = %v, want nil", m)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
	})

	t.Run("duplicate mint is AlreadyExists", func(t *testing.T) {
		db := newTestDB(t)
		mint, authority := newKey(), newKey()

		update(t, db, func(tx ledger.Tx) error {
			_, err := tx.CreateMint(ctx, mint, authority, 9)
			return err
		})

		err := db.Update(ctx, func(tx ledger.Tx) error {
			_, err := tx.CreateMint(ctx, mint, authority, 9)
			return err
		})
		if !errors.Is(err, ledger.ErrAlreadyExists) {
			t.Errorf("CreateMint() error = %v, want AlreadyExists", err)
		}
	})

	t.Run("mint to requires authority", func(t *testing.T) {
		db := newTestDB(t)
		owner := newKey()
		mint, account := fundedAccount(t, db, owner, 10)

		err := db.Update(ctx, func(tx ledger.Tx) error {
			return tx.MintTo(ctx, mint, account, owner, 5)
		})
		if !errors.Is(err, ledger.ErrUnauthorized) {
			t.Errorf("MintTo() error = %v, want Unauthorized", err)
		}
		if got := balance(t, db, account); got != 10 {
			t.Errorf("balance = %d, want 10", got)
		}
	})
}

func TestSQLiteDatabase_EnsureAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent at the associated address", func(t *testing.T) {
		db := newTestDB(t)
		owner := newKey()
		mint, account := fundedAccount(t, db, owner, 7)

		want, err := address.TokenAccount(owner, mint)
		if err != nil {
			t.Fatalf("TokenAccount() error = %v", err)
		}
		if !account.Equals(want) {
			t.Errorf("account = %s, want %s", account, want)
		}

		update(t, db, func(tx ledger.Tx) error {
			acct, err := tx.EnsureAccount(ctx, owner, mint)
			if err != nil {
				return err
			}
			if acct.Amount != 7 {
				t.Errorf("Amount = %d, want 7", acct.Amount)
			}
			return nil
		})
	})

	t.Run("unknown mint is NotFound", func(t *testing.T) {
		db := newTestDB(t)

		err := db.Update(ctx, func(tx ledger.Tx) error {
			_, err := tx.EnsureAccount(ctx, newKey(), newKey())
			return err
		})
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("EnsureAccount() error = %v, want NotFound", err)
		}
	})
}

func TestSQLiteDatabase_Transfer(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   uint64
		signer   func(owner solana.PublicKey) solana.PublicKey
		wantErr  error
		wantFrom uint64
		wantTo   uint64
	}{
		{
			name:     "moves balance",
			amount:   40,
			signer:   func(owner solana.PublicKey) solana.PublicKey { return owner },
			wantFrom: 60,
			wantTo:   40,
		},
		{
			name:     "zero amount is a no-op",
			amount:   0,
			signer:   func(owner solana.PublicKey) solana.PublicKey { return owner },
			wantFrom: 100,
			wantTo:   0,
		},
		{
			name:     "short balance",
			amount:   101,
			signer:   func(owner solana.PublicKey) solana.PublicKey { return owner },
			wantErr:  ledger.ErrInsufficientFunds,
			wantFrom: 100,
		},
		{
			name:     "signer does not own source",
			amount:   1,
			signer:   func(solana.PublicKey) solana.PublicKey { return newKey() },
			wantErr:  ledger.ErrUnauthorized,
			wantFrom: 100,
		},
		{
			name:     "amount beyond storage range",
			amount:   ledger.MaxAmount + 1,
			signer:   func(owner solana.PublicKey) solana.PublicKey { return owner },
			wantErr:  ledger.ErrOverflow,
			wantFrom: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			owner, recipient := newKey(), newKey()
			mint, from := fundedAccount(t, db, owner, 100)

			var to solana.PublicKey
			update(t, db, func(tx ledger.Tx) error {
				acct, err := tx.EnsureAccount(ctx, recipient, mint)
				to = acct.Address
				return err
			})

			err := db.Update(ctx, func(tx ledger.Tx) error {
				return tx.Transfer(ctx, from, to, tt.signer(owner), tt.amount)
			})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Transfer() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer() error = %v, want %v", err, tt.wantErr)
			}

			if got := balance(t, db, from); got != tt.wantFrom {
				t.Errorf("from balance = %d, want %d", got, tt.wantFrom)
			}
			if got := balance(t, db, to); got != tt.wantTo {
				t.Errorf("to balance = %d, want %d", got, tt.wantTo)
			}
		})
	}

	t.Run("different mints", func(t *testing.T) {
		db := newTestDB(t)
		owner := newKey()
		_, from := fundedAccount(t, db, owner, 10)
		_, to := fundedAccount(t, db, newKey(), 0)

		err := db.Update(ctx, func(tx ledger.Tx) error {
			return tx.Transfer(ctx, from, to, owner, 1)
		})
		if !errors.Is(err, ledger.ErrInvalidArgument) {
			t.Errorf("Transfer() error = %v, want InvalidArgument", err)
		}
	})
}

func TestSQLiteDatabase_Burn(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newKey()
	mint, account := fundedAccount(t, db, owner, 500)

	update(t, db, func(tx ledger.Tx) error {
		return tx.Burn(ctx, mint, account, owner, 300)
	})

	if got := balance(t, db, account); got != 200 {
		t.Errorf("balance = %d, want 200", got)
	}
	err := db.View(ctx, func(tx ledger.Tx) error {
		m, err := tx.GetMint(ctx, mint)
		if err != nil {
			return err
		}
		if m.Supply != 200 {
			t.Errorf("Supply = %d, want 200", m.Supply)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}

	err = db.Update(ctx, func(tx ledger.Tx) error {
		return tx.Burn(ctx, mint, account, owner, 201)
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("Burn() error = %v, want InsufficientFunds", err)
	}
}

// newCollection inserts a collection with the given cap and returns it.
func newCollection(t *testing.T, db *SQLiteDatabase, maxTokens uint64) *ledger.Collection {
	t.Helper()
	ctx := context.Background()
	authority := newKey()
	baseMint, _ := fundedAccount(t, db, authority, 0)
	c := &ledger.Collection{
		Address:              newKey(),
		Authority:            authority,
		BaseMint:             baseMint,
		ReceiptMint:          newKey(),
		MaxCollectableTokens: maxTokens,
		Counter:              ^uint64(0),
		Bump:                 254,
		CreatedAt:            testTime,
	}

	update(t, db, func(tx ledger.Tx) error {
		vault, err := tx.EnsureAccount(ctx, c.Address, baseMint)
		if err != nil {
			return err
		}
		c.Vault = vault.Address
		if _, err := tx.CreateMint(ctx, c.ReceiptMint, c.Address, 6); err != nil {
			return err
		}
		return tx.InsertCollection(ctx, c)
	})
	return c
}

func TestSQLiteDatabase_Collections(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		db := newTestDB(t)
		want := newCollection(t, db, 1000)

		err := db.View(ctx, func(tx ledger.Tx) error {
			got, err := tx.GetCollection(ctx, want.Address)
			if err != nil {
				return err
			}
			if got == nil {
				t.Fatal("GetCollection() returned nil")
			}
			if !got.Authority.Equals(want.Authority) || !got.Vault.Equals(want.Vault) {
				t.Errorf("GetCollection() = %+v, want %+v", got, want)
			}
			if got.Counter != want.Counter {
				t.Errorf("Counter = %d, want %d", got.Counter, want.Counter)
			}
			if got.Bump != 254 || got.MaxCollectableTokens != 1000 || got.LifetimeTokensCollected != 0 {
				t.Errorf("GetCollection() = %+v", got)
			}
			if !got.CreatedAt.Equal(testTime) {
				t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testTime)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
	})

	t.Run("add collected enforces the cap", func(t *testing.T) {
		db := newTestDB(t)
		c := newCollection(t, db, 1000)

		update(t, db, func(tx ledger.Tx) error {
			return tx.AddCollected(ctx, c.Address, 999)
		})
		err := db.Update(ctx, func(tx ledger.Tx) error {
			return tx.AddCollected(ctx, c.Address, 2)
		})
		if !errors.Is(err, ledger.ErrCapacityExceeded) {
			t.Errorf("AddCollected() error = %v, want CapacityExceeded", err)
		}
		update(t, db, func(tx ledger.Tx) error {
			return tx.AddCollected(ctx, c.Address, 1)
		})
	})

	t.Run("deposits accumulate and sum", func(t *testing.T) {
		db := newTestDB(t)
		c := newCollection(t, db, 1000)
		alice := &ledger.CollectionUserState{Address: newKey(), Collection: c.Address, Owner: newKey()}
		bob := &ledger.CollectionUserState{Address: newKey(), Collection: c.Address, Owner: newKey()}

		update(t, db, func(tx ledger.Tx) error {
			for _, step := range []struct {
				st     *ledger.CollectionUserState
				amount uint64
			}{{alice, 100}, {bob, 50}, {alice, 25}} {
				if err := tx.AddDeposited(ctx, step.st, step.amount); err != nil {
					return err
				}
			}
			return nil
		})

		err := db.View(ctx, func(tx ledger.Tx) error {
			st, err := tx.GetCollectionUserState(ctx, alice.Address)
			if err != nil {
				return err
			}
			if st.DepositedAmount != 125 {
				t.Errorf("DepositedAmount = %d, want 125", st.DepositedAmount)
			}
			sum, err := tx.SumDeposited(ctx, c.Address)
			if err != nil {
				return err
			}
			if sum != 175 {
				t.Errorf("SumDeposited() = %d, want 175", sum)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
	})

	t.Run("rollback discards every write", func(t *testing.T) {
		db := newTestDB(t)
		c := newCollection(t, db, 1000)
		boom := errors.New("boom")

		err := db.Update(ctx, func(tx ledger.Tx) error {
			if err := tx.AddCollected(ctx, c.Address, 10); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Update() error = %v, want boom", err)
		}

		err = db.View(ctx, func(tx ledger.Tx) error {
			got, err := tx.GetCollection(ctx, c.Address)
			if err != nil {
				return err
			}
			if got.LifetimeTokensCollected != 0 {
				t.Errorf("LifetimeTokensCollected = %d, want 0", got.LifetimeTokensCollected)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
	})
}

func TestSQLiteDatabase_Distributions(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := newCollection(t, db, 1000)
	other := newCollection(t, db, 10)

	insert := func(collection *ledger.Collection, createdAt time.Time) *ledger.Distribution {
		mint, _ := fundedAccount(t, db, newKey(), 0)
		d := &ledger.Distribution{
			Address:    newKey(),
			Collection: collection.Address,
			RewardMint: mint,
			Bump:       253,
			CreatedAt:  createdAt,
		}
		update(t, db, func(tx ledger.Tx) error {
			vault, err := tx.EnsureAccount(ctx, d.Address, mint)
			if err != nil {
				return err
			}
			d.Vault = vault.Address
			return tx.InsertDistribution(ctx, d)
		})
		return d
	}

	first := insert(c, testTime)
	second := insert(c, testTime.Add(time.Minute))
	insert(other, testTime)

	t.Run("list filters on collection", func(t *testing.T) {
		err := db.View(ctx, func(tx ledger.Tx) error {
			list, err := tx.ListDistributions(ctx, c.Address)
			if err != nil {
				return err
			}
			if len(list) != 2 {
				t.Fatalf("ListDistributions() returned %d, want 2", len(list))
			}
			if !list[0].Address.Equals(first.Address) || !list[1].Address.Equals(second.Address) {
				t.Errorf("ListDistributions() order = %s, %s", list[0].Address, list[1].Address)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
	})

	t.Run("distributed cannot pass deposited", func(t *testing.T) {
		update(t, db, func(tx ledger.Tx) error {
			return tx.AddDistributionDeposit(ctx, first.Address, 100)
		})
		update(t, db, func(tx ledger.Tx) error {
			return tx.AddDistributed(ctx, first.Address, 60)
		})
		err := db.Update(ctx, func(tx ledger.Tx) error {
			return tx.AddDistributed(ctx, first.Address, 41)
		})
		if !errors.Is(err, ledger.ErrVaultUnderfunded) {
			t.Errorf("AddDistributed() error = %v, want VaultUnderfunded", err)
		}
	})

	t.Run("lifetime deposits overflow", func(t *testing.T) {
		update(t, db, func(tx ledger.Tx) error {
			return tx.AddDistributionDeposit(ctx, second.Address, ledger.MaxAmount)
		})
		err := db.Update(ctx, func(tx ledger.Tx) error {
			return tx.AddDistributionDeposit(ctx, second.Address, 1)
		})
		if !errors.Is(err, ledger.ErrOverflow) {
			t.Errorf("AddDistributionDeposit() error = %v, want Overflow", err)
		}
	})

	t.Run("received accumulates", func(t *testing.T) {
		st := &ledger.DistributionUserState{Address: newKey(), Distribution: first.Address, Owner: newKey()}
		update(t, db, func(tx ledger.Tx) error {
			if err := tx.AddReceived(ctx, st, 20); err != nil {
				return err
			}
			return tx.AddReceived(ctx, st, 5)
		})
		err := db.View(ctx, func(tx ledger.Tx) error {
			got, err := tx.GetDistributionUserState(ctx, st.Address)
			if err != nil {
				return err
			}
			if got.ReceivedAmount != 25 {
				t.Errorf("ReceivedAmount = %d, want 25", got.ReceivedAmount)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View() error = %v", err)
		}
	})
}

func TestSQLiteDatabase_ConcurrentCollected(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := NewSQLiteDatabase(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	defer db.Close()
	if _, err := db.db.Exec(Schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	c := newCollection(t, db, 100)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Update(ctx, func(tx ledger.Tx) error {
				return tx.AddCollected(ctx, c.Address, 10)
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else if !errors.Is(err, ledger.ErrCapacityExceeded) {
				t.Errorf("AddCollected() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 10 {
		t.Errorf("accepted = %d, want 10", accepted)
	}
}

func TestSQLiteDatabase_ViewDuringUpdate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	writer, err := NewSQLiteDatabase(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	defer writer.Close()
	if _, err := writer.db.Exec(Schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}
	reader, err := NewSQLiteDatabase(path, nil)
	if err != nil {
		t.Fatalf("NewSQLiteDatabase() error = %v", err)
	}
	defer reader.Close()

	c := newCollection(t, writer, 100)

	// The writer holds the write lock while the reader runs. A reader that
	// asked for the write lock would wait out the busy timeout and fail.
	err = writer.Update(ctx, func(tx ledger.Tx) error {
		if err := tx.AddCollected(ctx, c.Address, 10); err != nil {
			return err
		}

		readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return reader.View(readCtx, func(rtx ledger.Tx) error {
			got, err := rtx.GetCollection(readCtx, c.Address)
			if err != nil {
				return err
			}
			if got.LifetimeTokensCollected != 0 {
				t.Errorf("reader saw LifetimeTokensCollected = %d, want 0", got.LifetimeTokensCollected)
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	err = reader.View(ctx, func(tx ledger.Tx) error {
		got, err := tx.GetCollection(ctx, c.Address)
		if err != nil {
			return err
		}
		if got.LifetimeTokensCollected != 10 {
			t.Errorf("LifetimeTokensCollected = %d, want 10", got.LifetimeTokensCollected)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestSQLiteDatabase_Operations(t *testing.T) {
	ctx := context.Background()

	t.Run("list newest first", func(t *testing.T) {
		db := newTestDB(t)

		if _, err := db.CreateOperation(ctx, "commit", "--amount 5"); err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
		op2, err := db.CreateOperation(ctx, "claim", "")
		if err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}

		ops, err := db.ListOperations(ctx, 10)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("got %d operations, want 2", len(ops))
		}
		if ops[0].ID != op2.ID {
			t.Errorf("expected newest first: got ID %d, want %d", ops[0].ID, op2.ID)
		}
		if ops[1].Parameters != "--amount 5" || ops[1].Status != "running" {
			t.Errorf("ops[1] = %+v", ops[1])
		}
	})

	t.Run("finish operation sets status and time", func(t *testing.T) {
		db := newTestDB(t)

		op, _ := db.CreateOperation(ctx, "withdraw", "")
		if err := db.FinishOperation(ctx, op.ID, "success"); err != nil {
			t.Fatalf("FinishOperation() error = %v", err)
		}

		ops, _ := db.ListOperations(ctx, 1)
		if ops[0].Status != "success" {
			t.Errorf("Status = %q, want %q", ops[0].Status, "success")
		}
		if ops[0].FinishedAt == nil || !ops[0].FinishedAt.Equal(testTime) {
			t.Errorf("FinishedAt = %v, want %v", ops[0].FinishedAt, testTime)
		}
	})

	t.Run("max operation ID", func(t *testing.T) {
		db := newTestDB(t)

		maxID, err := db.MaxOperationID(ctx)
		if err != nil {
			t.Fatalf("MaxOperationID() error = %v", err)
		}
		if maxID != 0 {
			t.Errorf("MaxOperationID() = %d, want 0", maxID)
		}

		db.CreateOperation(ctx, "op1", "")
		op2, _ := db.CreateOperation(ctx, "op2", "")

		maxID, err = db.MaxOperationID(ctx)
		if err != nil {
			t.Fatalf("MaxOperationID() error = %v", err)
		}
		if maxID != op2.ID {
			t.Errorf("MaxOperationID() = %d, want %d", maxID, op2.ID)
		}
	})
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	db := newTestDB(t)
	c := newCollection(t, db, 1000)

	destPath := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(destPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	backup, err := NewSQLiteDatabase(destPath, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	err = backup.View(context.Background(), func(tx ledger.Tx) error {
		got, err := tx.GetCollection(context.Background(), c.Address)
		if err != nil {
			return err
		}
		if got == nil {
			t.Error("backup does not contain the collection")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
}

func TestSQLiteDatabase_CheckMigrations(t *testing.T) {
	t.Run("fails on DB without migrations applied", func(t *testing.T) {
		db, err := NewSQLiteDatabase(":memory:", nil)
		if err != nil {
			t.Fatalf("NewSQLiteDatabase() error = %v", err)
		}
		defer db.Close()

		if err := db.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error for missing schema")
		}
	})
}
