package app

import (
	"context"

	"multidist/internal/ledger"
)

// CreateMint registers a new token type owned by authority.
func (a *MultidistApp) CreateMint(ctx context.Context, authority string, decimals uint8) (*ledger.Mint, error) {
	keys, err := parseAddresses([2]string{"authority", authority})
	if err != nil {
		return nil, err
	}

	var m *ledger.Mint
	err = a.mutate(ctx, []string{param("authority", authority), param("decimals", decimals)}, func() error {
		m, err = a.service.CreateMint(ctx, keys[0], decimals)
		return err
	})
	return m, err
}

// MintTokens mints amount of mint into owner's token account.
func (a *MultidistApp) MintTokens(ctx context.Context, mint, owner, authority string, amount uint64) (*ledger.TokenAccount, error) {
	keys, err := parseAddresses([2]string{"mint", mint}, [2]string{"owner", owner}, [2]string{"authority", authority})
	if err != nil {
		return nil, err
	}

	var acct *ledger.TokenAccount
	params := []string{param("mint", mint), param("to", owner), param("authority", authority), param("amount", amount)}
	err = a.mutate(ctx, params, func() error {
		acct, err = a.service.MintTokens(ctx, keys[2], keys[0], keys[1], amount)
		return err
	})
	return acct, err
}

// TokenBalance returns owner's balance of mint.
func (a *MultidistApp) TokenBalance(ctx context.Context, mint, owner string) (uint64, error) {
	keys, err := parseAddresses([2]string{"mint", mint}, [2]string{"owner", owner})
	if err != nil {
		return 0, err
	}
	return a.service.TokenBalance(ctx, keys[1], keys[0])
}

// InitCollection creates a collection of mint tokens capped at maxTokens.
func (a *MultidistApp) InitCollection(ctx context.Context, authority, mint string, counter, maxTokens uint64, burn bool) (*ledger.Collection, error) {
	keys, err := parseAddresses([2]string{"authority", authority}, [2]string{"mint", mint})
	if err != nil {
		return nil, err
	}

	var c *ledger.Collection
	params := []string{param("authority", authority), param("mint", mint), param("counter", counter), param("max", maxTokens), param("burn", burn)}
	err = a.mutate(ctx, params, func() error {
		c, err = a.service.InitCollection(ctx, ledger.InitCollectionParams{
			Authority:            keys[0],
			BaseMint:             keys[1],
			Counter:              counter,
			MaxCollectableTokens: maxTokens,
			BurnOnCommit:         burn,
		})
		return err
	})
	return c, err
}

// GetCollection returns the collection at addr.
func (a *MultidistApp) GetCollection(ctx context.Context, addr string) (*ledger.Collection, error) {
	keys, err := parseAddresses([2]string{"collection", addr})
	if err != nil {
		return nil, err
	}
	return a.service.GetCollection(ctx, keys[0])
}

// Audit checks the accounting invariants of a collection.
func (a *MultidistApp) Audit(ctx context.Context, collection string) (*ledger.AuditReport, error) {
	keys, err := parseAddresses([2]string{"collection", collection})
	if err != nil {
		return nil, err
	}
	return a.service.Audit(ctx, keys[0])
}

// WithdrawFromCollection sweeps the collection vault to the authority.
func (a *MultidistApp) WithdrawFromCollection(ctx context.Context, collection, authority string) (uint64, error) {
	keys, err := parseAddresses([2]string{"collection", collection}, [2]string{"authority", authority})
	if err != nil {
		return 0, err
	}

	var amount uint64
	err = a.mutate(ctx, []string{param("collection", collection), param("authority", authority)}, func() error {
		amount, err = a.service.WithdrawFromCollection(ctx, keys[1], keys[0])
		return err
	})
	return amount, err
}

// InitDistribution creates the distribution of mint for a collection.
func (a *MultidistApp) InitDistribution(ctx context.Context, collection, mint, authority string) (*ledger.Distribution, error) {
	keys, err := parseAddresses([2]string{"collection", collection}, [2]string{"mint", mint}, [2]string{"authority", authority})
	if err != nil {
		return nil, err
	}

	var d *ledger.Distribution
	err = a.mutate(ctx, []string{param("collection", collection), param("mint", mint), param("authority", authority)}, func() error {
		d, err = a.service.InitDistribution(ctx, keys[2], keys[0], keys[1])
		return err
	})
	return d, err
}

// AddDistributionTokens moves amount reward tokens from authority into the pool.
func (a *MultidistApp) AddDistributionTokens(ctx context.Context, distribution, authority string, amount uint64) (*ledger.Distribution, error) {
	keys, err := parseAddresses([2]string{"distribution", distribution}, [2]string{"authority", authority})
	if err != nil {
		return nil, err
	}

	var d *ledger.Distribution
	params := []string{param("distribution", distribution), param("authority", authority), param("amount", amount)}
	err = a.mutate(ctx, params, func() error {
		d, err = a.service.AddDistributionTokens(ctx, keys[1], keys[0], amount)
		return err
	})
	return d, err
}

// GetDistribution returns the distribution at addr.
func (a *MultidistApp) GetDistribution(ctx context.Context, addr string) (*ledger.Distribution, error) {
	keys, err := parseAddresses([2]string{"distribution", addr})
	if err != nil {
		return nil, err
	}
	return a.service.GetDistribution(ctx, keys[0])
}

// ListDistributions returns the distributions of a collection.
func (a *MultidistApp) ListDistributions(ctx context.Context, collection string) ([]*ledger.Distribution, error) {
	keys, err := parseAddresses([2]string{"collection", collection})
	if err != nil {
		return nil, err
	}
	return a.service.ListDistributions(ctx, keys[0])
}

// Commit deposits amount base tokens from user into a collection.
func (a *MultidistApp) Commit(ctx context.Context, collection, user string, amount uint64) (*ledger.CollectionUserState, error) {
	keys, err := parseAddresses([2]string{"collection", collection}, [2]string{"user", user})
	if err != nil {
		return nil, err
	}

	var st *ledger.CollectionUserState
	params := []string{param("collection", collection), param("user", user), param("amount", amount)}
	err = a.mutate(ctx, params, func() error {
		st, err = a.service.UserCommitToCollection(ctx, keys[1], keys[0], amount)
		return err
	})
	return st, err
}

// Claim pays user everything claimable from a distribution.
func (a *MultidistApp) Claim(ctx context.Context, distribution, user string) (uint64, error) {
	keys, err := parseAddresses([2]string{"distribution", distribution}, [2]string{"user", user})
	if err != nil {
		return 0, err
	}

	var paid uint64
	err = a.mutate(ctx, []string{param("distribution", distribution), param("user", user)}, func() error {
		paid, err = a.service.UserClaimFromDistribution(ctx, keys[1], keys[0])
		return err
	})
	return paid, err
}

// Position returns user's deposit in a collection and a claim preview per distribution.
func (a *MultidistApp) Position(ctx context.Context, collection, user string) (*ledger.Position, error) {
	keys, err := parseAddresses([2]string{"collection", collection}, [2]string{"user", user})
	if err != nil {
		return nil, err
	}
	return a.service.Position(ctx, keys[0], keys[1])
}

// History returns the most recent journaled operations, newest first.
func (a *MultidistApp) History(ctx context.Context, limit int) ([]*ledger.Operation, error) {
	return a.db.ListOperations(ctx, limit)
}
