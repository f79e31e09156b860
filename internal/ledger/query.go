package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"multidist/internal/address"
)

// Position is one depositor's standing in a collection and all its distributions.
type Position struct {
	Collection solana.PublicKey
	Owner      solana.PublicKey
	Deposited  uint64
	Claims     []*DistributionClaim
}

// DistributionClaim pairs a distribution with the depositor's claim preview.
type DistributionClaim struct {
	Distribution *Distribution
	Claim
}

func (s *Service) view(ctx context.Context, fn func(tx Tx) error) error {
	return s.store.View(ctx, fn)
}

// GetCollection returns the collection at addr or a KindNotFound error.
func (s *Service) GetCollection(ctx context.Context, addr solana.PublicKey) (*Collection, error) {
	var c *Collection
	err := s.view(ctx, func(tx Tx) error {
		var err error
		c, err = mustCollection(ctx, tx, "get_collection", addr)
		return err
	})
	return c, err
}

// GetDistribution returns the distribution at addr or a KindNotFound error.
func (s *Service) GetDistribution(ctx context.Context, addr solana.PublicKey) (*Distribution, error) {
	var d *Distribution
	err := s.view(ctx, func(tx Tx) error {
		var err error
		d, err = tx.GetDistribution(ctx, addr)
		if err != nil {
			return err
		}
		if d == nil {
			return Errorf(KindNotFound, "get_distribution", "distribution %s does not exist", addr)
		}
		return nil
	})
	return d, err
}

// ListDistributions returns every distribution scoped to collection.
func (s *Service) ListDistributions(ctx context.Context, collection solana.PublicKey) ([]*Distribution, error) {
	var list []*Distribution
	err := s.view(ctx, func(tx Tx) error {
		if _, err := mustCollection(ctx, tx, "list_distributions", collection); err != nil {
			return err
		}
		var err error
		list, err = tx.ListDistributions(ctx, collection)
		return err
	})
	return list, err
}

// Position returns user's deposit and a claim preview for each distribution
// of collection. It reads only the user's own state records.
func (s *Service) Position(ctx context.Context, collection, user solana.PublicKey) (*Position, error) {
	const op = "position"
	pos := &Position{Collection: collection, Owner: user}

	err := s.view(ctx, func(tx Tx) error {
		c, err := mustCollection(ctx, tx, op, collection)
		if err != nil {
			return err
		}

		depositAddr, err := s.deriver.CollectionUserState(collection, user)
		if err != nil {
			return fmt.Errorf("deriving user state address: %w", err)
		}
		cus, err := tx.GetCollectionUserState(ctx, depositAddr)
		if err != nil {
			return err
		}
		if cus != nil {
			pos.Deposited = cus.DepositedAmount
		}

		distributions, err := tx.ListDistributions(ctx, collection)
		if err != nil {
			return err
		}
		for _, d := range distributions {
			claimAddr, err := s.deriver.DistributionUserState(d.Address, user)
			if err != nil {
				return fmt.Errorf("deriving distribution user state address: %w", err)
			}
			dus, err := tx.GetDistributionUserState(ctx, claimAddr)
			if err != nil {
				return err
			}
			claim, err := Claimable(c, d, cus, dus)
			if err != nil {
				return withOp(op, err)
			}
			pos.Claims = append(pos.Claims, &DistributionClaim{Distribution: d, Claim: claim})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pos, nil
}

// TokenBalance returns the amount of mint held in owner's token account.
// An owner without an account holds zero.
func (s *Service) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	addr, err := address.TokenAccount(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("deriving token account: %w", err)
	}

	var amount uint64
	err = s.view(ctx, func(tx Tx) error {
		acct, err := tx.GetAccount(ctx, addr)
		if err != nil {
			return err
		}
		if acct != nil {
			amount = acct.Amount
		}
		return nil
	})
	return amount, err
}

// GetMint returns the mint at addr or a KindNotFound error.
func (s *Service) GetMint(ctx context.Context, addr solana.PublicKey) (*Mint, error) {
	var m *Mint
	err := s.view(ctx, func(tx Tx) error {
		var err error
		m, err = tx.GetMint(ctx, addr)
		if err != nil {
			return err
		}
		if m == nil {
			return Errorf(KindNotFound, "get_mint", "mint %s does not exist", addr)
		}
		return nil
	})
	return m, err
}

func mustCollection(ctx context.Context, tx Tx, op string, addr solana.PublicKey) (*Collection, error) {
	c, err := tx.GetCollection(ctx, addr)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, Errorf(KindNotFound, op, "collection %s does not exist", addr)
	}
	return c, nil
}
