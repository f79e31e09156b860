package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// UserClaimFromDistribution pays user the difference between their current
// entitlement and what they have already received, and returns the amount paid.
//
// A zero delta fails with KindNothingToClaim and writes nothing, so no
// DistributionUserState is created for a depositor who has nothing to claim.
func (s *Service) UserClaimFromDistribution(ctx context.Context, user, distribution solana.PublicKey) (uint64, error) {
	op := OpUserClaimFromDistribution

	claimStateAddr, err := s.deriver.DistributionUserState(distribution, user)
	if err != nil {
		return 0, fmt.Errorf("deriving distribution user state address: %w", err)
	}

	var paid uint64
	err = s.update(ctx, op, func(tx Tx) error {
		d, err := tx.GetDistribution(ctx, distribution)
		if err != nil {
			return err
		}
		if d == nil {
			return Errorf(KindNotFound, op, "distribution %s does not exist", distribution)
		}
		c, err := tx.GetCollection(ctx, d.Collection)
		if err != nil {
			return err
		}
		if c == nil {
			return Errorf(KindNotFound, op, "collection %s does not exist", d.Collection)
		}

		depositAddr, err := s.deriver.CollectionUserState(c.Address, user)
		if err != nil {
			return fmt.Errorf("deriving user state address: %w", err)
		}
		cus, err := tx.GetCollectionUserState(ctx, depositAddr)
		if err != nil {
			return err
		}
		if cus == nil {
			return Errorf(KindNotFound, op, "%s has not committed to collection %s", user, c.Address)
		}
		dus, err := tx.GetDistributionUserState(ctx, claimStateAddr)
		if err != nil {
			return err
		}

		claim, err := Claimable(c, d, cus, dus)
		if err != nil {
			return err
		}
		if claim.Claimable == 0 {
			return Errorf(KindNothingToClaim, op, "%s has received its full entitlement of %d", user, claim.Entitlement)
		}

		balance, err := tx.Balance(ctx, d.Vault)
		if err != nil {
			return err
		}
		if balance < d.Outstanding() || claim.Claimable > d.Outstanding() {
			s.logger.Error("distribution vault underfunded",
				"distribution", distribution.String(),
				"vault_balance", balance,
				"outstanding", d.Outstanding(),
				"claimable", claim.Claimable)
			return Errorf(KindVaultUnderfunded, op, "vault of %s holds %d, bookkeeping requires %d", distribution, balance, d.Outstanding())
		}

		dst, err := tx.EnsureAccount(ctx, user, d.RewardMint)
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, d.Vault, dst.Address, d.Address, claim.Claimable); err != nil {
			return err
		}

		st := &DistributionUserState{Address: claimStateAddr, Distribution: distribution, Owner: user}
		if err := tx.AddReceived(ctx, st, claim.Claimable); err != nil {
			return err
		}
		if err := tx.AddDistributed(ctx, d.Address, claim.Claimable); err != nil {
			return err
		}

		paid = claim.Claimable
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.recorder.ObserveTokens(op, paid)
	s.logger.Info("claimed from distribution",
		"distribution", distribution.String(),
		"user", user.String(),
		"amount", paid)
	return paid, nil
}
