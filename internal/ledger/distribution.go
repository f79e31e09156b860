package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// AddDistributionTokens moves amount reward tokens from the signer into the
// distribution vault and grows the pool every depositor's share is computed from.
func (s *Service) AddDistributionTokens(ctx context.Context, signer, distribution solana.PublicKey, amount uint64) (*Distribution, error) {
	op := OpAddDistributionTokens
	if amount == 0 {
		return nil, Errorf(KindInvalidArgument, op, "amount must be greater than zero")
	}

	var updated *Distribution
	err := s.update(ctx, op, func(tx Tx) error {
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
		if !c.Authority.Equals(signer) {
			return Errorf(KindUnauthorized, op, "%s is not the authority of collection %s", signer, c.Address)
		}

		src, err := sourceAccount(ctx, tx, op, signer, d.RewardMint)
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, src, d.Vault, signer, amount); err != nil {
			return err
		}
		if err := tx.AddDistributionDeposit(ctx, d.Address, amount); err != nil {
			return err
		}

		updated, err = tx.GetDistribution(ctx, distribution)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ObserveTokens(op, amount)
	s.logger.Info("distribution tokens added",
		"distribution", distribution.String(),
		"amount", amount,
		"lifetime_deposited", updated.LifetimeDepositedTokens)
	return updated, nil
}
