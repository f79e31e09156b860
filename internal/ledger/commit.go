package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// UserCommitToCollection deposits amount base tokens from user into the collection.
// The tokens are burned or moved into the vault depending on the collection,
// and the same amount of receipt tokens is minted to the user either way.
// The commit is all or nothing: if it would push the collection past its
// cap, nothing moves and KindCapacityExceeded is returned.
func (s *Service) UserCommitToCollection(ctx context.Context, user, collection solana.PublicKey, amount uint64) (*CollectionUserState, error) {
	op := OpUserCommitToCollection
	if amount == 0 {
		return nil, Errorf(KindInvalidArgument, op, "amount must be greater than zero")
	}

	stateAddr, err := s.deriver.CollectionUserState(collection, user)
	if err != nil {
		return nil, fmt.Errorf("deriving user state address: %w", err)
	}

	var state *CollectionUserState
	err = s.update(ctx, op, func(tx Tx) error {
		c, err := tx.GetCollection(ctx, collection)
		if err != nil {
			return err
		}
		if c == nil {
			return Errorf(KindNotFound, op, "collection %s does not exist", collection)
		}
		if amount > c.Remaining() {
			return Errorf(KindCapacityExceeded, op, "committing %d exceeds remaining capacity %d of collection %s", amount, c.Remaining(), collection)
		}

		src, err := sourceAccount(ctx, tx, op, user, c.BaseMint)
		if err != nil {
			return err
		}
		if c.BurnOnCommit {
			err = tx.Burn(ctx, c.BaseMint, src, user, amount)
		} else {
			err = tx.Transfer(ctx, src, c.Vault, user, amount)
		}
		if err != nil {
			return err
		}

		receipt, err := tx.EnsureAccount(ctx, user, c.ReceiptMint)
		if err != nil {
			return err
		}
		if err := tx.MintTo(ctx, c.ReceiptMint, receipt.Address, c.Address, amount); err != nil {
			return err
		}

		if err := tx.AddCollected(ctx, c.Address, amount); err != nil {
			return err
		}
		st := &CollectionUserState{Address: stateAddr, Collection: collection, Owner: user}
		if err := tx.AddDeposited(ctx, st, amount); err != nil {
			return err
		}

		state, err = tx.GetCollectionUserState(ctx, stateAddr)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ObserveTokens(op, amount)
	s.logger.Info("committed to collection",
		"collection", collection.String(),
		"user", user.String(),
		"amount", amount,
		"deposited", state.DepositedAmount)
	return state, nil
}

// WithdrawFromCollection sweeps the whole collection vault to the authority's
// base token account. Collected totals and receipts are unaffected.
// Returns the amount moved, which is zero for an empty vault.
func (s *Service) WithdrawFromCollection(ctx context.Context, signer, collection solana.PublicKey) (uint64, error) {
	op := OpWithdrawFromCollection

	var swept uint64
	err := s.update(ctx, op, func(tx Tx) error {
		c, err := tx.GetCollection(ctx, collection)
		if err != nil {
			return err
		}
		if c == nil {
			return Errorf(KindNotFound, op, "collection %s does not exist", collection)
		}
		if !c.Authority.Equals(signer) {
			return Errorf(KindUnauthorized, op, "%s is not the authority of collection %s", signer, collection)
		}

		balance, err := tx.Balance(ctx, c.Vault)
		if err != nil {
			return err
		}
		dst, err := tx.EnsureAccount(ctx, signer, c.BaseMint)
		if err != nil {
			return err
		}
		if err := tx.Transfer(ctx, c.Vault, dst.Address, c.Address, balance); err != nil {
			return err
		}
		swept = balance
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.recorder.ObserveTokens(op, swept)
	if swept == 0 {
		s.logger.Warn("collection vault already empty",
			"collection", collection.String(),
			"authority", signer.String())
		return 0, nil
	}
	s.logger.Info("collection vault withdrawn",
		"collection", collection.String(),
		"authority", signer.String(),
		"amount", swept)
	return swept, nil
}
