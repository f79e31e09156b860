package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// CreateMint registers a new token type under a freshly generated address.
// Used to set up development ledgers.
func (s *Service) CreateMint(ctx context.Context, authority solana.PublicKey, decimals uint8) (*Mint, error) {
	addr := solana.NewWallet().PublicKey()

	var m *Mint
	err := s.update(ctx, OpCreateMint, func(tx Tx) error {
		var err error
		m, err = tx.CreateMint(ctx, addr, authority, decimals)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("mint created", "mint", addr.String(), "authority", authority.String(), "decimals", decimals)
	return m, nil
}

// MintTokens mints amount tokens into owner's account, creating it if needed.
// signer must be the mint authority.
func (s *Service) MintTokens(ctx context.Context, signer, mint, owner solana.PublicKey, amount uint64) (*TokenAccount, error) {
	op := OpMintTokens
	if amount == 0 {
		return nil, Errorf(KindInvalidArgument, op, "amount must be greater than zero")
	}

	var acct *TokenAccount
	err := s.update(ctx, op, func(tx Tx) error {
		m, err := tx.GetMint(ctx, mint)
		if err != nil {
			return err
		}
		if m == nil {
			return Errorf(KindNotFound, op, "mint %s does not exist", mint)
		}
		dst, err := tx.EnsureAccount(ctx, owner, mint)
		if err != nil {
			return err
		}
		if err := tx.MintTo(ctx, mint, dst.Address, signer, amount); err != nil {
			return err
		}
		acct, err = tx.GetAccount(ctx, dst.Address)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.recorder.ObserveTokens(op, amount)
	s.logger.Info("tokens minted", "mint", mint.String(), "owner", owner.String(), "amount", amount)
	return acct, nil
}
