package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"multidist/internal/address"
)

// Entry point names, used in errors, logs and metrics.
const (
	OpInitCollection            = "init_collection"
	OpInitDistribution          = "init_distribution"
	OpAddDistributionTokens     = "add_distribution_tokens"
	OpUserCommitToCollection    = "user_commit_to_collection"
	OpUserClaimFromDistribution = "user_claim_from_distribution"
	OpWithdrawFromCollection    = "withdraw_from_collection"
	OpCreateMint                = "create_mint"
	OpMintTokens                = "mint_tokens"
)

// Recorder observes completed operations. Implemented by the metrics package.
type Recorder interface {
	ObserveOperation(op string, err error)
	ObserveTokens(op string, amount uint64)
}

// NopRecorder discards all observations.
type NopRecorder struct{}

func (NopRecorder) ObserveOperation(string, error) {}
func (NopRecorder) ObserveTokens(string, uint64)   {}

// Service is the ledger's processor layer. Every mutating method runs in
// exactly one Store.Update transaction and either fully applies or fully fails.
type Service struct {
	store    Store
	deriver  *address.Deriver
	logger   Logger
	clock    clockwork.Clock
	recorder Recorder
}

// NewService creates a Service with the provided dependencies.
func NewService(store Store, deriver *address.Deriver, logger Logger, clock clockwork.Clock, recorder Recorder) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Service{
		store:    store,
		deriver:  deriver,
		logger:   logger,
		clock:    clock,
		recorder: recorder,
	}
}

// Deriver returns the address deriver the service computes identities with.
func (s *Service) Deriver() *address.Deriver {
	return s.deriver
}

// update runs fn in a write transaction and records the outcome under op.
func (s *Service) update(ctx context.Context, op string, fn func(tx Tx) error) error {
	err := withOp(op, s.store.Update(ctx, fn))
	s.recorder.ObserveOperation(op, err)
	return err
}

// InitCollectionParams are the creation arguments of a collection.
type InitCollectionParams struct {
	Authority            solana.PublicKey
	BaseMint             solana.PublicKey
	Counter              uint64
	MaxCollectableTokens uint64
	BurnOnCommit         bool
}

// InitCollection creates a collection at the address derived from
// (authority, base mint, counter), along with its vault and receipt mint.
// The receipt mint uses the base mint's decimals and has the collection as authority.
func (s *Service) InitCollection(ctx context.Context, p InitCollectionParams) (*Collection, error) {
	op := OpInitCollection
	if p.MaxCollectableTokens == 0 {
		return nil, Errorf(KindInvalidArgument, op, "max collectable tokens must be greater than zero")
	}
	if p.MaxCollectableTokens > MaxAmount {
		return nil, Errorf(KindOverflow, op, "max collectable tokens %d exceeds %d", p.MaxCollectableTokens, MaxAmount)
	}

	addr, bump, err := s.deriver.Collection(p.Authority, p.BaseMint, p.Counter)
	if err != nil {
		return nil, fmt.Errorf("deriving collection address: %w", err)
	}
	receiptMint, err := s.deriver.ReceiptMint(addr)
	if err != nil {
		return nil, fmt.Errorf("deriving receipt mint address: %w", err)
	}

	var created *Collection
	err = s.update(ctx, op, func(tx Tx) error {
		existing, err := tx.GetCollection(ctx, addr)
		if err != nil {
			return err
		}
		if existing != nil {
			return Errorf(KindAlreadyExists, op, "collection %s already exists", addr)
		}

		base, err := tx.GetMint(ctx, p.BaseMint)
		if err != nil {
			return err
		}
		if base == nil {
			return Errorf(KindNotFound, op, "base mint %s does not exist", p.BaseMint)
		}

		vault, err := tx.EnsureAccount(ctx, addr, p.BaseMint)
		if err != nil {
			return err
		}
		if _, err := tx.CreateMint(ctx, receiptMint, addr, base.Decimals); err != nil {
			return err
		}

		created = &Collection{
			Address:              addr,
			Authority:            p.Authority,
			BaseMint:             p.BaseMint,
			Vault:                vault.Address,
			ReceiptMint:          receiptMint,
			BurnOnCommit:         p.BurnOnCommit,
			MaxCollectableTokens: p.MaxCollectableTokens,
			Counter:              p.Counter,
			Bump:                 bump,
			CreatedAt:            s.clock.Now().UTC(),
		}
		return tx.InsertCollection(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("collection initialized",
		"collection", addr.String(),
		"authority", p.Authority.String(),
		"mint", p.BaseMint.String(),
		"counter", p.Counter,
		"max", p.MaxCollectableTokens,
		"burn", p.BurnOnCommit)
	return created, nil
}

// InitDistribution creates the distribution of rewardMint for collection.
// Only the collection authority may create distributions.
func (s *Service) InitDistribution(ctx context.Context, authority, collection, rewardMint solana.PublicKey) (*Distribution, error) {
	op := OpInitDistribution

	addr, bump, err := s.deriver.Distribution(collection, rewardMint)
	if err != nil {
		return nil, fmt.Errorf("deriving distribution address: %w", err)
	}

	var created *Distribution
	err = s.update(ctx, op, func(tx Tx) error {
		c, err := tx.GetCollection(ctx, collection)
		if err != nil {
			return err
		}
		if c == nil {
			return Errorf(KindNotFound, op, "collection %s does not exist", collection)
		}
		if !c.Authority.Equals(authority) {
			return Errorf(KindUnauthorized, op, "%s is not the authority of collection %s", authority, collection)
		}

		mint, err := tx.GetMint(ctx, rewardMint)
		if err != nil {
			return err
		}
		if mint == nil {
			return Errorf(KindNotFound, op, "reward mint %s does not exist", rewardMint)
		}

		existing, err := tx.GetDistribution(ctx, addr)
		if err != nil {
			return err
		}
		if existing != nil {
			return Errorf(KindAlreadyExists, op, "distribution of %s for collection %s already exists", rewardMint, collection)
		}

		vault, err := tx.EnsureAccount(ctx, addr, rewardMint)
		if err != nil {
			return err
		}

		created = &Distribution{
			Address:    addr,
			Collection: collection,
			RewardMint: rewardMint,
			Vault:      vault.Address,
			Bump:       bump,
			CreatedAt:  s.clock.Now().UTC(),
		}
		return tx.InsertDistribution(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("distribution initialized",
		"distribution", addr.String(),
		"collection", collection.String(),
		"mint", rewardMint.String())
	return created, nil
}

// sourceAccount resolves owner's token account for mint. A missing account
// holds nothing, so it is reported as insufficient funds.
func sourceAccount(ctx context.Context, tx Tx, op string, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, err := address.TokenAccount(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("deriving token account: %w", err)
	}
	acct, err := tx.GetAccount(ctx, addr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if acct == nil {
		return solana.PublicKey{}, Errorf(KindInsufficientFunds, op, "%s holds no %s tokens", owner, mint)
	}
	return addr, nil
}
