package ledger

import (
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
)

// MaxAmount is the largest token amount the ledger stores. Balances, supplies
// and counters above it are rejected with KindOverflow.
const MaxAmount uint64 = math.MaxInt64

// Collection is a capped pool that accepts a single base token from many depositors.
type Collection struct {
	Address                 solana.PublicKey
	Authority               solana.PublicKey
	BaseMint                solana.PublicKey
	Vault                   solana.PublicKey // custody account for non-burned deposits
	ReceiptMint             solana.PublicKey // minted 1:1 on every commit
	BurnOnCommit            bool
	MaxCollectableTokens    uint64 // fixed at creation
	LifetimeTokensCollected uint64 // includes withdrawn tokens
	Counter                 uint64
	Bump                    uint8
	CreatedAt               time.Time
}

// Remaining returns the headroom left under the cap.
func (c *Collection) Remaining() uint64 {
	if c.LifetimeTokensCollected >= c.MaxCollectableTokens {
		return 0
	}
	return c.MaxCollectableTokens - c.LifetimeTokensCollected
}

// CollectionUserState tracks one depositor's cumulative commits to a collection.
type CollectionUserState struct {
	Address         solana.PublicKey
	Collection      solana.PublicKey
	Owner           solana.PublicKey
	DepositedAmount uint64
}

// Distribution is a reward pool of one token, paid out to the depositors of
// a single collection in proportion to their share of the cap.
type Distribution struct {
	Address                 solana.PublicKey
	Collection              solana.PublicKey
	RewardMint              solana.PublicKey
	Vault                   solana.PublicKey
	LifetimeDepositedTokens uint64
	DistributedTokens       uint64
	Bump                    uint8
	CreatedAt               time.Time
}

// Outstanding returns the amount the vault must still hold to honor past top-ups.
func (d *Distribution) Outstanding() uint64 {
	if d.DistributedTokens >= d.LifetimeDepositedTokens {
		return 0
	}
	return d.LifetimeDepositedTokens - d.DistributedTokens
}

// DistributionUserState tracks how much one depositor has claimed from a distribution.
type DistributionUserState struct {
	Address        solana.PublicKey
	Distribution   solana.PublicKey
	Owner          solana.PublicKey
	ReceivedAmount uint64
}

// Mint is a token type managed by the custody primitive.
type Mint struct {
	Address   solana.PublicKey
	Authority solana.PublicKey
	Decimals  uint8
	Supply    uint64
}

// TokenAccount holds a balance of one mint on behalf of an owner.
type TokenAccount struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
}

// Operation is a journaled CLI operation.
type Operation struct {
	ID         int64
	Name       string
	Parameters string
	Status     string // "running", "success" or "error"
	StartedAt  time.Time
	FinishedAt *time.Time
}
