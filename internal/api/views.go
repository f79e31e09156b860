package api

import (
	"time"

	"multidist/internal/ledger"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type collectionView struct {
	Address                 string    `json:"address"`
	Authority               string    `json:"authority"`
	BaseMint                string    `json:"base_mint"`
	Vault                   string    `json:"vault"`
	ReceiptMint             string    `json:"receipt_mint"`
	BurnOnCommit            bool      `json:"burn_on_commit"`
	MaxCollectableTokens    uint64    `json:"max_collectable_tokens"`
	LifetimeTokensCollected uint64    `json:"lifetime_tokens_collected"`
	Remaining               uint64    `json:"remaining"`
	Counter                 uint64    `json:"counter"`
	CreatedAt               time.Time `json:"created_at"`
}

func newCollectionView(c *ledger.Collection) collectionView {
	return collectionView{
		Address:                 c.Address.String(),
		Authority:               c.Authority.String(),
		BaseMint:                c.BaseMint.String(),
		Vault:                   c.Vault.String(),
		ReceiptMint:             c.ReceiptMint.String(),
		BurnOnCommit:            c.BurnOnCommit,
		MaxCollectableTokens:    c.MaxCollectableTokens,
		LifetimeTokensCollected: c.LifetimeTokensCollected,
		Remaining:               c.Remaining(),
		Counter:                 c.Counter,
		CreatedAt:               c.CreatedAt,
	}
}

type distributionView struct {
	Address                 string    `json:"address"`
	Collection              string    `json:"collection"`
	RewardMint              string    `json:"reward_mint"`
	Vault                   string    `json:"vault"`
	LifetimeDepositedTokens uint64    `json:"lifetime_deposited_tokens"`
	DistributedTokens       uint64    `json:"distributed_tokens"`
	Outstanding             uint64    `json:"outstanding"`
	CreatedAt               time.Time `json:"created_at"`
}

func newDistributionView(d *ledger.Distribution) distributionView {
	return distributionView{
		Address:                 d.Address.String(),
		Collection:              d.Collection.String(),
		RewardMint:              d.RewardMint.String(),
		Vault:                   d.Vault.String(),
		LifetimeDepositedTokens: d.LifetimeDepositedTokens,
		DistributedTokens:       d.DistributedTokens,
		Outstanding:             d.Outstanding(),
		CreatedAt:               d.CreatedAt,
	}
}

type claimView struct {
	Distribution string `json:"distribution"`
	RewardMint   string `json:"reward_mint"`
	Entitlement  uint64 `json:"entitlement"`
	Received     uint64 `json:"received"`
	Claimable    uint64 `json:"claimable"`
}

type positionView struct {
	Collection string      `json:"collection"`
	Owner      string      `json:"owner"`
	Deposited  uint64      `json:"deposited"`
	Claims     []claimView `json:"claims"`
}

func newPositionView(p *ledger.Position) positionView {
	v := positionView{
		Collection: p.Collection.String(),
		Owner:      p.Owner.String(),
		Deposited:  p.Deposited,
		Claims:     make([]claimView, 0, len(p.Claims)),
	}
	for _, c := range p.Claims {
		v.Claims = append(v.Claims, claimView{
			Distribution: c.Distribution.Address.String(),
			RewardMint:   c.Distribution.RewardMint.String(),
			Entitlement:  c.Entitlement,
			Received:     c.Received,
			Claimable:    c.Claimable,
		})
	}
	return v
}

type distributionAuditView struct {
	Distribution string `json:"distribution"`
	VaultBalance uint64 `json:"vault_balance"`
	Outstanding  uint64 `json:"outstanding"`
}

type auditView struct {
	Collection    string                  `json:"collection"`
	OK            bool                    `json:"ok"`
	SumDeposited  uint64                  `json:"sum_deposited"`
	ReceiptSupply uint64                  `json:"receipt_supply"`
	VaultBalance  uint64                  `json:"vault_balance"`
	Distributions []distributionAuditView `json:"distributions"`
	Violations    []string                `json:"violations"`
}

func newAuditView(r *ledger.AuditReport) auditView {
	violations := r.Violations
	if violations == nil {
		violations = []string{}
	}
	v := auditView{
		Collection:    r.Collection.Address.String(),
		OK:            r.OK(),
		SumDeposited:  r.SumDeposited,
		ReceiptSupply: r.ReceiptSupply,
		VaultBalance:  r.VaultBalance,
		Distributions: make([]distributionAuditView, 0, len(r.Distributions)),
		Violations:    violations,
	}
	for _, d := range r.Distributions {
		v.Distributions = append(v.Distributions, distributionAuditView{
			Distribution: d.Distribution.Address.String(),
			VaultBalance: d.VaultBalance,
			Outstanding:  d.Distribution.Outstanding(),
		})
	}
	return v
}
