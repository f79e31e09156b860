package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AuditReport is the result of checking a collection's conservation invariants.
type AuditReport struct {
	Collection    *Collection
	SumDeposited  uint64
	ReceiptSupply uint64
	VaultBalance  uint64
	Distributions []*DistributionAudit
	Violations    []string
}

// DistributionAudit is the per-distribution part of an AuditReport.
type DistributionAudit struct {
	Distribution *Distribution
	VaultBalance uint64
}

// OK reports whether no invariant was violated.
func (r *AuditReport) OK() bool {
	return len(r.Violations) == 0
}

func (r *AuditReport) violate(format string, args ...any) {
	r.Violations = append(r.Violations, fmt.Sprintf(format, args...))
}

// Audit checks the invariants of a collection and its distributions:
//
//   - lifetime collected is within the cap
//   - the sum of all deposits equals lifetime collected
//   - the receipt supply equals lifetime collected
//   - each distribution has distributed no more than was deposited
//   - each distribution vault holds at least what is still owed
//
// This is the only operation that scans every depositor of a collection.
// Violations are reported in the result, not as an error.
func (s *Service) Audit(ctx context.Context, collection solana.PublicKey) (*AuditReport, error) {
	report := &AuditReport{}

	err := s.view(ctx, func(tx Tx) error {
		c, err := mustCollection(ctx, tx, "audit", collection)
		if err != nil {
			return err
		}
		report.Collection = c

		if report.SumDeposited, err = tx.SumDeposited(ctx, collection); err != nil {
			return err
		}
		receipt, err := tx.GetMint(ctx, c.ReceiptMint)
		if err != nil {
			return err
		}
		if receipt == nil {
			report.violate("receipt mint %s is missing", c.ReceiptMint)
		} else {
			report.ReceiptSupply = receipt.Supply
		}
		if report.VaultBalance, err = tx.Balance(ctx, c.Vault); err != nil {
			return err
		}

		if c.LifetimeTokensCollected > c.MaxCollectableTokens {
			report.violate("collected %d exceeds cap %d", c.LifetimeTokensCollected, c.MaxCollectableTokens)
		}
		if report.SumDeposited != c.LifetimeTokensCollected {
			report.violate("sum of deposits %d differs from collected %d", report.SumDeposited, c.LifetimeTokensCollected)
		}
		if receipt != nil && receipt.Supply != c.LifetimeTokensCollected {
			report.violate("receipt supply %d differs from collected %d", receipt.Supply, c.LifetimeTokensCollected)
		}

		distributions, err := tx.ListDistributions(ctx, collection)
		if err != nil {
			return err
		}
		for _, d := range distributions {
			balance, err := tx.Balance(ctx, d.Vault)
			if err != nil {
				return err
			}
			report.Distributions = append(report.Distributions, &DistributionAudit{Distribution: d, VaultBalance: balance})

			if d.DistributedTokens > d.LifetimeDepositedTokens {
				report.violate("distribution %s paid %d of %d deposited", d.Address, d.DistributedTokens, d.LifetimeDepositedTokens)
			}
			if balance < d.Outstanding() {
				report.violate("distribution %s vault holds %d, owes %d", d.Address, balance, d.Outstanding())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.OK() {
		s.logger.Error("audit found violations", "collection", collection.String(), "count", len(report.Violations))
	}
	return report, nil
}
