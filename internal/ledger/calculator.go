package ledger

import "math/bits"

// Claim is a depositor's position in one distribution.
type Claim struct {
	Entitlement uint64 // share of everything ever deposited into the distribution
	Received    uint64 // already paid out
	Claimable   uint64 // Entitlement - Received, clamped at zero
}

// Entitlement returns floor(lifetimeDeposited * deposited / maxCollectable).
// The denominator is the fixed cap, not the amount collected so far, so
// shares never shift as more depositors arrive.
func Entitlement(lifetimeDeposited, deposited, maxCollectable uint64) (uint64, error) {
	if maxCollectable == 0 {
		return 0, Errorf(KindInvalidArgument, "", "max collectable tokens is zero")
	}
	return mulDiv(lifetimeDeposited, deposited, maxCollectable)
}

// mulDiv computes floor(a * b / c) with a 128-bit intermediate product.
func mulDiv(a, b, c uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi == 0 {
		return lo / c, nil
	}
	// bits.Div64 panics when the quotient does not fit in 64 bits.
	if hi >= c {
		return 0, Errorf(KindOverflow, "", "entitlement exceeds 64 bits")
	}
	quo, _ := bits.Div64(hi, lo, c)
	return quo, nil
}

// Claimable computes a depositor's claim against d. Either user state may be
// nil, meaning the depositor has not committed or not claimed yet.
func Claimable(c *Collection, d *Distribution, cus *CollectionUserState, dus *DistributionUserState) (Claim, error) {
	var deposited, received uint64
	if cus != nil {
		deposited = cus.DepositedAmount
	}
	if dus != nil {
		received = dus.ReceivedAmount
	}

	entitlement, err := Entitlement(d.LifetimeDepositedTokens, deposited, c.MaxCollectableTokens)
	if err != nil {
		return Claim{}, err
	}

	claim := Claim{Entitlement: entitlement, Received: received}
	if entitlement > received {
		claim.Claimable = entitlement - received
	}
	return claim, nil
}
