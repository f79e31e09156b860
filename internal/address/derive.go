// Package address derives the deterministic account identities used by the
// ledger. Every collection, distribution, per-user state record, receipt mint
// and custody account lives at an address computable from public seeds, so no
// party needs a registry to locate a record.
package address

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// DefaultProgramID is the program id the seeds are derived under unless the
// configuration overrides it.
var DefaultProgramID = solana.MustPublicKeyFromBase58("DisJzzeTrLXzJgtaaqBxcNKLrLFyc4mY3ELGCdEkVPzt")

// Seed prefixes. These are part of the on-chain address format and must not change.
const (
	collectionSeed            = "collection"
	receiptMintSeed           = "replacement_mint"
	distributionSeed          = "distribution"
	collectionUserStateSeed   = "user_state"
	distributionUserStateSeed = "distribution_user_state"
)

// Deriver computes program-derived addresses for ledger records.
// It is pure and safe for concurrent use.
type Deriver struct {
	programID solana.PublicKey
}

// NewDeriver returns a Deriver for the given program id.
func NewDeriver(programID solana.PublicKey) *Deriver {
	return &Deriver{programID: programID}
}

// ProgramID returns the program id addresses are derived under.
func (d *Deriver) ProgramID() solana.PublicKey {
	return d.programID
}

// Derive maps a seed tuple to an address and its bump.
func (d *Deriver) Derive(seeds ...[]byte) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, d.programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("deriving program address: %w", err)
	}
	return addr, bump, nil
}

// Collection derives the address of the collection identified by
// (authority, base mint, counter). The counter is encoded as 8 little-endian bytes.
func (d *Deriver) Collection(authority, mint solana.PublicKey, counter uint64) (solana.PublicKey, uint8, error) {
	var counterBytes [8]byte
	binary.LittleEndian.PutUint64(counterBytes[:], counter)
	return d.Derive([]byte(collectionSeed), authority.Bytes(), mint.Bytes(), counterBytes[:])
}

// ReceiptMint derives the receipt token mint owned by a collection.
func (d *Deriver) ReceiptMint(collection solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := d.Derive([]byte(receiptMintSeed), collection.Bytes())
	return addr, err
}

// Distribution derives the address of the distribution of rewardMint for a collection.
func (d *Deriver) Distribution(collection, rewardMint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return d.Derive([]byte(distributionSeed), collection.Bytes(), rewardMint.Bytes())
}

// CollectionUserState derives the deposit record of user in a collection.
func (d *Deriver) CollectionUserState(collection, user solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := d.Derive([]byte(collectionUserStateSeed), collection.Bytes(), user.Bytes())
	return addr, err
}

// DistributionUserState derives the claim record of user in a distribution.
func (d *Deriver) DistributionUserState(distribution, user solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := d.Derive([]byte(distributionUserStateSeed), distribution.Bytes(), user.Bytes())
	return addr, err
}

// TokenAccount returns the associated token account of owner for mint.
// Custody vaults are the token accounts owned by a collection or distribution.
func TokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("deriving token account: %w", err)
	}
	return addr, nil
}
