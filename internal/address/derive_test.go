package address

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func newKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

func TestDeriver_Collection(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	authority := newKey()
	mint := newKey()

	t.Run("is deterministic", func(t *testing.T) {
		a1, b1, err := d.Collection(authority, mint, 1)
		if err != nil {
			t.Fatalf("Collection() error = %v", err)
		}
		a2, b2, err := d.Collection(authority, mint, 1)
		if err != nil {
			t.Fatalf("Collection() error = %v", err)
		}
		if !a1.Equals(a2) || b1 != b2 {
			t.Errorf("Collection() = (%s, %d), then (%s, %d)", a1, b1, a2, b2)
		}
	})

	t.Run("differs per counter", func(t *testing.T) {
		a1, _, _ := d.Collection(authority, mint, 1)
		a2, _, _ := d.Collection(authority, mint, 2)
		if a1.Equals(a2) {
			t.Errorf("counters 1 and 2 derived the same address %s", a1)
		}
	})

	t.Run("differs per authority and mint", func(t *testing.T) {
		a1, _, _ := d.Collection(authority, mint, 1)
		a2, _, _ := d.Collection(newKey(), mint, 1)
		a3, _, _ := d.Collection(authority, newKey(), 1)
		if a1.Equals(a2) || a1.Equals(a3) {
			t.Error("distinct seed tuples derived the same address")
		}
	})

	t.Run("differs per program", func(t *testing.T) {
		other := NewDeriver(newKey())
		a1, _, _ := d.Collection(authority, mint, 1)
		a2, _, _ := other.Collection(authority, mint, 1)
		if a1.Equals(a2) {
			t.Error("different programs derived the same address")
		}
	})
}

func TestDeriver_RecordAddressesAreDistinct(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	collection, _, err := d.Collection(newKey(), newKey(), 7)
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	user := newKey()
	rewardMint := newKey()

	receipt, err := d.ReceiptMint(collection)
	if err != nil {
		t.Fatalf("ReceiptMint() error = %v", err)
	}
	distribution, _, err := d.Distribution(collection, rewardMint)
	if err != nil {
		t.Fatalf("Distribution() error = %v", err)
	}
	cus, err := d.CollectionUserState(collection, user)
	if err != nil {
		t.Fatalf("CollectionUserState() error = %v", err)
	}
	dus, err := d.DistributionUserState(distribution, user)
	if err != nil {
		t.Fatalf("DistributionUserState() error = %v", err)
	}

	seen := map[solana.PublicKey]string{}
	for name, addr := range map[string]solana.PublicKey{
		"collection":   collection,
		"receipt":      receipt,
		"distribution": distribution,
		"cus":          cus,
		"dus":          dus,
	} {
		if prev, ok := seen[addr]; ok {
			t.Errorf("%s and %s share address %s", name, prev, addr)
		}
		seen[addr] = name
	}
}

func TestTokenAccount(t *testing.T) {
	owner := newKey()
	mint := newKey()

	a1, err := TokenAccount(owner, mint)
	if err != nil {
		t.Fatalf("TokenAccount() error = %v", err)
	}
	a2, err := TokenAccount(owner, mint)
	if err != nil {
		t.Fatalf("TokenAccount() error = %v", err)
	}
	if !a1.Equals(a2) {
		t.Errorf("TokenAccount() not deterministic: %s vs %s", a1, a2)
	}

	other, _ := TokenAccount(owner, newKey())
	if a1.Equals(other) {
		t.Error("TokenAccount() returned the same account for different mints")
	}
}
