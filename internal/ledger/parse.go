package ledger

import (
	"github.com/gagliardetto/solana-go"
)

// ParseAddress decodes a base58 address supplied by a caller. field names the
// argument in the InvalidArgument error.
func ParseAddress(field, raw string) (solana.PublicKey, error) {
	if raw == "" {
		return solana.PublicKey{}, Errorf(KindInvalidArgument, "", "%s address is required", field)
	}
	pk, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, &Error{Kind: KindInvalidArgument, Msg: field + " address " + raw + " is not valid base58", Err: err}
	}
	return pk, nil
}
