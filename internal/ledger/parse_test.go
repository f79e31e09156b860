package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestParseAddress(t *testing.T) {
	valid := solana.SystemProgramID.String()

	tests := []struct {
		name    string
		raw     string
		want    solana.PublicKey
		wantErr bool
	}{
		{name: "valid", raw: valid, want: solana.SystemProgramID},
		{name: "empty", raw: "", wantErr: true},
		{name: "not base58", raw: "0OIl", wantErr: true},
		{name: "wrong length", raw: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress("collection", tt.raw)
			if tt.wantErr {
				if KindOf(err) != KindInvalidArgument {
					t.Fatalf("ParseAddress() error = %v, want InvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAddress() = %s, want %s", got, tt.want)
			}
		})
	}
}
