package encryption

import (
	"bytes"
	"fmt"
	"io"
)

// testHeader marks snapshots sealed by TestEncryptor.
var testHeader = []byte("MDSNAP\x00\x01")

// TestEncryptor prepends a fixed header on Encrypt and requires it on
// Decrypt. Deterministic and key-free, for tests.
type TestEncryptor struct {
	setupCalled bool
	passphrase  string
}

var _ Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

// Unlock rejects a passphrase that differs from the one given to Setup.
// Before Setup any passphrase is accepted.
func (e *TestEncryptor) Unlock(passphrase string) (Decryptor, error) {
	if e.setupCalled && passphrase != e.passphrase {
		return nil, fmt.Errorf("wrong passphrase")
	}
	return &TestDecryptor{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptor strips the header added by TestEncryptor.
type TestDecryptor struct{}

var _ Decryptor = (*TestDecryptor)(nil)

func (d *TestDecryptor) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
