package encryption

import (
	"fmt"
	"io"
)

// NoneEncryptor stores snapshots as plaintext. Meant for local-only
// archives where the database file is no more exposed than the archive.
type NoneEncryptor struct{}

var _ Encryptor = NoneEncryptor{}

func (NoneEncryptor) Setup(string) error { return nil }

func (NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}

func (NoneEncryptor) Unlock(string) (Decryptor, error) { return plainDecryptor{}, nil }

func (NoneEncryptor) IsConfigured() bool { return true }

type plainDecryptor struct{}

func (plainDecryptor) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying snapshot: %w", err)
	}
	return nil
}
