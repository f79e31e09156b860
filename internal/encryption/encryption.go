// Package encryption protects ledger snapshots before they leave the host.
package encryption

import "io"

// Encryptor seals snapshots with a public key and unlocks the matching
// private key for restore.
type Encryptor interface {
	// Setup generates and stores the key pair. The private key is sealed
	// with passphrase. Called by `multidist config init`.
	Setup(passphrase string) error

	// Encrypt writes the ciphertext of r to w. No passphrase is needed.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock opens the private key. Fails on a wrong passphrase.
	Unlock(passphrase string) (Decryptor, error)

	// IsConfigured reports whether the keys Encrypt and Unlock need exist.
	IsConfigured() bool
}

// Decryptor holds an unlocked private key in memory for one restore.
type Decryptor interface {
	Decrypt(r io.Reader, w io.Writer) error
}
