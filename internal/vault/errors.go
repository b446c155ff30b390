package vault

import "errors"

var (
	// ErrNotUnlocked is returned by Encrypt and Decrypt while the vault
	// holds no key material.
	ErrNotUnlocked = errors.New("vault is locked")

	// ErrIntegrity is returned when a record fails authentication: a
	// flipped bit, altered associated data, a wrong key (wrong secret),
	// or a structurally malformed record. Decryption fails closed and
	// never returns partial plaintext.
	ErrIntegrity = errors.New("record integrity check failed")
)
