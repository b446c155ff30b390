// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

// Package vault owns the encryption key lifecycle: deriving a key from the
// user's secret, holding it only in memory while unlocked, and sealing or
// opening opaque payloads with AES-256-GCM.
//
// The vault cannot verify a secret on its own. There is no stored check
// value: a wrong secret derives a wrong key, and the mistake surfaces as
// [ErrIntegrity] on the first decrypt. That is a deliberate zero-knowledge
// property; adding a checkable hash of the secret would let an attacker test
// guesses offline without paying the full KDF cost per guess.
package vault

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carelog/carelog/internal/logger"
	"github.com/carelog/carelog/models"
)

// Status reports the vault session state for diagnostics and UI.
type Status struct {
	Unlocked   bool
	KeyVersion int
}

// Vault holds derived key material for the duration of an unlocked session.
// The key is the engine's only shared mutable state; every access goes
// through a single mutex.
type Vault struct {
	kc  *keyChain
	log *logger.Logger

	mu         sync.Mutex
	key        []byte
	keyVersion int
}

// New constructs a locked Vault with the given KDF parameters.
func New(params KDFParams, log *logger.Logger) *Vault {
	return &Vault{
		kc:  newKeyChain(params),
		log: log,
	}
}

// GenerateSalt produces a fresh key-derivation salt. The caller persists it
// in plaintext; only the secret is secret.
func (v *Vault) GenerateSalt() ([]byte, error) {
	return v.kc.generateSalt()
}

// Unlock derives the session key from secret and salt and transitions the
// vault to the unlocked state. keyVersion is the version recorded on every
// record sealed by this session.
//
// Derivation is CPU-bound and intentionally slow; callers must not run it
// on a UI thread. ctx is checked before the derivation starts so an
// already-cancelled unlock does no work.
//
// Unlocking an already-unlocked vault replaces the held key.
func (v *Vault) Unlock(ctx context.Context, secret string, salt []byte, keyVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	key := v.kc.deriveKey(secret, salt)

	v.mu.Lock()
	v.zeroKeyLocked()
	v.key = key
	v.keyVersion = keyVersion
	v.mu.Unlock()

	v.log.Debug().
		Dur("kdf_elapsed", time.Since(started)).
		Int("key_version", keyVersion).
		Msg("vault unlocked")

	return nil
}

// Lock discards the key material immediately. Subsequent Encrypt and
// Decrypt calls fail with [ErrNotUnlocked] until Unlock succeeds again.
// Locking a locked vault is a no-op.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return
	}

	v.zeroKeyLocked()
	v.log.Debug().Msg("vault locked")
}

// Status reports whether the vault is unlocked and the active key version.
func (v *Vault) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()

	return Status{Unlocked: v.key != nil, KeyVersion: v.keyVersion}
}

// Encrypt seals plaintext under the session key with a fresh random nonce,
// binding the authentication tag to aad. Two calls with identical plaintext
// never produce identical ciphertext.
func (v *Vault) Encrypt(plaintext []byte, aad string) (models.EncryptedRecord, error) {
	key, version, err := v.sessionKey()
	if err != nil {
		return models.EncryptedRecord{}, err
	}

	nonce, ciphertext, err := v.kc.seal(key, plaintext, aad)
	if err != nil {
		return models.EncryptedRecord{}, fmt.Errorf("seal record: %w", err)
	}

	return models.EncryptedRecord{
		Algorithm:  models.AlgAESGCM,
		KeyVersion: version,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		CreatedAt:  time.Now().UTC(),
		Metadata:   aad,
	}, nil
}

// Decrypt opens rec under the session key. expectedAAD, when non-empty,
// must match the associated data the record was sealed with. Any tag
// mismatch or malformed record is reported as [ErrIntegrity]; no partial
// plaintext is ever returned.
func (v *Vault) Decrypt(rec models.EncryptedRecord, expectedAAD string) ([]byte, error) {
	key, _, err := v.sessionKey()
	if err != nil {
		return nil, err
	}

	if rec.Algorithm != models.AlgAESGCM {
		return nil, fmt.Errorf("%w: unknown algorithm %q", ErrIntegrity, rec.Algorithm)
	}
	if expectedAAD != "" && rec.Metadata != expectedAAD {
		return nil, fmt.Errorf("%w: associated data mismatch", ErrIntegrity)
	}

	plaintext, err := v.kc.open(key, rec.Nonce, rec.Ciphertext, rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	return plaintext, nil
}

// Rotate derives a new session key from newSecret and newSalt and bumps the
// key version. It requires an unlocked vault: rotation is the tail end of a
// re-key batch, after every record has been read back under the old key.
// Returns the new key version.
func (v *Vault) Rotate(newSecret string, newSalt []byte) (int, error) {
	v.mu.Lock()
	if v.key == nil {
		v.mu.Unlock()
		return 0, ErrNotUnlocked
	}
	version := v.keyVersion + 1
	v.mu.Unlock()

	// Derive outside the lock; the KDF takes long enough to starve other
	// callers otherwise.
	key := v.kc.deriveKey(newSecret, newSalt)

	v.mu.Lock()
	v.zeroKeyLocked()
	v.key = key
	v.keyVersion = version
	v.mu.Unlock()

	v.log.Info().Int("key_version", version).Msg("vault key rotated")

	return version, nil
}

// sessionKey returns a copy of the active key so callers can release the
// mutex before the (comparatively slow) AEAD work.
func (v *Vault) sessionKey() ([]byte, int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return nil, 0, ErrNotUnlocked
	}

	key := make([]byte, len(v.key))
	copy(key, v.key)
	return key, v.keyVersion, nil
}

func (v *Vault) zeroKeyLocked() {
	for i := range v.key {
		v.key[i] = 0
	}
	v.key = nil
}
