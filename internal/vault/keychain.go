// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/argon2"
)

// keyChain bundles the key-derivation and AEAD primitives the vault is
// built on. It knows nothing about storage, sessions, or key lifecycle.
type keyChain struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// KDFParams overrides the Argon2id defaults. Zero fields keep the default.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// newKeyChain constructs a keyChain with the Argon2id parameters
// recommended by OWASP (2024) unless overridden:
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func newKeyChain(p KDFParams) *keyChain {
	kc := &keyChain{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
	if p.Time > 0 {
		kc.argonTime = p.Time
	}
	if p.MemoryKiB > 0 {
		kc.argonMemory = p.MemoryKiB
	}
	if p.Threads > 0 {
		kc.argonThreads = p.Threads
	}
	return kc
}

// generateSalt reads 16 random bytes from the OS CSPRNG and returns them as
// the key-derivation salt. The salt is not a secret; it only ensures equal
// secrets derive different keys.
func (k *keyChain) generateSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// deriveKey derives a 256-bit key from secret and salt using Argon2id with
// the parameters stored in the receiver. CPU-bound and intentionally slow;
// the result exists only in memory and is never persisted.
func (k *keyChain) deriveKey(secret string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(secret),
		salt,
		k.argonTime,
		k.argonMemory,
		k.argonThreads,
		k.argonKeyLen,
	)
}

// seal encrypts plaintext with key using AES-256-GCM, binding the tag to
// aad. A fresh random 12-byte nonce is generated per call and returned
// separately from the ciphertext.
func (k *keyChain) seal(key, plaintext []byte, aad string) (nonce, ciphertext []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, []byte(aad))
	return nonce, ciphertext, nil
}

// open decrypts ciphertext with key and verifies the GCM tag against aad.
// Any mismatch (wrong key, flipped bit, altered aad) fails with an error
// and no plaintext.
func (k *keyChain) open(key, nonce, ciphertext []byte, aad string) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("bad nonce length")
	}

	return gcm.Open(nil, nonce, ciphertext, []byte(aad))
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
