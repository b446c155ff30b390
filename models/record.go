// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Carelog Authors

package models

import "time"

// AlgAESGCM identifies AES-256-GCM, the only algorithm the engine currently
// produces. The tag is stored per record so that a future algorithm change
// can decrypt old records without guessing.
const AlgAESGCM = "aes-256-gcm"

// EncryptedRecord is the ciphertext envelope produced by the vault.
// The nonce is unique per record; reusing a nonce under the same key breaks
// the confidentiality guarantees of GCM, so the vault generates a fresh
// random nonce on every call.
type EncryptedRecord struct {
	// Algorithm is the AEAD algorithm tag, currently always [AlgAESGCM].
	Algorithm string `json:"alg"`

	// KeyVersion records which key generation sealed this record. It
	// disambiguates records while a re-key batch is in flight.
	KeyVersion int `json:"key_version"`

	// Nonce is the random 12-byte GCM nonce used for this record only.
	Nonce []byte `json:"nonce"`

	// Ciphertext is the sealed payload including the GCM authentication tag.
	Ciphertext []byte `json:"ciphertext"`

	// CreatedAt is when the record was sealed.
	CreatedAt time.Time `json:"created_at"`

	// Metadata is the associated data the ciphertext is bound to. It is
	// authenticated but not encrypted; decryption fails if it is altered.
	Metadata string `json:"metadata,omitempty"`
}

// StoredEntry is a durable-store row: an encrypted payload addressed by
// namespace and id. Synced is advisory bookkeeping for reconciliation, not a
// correctness invariant of the store.
type StoredEntry struct {
	Namespace    string          `json:"namespace"`
	ID           string          `json:"id"`
	Payload      EncryptedRecord `json:"payload"`
	Synced       bool            `json:"synced"`
	LastModified time.Time       `json:"last_modified"`
}
