package vault

import (
	"bytes"
	"testing"
)

func TestGenerateSalt_LengthAndRandomness(t *testing.T) {
	kc := newKeyChain(KDFParams{})

	s1, err := kc.generateSalt()
	if err != nil {
		t.Fatalf("generateSalt error: %v", err)
	}
	s2, err := kc.generateSalt()
	if err != nil {
		t.Fatalf("generateSalt error: %v", err)
	}

	if len(s1) != 16 {
		t.Fatalf("salt length = %d, want 16", len(s1))
	}
	if bytes.Equal(s1, s2) {
		t.Fatalf("expected salts to differ, but they are equal")
	}
}

func TestDeriveKey_DeterministicForSameInputs(t *testing.T) {
	kc := fastKeyChain()

	secret := "correct-horse"
	salt := bytes.Repeat([]byte{0xAB}, 16)

	k1 := kc.deriveKey(secret, salt)
	k2 := kc.deriveKey(secret, salt)

	if len(k1) != 32 {
		t.Fatalf("key length = %d, want 32", len(k1))
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected keys to match for same secret+salt")
	}
}

func TestDeriveKey_DifferentSaltProducesDifferentKey(t *testing.T) {
	kc := fastKeyChain()

	secret := "same secret"
	k1 := kc.deriveKey(secret, bytes.Repeat([]byte{0x01}, 16))
	k2 := kc.deriveKey(secret, bytes.Repeat([]byte{0x02}, 16))

	if bytes.Equal(k1, k2) {
		t.Fatalf("expected different salts to produce different keys")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	kc := fastKeyChain()
	key := kc.deriveKey("secret", bytes.Repeat([]byte{0x03}, 16))

	plaintext := []byte(`{"painLevel":7}`)
	nonce, ciphertext, err := kc.seal(key, plaintext, "entries:1")
	if err != nil {
		t.Fatalf("seal error: %v", err)
	}
	if len(nonce) != 12 {
		t.Fatalf("nonce length = %d, want 12", len(nonce))
	}

	got, err := kc.open(key, nonce, ciphertext, "entries:1")
	if err != nil {
		t.Fatalf("open error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q want %q", got, plaintext)
	}
}

func TestOpen_WrongAADFails(t *testing.T) {
	kc := fastKeyChain()
	key := kc.deriveKey("secret", bytes.Repeat([]byte{0x04}, 16))

	nonce, ciphertext, err := kc.seal(key, []byte("payload"), "entries:1")
	if err != nil {
		t.Fatalf("seal error: %v", err)
	}

	if _, err := kc.open(key, nonce, ciphertext, "entries:2"); err == nil {
		t.Fatal("expected open with wrong aad to fail")
	}
}

func TestOpen_BadNonceLengthFails(t *testing.T) {
	kc := fastKeyChain()
	key := kc.deriveKey("secret", bytes.Repeat([]byte{0x05}, 16))

	_, ciphertext, err := kc.seal(key, []byte("payload"), "")
	if err != nil {
		t.Fatalf("seal error: %v", err)
	}

	if _, err := kc.open(key, []byte{0x01, 0x02}, ciphertext, ""); err == nil {
		t.Fatal("expected open with short nonce to fail")
	}
}

// fastKeyChain trims the Argon2id cost so the test suite stays quick.
func fastKeyChain() *keyChain {
	return newKeyChain(KDFParams{Time: 1, MemoryKiB: 8 * 1024, Threads: 1})
}
