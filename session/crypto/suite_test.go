package crypto

import (
	"bytes"
	"testing"
)

// TestEncryptDecryptRoundTrip tests that plaintext survives the cipher
func TestEncryptDecryptRoundTrip(t *testing.T) {
	auth, err := DeriveKeys([]byte("shared-secret-from-handshake"))
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}

	suite := NewSuite()
	plaintexts := [][]byte{
		[]byte(""),
		[]byte("x"),
		[]byte("exactly sixteen!"),
		bytes.Repeat([]byte{0xab}, 1000),
	}

	for i, plaintext := range plaintexts {
		ciphertext, err := suite.Encrypt(plaintext, auth.EncKey)
		if err != nil {
			t.Errorf("Failed to encrypt plaintext %d: %v", i, err)
			continue
		}

		if bytes.Contains(ciphertext, plaintext) && len(plaintext) > 0 {
			t.Errorf("Ciphertext %d contains plaintext", i)
		}

		decrypted, err := suite.Decrypt(ciphertext, auth.EncKey)
		if err != nil {
			t.Errorf("Failed to decrypt ciphertext %d: %v", i, err)
			continue
		}

		if !bytes.Equal(plaintext, decrypted) {
			t.Errorf("Plaintext %d round trip mismatch", i)
		}
	}
}

// TestDecryptRejectsTamperedCiphertext tests padding validation
func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	auth, err := DeriveKeys([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}

	suite := NewSuite()
	ciphertext, err := suite.Encrypt([]byte("hello"), auth.EncKey)
	if err != nil {
		t.Fatalf("Failed to encrypt: %v", err)
	}

	// Truncated ciphertext must fail
	if _, err := suite.Decrypt(ciphertext[:len(ciphertext)-1], auth.EncKey); err == nil {
		t.Error("Expected error for truncated ciphertext")
	}
}

// TestSignVerify tests the keyed signature
func TestSignVerify(t *testing.T) {
	auth, err := DeriveKeys([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}

	suite := NewSuite()
	data := []byte("some ciphertext bytes")
	sig := suite.Sign(data, auth.MacKey)

	if len(sig) != suite.SignatureSize() {
		t.Errorf("Expected signature of %d bytes, got %d", suite.SignatureSize(), len(sig))
	}

	if !suite.Verify(data, sig, auth.MacKey) {
		t.Error("Expected signature to verify")
	}

	sig[0] ^= 0xff
	if suite.Verify(data, sig, auth.MacKey) {
		t.Error("Expected tampered signature to fail verification")
	}
}

// TestDeriveKeysIsDeterministic tests that the same secret yields the same keys
func TestDeriveKeysIsDeterministic(t *testing.T) {
	a, err := DeriveKeys([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}
	b, err := DeriveKeys([]byte("secret"))
	if err != nil {
		t.Fatalf("Failed to derive keys: %v", err)
	}

	if !bytes.Equal(a.EncKey, b.EncKey) || !bytes.Equal(a.MacKey, b.MacKey) {
		t.Error("Expected identical keys for identical secrets")
	}

	if bytes.Equal(a.EncKey, a.MacKey) {
		t.Error("Expected distinct enc and mac keys")
	}
}
