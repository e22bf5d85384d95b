package usm_test

import (
	"bytes"
	"testing"

	"github.com/vpbank/snmpagent/snmp/usm"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	user := testUser()
	salt, err := usm.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	plaintext := []byte("this is a BER-encoded scoped PDU of arbitrary length, not block aligned")

	ciphertext, err := usm.Encrypt(user, 7, 12345, salt, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Fatal("ciphertext must differ from plaintext")
	}

	decrypted, err := usm.Decrypt(user, 7, 12345, salt, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Fatalf("got %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptDecrypt_RoundTripEmptyPlaintext(t *testing.T) {
	user := testUser()
	salt, err := usm.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	ciphertext, err := usm.Encrypt(user, 1, 1, salt, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	decrypted, err := usm.Decrypt(user, 1, 1, salt, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(decrypted) != 0 {
		t.Fatalf("got %d bytes, want 0", len(decrypted))
	}
}

func TestDecrypt_WrongSaltProducesDifferentPlaintext(t *testing.T) {
	user := testUser()
	salt, err := usm.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	plaintext := []byte("secret scoped pdu bytes")
	ciphertext, err := usm.Encrypt(user, 1, 1, salt, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	wrongSalt := append([]byte(nil), salt...)
	wrongSalt[0] ^= 0xFF
	decrypted, err := usm.Decrypt(user, 1, 1, wrongSalt, ciphertext)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if bytes.Equal(decrypted, plaintext) {
		t.Fatal("decrypting with the wrong salt must not recover the original plaintext")
	}
}

func TestEncrypt_RejectsShortPrivKey(t *testing.T) {
	user := testUser()
	user.PrivKey = user.PrivKey[:8]
	salt, err := usm.NewSalt()
	if err != nil {
		t.Fatalf("NewSalt: %v", err)
	}
	if _, err := usm.Encrypt(user, 1, 1, salt, []byte("x")); err == nil {
		t.Fatal("Encrypt must reject a privacy key shorter than 16 bytes")
	}
}
