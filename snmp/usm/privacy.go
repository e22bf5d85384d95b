package usm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/vpbank/snmpagent/models"
)

// PrivParamsLen is the wire size of the privacyParameters salt.
const PrivParamsLen = 8

// buildIV constructs the AES-128-CFB initialization vector from the
// authoritative engine's boot/time counters and the 8-byte salt carried in
// privacyParameters (spec.md §4.4.2):
//
//	IV = engineBoots(4B BE) || engineTime(4B BE) || salt(8B)
func buildIV(engineBoots, engineTime int32, salt []byte) ([]byte, error) {
	if len(salt) != PrivParamsLen {
		return nil, fmt.Errorf("usm: privacy salt length %d, want %d", len(salt), PrivParamsLen)
	}
	iv := make([]byte, aes.BlockSize)
	binary.BigEndian.PutUint32(iv[0:4], uint32(engineBoots))
	binary.BigEndian.PutUint32(iv[4:8], uint32(engineTime))
	copy(iv[8:16], salt)
	return iv, nil
}

// NewSalt generates a fresh 8-byte privacyParameters salt for an outgoing
// encrypted message.
func NewSalt() ([]byte, error) {
	salt := make([]byte, PrivParamsLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("usm: generating privacy salt: %w", err)
	}
	return salt, nil
}

// Encrypt AES-128-CFB-encrypts plaintext (a BER-encoded ScopedPDU) using the
// user's privacy key and the given boot/time counters and salt.
func Encrypt(user *models.User, engineBoots, engineTime int32, salt, plaintext []byte) ([]byte, error) {
	if len(user.PrivKey) < 16 {
		return nil, fmt.Errorf("usm: privacy key too short (%d bytes)", len(user.PrivKey))
	}
	block, err := aes.NewCipher(user.PrivKey[:16])
	if err != nil {
		return nil, fmt.Errorf("usm: aes cipher: %w", err)
	}
	iv, err := buildIV(engineBoots, engineTime, salt)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	cipher.NewCFBEncrypter(block, iv).XORKeyStream(out, plaintext)
	return out, nil
}

// Decrypt reverses Encrypt: the same key and IV construction, with a CFB
// decrypter in place of the encrypter.
func Decrypt(user *models.User, engineBoots, engineTime int32, salt, ciphertext []byte) ([]byte, error) {
	if len(user.PrivKey) < 16 {
		return nil, fmt.Errorf("usm: privacy key too short (%d bytes)", len(user.PrivKey))
	}
	block, err := aes.NewCipher(user.PrivKey[:16])
	if err != nil {
		return nil, fmt.Errorf("usm: aes cipher: %w", err)
	}
	iv, err := buildIV(engineBoots, engineTime, salt)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCFBDecrypter(block, iv).XORKeyStream(out, ciphertext)
	return out, nil
}
