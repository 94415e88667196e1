// Package crypto provides reversible encryption for national identifiers.
// Ciphertexts are stored in the local patient cache so identifiers can be
// matched and cross-referenced later; decisions never depend on them.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// Cipher performs AES-256-GCM encryption and decryption of national IDs.
// The key is process-wide, loaded once at startup; rotation is out of scope.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a 32-byte AES-256 key.
func New(key []byte) (*Cipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("national id cipher: key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("national id cipher: create cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("national id cipher: create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// NewFromString derives a Cipher from a base64-encoded key, falling back to
// the raw bytes when the string is exactly key-sized. Keeps env wiring simple.
func NewFromString(key string) (*Cipher, error) {
	if decoded, err := base64.StdEncoding.DecodeString(key); err == nil && len(decoded) == 32 {
		return New(decoded)
	}
	return New([]byte(key))
}

// Encrypt encrypts a plain national ID and returns a base64-encoded
// ciphertext with the nonce prepended.
func (c *Cipher) Encrypt(plainID string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("national id encrypt: generate nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, so the result is nonce + ciphertext.
	sealed := c.aead.Seal(nonce, nonce, []byte(plainID), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt, authenticating the ciphertext in the process.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("national id decrypt: base64 decode: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("national id decrypt: ciphertext too short")
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("national id decrypt: %w", err)
	}
	return string(plain), nil
}
