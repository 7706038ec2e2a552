// Package crypto seals tenant webhook secrets before they hit storage.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const keySize = 32

var (
	ErrInvalidKey  = errors.New("secretbox key must be 32 bytes")
	ErrCorruptBlob = errors.New("ciphertext is corrupt or was sealed with a different key")
)

// Box performs authenticated encryption with a single symmetric key.
type Box struct {
	key [keySize]byte
}

// NewBox builds a Box from a base64-encoded 32-byte key, typically
// sourced from the environment.
func NewBox(encodedKey string) (*Box, error) {
	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decoding secretbox key: %w", err)
	}
	if len(raw) != keySize {
		return nil, ErrInvalidKey
	}
	b := &Box{}
	copy(b.key[:], raw)
	return b, nil
}

// Seal encrypts plaintext and prepends the random nonce to the result.
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &b.key), nil
}

// Open decrypts a blob produced by Seal.
func (b *Box) Open(blob []byte) ([]byte, error) {
	if len(blob) < 24 {
		return nil, ErrCorruptBlob
	}
	var nonce [24]byte
	copy(nonce[:], blob[:24])
	plaintext, ok := secretbox.Open(nil, blob[24:], &nonce, &b.key)
	if !ok {
		return nil, ErrCorruptBlob
	}
	return plaintext, nil
}
